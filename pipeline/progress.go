package pipeline

import "sync/atomic"

// Progress tallies parsing outcomes as the run proceeds. Each counter is its
// own atomic field rather than a single lock-guarded struct, since every
// consumer goroutine touches a different counter on nearly every read and a
// shared lock would serialize what is otherwise embarrassingly parallel
// work.
type Progress struct {
	processed          uint64
	accepted           uint64
	contigAssemblyFail uint64
	invalidAlphabet    uint64
	unmatched5Prime    uint64
	unmatched3Prime    uint64
	invalidCycle       uint64
	primerOverlaps     uint64
}

func (p *Progress) incProcessed()          { atomic.AddUint64(&p.processed, 1) }
func (p *Progress) incAccepted()           { atomic.AddUint64(&p.accepted, 1) }
func (p *Progress) incContigAssemblyFail() { atomic.AddUint64(&p.contigAssemblyFail, 1) }
func (p *Progress) incInvalidAlphabet()    { atomic.AddUint64(&p.invalidAlphabet, 1) }
func (p *Progress) incUnmatched5Prime()    { atomic.AddUint64(&p.unmatched5Prime, 1) }
func (p *Progress) decUnmatched5Prime()    { atomic.AddUint64(&p.unmatched5Prime, ^uint64(0)) }
func (p *Progress) incUnmatched3Prime()    { atomic.AddUint64(&p.unmatched3Prime, 1) }
func (p *Progress) decUnmatched3Prime()    { atomic.AddUint64(&p.unmatched3Prime, ^uint64(0)) }
func (p *Progress) incInvalidCycle()       { atomic.AddUint64(&p.invalidCycle, 1) }
func (p *Progress) decInvalidCycle()       { atomic.AddUint64(&p.invalidCycle, ^uint64(0)) }
func (p *Progress) incPrimerOverlaps()     { atomic.AddUint64(&p.primerOverlaps, 1) }
func (p *Progress) decPrimerOverlaps()     { atomic.AddUint64(&p.primerOverlaps, ^uint64(0)) }

// Processed, Accepted, ContigAssemblyFail, InvalidAlphabet, Unmatched5Prime,
// Unmatched3Prime, InvalidCycle, and PrimerOverlaps return the current
// counter values.
func (p *Progress) Processed() uint64          { return atomic.LoadUint64(&p.processed) }
func (p *Progress) Accepted() uint64           { return atomic.LoadUint64(&p.accepted) }
func (p *Progress) ContigAssemblyFail() uint64 { return atomic.LoadUint64(&p.contigAssemblyFail) }
func (p *Progress) InvalidAlphabet() uint64    { return atomic.LoadUint64(&p.invalidAlphabet) }
func (p *Progress) Unmatched5Prime() uint64    { return atomic.LoadUint64(&p.unmatched5Prime) }
func (p *Progress) Unmatched3Prime() uint64    { return atomic.LoadUint64(&p.unmatched3Prime) }
func (p *Progress) InvalidCycle() uint64       { return atomic.LoadUint64(&p.invalidCycle) }
func (p *Progress) PrimerOverlaps() uint64     { return atomic.LoadUint64(&p.primerOverlaps) }
