// Package metadata implements the concurrent per-position accumulators
// that record quality and nucleotide-composition statistics alongside the
// pool and cycle counters: additional information about the experiment that
// is not required for parsing itself but is of interest once it completes.
package metadata

import (
	"sync"
	"sync/atomic"
)

// Accumulator is a running sum/count pair for one nucleotide position's
// quality scores. Both fields are updated with sync/atomic, so Accumulator
// needs no lock of its own.
type Accumulator struct {
	sum uint64
	n   uint64
}

// Add records one quality observation (already decoded from +33 ASCII).
func (a *Accumulator) Add(q byte) {
	atomic.AddUint64(&a.sum, uint64(q))
	atomic.AddUint64(&a.n, 1)
}

// Mean returns sum/n, or 0 if no observations have been recorded.
func (a *Accumulator) Mean() float64 {
	n := atomic.LoadUint64(&a.n)
	if n == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&a.sum)) / float64(n)
}

// Sum and N expose the raw accumulator state.
func (a *Accumulator) Sum() uint64 { return atomic.LoadUint64(&a.sum) }
func (a *Accumulator) N() uint64   { return atomic.LoadUint64(&a.n) }

// NucCounts tallies the five symbols a read position can hold, each updated
// with sync/atomic.
type NucCounts struct {
	a, c, g, t, n uint64
}

// Add increments the count for base b ('A', 'C', 'G', 'T', or 'N'; any other
// byte is folded into N).
func (nc *NucCounts) Add(b byte) {
	switch b {
	case 'A':
		atomic.AddUint64(&nc.a, 1)
	case 'C':
		atomic.AddUint64(&nc.c, 1)
	case 'G':
		atomic.AddUint64(&nc.g, 1)
	case 'T':
		atomic.AddUint64(&nc.t, 1)
	default:
		atomic.AddUint64(&nc.n, 1)
	}
}

// Snapshot returns a copy of the current counts as a map, matching the
// {A,C,G,T,N -> count} shape described by the accumulator contract.
func (nc *NucCounts) Snapshot() map[byte]uint64 {
	return map[byte]uint64{
		'A': atomic.LoadUint64(&nc.a),
		'C': atomic.LoadUint64(&nc.c),
		'G': atomic.LoadUint64(&nc.g),
		'T': atomic.LoadUint64(&nc.t),
		'N': atomic.LoadUint64(&nc.n),
	}
}

// positionQuality is cycle name -> position -> accumulator, allocated
// lazily on first write.
type positionQuality struct {
	mu   sync.RWMutex
	byCycle map[string]map[int]*Accumulator
}

func newPositionQuality() *positionQuality {
	return &positionQuality{byCycle: make(map[string]map[int]*Accumulator)}
}

func (p *positionQuality) Add(cycle string, position int, q byte) {
	p.accumulator(cycle, position).Add(q)
}

func (p *positionQuality) accumulator(cycle string, position int) *Accumulator {
	p.mu.RLock()
	inner, ok := p.byCycle[cycle]
	if ok {
		a, ok := inner[position]
		p.mu.RUnlock()
		if ok {
			return a
		}
	} else {
		p.mu.RUnlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	inner, ok = p.byCycle[cycle]
	if !ok {
		inner = make(map[int]*Accumulator)
		p.byCycle[cycle] = inner
	}
	a, ok := inner[position]
	if !ok {
		a = &Accumulator{}
		inner[position] = a
	}
	return a
}

func (p *positionQuality) Get(cycle string, position int) (*Accumulator, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inner, ok := p.byCycle[cycle]
	if !ok {
		return nil, false
	}
	a, ok := inner[position]
	return a, ok
}

// positionNucs is cycle name -> position -> nucleotide counts.
type positionNucs struct {
	mu      sync.RWMutex
	byCycle map[string]map[int]*NucCounts
}

func newPositionNucs() *positionNucs {
	return &positionNucs{byCycle: make(map[string]map[int]*NucCounts)}
}

func (p *positionNucs) Add(cycle string, position int, b byte) {
	p.counts(cycle, position).Add(b)
}

func (p *positionNucs) counts(cycle string, position int) *NucCounts {
	p.mu.RLock()
	inner, ok := p.byCycle[cycle]
	if ok {
		c, ok := inner[position]
		p.mu.RUnlock()
		if ok {
			return c
		}
	} else {
		p.mu.RUnlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	inner, ok = p.byCycle[cycle]
	if !ok {
		inner = make(map[int]*NucCounts)
		p.byCycle[cycle] = inner
	}
	c, ok := inner[position]
	if !ok {
		c = &NucCounts{}
		inner[position] = c
	}
	return c
}

func (p *positionNucs) Get(cycle string, position int) (*NucCounts, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inner, ok := p.byCycle[cycle]
	if !ok {
		return nil, false
	}
	c, ok := inner[position]
	return c, ok
}

// acceptedNucs is cycle name -> randomized-region length -> position ->
// nucleotide counts, indexed into the *extracted* region rather than the
// original read.
type acceptedNucs struct {
	mu      sync.RWMutex
	byCycle map[string]map[int]map[int]*NucCounts
}

func newAcceptedNucs() *acceptedNucs {
	return &acceptedNucs{byCycle: make(map[string]map[int]map[int]*NucCounts)}
}

func (a *acceptedNucs) Add(cycle string, rrLength, position int, b byte) {
	a.counts(cycle, rrLength, position).Add(b)
}

func (a *acceptedNucs) counts(cycle string, rrLength, position int) *NucCounts {
	a.mu.Lock()
	defer a.mu.Unlock()
	byLen, ok := a.byCycle[cycle]
	if !ok {
		byLen = make(map[int]map[int]*NucCounts)
		a.byCycle[cycle] = byLen
	}
	byPos, ok := byLen[rrLength]
	if !ok {
		byPos = make(map[int]*NucCounts)
		byLen[rrLength] = byPos
	}
	c, ok := byPos[position]
	if !ok {
		c = &NucCounts{}
		byPos[position] = c
	}
	return c
}

func (a *acceptedNucs) Get(cycle string, rrLength, position int) (*NucCounts, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	byLen, ok := a.byCycle[cycle]
	if !ok {
		return nil, false
	}
	byPos, ok := byLen[rrLength]
	if !ok {
		return nil, false
	}
	c, ok := byPos[position]
	return c, ok
}

// Metadata bundles the three accumulator families the parser updates per
// read: quality, raw nucleotide distribution (forward/reverse), and the
// nucleotide distribution of accepted, extracted randomized regions.
type Metadata struct {
	QualityForward *positionQuality
	QualityReverse *positionQuality

	NucleotideForward *positionNucs
	NucleotideReverse *positionNucs

	NucleotideAccepted *acceptedNucs
}

// New creates an empty metadata bundle. Cycle names are allocated lazily on
// first write rather than pre-seeded, since neither representation changes
// observable behaviour and lazy allocation avoids needing the cycle list
// up front.
func New() *Metadata {
	return &Metadata{
		QualityForward:     newPositionQuality(),
		QualityReverse:     newPositionQuality(),
		NucleotideForward:  newPositionNucs(),
		NucleotideReverse:  newPositionNucs(),
		NucleotideAccepted: newAcceptedNucs(),
	}
}
