// Package pool implements the aptamer pool: a concurrent content-addressed
// interning table mapping byte sequences to stable, dense integer IDs, with
// the randomized-region bounds recorded alongside each entry.
package pool

import "sync"

// Bounds is a half-open [Start, End) region within a pool entry's sequence.
type Bounds struct {
	Start int
	End   int
}

type entry struct {
	seq    []byte
	bounds Bounds
}

// Pool interns byte sequences into monotonically assigned IDs starting at 1.
// Registration is safe for concurrent use; lookups are safe during both the
// write and read-only phases.
type Pool struct {
	mu     sync.RWMutex
	bySeq  map[string]uint32
	byID   []entry // byID[i] holds the entry for id i+1
	filter *seenFilter

	readOnly bool
}

// New creates an empty pool. expectedItems sizes the probabilistic
// pre-filter; it is a hint, not a hard limit, and the filter degrades to
// more cuckoo kicks (not incorrect behaviour) if exceeded.
func New(expectedItems uint64) *Pool {
	if expectedItems < 16 {
		expectedItems = 16
	}
	return &Pool{
		bySeq:  make(map[string]uint32),
		filter: newSeenFilter(expectedItems),
	}
}

// Register returns the existing ID for seq if present, otherwise assigns the
// next ID and records rrStart/rrEnd as its randomized-region bounds.
// Concurrent calls with the same seq content return the same ID; only one
// new ID is consumed across any number of concurrent first-time callers.
//
// The seenFilter is consulted before taking the write lock: a filter miss
// sends seq straight to the write lock, which checks the map again before
// assigning an id, while duplicate registrations of already-common
// sequences can resolve under a read lock alone, without contending for the
// write lock that a brand-new sequence must take to insert.
func (p *Pool) Register(seq []byte, rrStart, rrEnd int) uint32 {
	key := string(seq)

	if p.filter.contains(seq) {
		p.mu.RLock()
		if id, ok := p.bySeq[key]; ok {
			p.mu.RUnlock()
			return id
		}
		p.mu.RUnlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.bySeq[key]; ok {
		return id
	}

	id := uint32(len(p.byID)) + 1
	stored := append([]byte(nil), seq...)
	p.byID = append(p.byID, entry{seq: stored, bounds: Bounds{Start: rrStart, End: rrEnd}})
	p.bySeq[key] = id
	p.filter.insert(seq)
	return id
}

// LookupId returns the ID registered for seq, if any.
func (p *Pool) LookupId(seq []byte) (uint32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.bySeq[string(seq)]
	return id, ok
}

// LookupSeq returns the sequence bytes registered under id, if any.
func (p *Pool) LookupSeq(id uint32) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entry(id)
	if !ok {
		return nil, false
	}
	return e.seq, true
}

// LookupBounds returns the randomized-region bounds recorded for id, if any.
func (p *Pool) LookupBounds(id uint32) (Bounds, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entry(id)
	if !ok {
		return Bounds{}, false
	}
	return e.bounds, true
}

func (p *Pool) entry(id uint32) (entry, bool) {
	if id < 1 || int(id) > len(p.byID) {
		return entry{}, false
	}
	return p.byID[id-1], true
}

// Size returns the number of interned sequences.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Iterate calls fn for every (id, seq, bounds) triple in ID order. It is
// only guaranteed to observe a consistent snapshot once the pool has
// entered its read-only phase; during the write phase it may miss entries
// registered concurrently with the call.
func (p *Pool) Iterate(fn func(id uint32, seq []byte, bounds Bounds)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, e := range p.byID {
		fn(uint32(i+1), e.seq, e.bounds)
	}
}

// SetReadOnly marks the pool as entering its read-only observation phase.
// The in-memory pool does not enforce this with locking, so Register
// remains callable; the flag exists for persistent-store variants that do
// need to switch access modes.
func (p *Pool) SetReadOnly() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readOnly = true
}

// SetReadWrite reverses SetReadOnly.
func (p *Pool) SetReadWrite() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readOnly = false
}

// ReadOnly reports the current phase.
func (p *Pool) ReadOnly() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.readOnly
}
