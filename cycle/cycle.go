// Package cycle implements the selection-cycle counters: each cycle owns a
// per-aptamer count map backed by the shared pool, plus two running totals.
package cycle

import (
	"sync"
	"sync/atomic"

	"aptaplex/pool"
)

// Cycle is one round of a SELEX experiment: a name, its round index, two
// selection-role flags, optional flanking barcodes, and the counts of every
// aptamer id registered against it.
type Cycle struct {
	name             string
	round            int
	controlSelection bool
	counterSelection bool

	pool *pool.Pool

	mu         sync.RWMutex
	counts     map[uint32]*uint32
	totalSize  uint32
	uniqueSize uint32

	barcodeMu    sync.Mutex
	barcode5Prime []byte
	barcode3Prime []byte
}

// New creates a cycle backed by p, at the given round index within its
// experiment's cycle list.
func New(name string, round int, isControl, isCounter bool, p *pool.Pool) *Cycle {
	return &Cycle{
		name:             name,
		round:            round,
		controlSelection: isControl,
		counterSelection: isCounter,
		pool:             p,
		counts:           make(map[uint32]*uint32),
	}
}

// Add registers seq in the backing pool, then atomically increments this
// cycle's counter for the resulting id by count. uniqueSize increments by
// one iff the counter transitioned from absent; totalSize increments by
// count unconditionally.
func (c *Cycle) Add(seq []byte, rrStart, rrEnd int, count uint32) uint32 {
	id := c.pool.Register(seq, rrStart, rrEnd)

	c.mu.Lock()
	counter, existed := c.counts[id]
	if !existed {
		n := count
		c.counts[id] = &n
		c.uniqueSize++
	}
	c.mu.Unlock()

	if existed {
		atomic.AddUint32(counter, count)
	}
	atomic.AddUint32(&c.totalSize, count)
	return id
}

// AddOne is Add with count=1, the common case.
func (c *Cycle) AddOne(seq []byte, rrStart, rrEnd int) uint32 {
	return c.Add(seq, rrStart, rrEnd, 1)
}

// Contains reports whether id has been registered in this cycle.
func (c *Cycle) Contains(id uint32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.counts[id]
	return ok
}

// ContainsSeq looks seq up in the backing pool first, then checks Contains.
func (c *Cycle) ContainsSeq(seq []byte) bool {
	id, ok := c.pool.LookupId(seq)
	if !ok {
		return false
	}
	return c.Contains(id)
}

// Cardinality returns id's count in this cycle, or 0 if absent.
func (c *Cycle) Cardinality(id uint32) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counter, ok := c.counts[id]
	if !ok {
		return 0
	}
	return atomic.LoadUint32(counter)
}

// CardinalitySeq is Cardinality via a pool lookup of seq.
func (c *Cycle) CardinalitySeq(seq []byte) uint32 {
	id, ok := c.pool.LookupId(seq)
	if !ok {
		return 0
	}
	return c.Cardinality(id)
}

// Size returns the sum of all counts registered in this cycle (totalSize).
func (c *Cycle) Size() uint32 {
	return atomic.LoadUint32(&c.totalSize)
}

// UniqueSize returns the number of distinct aptamer ids registered in this
// cycle (uniqueSize).
func (c *Cycle) UniqueSize() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uniqueSize
}

// Iterate calls fn for every (id, count) pair currently recorded. Like
// pool.Iterate, a fully consistent snapshot is only guaranteed once the
// cycle's experiment has entered its read-only phase.
func (c *Cycle) Iterate(fn func(id uint32, count uint32)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, counter := range c.counts {
		fn(id, atomic.LoadUint32(counter))
	}
}

// Name, Round, ControlSelection, and CounterSelection expose the cycle's
// static identity fields.
func (c *Cycle) Name() string             { return c.name }
func (c *Cycle) Round() int               { return c.round }
func (c *Cycle) ControlSelection() bool   { return c.controlSelection }
func (c *Cycle) CounterSelection() bool   { return c.counterSelection }

// SetBarcode5Prime and SetBarcode3Prime record the cycle's demultiplexing
// barcodes. Both store a defensive copy.
func (c *Cycle) SetBarcode5Prime(b []byte) {
	c.barcodeMu.Lock()
	defer c.barcodeMu.Unlock()
	c.barcode5Prime = append([]byte(nil), b...)
}

func (c *Cycle) SetBarcode3Prime(b []byte) {
	c.barcodeMu.Lock()
	defer c.barcodeMu.Unlock()
	c.barcode3Prime = append([]byte(nil), b...)
}

// Barcode5Prime and Barcode3Prime return defensive copies of the recorded
// barcodes, or nil if none was set.
func (c *Cycle) Barcode5Prime() []byte {
	c.barcodeMu.Lock()
	defer c.barcodeMu.Unlock()
	if c.barcode5Prime == nil {
		return nil
	}
	return append([]byte(nil), c.barcode5Prime...)
}

func (c *Cycle) Barcode3Prime() []byte {
	c.barcodeMu.Lock()
	defer c.barcodeMu.Unlock()
	if c.barcode3Prime == nil {
		return nil
	}
	return append([]byte(nil), c.barcode3Prime...)
}

// List is an experiment's ordered cycle slots, indexed by round; a nil
// element marks a round with no cycle. NextCycle/PreviousCycle walk it
// skipping nils, matching the source traversal rather than assuming
// adjacency.
type List []*Cycle

// NextCycle returns the next non-nil cycle after c's round, or nil.
func (l List) NextCycle(c *Cycle) *Cycle {
	for i := c.round + 1; i < len(l); i++ {
		if l[i] != nil {
			return l[i]
		}
	}
	return nil
}

// PreviousCycle returns the nearest non-nil cycle before c's round, or nil.
func (l List) PreviousCycle(c *Cycle) *Cycle {
	for i := c.round - 1; i >= 0; i-- {
		if l[i] != nil {
			return l[i]
		}
	}
	return nil
}
