package cycle

import (
	"sync"
	"testing"

	"aptaplex/pool"
)

func TestAddIncrementsCountersAndUniqueness(t *testing.T) {
	p := pool.New(16)
	c := New("round0", 0, false, false, p)

	id1 := c.AddOne([]byte("ACGT"), 0, 4)
	id2 := c.AddOne([]byte("ACGT"), 0, 4) // duplicate
	id3 := c.AddOne([]byte("TTTT"), 0, 4)

	if id1 != id2 {
		t.Fatalf("same sequence got different ids: %d != %d", id1, id2)
	}
	if id1 == id3 {
		t.Fatalf("distinct sequences got the same id")
	}

	if got := c.Cardinality(id1); got != 2 {
		t.Errorf("cardinality(id1) = %d, want 2", got)
	}
	if got := c.Cardinality(id3); got != 1 {
		t.Errorf("cardinality(id3) = %d, want 1", got)
	}
	if got := c.Size(); got != 3 {
		t.Errorf("totalSize = %d, want 3", got)
	}
	if got := c.UniqueSize(); got != 2 {
		t.Errorf("uniqueSize = %d, want 2", got)
	}
}

func TestContains(t *testing.T) {
	p := pool.New(16)
	c := New("round0", 0, false, false, p)
	id := c.AddOne([]byte("ACGT"), 0, 4)

	if !c.Contains(id) {
		t.Errorf("expected cycle to contain registered id")
	}
	if c.Contains(id + 1000) {
		t.Errorf("unregistered id reported present")
	}
	if !c.ContainsSeq([]byte("ACGT")) {
		t.Errorf("expected ContainsSeq to find the registered sequence")
	}
}

func TestBarcodeDefensiveCopies(t *testing.T) {
	p := pool.New(16)
	c := New("round0", 0, false, false, p)

	barcode := []byte("GATTACA")
	c.SetBarcode5Prime(barcode)
	barcode[0] = 'X' // mutate caller's copy after storing

	got := c.Barcode5Prime()
	if string(got) != "GATTACA" {
		t.Fatalf("barcode mutated through caller's slice: got %q", got)
	}

	got[0] = 'Z' // mutate the returned copy
	got2 := c.Barcode5Prime()
	if string(got2) != "GATTACA" {
		t.Fatalf("barcode mutated through returned slice: got %q", got2)
	}
}

func TestNextPreviousCycleSkipsNils(t *testing.T) {
	p := pool.New(16)
	c0 := New("round0", 0, false, false, p)
	c2 := New("round2", 2, false, false, p)
	c4 := New("round4", 4, false, false, p)
	list := List{c0, nil, c2, nil, c4}

	if got := list.NextCycle(c0); got != c2 {
		t.Errorf("NextCycle(c0) = %v, want c2", got)
	}
	if got := list.NextCycle(c2); got != c4 {
		t.Errorf("NextCycle(c2) = %v, want c4", got)
	}
	if got := list.NextCycle(c4); got != nil {
		t.Errorf("NextCycle(c4) = %v, want nil", got)
	}
	if got := list.PreviousCycle(c4); got != c2 {
		t.Errorf("PreviousCycle(c4) = %v, want c2", got)
	}
	if got := list.PreviousCycle(c0); got != nil {
		t.Errorf("PreviousCycle(c0) = %v, want nil", got)
	}
}

func TestAddConcurrentSameSequenceCountsOnce(t *testing.T) {
	p := pool.New(16)
	c := New("round0", 0, false, false, p)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.AddOne([]byte("ACGTACGT"), 0, 8)
		}()
	}
	wg.Wait()

	if got := c.UniqueSize(); got != 1 {
		t.Errorf("uniqueSize = %d, want 1", got)
	}
	if got := c.Size(); got != n {
		t.Errorf("totalSize = %d, want %d", got, n)
	}
}
