package pipeline

import (
	"testing"

	"aptaplex/cycle"
	"aptaplex/match"
	"aptaplex/merge"
	"aptaplex/metadata"
	"aptaplex/pool"
	"aptaplex/seq"
)

func newTestCycle(name string, round int) (*cycle.Cycle, *pool.Pool) {
	p := pool.New(16)
	return cycle.New(name, round, false, false, p), p
}

func reversedPrimer(p string) []byte {
	return seq.Reverse([]byte(p))
}

// S1: single-end, batch mode, exact size 4.
func TestScenarioS1BatchMode(t *testing.T) {
	c, p := newTestCycle("cycle0", 0)
	md := metadata.New()
	progress := &Progress{}

	copt := ConsumerOptions{
		BatchMode:    true,
		HasExactSize: true,
		ExactSize:    4,
	}

	read := &Read{ForwardSeq: []byte("ACGT"), ForwardQual: []byte{30, 30, 30, 30}, Cycle: c}
	processRead(read, progress, md, copt)

	if progress.Accepted() != 1 {
		t.Fatalf("accepted = %d, want 1", progress.Accepted())
	}
	if p.Size() != 1 {
		t.Fatalf("pool size = %d, want 1", p.Size())
	}
	if got := c.Cardinality(1); got != 1 {
		t.Fatalf("cycle0[1] = %d, want 1", got)
	}
	if c.Size() != 1 {
		t.Fatalf("totalSize = %d, want 1", c.Size())
	}
	if c.UniqueSize() != 1 {
		t.Fatalf("uniqueSize = %d, want 1", c.UniqueSize())
	}
}

// S2: single-end, full mode, invalid alphabet short-circuits before any
// primer search.
func TestScenarioS2InvalidAlphabet(t *testing.T) {
	c, _ := newTestCycle("cycle0", 0)
	md := metadata.New()
	progress := &Progress{}

	copt := ConsumerOptions{
		Primer5:         []byte("AC"),
		Primer5Reversed: reversedPrimer("AC"),
		Primer3:         []byte("GT"),
		HasExactSize:    true,
		ExactSize:       2,
		IsPerFile:       true,
	}

	read := &Read{ForwardSeq: []byte("ACNNGT"), ForwardQual: []byte{30, 30, 30, 30, 30, 30}, Cycle: c}
	processRead(read, progress, md, copt)

	if progress.Accepted() != 0 {
		t.Fatalf("accepted = %d, want 0", progress.Accepted())
	}
	if progress.InvalidAlphabet() != 1 {
		t.Fatalf("invalidAlphabet = %d, want 1", progress.InvalidAlphabet())
	}
}

// S3: single-end, full mode, exact extraction with bounds recorded on the
// stored sequence.
func TestScenarioS3FullExtraction(t *testing.T) {
	c, p := newTestCycle("cycle0", 0)
	md := metadata.New()
	progress := &Progress{}

	copt := ConsumerOptions{
		Primer5:         []byte("AC"),
		Primer5Reversed: reversedPrimer("AC"),
		Primer3:         []byte("GT"),
		HasExactSize:    true,
		ExactSize:       2,
		IsPerFile:       true,
	}

	read := &Read{ForwardSeq: []byte("ACAAGT"), ForwardQual: []byte{30, 30, 30, 30, 30, 30}, Cycle: c}
	processRead(read, progress, md, copt)

	if progress.Accepted() != 1 {
		t.Fatalf("accepted = %d, want 1", progress.Accepted())
	}

	id, ok := p.LookupId([]byte("ACAAGT"))
	if !ok {
		t.Fatalf("expected ACAAGT to be registered")
	}
	bounds, ok := p.LookupBounds(id)
	if !ok {
		t.Fatalf("expected bounds for id %d", id)
	}
	if bounds.Start != 2 || bounds.End != 4 {
		t.Errorf("bounds = [%d,%d), want [2,4)", bounds.Start, bounds.End)
	}
}

// S4: paired-end assembly produces the expected consensus contig.
func TestScenarioS4PairedAssembly(t *testing.T) {
	read := &Read{
		ForwardSeq:  []byte("ACGTAC"),
		ForwardQual: []byte{40, 40, 40, 40, 40, 40},
		ReverseSeq:  []byte("GTACGT"),
		ReverseQual: []byte{40, 40, 40, 40, 40, 40},
	}
	copt := ConsumerOptions{
		MergeOpts: merge.Options{MinOverlap: 4, MaxMutations: 0, MaxScoreValue: 40},
	}

	contig, ok := assembleContig(read, copt)
	if !ok {
		t.Fatalf("expected successful assembly")
	}
	if string(contig) != "ACGTAC" {
		t.Errorf("contig = %q, want ACGTAC", contig)
	}
}

// S5: primer tolerance boundary behaviour on both sides.
func TestScenarioS5PrimerTolerance(t *testing.T) {
	baseOpts := func(c *cycle.Cycle) ConsumerOptions {
		return ConsumerOptions{
			Primer5:         []byte("ACGT"),
			Primer5Reversed: reversedPrimer("ACGT"),
			Primer3:         []byte("TTTT"),
			PrimerTolerance: 1,
			IsPerFile:       true,
			Cycles:          cycle.List{c},
		}
	}

	t.Run("primer5 one mismatch within tolerance", func(t *testing.T) {
		c, _ := newTestCycle("cycle0", 0)
		md := metadata.New()
		progress := &Progress{}
		read := &Read{ForwardSeq: []byte("GCGTAAAATTTT"), ForwardQual: make([]byte, 12), Cycle: c}
		for i := range read.ForwardQual {
			read.ForwardQual[i] = 30
		}
		processRead(read, progress, md, baseOpts(c))
		if progress.Accepted() != 1 {
			t.Fatalf("accepted = %d, want 1 (primer5 mismatch within tolerance)", progress.Accepted())
		}
	})

	t.Run("primer3 one mismatch within tolerance", func(t *testing.T) {
		c, _ := newTestCycle("cycle0", 0)
		md := metadata.New()
		progress := &Progress{}
		read := &Read{ForwardSeq: []byte("ACGTAAAATATT"), ForwardQual: make([]byte, 12), Cycle: c}
		for i := range read.ForwardQual {
			read.ForwardQual[i] = 30
		}
		processRead(read, progress, md, baseOpts(c))
		if progress.Accepted() != 1 {
			t.Fatalf("accepted = %d, want 1 (primer3 mismatch within tolerance)", progress.Accepted())
		}
	})

	t.Run("primer3 two mismatches exceeds tolerance", func(t *testing.T) {
		c, _ := newTestCycle("cycle0", 0)
		md := metadata.New()
		progress := &Progress{}
		read := &Read{ForwardSeq: []byte("ACGTAAAATAAT"), ForwardQual: make([]byte, 12), Cycle: c}
		for i := range read.ForwardQual {
			read.ForwardQual[i] = 30
		}
		processRead(read, progress, md, baseOpts(c))
		if progress.Accepted() != 0 {
			t.Fatalf("accepted = %d, want 0", progress.Accepted())
		}
		if progress.Unmatched3Prime() != 1 {
			t.Fatalf("unmatched3Prime = %d, want 1", progress.Unmatched3Prime())
		}
	})
}

func TestQueuePoisonPillRepropagates(t *testing.T) {
	q := NewQueue(4)
	q.PutPoison()

	_, poison := q.Take()
	if !poison {
		t.Fatalf("expected poison on first take")
	}
	q.PutPoison() // simulate a consumer's re-enqueue

	_, poison = q.Take()
	if !poison {
		t.Fatalf("expected poison to survive a second take after re-enqueue")
	}
}

func TestQueueOrderPreserved(t *testing.T) {
	q := NewQueue(4)
	r1 := &Read{ForwardSeq: []byte("A")}
	r2 := &Read{ForwardSeq: []byte("B")}
	q.Put(r1)
	q.Put(r2)

	got1, poison := q.Take()
	if poison || got1 != r1 {
		t.Fatalf("expected r1 first")
	}
	got2, poison := q.Take()
	if poison || got2 != r2 {
		t.Fatalf("expected r2 second")
	}
}

// Processed always equals accepted plus every failure counter: no read
// vanishes without being attributed to exactly one outcome.
func TestProgressProcessedEqualsOutcomeSum(t *testing.T) {
	c, _ := newTestCycle("cycle0", 0)
	md := metadata.New()
	progress := &Progress{}

	copt := ConsumerOptions{
		Primer5:         []byte("AC"),
		Primer5Reversed: reversedPrimer("AC"),
		Primer3:         []byte("GT"),
		HasExactSize:    true,
		ExactSize:       2,
		IsPerFile:       true,
	}

	reads := [][]byte{
		[]byte("ACAAGT"), // accepted
		[]byte("ACNNGT"), // invalid alphabet
		[]byte("TTAAGT"), // unmatched5 (no AC anywhere within tolerance 0)
	}
	for _, s := range reads {
		q := make([]byte, len(s))
		copy(q, s)
		for i := range q {
			q[i] = 30
		}
		processRead(&Read{ForwardSeq: s, ForwardQual: q, Cycle: c}, progress, md, copt)
	}

	sum := progress.Accepted() + progress.ContigAssemblyFail() + progress.InvalidAlphabet() +
		progress.Unmatched5Prime() + progress.Unmatched3Prime() + progress.InvalidCycle() + progress.PrimerOverlaps()
	if sum != progress.Processed() {
		t.Fatalf("processed = %d, sum of outcomes = %d", progress.Processed(), sum)
	}
}

func TestMatchBarcodesRequiresAgreementBetweenSides(t *testing.T) {
	c0, _ := newTestCycle("cycle0", 0)
	c1, _ := newTestCycle("cycle1", 1)
	c0.SetBarcode5Prime([]byte("AAAA"))
	c1.SetBarcode3Prime([]byte("TTTT"))

	copt := ConsumerOptions{Cycles: cycle.List{c0, c1}, BarcodeTolerance: 0}

	// "AAAA" (c0's 5' barcode) immediately followed by "TTTT" (c1's 3'
	// barcode): each side picks a different cycle, so the read must be
	// rejected rather than assigned to either.
	contig := []byte("AAAATTTT")
	primer5Match := match.Result{Index: 4}
	primer3Match := match.Result{Index: 4}

	if got := matchBarcodes(contig, primer5Match, primer3Match, true, copt); got != nil {
		t.Fatalf("expected nil cycle when 5' and 3' barcodes disagree, got %v", got)
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                   string
		idx1, len1, idx2, len2 int
		want                   bool
	}{
		// primer5 match [0,4), primer3 match [2,8): a textbook half-open
		// overlap test would say true, but the literal formula this is
		// grounded on says false.
		{"adjacent-with-textbook-overlap", 0, 4, 2, 6, false},
		{"identical-spans", 0, 4, 0, 4, true},
		{"first-contains-second", 0, 8, 2, 3, true},
		{"disjoint", 0, 4, 10, 4, false},
		// The formula is asymmetric: match1 merely touching match2's start
		// (without match1's end reaching past match2's end, and without
		// match1's start falling inside match2's span) reports no overlap.
		{"shared-boundary-not-contained", 0, 4, 3, 4, false},
		{"shared-boundary-reversed-args", 3, 4, 0, 4, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlaps(tc.idx1, tc.len1, tc.idx2, tc.len2); got != tc.want {
				t.Errorf("overlaps(%d,%d,%d,%d) = %v, want %v", tc.idx1, tc.len1, tc.idx2, tc.len2, got, tc.want)
			}
		})
	}
}
