package pipeline

import (
	"log"

	"aptaplex/cycle"
	"aptaplex/match"
	"aptaplex/merge"
	"aptaplex/metadata"
	"aptaplex/seq"
)

// ConsumerOptions carries every configuration value a consumer needs to
// assemble, validate, and extract a read's randomized region. It is derived
// once from config.Options by the experiment that wires up a run.
type ConsumerOptions struct {
	Primer5         []byte
	Primer5Reversed []byte
	Primer3         []byte

	ExactSize   int
	LowerBound  int
	UpperBound  int
	HasExactSize bool

	BatchMode                  bool
	OnlyRandomizedRegionInData bool
	IsPerFile                  bool
	StoreReverseComplement     bool
	CheckReverseComplement     bool

	PrimerTolerance  int
	BarcodeTolerance int

	MergeOpts merge.Options

	// Cycles is the experiment's cycle list, consulted for barcode
	// demultiplexing when IsPerFile is false.
	Cycles cycle.List
}

// Verbose gates per-read recoverable-error logging. Per-read errors are
// always recovered locally and reflected in the progress counters
// regardless of this flag; when Verbose is set, each discarded read is also
// logged at debug volume, which a production run leaves off to avoid one
// log line per rejected read.
var Verbose bool

// outcome classifies how a single extraction attempt resolved.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeSilentDiscard
	outcomeUnmatched5
	outcomeUnmatched3
	outcomeInvalidCycle
	outcomePrimerOverlap
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeSilentDiscard:
		return "silentDiscard"
	case outcomeUnmatched5:
		return "unmatched5Prime"
	case outcomeUnmatched3:
		return "unmatched3Prime"
	case outcomeInvalidCycle:
		return "invalidCycle"
	case outcomePrimerOverlap:
		return "primerOverlap"
	default:
		return "unknown"
	}
}

// logDiscard logs a single recoverable-error read when Verbose is set; it is
// a no-op otherwise, per the debug-volume gating policy.
func logDiscard(read *Read, reason string) {
	if !Verbose {
		return
	}
	log.Printf("[processRead] discarding read from %v: %s\n", read.SourcePaths, reason)
}

// RunConsumer pulls reads from q until the poison pill is observed, at which
// point it is re-enqueued for the next consumer and RunConsumer returns.
// Every read is processed under panic recovery so a single malformed read
// cannot bring down the whole run.
func RunConsumer(q *Queue, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) {
	for {
		read, poison := q.Take()
		if poison {
			q.PutPoison()
			return
		}
		processRead(read, progress, md, copt)
	}
}

func processRead(read *Read, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[RunConsumer] recovered from panic processing read from %v: %v\n", read.SourcePaths, r)
		}
	}()

	progress.incProcessed()

	contig, ok := assembleContig(read, copt)
	if !ok {
		progress.incContigAssemblyFail()
		logDiscard(read, "contigAssemblyFail")
		return
	}

	if !seq.ValidAlphabet(contig) {
		progress.incInvalidAlphabet()
		logDiscard(read, "invalidAlphabet")
		return
	}

	switch {
	case copt.BatchMode:
		processBatchMode(read, contig, progress, md, copt)
	case copt.OnlyRandomizedRegionInData:
		processRandomizedRegionOnly(read, contig, progress, md, copt)
	default:
		processFullMode(read, contig, progress, md, copt)
	}
}

func assembleContig(read *Read, copt ConsumerOptions) ([]byte, bool) {
	if !read.Paired() {
		return read.ForwardSeq, true
	}
	contig, _, ok := merge.Merge(read.ForwardSeq, read.ForwardQual, read.ReverseSeq, read.ReverseQual, copt.MergeOpts)
	return contig, ok
}

// processBatchMode treats the whole contig as the randomized region: no
// primer search, just a size check and registration.
func processBatchMode(read *Read, contig []byte, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) {
	if !sizeWithinBounds(len(contig), copt) {
		progress.incContigAssemblyFail()
		logDiscard(read, "contigAssemblyFail")
		return
	}

	targetCycle := read.Cycle
	if targetCycle == nil {
		progress.incInvalidCycle()
		logDiscard(read, "invalidCycle")
		return
	}

	stored := contig
	start, end := 0, len(contig)
	if copt.StoreReverseComplement {
		stored = seq.ReverseComplement(contig)
		start, end = 0, len(stored)
	}

	targetCycle.AddOne(stored, start, end)
	addAcceptedDistribution(md, targetCycle.Name(), contig, 0, len(contig))
	addNucleotideDistributions(md, targetCycle.Name(), read)
	addQualityScores(md, targetCycle.Name(), read)
	progress.incAccepted()
}

// processRandomizedRegionOnly reattaches the configured primers around a
// contig that already holds only the randomized region, then proceeds like
// a full extraction whose boundaries are known in advance.
func processRandomizedRegionOnly(read *Read, contigRR []byte, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) {
	full := make([]byte, 0, len(copt.Primer5)+len(contigRR)+len(copt.Primer3))
	full = append(full, copt.Primer5...)
	full = append(full, contigRR...)
	full = append(full, copt.Primer3...)

	start := len(copt.Primer5)
	end := start + len(contigRR)

	if !sizeWithinBounds(end-start, copt) {
		progress.incContigAssemblyFail()
		logDiscard(read, "contigAssemblyFail")
		return
	}

	targetCycle := read.Cycle
	if targetCycle == nil {
		progress.incInvalidCycle()
		logDiscard(read, "invalidCycle")
		return
	}

	stored := full
	if copt.StoreReverseComplement {
		stored = seq.ReverseComplement(full)
		start = len(stored) - end
		end = len(stored) - len(copt.Primer5)
	}

	targetCycle.AddOne(stored, start, end)
	addAcceptedDistribution(md, targetCycle.Name(), full, len(copt.Primer5), len(copt.Primer5)+len(contigRR))
	addNucleotideDistributions(md, targetCycle.Name(), read)
	addQualityScores(md, targetCycle.Name(), read)
	progress.incAccepted()
}

// processFullMode runs the primer/barcode extraction pipeline against the
// contig, retrying against its reverse complement if the first attempt
// fails and retrying is enabled. Exactly one failure counter, at most, ends
// up incremented net of the retry: once the retry has run, the first
// attempt's counter is decremented back out, and only a failed retry's own
// outcome is counted.
func processFullMode(read *Read, contig []byte, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) {
	first := tryFullExtract(read, contig, progress, md, copt)
	if first == outcomeSuccess {
		return
	}
	incrementOutcome(progress, first)

	if !copt.CheckReverseComplement {
		logDiscard(read, first.String())
		return
	}

	rc := seq.ReverseComplement(contig)
	second := tryFullExtract(read, rc, progress, md, copt)
	decrementOutcome(progress, first)
	if second == outcomeSuccess {
		return
	}
	incrementOutcome(progress, second)
	logDiscard(read, second.String())
}

func incrementOutcome(progress *Progress, o outcome) {
	switch o {
	case outcomeUnmatched5:
		progress.incUnmatched5Prime()
	case outcomeUnmatched3:
		progress.incUnmatched3Prime()
	case outcomeInvalidCycle:
		progress.incInvalidCycle()
	case outcomePrimerOverlap:
		progress.incPrimerOverlaps()
	}
}

func decrementOutcome(progress *Progress, o outcome) {
	switch o {
	case outcomeUnmatched5:
		progress.decUnmatched5Prime()
	case outcomeUnmatched3:
		progress.decUnmatched3Prime()
	case outcomeInvalidCycle:
		progress.decInvalidCycle()
	case outcomePrimerOverlap:
		progress.decPrimerOverlaps()
	}
}

// tryFullExtract attempts one full primer+barcode+extraction pass against
// contig. On success it performs the registration and metadata bookkeeping
// itself and returns outcomeSuccess.
func tryFullExtract(read *Read, contig []byte, progress *Progress, md *metadata.Metadata, copt ConsumerOptions) outcome {
	primer5Match, ok := match.FindPrimer5(contig, copt.Primer5Reversed, copt.PrimerTolerance)
	if !ok {
		return outcomeUnmatched5
	}

	havePrimer3 := len(copt.Primer3) > 0
	var primer3Match match.Result
	if havePrimer3 {
		primer3Match, ok = match.FindPrimer3(contig, copt.Primer3, copt.PrimerTolerance, primer5Match.Index)
		if !ok {
			return outcomeUnmatched3
		}
	}

	var targetCycle *cycle.Cycle
	if copt.IsPerFile {
		targetCycle = read.Cycle
	} else {
		targetCycle = matchBarcodes(contig, primer5Match, primer3Match, havePrimer3, copt)
		read.Cycle = targetCycle
	}
	if targetCycle == nil {
		return outcomeInvalidCycle
	}

	if havePrimer3 && overlaps(primer5Match.Index, len(copt.Primer5), primer3Match.Index, len(copt.Primer3)) {
		return outcomePrimerOverlap
	}

	rrStart := primer5Match.Index + len(copt.Primer5)
	var rrEnd int
	if havePrimer3 {
		rrEnd = primer3Match.Index
	} else {
		rrEnd = rrStart + copt.ExactSize
	}

	if !validExtraction(contig, rrStart, rrEnd, havePrimer3, copt) {
		switch {
		case rrStart-len(copt.Primer5) < 0:
			return outcomeUnmatched5
		case havePrimer3 && rrEnd+len(copt.Primer3) > len(contig):
			return outcomeUnmatched3
		default:
			return outcomeSilentDiscard
		}
	}

	extractStart := rrStart - len(copt.Primer5)
	extractEnd := rrEnd
	if havePrimer3 {
		extractEnd = rrEnd + len(copt.Primer3)
	}
	extracted := append([]byte(nil), contig[extractStart:extractEnd]...)

	var boundsStart, boundsEnd int
	var stored []byte
	if copt.StoreReverseComplement {
		stored = seq.ReverseComplement(extracted)
		boundsStart = len(stored) - len(copt.Primer5) - (rrEnd - rrStart)
		boundsEnd = len(stored) - len(copt.Primer5)
		targetCycle.AddOne(stored, boundsStart, boundsEnd)
		addAcceptedDistribution(md, targetCycle.Name(), stored, boundsStart, boundsEnd)
	} else {
		stored = extracted
		boundsStart = len(copt.Primer5)
		boundsEnd = len(copt.Primer5) + (rrEnd - rrStart)
		targetCycle.AddOne(stored, boundsStart, boundsEnd)
		addAcceptedDistribution(md, targetCycle.Name(), contig, rrStart, rrEnd)
	}

	addNucleotideDistributions(md, targetCycle.Name(), read)
	addQualityScores(md, targetCycle.Name(), read)
	progress.incAccepted()
	return outcomeSuccess
}

// matchBarcodes finds, for each side that has any barcoded cycle configured,
// the cycle whose barcode gives the strictly lowest mismatch count in the
// appropriate flanking window. A tie on either side, or disagreement
// between the two sides' winners, rejects the read rather than guessing.
func matchBarcodes(contig []byte, primer5Match, primer3Match match.Result, havePrimer3 bool, copt ConsumerOptions) *cycle.Cycle {
	var have5, have3 bool
	best5Idx, best5Errs := -1, -1
	best3Idx, best3Errs := -1, -1

	for i, c := range copt.Cycles {
		if c == nil {
			continue
		}
		if bc := c.Barcode5Prime(); bc != nil {
			have5 = true
			if res, ok := match.Find(contig, bc, copt.BarcodeTolerance, 0, primer5Match.Index); ok {
				if best5Idx == -1 || res.Errors < best5Errs {
					best5Errs = res.Errors
					best5Idx = i
				} else if res.Errors == best5Errs {
					best5Idx = -2 // tie: disqualify without losing the "a candidate existed" signal
				}
			}
		}
		if havePrimer3 {
			if bc := c.Barcode3Prime(); bc != nil {
				have3 = true
				start := primer3Match.Index + len(copt.Primer3)
				if res, ok := match.Find(contig, bc, copt.BarcodeTolerance, start, len(contig)); ok {
					if best3Idx == -1 || res.Errors < best3Errs {
						best3Errs = res.Errors
						best3Idx = i
					} else if res.Errors == best3Errs {
						best3Idx = -2
					}
				}
			}
		}
	}

	switch {
	case have5 && have3:
		if best5Idx >= 0 && best5Idx == best3Idx {
			return copt.Cycles[best5Idx]
		}
		return nil
	case have5:
		if best5Idx >= 0 {
			return copt.Cycles[best5Idx]
		}
		return nil
	case have3:
		if best3Idx >= 0 {
			return copt.Cycles[best3Idx]
		}
		return nil
	default:
		return nil
	}
}

// overlaps replicates AptaPlexConsumer.isOverlapped's literal formula: the
// first match's end at or past the second's start (and at or past its end),
// or the first match's start within the second's span. This is not the
// textbook half-open-interval overlap test and does not agree with it on
// every input; the literal formula is what the primer-overlap check is
// grounded on and is preserved as-is.
func overlaps(idx1, len1, idx2, len2 int) bool {
	end1 := idx1 + len1 - 1
	end2 := idx2 + len2 - 1
	return (end1 >= idx2 && end1 >= end2) || (idx1 <= end2 && idx1 >= idx2)
}

func validExtraction(contig []byte, rrStart, rrEnd int, havePrimer3 bool, copt ConsumerOptions) bool {
	if rrStart < 0 || rrEnd > len(contig) || rrStart >= rrEnd {
		return false
	}
	if rrStart-len(copt.Primer5) < 0 {
		return false
	}
	if havePrimer3 && rrEnd+len(copt.Primer3) > len(contig) {
		return false
	}
	return sizeWithinBounds(rrEnd-rrStart, copt)
}

func sizeWithinBounds(rrSize int, copt ConsumerOptions) bool {
	if copt.HasExactSize {
		return rrSize == copt.ExactSize
	}
	if copt.LowerBound > 0 && copt.UpperBound > 0 {
		return rrSize >= copt.LowerBound && rrSize <= copt.UpperBound
	}
	return true
}

func addAcceptedDistribution(md *metadata.Metadata, cycleName string, s []byte, start, end int) {
	rrLen := end - start
	for i, pos := start, 0; i < end; i, pos = i+1, pos+1 {
		md.NucleotideAccepted.Add(cycleName, rrLen, pos, s[i])
	}
}

func addNucleotideDistributions(md *metadata.Metadata, cycleName string, read *Read) {
	for i, b := range read.ForwardSeq {
		md.NucleotideForward.Add(cycleName, i, b)
	}
	for i, b := range read.ReverseSeq {
		md.NucleotideReverse.Add(cycleName, i, b)
	}
}

func addQualityScores(md *metadata.Metadata, cycleName string, read *Read) {
	for i, q := range read.ForwardQual {
		md.QualityForward.Add(cycleName, i, q)
	}
	for i, q := range read.ReverseQual {
		md.QualityReverse.Add(cycleName, i, q)
	}
}
