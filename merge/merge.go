// Package merge implements the paired-end contig assembler: it merges a
// forward and reverse read into a consensus contig covering their overlap.
package merge

import "aptaplex/seq"

// Options configures the merger. All three fields are read from the
// experiment configuration.
type Options struct {
	MinOverlap    int // minOverlap
	MaxMutations  int // maxMutations, interpreted against MinOverlap as a ratio (see Merge)
	MaxScoreValue int // cap applied to consensus quality scores
}

// Merge attempts to assemble forward+reverse reads into an overlap
// consensus contig. Quality bytes are expected already decoded to Phred
// scores (not +33 ASCII); the returned quality slice is in the same
// representation. Returns ok=false when no overlap of length >= MinOverlap
// satisfies the acceptance threshold.
//
// Acceptance threshold: the source library (MiTools' MismatchOnlyPairedReadMerger)
// computes a single identity threshold from configuration,
// 1 - MaxMutations/MinOverlap, and requires each candidate overlap's
// identity (1 - mismatches/overlap) to meet it: equivalently,
// mismatches <= overlap * MaxMutations / MinOverlap. This scales the
// allowed mismatch count with the overlap length actually tried, rather
// than capping mismatches at the fixed value MaxMutations regardless of
// overlap length.
func Merge(fwdSeq, fwdQual, revSeq, revQual []byte, opt Options) (contig, quality []byte, ok bool) {
	rcSeq := seq.ReverseComplement(revSeq)
	rcQual := reverseQual(revQual)

	maxOverlap := len(fwdSeq)
	if len(rcSeq) < maxOverlap {
		maxOverlap = len(rcSeq)
	}
	if maxOverlap < opt.MinOverlap {
		return nil, nil, false
	}

	ratio := float64(opt.MaxMutations) / float64(opt.MinOverlap)

	for overlap := maxOverlap; overlap >= opt.MinOverlap; overlap-- {
		fwdTail := fwdSeq[len(fwdSeq)-overlap:]
		rcHead := rcSeq[:overlap]

		mismatches := 0
		for i := 0; i < overlap; i++ {
			if fwdTail[i] != rcHead[i] {
				mismatches++
			}
		}

		maxAllowed := ratio * float64(overlap)
		if float64(mismatches) > maxAllowed {
			continue
		}

		fwdQualTail := fwdQual[len(fwdQual)-overlap:]
		rcQualHead := rcQual[:overlap]
		return consensus(fwdTail, fwdQualTail, rcHead, rcQualHead, opt.MaxScoreValue), consensusQuality(fwdTail, fwdQualTail, rcHead, rcQualHead, opt.MaxScoreValue), true
	}

	return nil, nil, false
}

func reverseQual(q []byte) []byte {
	out := make([]byte, len(q))
	n := len(q)
	for i, b := range q {
		out[n-1-i] = b
	}
	return out
}

// consensus applies the SumSubtraction quality-merging rule: at each
// column, the higher-quality base wins. Ties keep the forward base.
func consensus(a, aq, b, bq []byte, maxScore int) []byte {
	out := make([]byte, len(a))
	for i := range a {
		if a[i] == b[i] {
			out[i] = a[i]
			continue
		}
		if aq[i] >= bq[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

func consensusQuality(a, aq, b, bq []byte, maxScore int) []byte {
	out := make([]byte, len(a))
	for i := range a {
		var q int
		if a[i] == b[i] {
			q = int(aq[i]) + int(bq[i])
		} else if aq[i] >= bq[i] {
			q = int(aq[i]) - int(bq[i])
		} else {
			q = int(bq[i]) - int(aq[i])
		}
		if q < 0 {
			q = 0
		}
		if q > maxScore {
			q = maxScore
		}
		out[i] = byte(q)
	}
	return out
}
