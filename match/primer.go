package match

import "aptaplex/seq"

// FindPrimer5 locates the 5' primer by searching the reversed contig against
// the reversed primer, anchoring the match near the 3' end of the contig,
// then translates the reported index back to the original orientation.
func FindPrimer5(contig, primer5Reversed []byte, maxErrors int) (Result, bool) {
	contigReversed := seq.Reverse(append([]byte(nil), contig...))
	res, ok := Find(contigReversed, primer5Reversed, maxErrors, 0, len(contigReversed))
	if !ok {
		return Result{}, false
	}
	res.Index = len(contig) - res.Index - len(primer5Reversed)
	return res, true
}

// FindPrimer3 locates the 3' primer in contig[start:]. The consumer passes
// the 5' primer's match index as start, so a 3' match may overlap the 5'
// primer; that case is caught afterwards by the primer-overlap check.
func FindPrimer3(contig, primer3 []byte, maxErrors, start int) (Result, bool) {
	return Find(contig, primer3, maxErrors, start, len(contig))
}
