// Package seq provides byte-level DNA sequence helpers shared across the
// parsing pipeline: alphabet validation, reversal and reverse-complement.
package seq

// ValidBase reports whether b is one of the four unambiguous nucleotide
// codes the core accepts: A(65), C(67), G(71), T(84).
func ValidBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	default:
		return false
	}
}

// ValidAlphabet reports whether every byte in s is a valid base. An empty
// sequence is considered valid; callers that require non-empty contigs check
// length separately.
func ValidAlphabet(s []byte) bool {
	for _, b := range s {
		if !ValidBase(b) {
			return false
		}
	}
	return true
}

var complementTable = [256]byte{}

func init() {
	for i := range complementTable {
		complementTable[i] = byte(i)
	}
	complementTable['A'] = 'T'
	complementTable['T'] = 'A'
	complementTable['C'] = 'G'
	complementTable['G'] = 'C'
}

// Complement returns the Watson-Crick complement of a single base. Bytes
// outside {A,C,G,T} (e.g. N) pass through unchanged.
func Complement(b byte) byte {
	return complementTable[b]
}

// Reverse reverses s in place and returns it.
func Reverse(s []byte) []byte {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// ReverseComplement returns a new byte slice holding the reverse complement
// of s. s is not modified.
func ReverseComplement(s []byte) []byte {
	out := make([]byte, len(s))
	n := len(s)
	for i, b := range s {
		out[n-1-i] = complementTable[b]
	}
	return out
}
