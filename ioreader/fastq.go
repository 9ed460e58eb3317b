package ioreader

import (
	"bufio"
	"fmt"
	"io"
)

// FASTQReader draws four-line records (@header, sequence, '+', quality)
// from a forward stream and, if present, the same from a parallel reverse
// stream.
type FASTQReader struct {
	fwd       io.ReadCloser
	fwdScan   *bufio.Scanner
	rev       io.ReadCloser
	revScan   *bufio.Scanner
	forwardPath string
}

// NewFASTQ opens forwardPath (and, if non-empty, reversePath) and returns a
// reader positioned at the first record.
func NewFASTQ(forwardPath, reversePath string) (*FASTQReader, error) {
	fwd, err := openMaybeGzip(forwardPath)
	if err != nil {
		return nil, err
	}

	r := &FASTQReader{
		fwd:         fwd,
		fwdScan:     newLineScanner(fwd),
		forwardPath: forwardPath,
	}

	if reversePath != "" {
		rev, err := openMaybeGzip(reversePath)
		if err != nil {
			fwd.Close()
			return nil, err
		}
		r.rev = rev
		r.revScan = newLineScanner(rev)
	}

	return r, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return s
}

// Next returns the next record, or io.EOF once the forward stream is
// exhausted.
func (r *FASTQReader) Next() (*Record, error) {
	seq, qual, ok, err := readFourLines(r.fwdScan, r.forwardPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}

	rec := &Record{ForwardSeq: seq, ForwardQual: qual}

	if r.revScan != nil {
		rseq, rqual, ok, err := readFourLines(r.revScan, r.forwardPath)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("ioreader: reverse stream exhausted before forward stream for %s", r.forwardPath)
		}
		rec.ReverseSeq = rseq
		rec.ReverseQual = rqual
	}

	return rec, nil
}

// readFourLines consumes one FASTQ record from s: header, sequence, '+',
// quality. ok is false only when the stream was already exhausted (no
// partial record was read); a partial record (stream ends mid-record) is an
// error.
func readFourLines(s *bufio.Scanner, path string) (seq, qual []byte, ok bool, err error) {
	if !s.Scan() { // header
		if err := s.Err(); err != nil {
			return nil, nil, false, fmt.Errorf("ioreader: read %s: %w", path, err)
		}
		return nil, nil, false, nil
	}

	if !s.Scan() {
		return nil, nil, false, fmt.Errorf("ioreader: %s: truncated record (missing sequence line)", path)
	}
	seq = append([]byte(nil), s.Bytes()...)

	if !s.Scan() {
		return nil, nil, false, fmt.Errorf("ioreader: %s: truncated record (missing '+' line)", path)
	}

	if !s.Scan() {
		return nil, nil, false, fmt.Errorf("ioreader: %s: truncated record (missing quality line)", path)
	}
	qual = append([]byte(nil), s.Bytes()...)

	if len(qual) != len(seq) {
		return nil, nil, false, fmt.Errorf("ioreader: %s: sequence/quality length mismatch (%d vs %d)", path, len(seq), len(qual))
	}

	return seq, qual, true, nil
}

// Close releases the underlying file handles.
func (r *FASTQReader) Close() error {
	var firstErr error
	if err := r.fwd.Close(); err != nil {
		firstErr = err
	}
	if r.rev != nil {
		if err := r.rev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
