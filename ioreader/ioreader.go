// Package ioreader implements the read reader plugin contract: a lazy
// sequence of read records drawn from a forward file and an optional
// reverse file, with transparent gzip decompression.
package ioreader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Record is one raw read as drawn from the input files, before any
// pipeline processing.
type Record struct {
	ForwardSeq  []byte
	ForwardQual []byte
	ReverseSeq  []byte
	ReverseQual []byte
}

// Reader is the polymorphic reader capability set: open is implicit in the
// constructor, nextRead is Next, close is Close. A FASTA variant can
// satisfy the same interface as a sibling of the FASTQ reader below.
type Reader interface {
	// Next returns the next record, or io.EOF once the stream is
	// exhausted.
	Next() (*Record, error)
	Close() error
}

var gzipMagic = [2]byte{0x1f, 0x8b}

// openMaybeGzip opens path and returns a reader that transparently
// decompresses if the file's first two bytes are the gzip magic number;
// otherwise the raw bytes are returned unchanged. Detection never fails
// input that merely happens not to be compressed.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioreader: open %s: %w", path, err)
	}

	br := bufio.NewReaderSize(f, 1<<16)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("ioreader: sniff %s: %w", path, err)
	}

	if len(magic) == 2 && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		gr, gerr := gzip.NewReader(br)
		if gerr != nil {
			f.Close()
			return nil, fmt.Errorf("ioreader: gzip %s: %w", path, gerr)
		}
		return &gzipReadCloser{gz: gr, file: f}, nil
	}

	return &plainReadCloser{br: br, file: f}, nil
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipReadCloser) Close() error {
	g.gz.Close()
	return g.file.Close()
}

type plainReadCloser struct {
	br   *bufio.Reader
	file *os.File
}

func (p *plainReadCloser) Read(buf []byte) (int, error) { return p.br.Read(buf) }
func (p *plainReadCloser) Close() error                 { return p.file.Close() }
