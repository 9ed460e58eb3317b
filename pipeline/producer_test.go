package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"aptaplex/config"
	"aptaplex/cycle"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TestDrainFileStopsOnMalformedRecordWithoutFailingTheRun verifies that a
// truncated record ends that file's production (rather than looping forever
// or panicking) without treating the whole run as fatal: the well-formed
// record preceding the truncated one still reaches the queue.
func TestDrainFileStopsOnMalformedRecordWithoutFailingTheRun(t *testing.T) {
	dir := t.TempDir()
	// Second record is missing its quality line.
	path := writeFile(t, dir, "reads.fq", "@r1\nACGT\n+\nIIII\n@r2\nACGT\n+\n")

	q := NewQueue(10)
	opt := config.Options{ForwardFiles: []string{path}}

	if err := RunProducer(q, opt, cycle.List{}); err != nil {
		t.Fatalf("RunProducer returned an error for a mid-file malformed record: %v", err)
	}

	read, poison := q.Take()
	if poison {
		t.Fatalf("expected the well-formed record before the poison pill")
	}
	if string(read.ForwardSeq) != "ACGT" {
		t.Fatalf("read.ForwardSeq = %q, want ACGT", read.ForwardSeq)
	}

	_, poison = q.Take()
	if !poison {
		t.Fatalf("expected the poison pill immediately after the one good record")
	}
}

// TestDrainFileReadsToCleanEOF verifies the ordinary case: every well-formed
// record is enqueued and the run ends cleanly at EOF.
func TestDrainFileReadsToCleanEOF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "reads.fq", "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n")

	q := NewQueue(10)
	opt := config.Options{ForwardFiles: []string{path}}

	if err := RunProducer(q, opt, cycle.List{}); err != nil {
		t.Fatalf("RunProducer: %v", err)
	}

	seen := 0
	for {
		read, poison := q.Take()
		if poison {
			break
		}
		seen++
		_ = read
	}
	if seen != 2 {
		t.Fatalf("enqueued %d reads, want 2", seen)
	}
}
