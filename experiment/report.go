package experiment

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CycleSummary is one cycle's final counters, snapshotted after a run
// completes. It carries enough to redraw the selection-cycle graph without
// the Experiment that produced it, via WriteCycleSummaries/ReadCycleSummaries.
type CycleSummary struct {
	Name             string
	Round            int
	ControlSelection bool
	CounterSelection bool
	TotalSize        uint32
	UniqueSize       uint32
}

// Report is the final, read-only snapshot of a completed run.
type Report struct {
	Processed          uint64
	Accepted           uint64
	ContigAssemblyFail uint64
	InvalidAlphabet    uint64
	Unmatched5Prime    uint64
	Unmatched3Prime    uint64
	InvalidCycle       uint64
	PrimerOverlaps     uint64

	PoolSize int
	Cycles   []CycleSummary
}

// Snapshot reads every counter and cycle total once. Like pool.Iterate and
// cycle.Iterate, a fully consistent view is only guaranteed once Run has
// returned.
func (e *Experiment) Snapshot() Report {
	r := Report{
		Processed:          e.Progress.Processed(),
		Accepted:           e.Progress.Accepted(),
		ContigAssemblyFail: e.Progress.ContigAssemblyFail(),
		InvalidAlphabet:    e.Progress.InvalidAlphabet(),
		Unmatched5Prime:    e.Progress.Unmatched5Prime(),
		Unmatched3Prime:    e.Progress.Unmatched3Prime(),
		InvalidCycle:       e.Progress.InvalidCycle(),
		PrimerOverlaps:     e.Progress.PrimerOverlaps(),
		PoolSize:           e.Pool.Size(),
	}

	for _, c := range e.Cycles {
		if c == nil {
			continue
		}
		r.Cycles = append(r.Cycles, CycleSummary{
			Name:             c.Name(),
			Round:            c.Round(),
			ControlSelection: c.ControlSelection(),
			CounterSelection: c.CounterSelection(),
			TotalSize:        c.Size(),
			UniqueSize:       c.UniqueSize(),
		})
	}

	return r
}

// String renders the report in the bracket-tagged, one-line-per-fact style
// used throughout the run's own progress logging.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Report] processed:%d accepted:%d poolSize:%d\n", r.Processed, r.Accepted, r.PoolSize)
	fmt.Fprintf(&b, "[Report] contigAssemblyFail:%d invalidAlphabet:%d unmatched5Prime:%d unmatched3Prime:%d invalidCycle:%d primerOverlaps:%d\n",
		r.ContigAssemblyFail, r.InvalidAlphabet, r.Unmatched5Prime, r.Unmatched3Prime, r.InvalidCycle, r.PrimerOverlaps)
	for _, c := range r.Cycles {
		fmt.Fprintf(&b, "[Report] cycle:%s round:%d totalSize:%d uniqueSize:%d\n", c.Name, c.Round, c.TotalSize, c.UniqueSize)
	}
	return b.String()
}

// WriteCycleSummaries persists the cycle chain from a completed run to a
// plain `key=value`-per-line file, one line per cycle, so a later `dot`
// invocation can redraw the graph without rerunning the pipeline.
func WriteCycleSummaries(path string, cycles []CycleSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("experiment: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, c := range cycles {
		fmt.Fprintf(w, "round=%d name=%s control=%t counter=%t total=%d unique=%d\n",
			c.Round, c.Name, c.ControlSelection, c.CounterSelection, c.TotalSize, c.UniqueSize)
	}
	return w.Flush()
}

// ReadCycleSummaries reads back a file written by WriteCycleSummaries.
func ReadCycleSummaries(path string) ([]CycleSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("experiment: opening %s: %w", path, err)
	}
	defer f.Close()

	var out []CycleSummary
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c, err := parseCycleSummaryLine(line)
		if err != nil {
			return nil, fmt.Errorf("experiment: %s: %w", path, err)
		}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("experiment: reading %s: %w", path, err)
	}
	return out, nil
}

func parseCycleSummaryLine(line string) (CycleSummary, error) {
	var c CycleSummary
	for _, field := range strings.Fields(line) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return CycleSummary{}, fmt.Errorf("malformed field %q, expected key=value", field)
		}
		var err error
		switch key {
		case "round":
			c.Round, err = strconv.Atoi(value)
		case "name":
			c.Name = value
		case "control":
			c.ControlSelection, err = strconv.ParseBool(value)
		case "counter":
			c.CounterSelection, err = strconv.ParseBool(value)
		case "total":
			var n uint64
			n, err = strconv.ParseUint(value, 10, 32)
			c.TotalSize = uint32(n)
		case "unique":
			var n uint64
			n, err = strconv.ParseUint(value, 10, 32)
			c.UniqueSize = uint32(n)
		default:
			return CycleSummary{}, fmt.Errorf("unrecognized field %q", key)
		}
		if err != nil {
			return CycleSummary{}, fmt.Errorf("field %q: %w", field, err)
		}
	}
	return c, nil
}
