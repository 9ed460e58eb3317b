package experiment

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// WriteDot renders the experiment's selection-cycle chain as a Graphviz dot
// file at path: one record node per cycle carrying its final counters, with
// an edge from each cycle to its NextCycle.
func (e *Experiment) WriteDot(path string) error {
	return WriteDotSummaries(e.Snapshot().Cycles, path)
}

// WriteDotSummaries renders a previously snapshotted cycle chain as a
// Graphviz dot file, without requiring the Experiment that produced it: a
// `dot` invocation redraws the graph from a file a `parse` run left behind,
// handing off state between subcommands through files rather than shared
// memory.
func WriteDotSummaries(cycles []CycleSummary, path string) error {
	ordered := append([]CycleSummary(nil), cycles...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Round < ordered[j].Round })

	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	for _, c := range ordered {
		attr := map[string]string{
			"shape": "record",
			"label": fmt.Sprintf("\"{%s|round %d|total %d|unique %d}\"", c.Name, c.Round, c.TotalSize, c.UniqueSize),
		}
		switch {
		case c.ControlSelection:
			attr["color"] = "Blue"
		case c.CounterSelection:
			attr["color"] = "Red"
		default:
			attr["color"] = "Green"
		}
		if err := g.AddNode("G", summaryNodeID(c), attr); err != nil {
			return fmt.Errorf("experiment: add node for cycle %q: %w", c.Name, err)
		}
	}

	for i := 1; i < len(ordered); i++ {
		if err := g.AddEdge(summaryNodeID(ordered[i-1]), summaryNodeID(ordered[i]), true, nil); err != nil {
			return fmt.Errorf("experiment: add edge %q -> %q: %w", ordered[i-1].Name, ordered[i].Name, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("experiment: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(g.String()); err != nil {
		return fmt.Errorf("experiment: write %s: %w", path, err)
	}
	return nil
}

func summaryNodeID(c CycleSummary) string {
	return strconv.Itoa(c.Round)
}
