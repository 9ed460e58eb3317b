package main

import (
	"fmt"
	"log"

	"github.com/jwaldrip/odin/cli"

	"aptaplex/config"
	"aptaplex/experiment"
	"aptaplex/pipeline"
)

var app = cli.New("1.0.0", "Concurrent SELEX read parser", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "aptaplex.cfg", "configure file")
	app.DefineStringFlag("p", "aptaplex", "prefix for the intermediate cycle-summary file parse writes and dot reads")
	app.DefineIntFlag("t", 1, "number of consumer goroutines")
	app.DefineBoolFlag("verbose", false, "log every discarded read at debug volume, not just its progress counter")

	app.DefineSubCommand("parse", "parse FASTQ reads into a counted, per-cycle aptamer pool", Parse)

	dot := app.DefineSubCommand("dot", "export the selection-cycle graph from a previous parse run", Dot)
	{
		dot.DefineStringFlag("o", "cycles.dot", "output dot file path")
	}
}

func main() {
	app.Start()
}

// Parse runs one end-to-end read-processing pass against the configured
// file and prints the final report. On success it also writes the
// selection-cycle summary used by the dot subcommand.
func Parse(c cli.Command) {
	pipeline.Verbose = c.Parent().Flag("verbose").Get().(bool)

	cfgPath := c.Parent().Flag("C").String()
	opt, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[Parse] %v\n", err)
	}

	specs := cycleSpecsFromOptions(opt)
	if len(specs) == 0 {
		log.Fatalf("[Parse] at least one cycle name is required (cycleNames in %s)\n", cfgPath)
	}

	poolHint := uint64(len(opt.ForwardFiles)) * 100000
	exp := experiment.New(specs, poolHint)

	numCPU := c.Parent().Flag("t").Get().(int)
	if err := exp.Run(opt, numCPU); err != nil {
		log.Fatalf("[Parse] run failed: %v\n", err)
	}

	report := exp.Snapshot()
	fmt.Print(report.String())

	summaryPath := c.Parent().Flag("p").String() + ".cycles"
	if err := experiment.WriteCycleSummaries(summaryPath, report.Cycles); err != nil {
		log.Fatalf("[Parse] writing cycle summary: %v\n", err)
	}
}

// Dot reads the cycle summary a prior parse run left behind and renders it
// as a Graphviz dot file, without rerunning the pipeline.
func Dot(c cli.Command) {
	summaryPath := c.Parent().Flag("p").String() + ".cycles"
	summaries, err := experiment.ReadCycleSummaries(summaryPath)
	if err != nil {
		log.Fatalf("[Dot] %v\n", err)
	}

	outPath := c.Flag("o").String()
	if err := experiment.WriteDotSummaries(summaries, outPath); err != nil {
		log.Fatalf("[Dot] writing %s: %v\n", outPath, err)
	}
}

func cycleSpecsFromOptions(opt config.Options) []experiment.CycleSpec {
	specs := make([]experiment.CycleSpec, 0, len(opt.CycleNames))
	for i, name := range opt.CycleNames {
		spec := experiment.CycleSpec{Name: name, Round: i}
		if i < len(opt.Barcodes5Prime) {
			spec.Barcode5Prime = opt.Barcodes5Prime[i]
		}
		if i < len(opt.Barcodes3Prime) {
			spec.Barcode3Prime = opt.Barcodes3Prime[i]
		}
		specs = append(specs, spec)
	}
	return specs
}
