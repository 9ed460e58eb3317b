// Package experiment wires the pool, selection cycles, metadata
// accumulators, and run-time progress counters into one runnable unit, and
// drives the producer/consumer join barrier that ends a run.
package experiment

import (
	"fmt"
	"sync"

	"aptaplex/config"
	"aptaplex/cycle"
	"aptaplex/merge"
	"aptaplex/metadata"
	"aptaplex/pipeline"
	"aptaplex/pool"
	"aptaplex/seq"
)

// CycleSpec describes one selection cycle slot before the backing pool and
// count maps exist.
type CycleSpec struct {
	Name             string
	Round            int
	ControlSelection bool
	CounterSelection bool
	Barcode5Prime    []byte
	Barcode3Prime    []byte
}

// Experiment bundles the four concurrent data structures a run shares
// across every consumer goroutine.
type Experiment struct {
	Pool     *pool.Pool
	Cycles   cycle.List
	Metadata *metadata.Metadata
	Progress *pipeline.Progress
}

// New builds an Experiment from its cycle specs. poolSizeHint sizes the
// pool's probabilistic pre-filter; 0 lets pool.New pick its own floor.
func New(specs []CycleSpec, poolSizeHint uint64) *Experiment {
	p := pool.New(poolSizeHint)

	maxRound := -1
	for _, s := range specs {
		if s.Round > maxRound {
			maxRound = s.Round
		}
	}

	cycles := make(cycle.List, maxRound+1)
	for _, s := range specs {
		c := cycle.New(s.Name, s.Round, s.ControlSelection, s.CounterSelection, p)
		if s.Barcode5Prime != nil {
			c.SetBarcode5Prime(s.Barcode5Prime)
		}
		if s.Barcode3Prime != nil {
			c.SetBarcode3Prime(s.Barcode3Prime)
		}
		cycles[s.Round] = c
	}

	return &Experiment{
		Pool:     p,
		Cycles:   cycles,
		Metadata: metadata.New(),
		Progress: &pipeline.Progress{},
	}
}

// ConsumerOptions translates run configuration plus this experiment's cycle
// list into the options every consumer goroutine shares.
func (e *Experiment) ConsumerOptions(opt config.Options) pipeline.ConsumerOptions {
	return pipeline.ConsumerOptions{
		Primer5:                    opt.Primer5,
		Primer5Reversed:            seq.Reverse(append([]byte(nil), opt.Primer5...)),
		Primer3:                    opt.Primer3,
		ExactSize:                  opt.RandomizedRegionSize,
		LowerBound:                 opt.RandomizedRegionLowerBound,
		UpperBound:                 opt.RandomizedRegionUpperBound,
		HasExactSize:               opt.HasExactSize(),
		BatchMode:                  opt.BatchMode,
		OnlyRandomizedRegionInData: opt.OnlyRandomizedRegionInData,
		IsPerFile:                  opt.IsPerFile,
		StoreReverseComplement:     opt.StoreReverseComplement,
		CheckReverseComplement:     opt.CheckReverseComplement,
		PrimerTolerance:            opt.PrimerTolerance,
		BarcodeTolerance:           opt.BarcodeTolerance,
		MergeOpts: merge.Options{
			MinOverlap:    opt.PairedEndMinOverlap,
			MaxMutations:  opt.PairedEndMaxMutations,
			MaxScoreValue: opt.PairedEndMaxScoreValue,
		},
		Cycles: e.Cycles,
	}
}

// Run validates opt, starts numConsumers consumer goroutines, drives the
// producer to completion, waits for the join barrier, and marks the pool
// read-only. It returns once the run has fully drained.
func (e *Experiment) Run(opt config.Options, numConsumers int) error {
	if err := config.Validate(opt); err != nil {
		return err
	}
	if numConsumers < 1 {
		numConsumers = 1
	}

	queueSize := opt.BlockingQueueSize
	if queueSize < 1 {
		queueSize = 20000
	}
	q := pipeline.NewQueue(queueSize)
	copt := e.ConsumerOptions(opt)

	var wg sync.WaitGroup
	wg.Add(numConsumers)
	for i := 0; i < numConsumers; i++ {
		go func() {
			defer wg.Done()
			pipeline.RunConsumer(q, e.Progress, e.Metadata, copt)
		}()
	}

	if err := pipeline.RunProducer(q, opt, e.Cycles); err != nil {
		wg.Wait()
		return fmt.Errorf("experiment: %w", err)
	}

	wg.Wait()
	e.Pool.SetReadOnly()
	return nil
}
