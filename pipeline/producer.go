package pipeline

import (
	"fmt"
	"io"
	"log"

	"aptaplex/config"
	"aptaplex/cycle"
	"aptaplex/ioreader"
)

// logEvery controls how often the producer reports progress while reading,
// independent of any consumer-side reporting.
const logEvery = 100000

// RunProducer drains every configured forward/reverse file pair in order,
// enriching each raw record into a Read, and enqueues it on q. In per-file
// mode every read drawn from file pair i is pre-assigned cycles[i]; the
// cycle is left nil otherwise, for the consumer to determine via barcode
// matching. A single poison pill is enqueued once every file has been
// drained.
func RunProducer(q *Queue, opt config.Options, cycles cycle.List) error {
	defer q.PutPoison()

	var total uint64
	for i, fwdPath := range opt.ForwardFiles {
		revPath := ""
		if i < len(opt.ReverseFiles) {
			revPath = opt.ReverseFiles[i]
		}

		if err := drainFile(q, fwdPath, revPath, i, opt, cycles, &total); err != nil {
			return fmt.Errorf("pipeline: producer: %w", err)
		}
	}

	log.Printf("[RunProducer] finished: %d reads read from %d file(s)\n", total, len(opt.ForwardFiles))
	return nil
}

func drainFile(q *Queue, fwdPath, revPath string, fileIndex int, opt config.Options, cycles cycle.List, total *uint64) error {
	r, err := ioreader.NewFASTQ(fwdPath, revPath)
	if err != nil {
		return err
	}
	defer r.Close()

	var assigned *cycle.Cycle
	if opt.IsPerFile && fileIndex < len(cycles) {
		assigned = cycles[fileIndex]
	}

	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[RunProducer] %s: %v, stopping this file's production\n", fwdPath, err)
			break
		}

		read := &Read{
			ForwardSeq:  rec.ForwardSeq,
			ForwardQual: decodeQuality(rec.ForwardQual),
			SourcePaths: sourcePaths(fwdPath, revPath),
			Cycle:       assigned,
		}
		if rec.ReverseSeq != nil {
			read.ReverseSeq = rec.ReverseSeq
			read.ReverseQual = decodeQuality(rec.ReverseQual)
		}

		q.Put(read)

		*total++
		if *total%logEvery == 0 {
			log.Printf("[RunProducer] %d reads read so far\n", *total)
		}
	}

	return nil
}

func sourcePaths(fwd, rev string) []string {
	if rev == "" {
		return []string{fwd}
	}
	return []string{fwd, rev}
}
