// Package pipeline implements the producer/consumer parsing pipeline: reads
// are drawn from the configured input files by one producer, placed on a
// bounded queue, and processed by many consumers that assemble a contig,
// locate primers and barcodes, extract the randomized region, and register
// it in the aptamer pool.
package pipeline

import "aptaplex/cycle"

// Read is the unit of work passed from producer to consumer. Quality bytes
// are already decoded to Phred scores (not +33 ASCII) by the time a Read
// reaches the queue.
type Read struct {
	ForwardSeq  []byte
	ForwardQual []byte
	ReverseSeq  []byte // nil for single-end reads
	ReverseQual []byte

	SourcePaths []string

	// Cycle is set by the producer in per-file mode, or by the consumer
	// after barcode matching otherwise.
	Cycle *cycle.Cycle
}

// Paired reports whether this read has a reverse mate.
func (r *Read) Paired() bool { return r.ReverseSeq != nil }

type queueItem struct {
	read   *Read
	poison bool
}

// Queue is the bounded FIFO shared between the producer and its consumers.
// Put blocks when full; Take blocks when empty: the channel itself
// provides both behaviours.
type Queue struct {
	ch chan queueItem
}

// NewQueue creates a queue with the given capacity (BlockingQueueSize).
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan queueItem, capacity)}
}

// Put enqueues a read, blocking if the queue is full.
func (q *Queue) Put(r *Read) {
	q.ch <- queueItem{read: r}
}

// PutPoison enqueues the termination sentinel.
func (q *Queue) PutPoison() {
	q.ch <- queueItem{poison: true}
}

// Take dequeues the next item. poison is true when the sentinel was
// observed, in which case read is nil and the caller must re-enqueue the
// poison pill before exiting, per the fan-out termination protocol.
func (q *Queue) Take() (read *Read, poison bool) {
	item := <-q.ch
	return item.read, item.poison
}

func decodeQuality(ascii []byte) []byte {
	out := make([]byte, len(ascii))
	for i, b := range ascii {
		out[i] = b - 33
	}
	return out
}
