package stream

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// SplitBatches splits records into consecutive batches of at most size
// records each, preserving order.
func SplitBatches(records []Record, size int) [][]Record {
	if size <= 0 {
		size = len(records)
	}
	var batches [][]Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// BatchPublisher fans records out to its sinks in bounded batches. Delivery
// is best effort, at least once: a failed batch is logged and does not block
// the batches after it.
type BatchPublisher struct {
	sinks    []Sink
	maxBatch int
}

func NewBatchPublisher(maxBatch int, sinks ...Sink) *BatchPublisher {
	return &BatchPublisher{
		sinks:    sinks,
		maxBatch: maxBatch,
	}
}

func (p *BatchPublisher) Publish(ctx context.Context, records []Record) {
	if len(records) == 0 {
		return
	}
	for _, batch := range SplitBatches(records, p.maxBatch) {
		for _, sink := range p.sinks {
			if err := sink.Publish(ctx, batch); err != nil {
				log.Errorf("Failed to publish %d records to %s: %v", len(batch), sink.Name(), err)
				continue
			}
			log.Infof("Posted %d records to %s", len(batch), sink.Name())
		}
	}
}
