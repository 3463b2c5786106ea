package stream

import (
	"context"
)

// Record is one serialized event destined for a stream sink. The partition
// key carries the category/product id the sink shards by.
type Record struct {
	PartitionKey string
	Data         []byte
}

// Sink accepts an ordered batch of records and reports success or failure
// for the batch as a whole.
type Sink interface {
	Publish(ctx context.Context, records []Record) error
	Name() string
}
