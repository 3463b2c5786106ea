package stream

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

// KinesisSink submits records to a partitioned append-only stream. Each
// record carries its own partition key so downstream consumers shard by
// product/category id.
type KinesisSink struct {
	kinesisClient *kinesis.Client
	streamName    string
}

func NewKinesisSink(kinesisClient *kinesis.Client, streamName string) *KinesisSink {
	return &KinesisSink{
		kinesisClient: kinesisClient,
		streamName:    streamName,
	}
}

func (s *KinesisSink) Publish(ctx context.Context, records []Record) error {
	entries := make([]types.PutRecordsRequestEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, types.PutRecordsRequestEntry{
			PartitionKey: aws.String(record.PartitionKey),
			Data:         record.Data,
		})
	}

	out, err := s.kinesisClient.PutRecords(ctx, &kinesis.PutRecordsInput{
		StreamName: aws.String(s.streamName),
		Records:    entries,
	})
	if err != nil {
		return fmt.Errorf("failed to put records to stream %s: %w", s.streamName, err)
	}
	if out.FailedRecordCount != nil && *out.FailedRecordCount > 0 {
		return fmt.Errorf("stream %s rejected %d of %d records", s.streamName, *out.FailedRecordCount, len(entries))
	}
	return nil
}

func (s *KinesisSink) Name() string {
	return "kinesis:" + s.streamName
}
