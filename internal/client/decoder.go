package client

import (
	"fmt"
	"io"

	"lightkafka/internal/message"
)

// ParsedRecord is a human-readable representation of a Kafka record.
type ParsedRecord struct {
	Offset int64
	Key    string
	Value  string
}

// DecodeBatch parses the raw bytes of one or more concatenated record
// batches and returns every record across all of them, in order.
func DecodeBatch(data []byte) ([]ParsedRecord, error) {
	it := message.NewIterator(data, false)

	var records []ParsedRecord
	for it.HasNext() {
		reader, err := it.NextBatch()
		if err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		if reader == nil {
			break
		}
		for {
			rec, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			records = append(records, ParsedRecord{
				Offset: rec.Offset,
				Key:    string(rec.Key),
				Value:  string(rec.Value),
			})
		}
	}
	return records, nil
}
