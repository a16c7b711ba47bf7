package client

import (
	"time"

	"lightkafka/internal/message"
)

// RecordBatchBuilder is a thin convenience wrapper around a
// message.DefaultBatchWriter for callers that only need key/value pairs
// appended at increasing offsets with the current time as timestamp.
type RecordBatchBuilder struct {
	writer    *message.DefaultBatchWriter
	nextIndex int64
	timestamp int64
}

// NewRecordBatchBuilder creates a builder for an uncompressed magic-2
// batch starting at offset 0.
func NewRecordBatchBuilder() *RecordBatchBuilder {
	return &RecordBatchBuilder{
		writer: message.NewDefaultBatchWriter(message.DefaultBatchConfig{
			ProducerID:    -1,
			ProducerEpoch: -1,
			BaseSequence:  -1,
			Compression:   message.CompressionNone,
		}),
		timestamp: time.Now().UnixMilli(),
	}
}

// Add appends a key-value record to the batch.
func (b *RecordBatchBuilder) Add(key, value []byte) {
	b.writer.Append(b.nextIndex, b.timestamp, key, value, nil)
	b.nextIndex++
}

// Build encodes the batch into raw bytes ready to be sent to the broker.
func (b *RecordBatchBuilder) Build() []byte {
	buf, err := b.writer.Build()
	if err != nil {
		// CompressionNone never fails to compress; a writer misuse here
		// is a programming error in this package, not a runtime
		// condition callers need to handle.
		panic(err)
	}
	return buf
}
