// Package message implements the Kafka wire record-batch codec: the
// legacy (magic 0/1) message set format, the default (magic 2) record
// batch format, and an iterator that splits a raw fetch buffer into
// batches of either version without prior knowledge of which one is next.
//
// The package performs no I/O and holds no connection state; it only
// turns bytes into Records and Records into bytes.
package message

// TimestampType distinguishes a producer-assigned timestamp from one the
// broker stamped on append.
type TimestampType int8

const (
	CreateTime    TimestampType = 0
	LogAppendTime TimestampType = 1
)

// CompressionType is the 3-bit codec selector carried in a batch's
// attributes field.
type CompressionType int8

const (
	CompressionNone   CompressionType = 0
	CompressionGzip   CompressionType = 1
	CompressionSnappy CompressionType = 2
	CompressionLZ4    CompressionType = 3
	CompressionZstd   CompressionType = 4

	compressionCodeMask = 0x07
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Header is one entry of a v2 record's header list. A nil Value means the
// header value was encoded as absent (length -1); Key is never absent.
type Header struct {
	Key   string
	Value []byte
}

// Record is the decoded unit produced by both the legacy and default
// readers. Key, Value and header values borrow from the reader's buffer
// (or its decompressed copy) and must not be retained past the reader's
// lifetime if the caller cares about zero-copy semantics.
type Record struct {
	Attrs int8

	// HasTimestamp is false only for magic 0 records, which carry no
	// timestamp on the wire.
	HasTimestamp bool
	Timestamp    int64

	Offset int64

	Key   []byte
	Value []byte

	Headers []Header

	TimestampType TimestampType
}

// BatchMeta mirrors the batch-level fields a reader exposes without
// having to decode a single record. Fields that don't apply to a given
// magic (producer/transaction state for v0/v1) are zero-valued.
type BatchMeta struct {
	BaseOffset           int64
	Magic                int8
	CompressionType      CompressionType
	TimestampType        TimestampType
	IsTransactional      bool
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	LastOffsetDelta      int32
	FirstTimestamp       int64
	MaxTimestamp         int64
	PartitionLeaderEpoch int32
}

// Reader is the capability both batch versions implement: pure metadata
// access plus a pull-based, single-pass sequence of records. Next returns
// io.EOF once every record has been produced.
type Reader interface {
	Metadata() BatchMeta
	Next() (Record, error)
}
