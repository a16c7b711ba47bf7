package message

import "encoding/binary"

// defaultHeaderSize is the fixed 61-byte header that precedes the records
// region in a magic-2 batch.
const defaultHeaderSize = 61

// DefaultBatchWriter accumulates records for a single magic-2 batch. It is
// one-shot: construct, Append repeatedly until it returns false or the
// caller is done, then Build once.
type DefaultBatchWriter struct {
	baseOffset           int64
	partitionLeaderEpoch int32
	producerID           int64
	producerEpoch        int16
	baseSequence         int32
	isTransactional      bool
	compression          CompressionType
	batchSize            int

	records       []byte
	recordCount   int32
	haveFirst     bool
	firstTime     int64
	maxTime       int64
	lastOffsetDel int32
}

// DefaultBatchConfig carries the batch-level fields that are fixed for the
// lifetime of a DefaultBatchWriter.
type DefaultBatchConfig struct {
	BaseOffset           int64
	PartitionLeaderEpoch int32
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	IsTransactional      bool
	Compression          CompressionType
	BatchSize            int
}

// NewDefaultBatchWriter creates a writer for a single magic-2 batch. A
// BatchSize of 0 means unbounded; with a positive BatchSize only the first
// record is accepted regardless of size.
func NewDefaultBatchWriter(cfg DefaultBatchConfig) *DefaultBatchWriter {
	return &DefaultBatchWriter{
		baseOffset:           cfg.BaseOffset,
		partitionLeaderEpoch: cfg.PartitionLeaderEpoch,
		producerID:           cfg.ProducerID,
		producerEpoch:        cfg.ProducerEpoch,
		baseSequence:         cfg.BaseSequence,
		isTransactional:      cfg.IsTransactional,
		compression:          cfg.Compression,
		batchSize:            cfg.BatchSize,
		records:              make([]byte, 0, 1024),
	}
}

// EstimateSizeInBytes returns an upper bound on the encoded size of a
// record with the given key/value/headers, usable before its offset and
// timestamp are known (both deltas are sized at their 10-byte varint
// maximum).
func EstimateSizeInBytes(key, value []byte, headers []Header) int {
	const maxVarint = 10
	body := 1 /* attrs */ + maxVarint /* timestampDelta */ + maxVarint /* offsetDelta */
	body += SizeOfVarint(int64(len(key)))
	body += len(key)
	body += SizeOfVarint(int64(len(value)))
	body += len(value)
	body += sizeOfHeaders(headers)
	return SizeOfVarint(int64(body)) + body
}

// SizeInBytes returns the exact number of bytes appending a record with
// the given fields would add to the batch, given this writer's current
// base offset and first timestamp.
func (w *DefaultBatchWriter) SizeInBytes(offset, timestamp int64, key, value []byte, headers []Header) int {
	firstTime := timestamp
	if w.haveFirst {
		firstTime = w.firstTime
	}
	offsetDelta := offset - w.baseOffset
	timestampDelta := timestamp - firstTime

	keyLen, valLen := int64(-1), int64(-1)
	if key != nil {
		keyLen = int64(len(key))
	}
	if value != nil {
		valLen = int64(len(value))
	}

	body := 1 /* attrs */
	body += SizeOfVarint(timestampDelta)
	body += SizeOfVarint(offsetDelta)
	body += SizeOfVarint(keyLen) + len(key)
	body += SizeOfVarint(valLen) + len(value)
	body += sizeOfHeaders(headers)
	return SizeOfVarint(int64(body)) + body
}

// Append adds a record to the batch. It returns false (without modifying
// the batch) when the record would not fit within BatchSize and at least
// one record has already been appended; the first record is always
// accepted regardless of size.
func (w *DefaultBatchWriter) Append(offset, timestamp int64, key, value []byte, headers []Header) bool {
	size := w.SizeInBytes(offset, timestamp, key, value, headers)
	if w.batchSize > 0 && w.recordCount > 0 && defaultHeaderSize+len(w.records)+size > w.batchSize {
		return false
	}

	if !w.haveFirst {
		w.haveFirst = true
		w.firstTime = timestamp
		w.maxTime = timestamp
	} else if timestamp > w.maxTime {
		w.maxTime = timestamp
	}

	offsetDelta := int32(offset - w.baseOffset)
	if w.recordCount == 0 || offsetDelta > w.lastOffsetDel {
		w.lastOffsetDel = offsetDelta
	}
	timestampDelta := timestamp - w.firstTime

	var keyLen, valLen int64 = -1, -1
	if key != nil {
		keyLen = int64(len(key))
	}
	if value != nil {
		valLen = int64(len(value))
	}

	body := make([]byte, 0, size)
	body = append(body, 0) // attrs
	body = EncodeVarint(body, timestampDelta)
	body = EncodeVarint(body, int64(offsetDelta))
	body = EncodeVarint(body, keyLen)
	if key != nil {
		body = append(body, key...)
	}
	body = EncodeVarint(body, valLen)
	if value != nil {
		body = append(body, value...)
	}
	body = encodeHeaders(body, headers)

	w.records = EncodeVarint(w.records, int64(len(body)))
	w.records = append(w.records, body...)
	w.recordCount++
	return true
}

// Build finalizes the batch: compresses the records region if configured,
// writes the 61-byte header, and computes the CRC32C covering everything
// after the CRC field. It must be called exactly once.
func (w *DefaultBatchWriter) Build() ([]byte, error) {
	records := w.records
	if w.compression != CompressionNone {
		codec, err := GetCodec(w.compression)
		if err != nil {
			return nil, err
		}
		compressed, err := codec.Compress(nil, w.records)
		if err != nil {
			return nil, err
		}
		records = compressed
	}

	buf := make([]byte, defaultHeaderSize+len(records))
	binary.BigEndian.PutUint64(buf[0:8], uint64(w.baseOffset))
	batchLength := int32(defaultHeaderSize + len(records) - 12)
	binary.BigEndian.PutUint32(buf[8:12], uint32(batchLength))
	binary.BigEndian.PutUint32(buf[12:16], uint32(w.partitionLeaderEpoch))
	buf[16] = 2 // magic

	var attrs int16 = int16(w.compression) & compressionCodeMask
	if w.isTransactional {
		attrs |= 1 << 4
	}
	binary.BigEndian.PutUint16(buf[21:23], uint16(attrs))
	binary.BigEndian.PutUint32(buf[23:27], uint32(w.lastOffsetDel))
	binary.BigEndian.PutUint64(buf[27:35], uint64(w.firstTime))
	binary.BigEndian.PutUint64(buf[35:43], uint64(w.maxTime))
	binary.BigEndian.PutUint64(buf[43:51], uint64(w.producerID))
	binary.BigEndian.PutUint16(buf[51:53], uint16(w.producerEpoch))
	binary.BigEndian.PutUint32(buf[53:57], uint32(w.baseSequence))
	binary.BigEndian.PutUint32(buf[57:61], uint32(w.recordCount))
	copy(buf[defaultHeaderSize:], records)

	crc := ChecksumCastagnoli(buf[21:])
	binary.BigEndian.PutUint32(buf[17:21], crc)

	return buf, nil
}
