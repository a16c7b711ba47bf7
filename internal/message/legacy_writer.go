package message

import "encoding/binary"

// legacyFixedOverhead is the Offset+MessageSize+CRC+Magic+Attributes
// portion common to every magic 0/1 message, before the optional
// timestamp and the key/value length-prefixed fields.
const legacyFixedOverhead = 8 + 4 + 4 + 1 + 1

// LegacyBatchWriter accumulates magic 0/1 messages as a sequence of
// self-framed message records; Build optionally wraps them in a single
// compressed wrapper message. Headers are not representable at this
// magic, so Append takes no headers parameter.
type LegacyBatchWriter struct {
	magic       int8
	compression CompressionType
	batchSize   int

	buf             []byte
	recordCount     int
	lastOffset      int64
	lastTimestamp   int64
	maxTimestamp    int64
}

// NewLegacyBatchWriter creates a writer for a magic 0 or magic 1 message
// set. magic must be 0 or 1.
func NewLegacyBatchWriter(magic int8, compression CompressionType, batchSize int) *LegacyBatchWriter {
	return &LegacyBatchWriter{
		magic:       magic,
		compression: compression,
		batchSize:   batchSize,
		buf:         make([]byte, 0, 1024),
	}
}

// messageSize returns the exact number of bytes a single legacy message
// frame occupies on the wire for the given key/value, including the
// Offset and MessageSize fields themselves.
func (w *LegacyBatchWriter) messageSize(key, value []byte) int {
	size := legacyFixedOverhead
	if w.magic >= 1 {
		size += 8
	}
	size += 4 + len(key)
	size += 4 + len(value)
	return size
}

// Append adds a message to the set. It returns false, leaving the writer
// unmodified, if the message would not fit within batchSize and at least
// one message is already present; the first message is always accepted.
func (w *LegacyBatchWriter) Append(offset, timestamp int64, key, value []byte) bool {
	size := w.messageSize(key, value)
	if w.batchSize > 0 && w.recordCount > 0 && len(w.buf)+size > w.batchSize {
		return false
	}

	frame := w.encodeMessage(offset, timestamp, 0, key, value)
	w.buf = append(w.buf, frame...)
	w.recordCount++
	w.lastOffset = offset
	w.lastTimestamp = timestamp
	if w.recordCount == 1 || timestamp > w.maxTimestamp {
		w.maxTimestamp = timestamp
	}
	return true
}

// encodeMessage builds one self-framed legacy message: Offset, MessageSize,
// CRC, Magic, Attributes, an optional Timestamp, then Key and Value.
func (w *LegacyBatchWriter) encodeMessage(offset, timestamp int64, attrs int8, key, value []byte) []byte {
	bodySize := 1 + 1 + 4 + len(key) + 4 + len(value)
	if w.magic >= 1 {
		bodySize += 8
	}

	body := make([]byte, bodySize)
	pos := 0
	body[pos] = byte(w.magic)
	pos++
	body[pos] = byte(attrs)
	pos++
	if w.magic >= 1 {
		binary.BigEndian.PutUint64(body[pos:], uint64(timestamp))
		pos += 8
	}
	putLegacyBytes(body, &pos, key)
	putLegacyBytes(body, &pos, value)

	crc := checksumLegacy(body)

	frame := make([]byte, 8+4+4+len(body))
	binary.BigEndian.PutUint64(frame[0:8], uint64(offset))
	binary.BigEndian.PutUint32(frame[8:12], uint32(len(body)+4))
	binary.BigEndian.PutUint32(frame[12:16], crc)
	copy(frame[16:], body)
	return frame
}

func putLegacyBytes(dst []byte, pos *int, b []byte) {
	if b == nil {
		binary.BigEndian.PutUint32(dst[*pos:], ^uint32(0)) // -1
		*pos += 4
		return
	}
	binary.BigEndian.PutUint32(dst[*pos:], uint32(len(b)))
	*pos += 4
	copy(dst[*pos:], b)
	*pos += len(b)
}

// Build finalizes the message set. If a compression type was configured,
// the accumulated messages are wrapped in a single compressed wrapper
// message and used in place of the uncompressed form only if strictly
// smaller; otherwise the uncompressed concatenation is returned unchanged.
func (w *LegacyBatchWriter) Build() ([]byte, error) {
	if w.compression == CompressionNone || w.recordCount == 0 {
		return w.buf, nil
	}

	compressed, err := w.compressRecords(w.buf)
	if err != nil {
		return nil, err
	}

	attrs := int8(w.compression) & compressionCodeMask
	wrapper := w.encodeMessage(w.lastOffset, w.maxTimestamp, attrs, nil, compressed)
	if len(wrapper) < len(w.buf) {
		return wrapper, nil
	}
	return w.buf, nil
}

func (w *LegacyBatchWriter) compressRecords(records []byte) ([]byte, error) {
	if w.magic == 0 && w.compression == CompressionLZ4 {
		return encodeOldKafkaLZ4(records)
	}
	if w.compression == CompressionSnappy {
		return encodeXerialSnappy(records)
	}
	codec, err := GetCodec(w.compression)
	if err != nil {
		return nil, err
	}
	return codec.Compress(nil, records)
}
