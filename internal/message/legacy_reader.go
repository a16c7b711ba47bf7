package message

import (
	"encoding/binary"
	"io"
)

// LegacyBatchReader decodes a single magic 0/1 outer message, expanding a
// compressed wrapper into its nested message set eagerly at construction.
// This mirrors the default reader's BatchMeta/Next shape even though the
// legacy format has no batch header of its own; most BatchMeta fields not
// meaningful at this magic (producer state, transactional flag) are left
// at their zero value.
type LegacyBatchReader struct {
	meta    BatchMeta
	records []Record
	pos     int
}

var _ Reader = (*LegacyBatchReader)(nil)

// legacyMessage is one decoded Offset/MessageSize/CRC/Magic/Attributes/
// [Timestamp]/Key/Value frame, before offset/timestamp reconstruction.
type legacyMessage struct {
	offset    int64
	magic     int8
	attrs     int8
	timestamp int64
	hasTime   bool
	key       []byte
	value     []byte
}

// NewLegacyBatchReader decodes the single outer message in data. If its
// attributes name a compression code, the value is decompressed and
// re-parsed as a nested message set.
func NewLegacyBatchReader(data []byte, validateCRC bool) (*LegacyBatchReader, error) {
	outer, err := decodeLegacyMessage(data, validateCRC)
	if err != nil {
		return nil, err
	}

	compression := CompressionType(outer.attrs) & compressionCodeMask
	timestampType := CreateTime
	if outer.magic >= 1 && outer.attrs&(1<<3) != 0 {
		timestampType = LogAppendTime
	}

	meta := BatchMeta{
		BaseOffset:      outer.offset,
		Magic:           outer.magic,
		CompressionType: compression,
		TimestampType:   timestampType,
	}

	if compression == CompressionNone {
		meta.BaseOffset = outer.offset
		return &LegacyBatchReader{
			meta: meta,
			records: []Record{{
				Attrs:         0,
				HasTimestamp:  outer.hasTime,
				Timestamp:     outer.timestamp,
				Offset:        outer.offset,
				Key:           outer.key,
				Value:         outer.value,
				TimestampType: timestampType,
			}},
		}, nil
	}

	nested, err := decompressLegacyValue(outer.magic, compression, outer.value)
	if err != nil {
		return nil, err
	}

	inner, err := decodeLegacyMessageSet(nested, outer.magic, validateCRC)
	if err != nil {
		return nil, err
	}

	records := reconstructLegacyOffsets(outer, inner, timestampType)
	return &LegacyBatchReader{meta: meta, records: records}, nil
}

func (r *LegacyBatchReader) Metadata() BatchMeta { return r.meta }

func (r *LegacyBatchReader) Next() (Record, error) {
	if r.pos >= len(r.records) {
		return Record{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

// decodeLegacyMessage parses exactly one Offset/MessageSize/.../Value
// frame starting at the beginning of data. data may contain trailing
// bytes belonging to a sibling message; only MessageSize+12 bytes are
// consumed.
func decodeLegacyMessage(data []byte, validateCRC bool) (legacyMessage, error) {
	c := newCursor(data)
	offset, err := c.readInt64()
	if err != nil {
		return legacyMessage{}, err
	}
	msgSize, err := c.readInt32()
	if err != nil {
		return legacyMessage{}, err
	}
	if msgSize < 0 || c.remaining() < int(msgSize) {
		return legacyMessage{}, ErrCorruptRecord
	}
	body := data[c.pos : c.pos+int(msgSize)]

	bc := newCursor(body)
	recordCRC, err := bc.readUint32()
	if err != nil {
		return legacyMessage{}, err
	}
	if validateCRC {
		calc := checksumLegacy(body[4:])
		if calc != recordCRC {
			return legacyMessage{}, newCrcCheckFailed(recordCRC, calc)
		}
	}
	magicByte, err := bc.readByte()
	if err != nil {
		return legacyMessage{}, err
	}
	attrsByte, err := bc.readByte()
	if err != nil {
		return legacyMessage{}, err
	}
	magic := int8(magicByte)

	var timestamp int64
	hasTime := false
	if magic >= 1 {
		timestamp, err = bc.readInt64()
		if err != nil {
			return legacyMessage{}, err
		}
		hasTime = true
	}

	key, err := readLegacyBytes(bc)
	if err != nil {
		return legacyMessage{}, err
	}
	value, err := readLegacyBytes(bc)
	if err != nil {
		return legacyMessage{}, err
	}

	return legacyMessage{
		offset:    offset,
		magic:     magic,
		attrs:     int8(attrsByte),
		timestamp: timestamp,
		hasTime:   hasTime,
		key:       key,
		value:     value,
	}, nil
}

func readLegacyBytes(c *cursor) ([]byte, error) {
	n, err := c.readInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	return c.readN(int(n))
}

// decodeLegacyMessageSet decodes a concatenation of legacy message frames
// (the decompressed payload of a wrapper message) into individual
// messages, in order.
func decodeLegacyMessageSet(data []byte, magic int8, validateCRC bool) ([]legacyMessage, error) {
	var out []legacyMessage
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 12 {
			break
		}
		msg, err := decodeLegacyMessage(data[pos:], validateCRC)
		if err != nil {
			return nil, err
		}
		msgSize := int(binary.BigEndian.Uint32(data[pos+8 : pos+12]))
		pos += 12 + msgSize
		out = append(out, msg)
	}
	return out, nil
}

func decompressLegacyValue(magic int8, compression CompressionType, value []byte) ([]byte, error) {
	if magic == 0 && compression == CompressionLZ4 {
		return decodeOldKafkaLZ4(value)
	}
	if compression == CompressionSnappy {
		return decodeXerialSnappy(value)
	}
	codec, err := GetCodec(compression)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(nil, value)
}

// reconstructLegacyOffsets applies the magic 0 / magic >= 1 absolute-offset
// and timestamp rules to a decoded nested message set.
func reconstructLegacyOffsets(outer legacyMessage, inner []legacyMessage, timestampType TimestampType) []Record {
	records := make([]Record, len(inner))

	if outer.magic == 0 {
		for i, m := range inner {
			records[i] = Record{
				Offset:        m.offset,
				HasTimestamp:  false,
				Key:           m.key,
				Value:         m.value,
				TimestampType: timestampType,
			}
		}
		return records
	}

	var lastRelative int64
	for _, m := range inner {
		if m.offset > lastRelative {
			lastRelative = m.offset
		}
	}
	absoluteBase := outer.offset - lastRelative

	for i, m := range inner {
		timestamp := m.timestamp
		if timestampType == LogAppendTime {
			timestamp = outer.timestamp
		}
		records[i] = Record{
			Offset:        m.offset + absoluteBase,
			HasTimestamp:  true,
			Timestamp:     timestamp,
			Key:           m.key,
			Value:         m.value,
			TimestampType: timestampType,
		}
	}
	return records
}
