package message

import (
	"encoding/binary"
	"io"
)

// DefaultBatchReader decodes a single magic-2 record batch. Metadata is
// parsed eagerly at construction (it is all fixed-width header fields);
// records are decoded lazily, one per Next call, from either the batch's
// own buffer or a decompressed copy owned by the reader.
type DefaultBatchReader struct {
	meta BatchMeta
	cur  *cursor

	validateCRC bool
	recordCount int32
	produced    int32
}

var _ Reader = (*DefaultBatchReader)(nil)

// parseDefaultHeader decodes the fixed 61-byte magic-2 header from data
// and, if validateCRC is set, checks the CRC32C over everything after the
// CRC field. It performs no decompression.
func parseDefaultHeader(data []byte, validateCRC bool) (meta BatchMeta, recordCount int32, err error) {
	if len(data) < defaultHeaderSize {
		return BatchMeta{}, 0, ErrCorruptRecord
	}

	baseOffset := int64(binary.BigEndian.Uint64(data[0:8]))
	partitionLeaderEpoch := int32(binary.BigEndian.Uint32(data[12:16]))
	magic := int8(data[16])
	recordCRC := binary.BigEndian.Uint32(data[17:21])
	attrs := int16(binary.BigEndian.Uint16(data[21:23]))
	lastOffsetDelta := int32(binary.BigEndian.Uint32(data[23:27]))
	firstTimestamp := int64(binary.BigEndian.Uint64(data[27:35]))
	maxTimestamp := int64(binary.BigEndian.Uint64(data[35:43]))
	producerID := int64(binary.BigEndian.Uint64(data[43:51]))
	producerEpoch := int16(binary.BigEndian.Uint16(data[51:53]))
	baseSequence := int32(binary.BigEndian.Uint32(data[53:57]))
	recordCount = int32(binary.BigEndian.Uint32(data[57:61]))

	if magic != 2 {
		return BatchMeta{}, 0, ErrCorruptRecord
	}

	if validateCRC {
		calc := ChecksumCastagnoli(data[21:])
		if calc != recordCRC {
			return BatchMeta{}, 0, newCrcCheckFailed(recordCRC, calc)
		}
	}

	compression := CompressionType(attrs & compressionCodeMask)
	timestampType := CreateTime
	if attrs&(1<<3) != 0 {
		timestampType = LogAppendTime
	}
	isTransactional := attrs&(1<<4) != 0

	meta = BatchMeta{
		BaseOffset:           baseOffset,
		Magic:                magic,
		CompressionType:      compression,
		TimestampType:        timestampType,
		IsTransactional:      isTransactional,
		ProducerID:           producerID,
		ProducerEpoch:        producerEpoch,
		BaseSequence:         baseSequence,
		LastOffsetDelta:      lastOffsetDelta,
		FirstTimestamp:       firstTimestamp,
		MaxTimestamp:         maxTimestamp,
		PartitionLeaderEpoch: partitionLeaderEpoch,
	}
	return meta, recordCount, nil
}

// PeekDefaultBatchHeader decodes a magic-2 batch's header fields and
// record count without touching the (possibly compressed) records region.
// Storage layers use this to index and recover batches without paying for
// decompression.
func PeekDefaultBatchHeader(data []byte, validateCRC bool) (BatchMeta, int32, error) {
	return parseDefaultHeader(data, validateCRC)
}

// NewDefaultBatchReader parses the header of data (a single batch's worth
// of bytes, as sliced by the iterator) and, if validateCRC is set,
// recomputes the CRC32C over everything after the CRC field.
func NewDefaultBatchReader(data []byte, validateCRC bool) (*DefaultBatchReader, error) {
	meta, recordCount, err := parseDefaultHeader(data, validateCRC)
	if err != nil {
		return nil, err
	}
	compression := meta.CompressionType

	records := data[defaultHeaderSize:]
	if compression != CompressionNone {
		codec, err := GetCodec(compression)
		if err != nil {
			return nil, err
		}
		decoded, err := codec.Decompress(nil, records)
		if err != nil {
			return nil, err
		}
		records = decoded
	}

	return &DefaultBatchReader{
		meta:        meta,
		cur:         newCursor(records),
		validateCRC: validateCRC,
		recordCount: recordCount,
	}, nil
}

func (r *DefaultBatchReader) Metadata() BatchMeta { return r.meta }

// Next decodes and returns the next record in the batch, or io.EOF once
// every record declared in the header has been produced.
func (r *DefaultBatchReader) Next() (Record, error) {
	if r.produced >= r.recordCount {
		return Record{}, io.EOF
	}

	length, err := r.cur.readVarint()
	if err != nil {
		return Record{}, err
	}
	if length < 0 {
		return Record{}, ErrCorruptRecord
	}
	body, err := r.cur.readN(int(length))
	if err != nil {
		return Record{}, err
	}

	bc := newCursor(body)
	attrs, err := bc.readByte()
	if err != nil {
		return Record{}, err
	}
	timestampDelta, err := bc.readVarint()
	if err != nil {
		return Record{}, err
	}
	offsetDelta, err := bc.readVarint()
	if err != nil {
		return Record{}, err
	}
	key, err := bc.readVarintBytes()
	if err != nil {
		return Record{}, err
	}
	value, err := bc.readVarintBytes()
	if err != nil {
		return Record{}, err
	}
	headers, err := decodeHeaders(bc)
	if err != nil {
		return Record{}, err
	}

	r.produced++

	return Record{
		Attrs:         int8(attrs),
		HasTimestamp:  true,
		Timestamp:     r.meta.FirstTimestamp + timestampDelta,
		Offset:        r.meta.BaseOffset + offsetDelta,
		Key:           key,
		Value:         value,
		Headers:       headers,
		TimestampType: r.meta.TimestampType,
	}, nil
}
