package message

import "encoding/binary"

// iteratorMinHeader is the smallest prefix every batch format shares: an
// 8-byte offset/base-offset field followed by a 4-byte length.
const iteratorMinHeader = 12

// magicOffset is the byte offset of the Magic field, identical across
// magic 0, 1 and 2 framing.
const magicOffset = 16

// Iterator splits a raw buffer of concatenated batches (legacy and/or
// default format, in any mix) into individual readers, tolerating a
// truncated final batch so a fetch loop can stitch it with more data
// later.
type Iterator struct {
	data        []byte
	pos         int
	validateCRC bool
}

// NewIterator wraps data for batch-by-batch consumption. validateCRC is
// forwarded to every reader it constructs.
func NewIterator(data []byte, validateCRC bool) *Iterator {
	return &Iterator{data: data, validateCRC: validateCRC}
}

// SizeInBytes returns the total length of the wrapped buffer.
func (it *Iterator) SizeInBytes() int { return len(it.data) }

// ValidBytes returns the number of bytes consumed into whole batches so
// far; it equals SizeInBytes minus the bytes left unconsumed because of
// truncation.
func (it *Iterator) ValidBytes() int { return it.pos }

// Remaining returns the number of trailing bytes not yet known to belong
// to a whole batch, for stitching into a subsequent fetch.
func (it *Iterator) Remaining() int { return len(it.data) - it.pos }

// HasNext reports whether at least one more whole batch is available.
func (it *Iterator) HasNext() bool {
	left := it.data[it.pos:]
	if len(left) < iteratorMinHeader {
		return false
	}
	length := int32(binary.BigEndian.Uint32(left[8:12]))
	return int(length) >= 0 && iteratorMinHeader+int(length) <= len(left)
}

// NextBatch slices off and decodes the next whole batch, advancing the
// iterator past it. It returns (nil, nil) once Remaining is too small or
// the next batch's declared length exceeds the remaining bytes — callers
// should stop and retry later with more data. A declared length smaller
// than the minimum possible record overhead is a hard error.
func (it *Iterator) NextBatch() (Reader, error) {
	left := it.data[it.pos:]
	if len(left) < iteratorMinHeader {
		return nil, nil
	}

	length := int32(binary.BigEndian.Uint32(left[8:12]))
	if length < 0 {
		return nil, ErrCorruptRecord
	}
	// The smallest record is a magic-0 message with null key and value:
	// CRC(4) + Magic(1) + Attributes(1) + KeyLen(4) + ValueLen(4).
	const minRecordOverhead = 4 + 1 + 1 + 4 + 4
	if int(length) < minRecordOverhead {
		return nil, ErrCorruptRecord
	}
	total := iteratorMinHeader + int(length)
	if total > len(left) {
		return nil, nil
	}

	batch := left[:total]
	magic := int8(batch[magicOffset])

	var reader Reader
	var err error
	if magic == 2 {
		reader, err = NewDefaultBatchReader(batch, it.validateCRC)
	} else {
		reader, err = NewLegacyBatchReader(batch, it.validateCRC)
	}
	if err != nil {
		return nil, err
	}

	it.pos += total
	return reader, nil
}
