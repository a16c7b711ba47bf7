package message

import (
	"errors"
	"fmt"
)

// ErrCorruptRecord is returned when a batch or record is structurally
// invalid: a declared length runs past the buffer, a varint is truncated,
// or a batch slice exceeds the available bytes.
var ErrCorruptRecord = errors.New("corrupt record")

// ErrUnsupportedCompression is returned when a batch's attributes name a
// compression code this build has no codec for.
var ErrUnsupportedCompression = errors.New("unsupported compression")

// CrcCheckFailedError is a CorruptRecord subtype carrying both the CRC
// recorded on the wire and the one this reader computed, for diagnostics.
type CrcCheckFailedError struct {
	RecordCRC uint32
	CalcCRC   uint32
}

func (e *CrcCheckFailedError) Error() string {
	return fmt.Sprintf("record crc %d does not match calculated %d", e.RecordCRC, e.CalcCRC)
}

func (e *CrcCheckFailedError) Unwrap() error { return ErrCorruptRecord }

func newCrcCheckFailed(recordCRC, calcCRC uint32) error {
	return &CrcCheckFailedError{RecordCRC: recordCRC, CalcCRC: calcCRC}
}
