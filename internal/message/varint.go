package message

import "encoding/binary"

// EncodeVarint appends the zigzag varint encoding of n to dst and returns
// the extended slice. Zigzag maps signed n to an unsigned value via
// (n << 1) XOR (n >> 63) before emitting 7-bit groups, low-first, with the
// continuation bit set on every byte but the last — the same scheme
// encoding/binary.PutVarint already implements.
func EncodeVarint(dst []byte, n int64) []byte {
	var buf [binary.MaxVarintLen64]byte
	written := binary.PutVarint(buf[:], n)
	return append(dst, buf[:written]...)
}

// SizeOfVarint returns the number of bytes EncodeVarint would emit for n,
// without encoding it. Used for pre-size estimation.
func SizeOfVarint(n int64) int {
	u := uint64(n<<1) ^ uint64(n>>63)
	size := 1
	for u >= 0x80 {
		u >>= 7
		size++
	}
	return size
}

// DecodeVarint reads a zigzag varint starting at buf[pos] and returns the
// decoded value together with the number of bytes consumed. It fails with
// ErrCorruptRecord if the varint runs past the end of buf (including an
// empty or all-continuation-bit buffer) or represents an overlong encoding.
func DecodeVarint(buf []byte, pos int) (int64, int, error) {
	if pos < 0 || pos > len(buf) {
		return 0, 0, ErrCorruptRecord
	}
	n, size := binary.Varint(buf[pos:])
	if size <= 0 {
		return 0, 0, ErrCorruptRecord
	}
	return n, size, nil
}

// cursor walks a read-only byte slice left to right, used by the batch
// readers to decode a sequence of fixed-width fields and varints without
// re-deriving offsets by hand at every call site.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return ErrCorruptRecord
	}
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) readInt32() (int32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(c.buf[c.pos:]))
	c.pos += 4
	return v, nil
}

func (c *cursor) readUint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) readInt64() (int64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(c.buf[c.pos:]))
	c.pos += 8
	return v, nil
}

func (c *cursor) readVarint() (int64, error) {
	n, size, err := DecodeVarint(c.buf, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += size
	return n, nil
}

// readVarintBytes reads a varint length prefix (-1 meaning absent) followed by
// that many bytes, returning a slice that borrows from buf.
func (c *cursor) readVarintBytes() ([]byte, error) {
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if err := c.need(int(n)); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
