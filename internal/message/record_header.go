package message

// decodeHeaders reads a varint header count followed by that many
// (key-length, key, value-length, value) tuples from c. A negative value
// length means the header value is absent; key length is never negative.
func decodeHeaders(c *cursor) ([]Header, error) {
	count, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrCorruptRecord
	}
	if count == 0 {
		return nil, nil
	}

	headers := make([]Header, 0, count)
	for i := int64(0); i < count; i++ {
		keyLen, err := c.readVarint()
		if err != nil {
			return nil, err
		}
		if keyLen < 0 {
			return nil, ErrCorruptRecord
		}
		keyBytes, err := c.readN(int(keyLen))
		if err != nil {
			return nil, err
		}
		value, err := c.readVarintBytes()
		if err != nil {
			return nil, err
		}
		headers = append(headers, Header{Key: string(keyBytes), Value: value})
	}
	return headers, nil
}

// encodeHeaders appends the wire encoding of headers (varint count, then
// each key/value pair) to dst and returns the extended slice.
func encodeHeaders(dst []byte, headers []Header) []byte {
	dst = EncodeVarint(dst, int64(len(headers)))
	for _, h := range headers {
		dst = EncodeVarint(dst, int64(len(h.Key)))
		dst = append(dst, h.Key...)
		if h.Value == nil {
			dst = EncodeVarint(dst, -1)
			continue
		}
		dst = EncodeVarint(dst, int64(len(h.Value)))
		dst = append(dst, h.Value...)
	}
	return dst
}

// sizeOfHeaders returns the exact number of bytes encodeHeaders would
// write for headers.
func sizeOfHeaders(headers []Header) int {
	size := SizeOfVarint(int64(len(headers)))
	for _, h := range headers {
		size += SizeOfVarint(int64(len(h.Key))) + len(h.Key)
		if h.Value == nil {
			size += SizeOfVarint(-1)
			continue
		}
		size += SizeOfVarint(int64(len(h.Value))) + len(h.Value)
	}
	return size
}
