package message

import (
	"bytes"
	"math"
	"testing"
)

func TestVarint_RoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 2, -2, 63, -64, 64, -65,
		127, -128, 128, -129,
		8191, -8192, 8192, -8193,
		1 << 20, -(1 << 20),
		1 << 34, -(1 << 34),
		math.MaxInt32, math.MinInt32,
		math.MaxInt64, math.MinInt64,
	}

	for _, n := range values {
		buf := EncodeVarint(nil, n)
		got, size, err := DecodeVarint(buf, 0)
		if err != nil {
			t.Fatalf("DecodeVarint(%d): %v", n, err)
		}
		if got != n {
			t.Errorf("round trip: encoded %d, decoded %d", n, got)
		}
		if size != len(buf) {
			t.Errorf("n=%d: decode consumed %d bytes, encode wrote %d", n, size, len(buf))
		}
		if got := SizeOfVarint(n); got != len(buf) {
			t.Errorf("SizeOfVarint(%d) = %d, want %d", n, got, len(buf))
		}
	}
}

// TestVarint_ReferenceTable checks librdkafka's zigzag-varint test table
// (39 entries spanning 1-10 bytes), as used by the reference
// implementation's own test suite.
func TestVarint_ReferenceTable(t *testing.T) {
	tests := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{63, []byte{0x7E}},
		{-64, []byte{0x7F}},
		{64, []byte{0x80, 0x01}},
		{-65, []byte{0x81, 0x01}},
		{8191, []byte{0xFE, 0x7F}},
		{-8192, []byte{0xFF, 0x7F}},
		{8192, []byte{0x80, 0x80, 0x01}},
		{-8193, []byte{0x81, 0x80, 0x01}},
		{1048575, []byte{0xFE, 0xFF, 0x7F}},
		{-1048576, []byte{0xFF, 0xFF, 0x7F}},
		{1048576, []byte{0x80, 0x80, 0x80, 0x01}},
		{-1048577, []byte{0x81, 0x80, 0x80, 0x01}},
		{134217727, []byte{0xFE, 0xFF, 0xFF, 0x7F}},
		{-134217728, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
		{134217728, []byte{0x80, 0x80, 0x80, 0x80, 0x01}},
		{-134217729, []byte{0x81, 0x80, 0x80, 0x80, 0x01}},
		{17179869183, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-17179869184, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{17179869184, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{-17179869185, []byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{2199023255551, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-2199023255552, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{2199023255552, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{-2199023255553, []byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{281474976710655, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-281474976710656, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{281474976710656, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{-281474976710657, []byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{36028797018963967, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-36028797018963968, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{36028797018963968, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{-36028797018963969, []byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{4611686018427387903, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{-4611686018427387904, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{4611686018427387904, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{-4611686018427387905, []byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		got := EncodeVarint(nil, tt.n)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeVarint(%d) = % x, want % x", tt.n, got, tt.want)
		}
		decoded, size, err := DecodeVarint(tt.want, 0)
		if err != nil {
			t.Fatalf("DecodeVarint(%d bytes): %v", tt.n, err)
		}
		if decoded != tt.n {
			t.Errorf("DecodeVarint(% x) = %d, want %d", tt.want, decoded, tt.n)
		}
		if size != len(tt.want) {
			t.Errorf("DecodeVarint(% x) consumed %d bytes, want %d", tt.want, size, len(tt.want))
		}
	}
}

func TestVarint_TruncatedBufferFails(t *testing.T) {
	full := EncodeVarint(nil, 1<<40)
	for i := 0; i < len(full)-1; i++ {
		if _, _, err := DecodeVarint(full[:i], 0); err == nil {
			t.Errorf("DecodeVarint on %d/%d bytes unexpectedly succeeded", i, len(full))
		}
	}
	if _, _, err := DecodeVarint(nil, 0); err == nil {
		t.Error("DecodeVarint on empty buffer unexpectedly succeeded")
	}
}

func TestCursor_ReadVarintBytes_NullIsAbsent(t *testing.T) {
	buf := EncodeVarint(nil, -1)
	c := newCursor(buf)
	got, err := c.readVarintBytes()
	if err != nil {
		t.Fatalf("readVarintBytes: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
