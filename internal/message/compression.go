package message

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses the records region of a batch. Each
// CompressionType has exactly one Codec; legacy (magic 0/1) batches
// additionally run their payload through the framing helpers below (xerial
// for snappy at magic 0 and 1, the old-Kafka LZ4 patch at magic 0 only).
type Codec interface {
	Compress(dst, src []byte) ([]byte, error)
	Decompress(dst, src []byte) ([]byte, error)
}

// GetCodec returns the Codec registered for ct, or ErrUnsupportedCompression
// if ct names a code this build has no codec for.
func GetCodec(ct CompressionType) (Codec, error) {
	c, ok := builtinCodecs[ct]
	if !ok {
		return nil, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, ct)
	}
	return c, nil
}

var builtinCodecs = map[CompressionType]Codec{
	CompressionNone:   noopCodec{},
	CompressionGzip:   gzipCodec{},
	CompressionSnappy: snappyCodec{},
	CompressionLZ4:    lz4Codec{},
	CompressionZstd:   zstdCodec{},
}

type noopCodec struct{}

func (noopCodec) Compress(dst, src []byte) ([]byte, error)   { return append(dst, src...), nil }
func (noopCodec) Decompress(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }

type gzipCodec struct{}

func (gzipCodec) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := gzip.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decompress(dst, src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer r.Close()
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// snappyCodec implements the default-format (magic 2) snappy codec: a
// single raw Snappy-format block, no xerial framing. Legacy (magic 0/1)
// snappy batches wrap this codec in the xerial chunked envelope; see
// encodeXerialSnappy below.
type snappyCodec struct{}

func (snappyCodec) Compress(dst, src []byte) ([]byte, error) {
	return s2.EncodeSnappy(dst, src), nil
}

func (snappyCodec) Decompress(dst, src []byte) ([]byte, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	out := dst
	if cap(out)-len(out) < n {
		grown := make([]byte, len(out), len(out)+n)
		copy(grown, out)
		out = grown
	}
	decoded, err := s2.Decode(out[len(out):len(out)+n], src)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress: %w", err)
	}
	return out[:len(out)+len(decoded)], nil
}

// lz4Codec is the standard LZ4 frame codec used by magic 1 and magic 2
// batches. Magic 0 batches apply the old-kafka quirk patch on top; see
// encodeOldKafkaLZ4 below.
type lz4Codec struct{}

var lz4WriterPool = sync.Pool{New: func() any { return lz4.NewWriter(nil) }}
var lz4ReaderPool = sync.Pool{New: func() any { return lz4.NewReader(nil) }}

func (lz4Codec) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := lz4WriterPool.Get().(*lz4.Writer)
	defer lz4WriterPool.Put(w)
	w.Reset(buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decompress(dst, src []byte) ([]byte, error) {
	r := lz4ReaderPool.Get().(*lz4.Reader)
	defer lz4ReaderPool.Put(r)
	r.Reset(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return buf.Bytes(), nil
}

type zstdCodec struct{}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderCRC(false))
		if err != nil {
			panic(err)
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		return dec
	},
}

func (zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, dst), nil
}

func (zstdCodec) Decompress(dst, src []byte) ([]byte, error) {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// --- legacy (magic 0/1) envelope handling ---
//
// Kafka's legacy message format never compresses a single message; instead
// a wrapper message carries, as its value, the concatenation of the inner
// messages run through one of the codecs above - plus, for snappy, an
// additional xerial chunked framing, and for lz4 on magic 0, a broken frame
// descriptor bit that a buggy early Java client produced and every reader
// since has had to tolerate.

var xerialHeader = []byte{0x82, 'S', 'N', 'A', 'P', 'P', 'Y', 0x00, 0, 0, 0, 1, 0, 0, 0, 1}

const xerialMaxChunkSize = 32 * 1024 * 1024

// encodeXerialSnappy frames src as a sequence of xerial chunks, each a
// 4-byte big-endian length prefix followed by a raw Snappy block.
func encodeXerialSnappy(src []byte) ([]byte, error) {
	out := append([]byte(nil), xerialHeader...)
	for len(src) > 0 {
		chunk := src
		if len(chunk) > xerialMaxChunkSize {
			chunk = chunk[:xerialMaxChunkSize]
		}
		src = src[len(chunk):]
		block := s2.EncodeSnappy(nil, chunk)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(block)))
		out = append(out, lenBuf[:]...)
		out = append(out, block...)
	}
	return out, nil
}

// decodeXerialSnappy reverses encodeXerialSnappy. If src does not start
// with the xerial magic header it is treated as a single unframed Snappy
// block instead, matching older non-chunked producers.
func decodeXerialSnappy(src []byte) ([]byte, error) {
	if !bytes.HasPrefix(src, xerialHeader) {
		return s2.Decode(nil, src)
	}
	src = src[len(xerialHeader):]
	var out []byte
	for len(src) > 0 {
		if len(src) < 4 {
			return nil, ErrCorruptRecord
		}
		chunkLen := binary.BigEndian.Uint32(src)
		src = src[4:]
		if uint64(chunkLen) > uint64(len(src)) {
			return nil, ErrCorruptRecord
		}
		block := src[:chunkLen]
		src = src[chunkLen:]
		decoded, err := s2.Decode(nil, block)
		if err != nil {
			return nil, fmt.Errorf("xerial snappy chunk: %w", err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// lz4FrameDescriptorFlagOffset is the byte offset of the FLG field within
// an LZ4 frame, immediately after the 4-byte magic number.
const lz4FrameDescriptorFlagOffset = 4

// lz4ContentSizeFlag is bit 3 of FLG, indicating a content-size field
// follows the frame descriptor.
const lz4ContentSizeFlag = 0x08

// flipLZ4ContentSizeFlag patches (in place, on a copy) the FLG byte of an
// LZ4 frame. Old Kafka clients wrote this bit inverted relative to the
// standard; this function is its own inverse, so it is used both to
// produce the quirked encoding and to repair it before standard decoding.
func flipLZ4ContentSizeFlag(frame []byte) []byte {
	if len(frame) <= lz4FrameDescriptorFlagOffset {
		return frame
	}
	out := append([]byte(nil), frame...)
	out[lz4FrameDescriptorFlagOffset] ^= lz4ContentSizeFlag
	return out
}

// encodeOldKafkaLZ4 compresses src as a standard LZ4 frame, then flips the
// content-size flag bit to match the wire format magic-0 consumers expect.
func encodeOldKafkaLZ4(src []byte) ([]byte, error) {
	frame, err := lz4Codec{}.Compress(nil, src)
	if err != nil {
		return nil, err
	}
	return flipLZ4ContentSizeFlag(frame), nil
}

// decodeOldKafkaLZ4 repairs the flipped flag bit and decodes the frame
// with the standard codec.
func decodeOldKafkaLZ4(src []byte) ([]byte, error) {
	return lz4Codec{}.Decompress(nil, flipLZ4ContentSizeFlag(src))
}
