package message

import (
	"bytes"
	"io"
	"testing"
)

// threeStubBatches is a real three-batch, magic-2 fetch response captured
// from a Kafka 0.11 broker (aiokafka's record-reader test fixture): batch
// one holds a single record, batch two holds two, batch three holds one.
// All three carry valid CRC32C checksums.
var threeStubBatches = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x3b, 0x00, 0x00, 0x00, 0x01,
	0x02, 0x03, 0x18, 0xa2, 0x70, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x5d, 0xff,
	0x7b, 0x06, 0x3c, 0x00, 0x00, 0x01, 0x5d, 0xff, 0x7b, 0x06, 0x3c, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x01, 0x12, 0x00, 0x00,
	0x00, 0x01, 0x06, 0x31, 0x32, 0x33, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x02, 0x02, 0xc8, 0x5c, 0xbd, 0x23, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x01, 0x00, 0x00, 0x01, 0x5d, 0xff, 0x7c, 0xdd, 0x6c, 0x00, 0x00, 0x01, 0x5d, 0xff, 0x7c,
	0xde, 0x14, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x00, 0x00, 0x00, 0x02, 0x0c, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x0e, 0x00, 0xd0, 0x02, 0x02,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x3b, 0x00,
	0x00, 0x00, 0x02, 0x02, 0x2e, 0x0b, 0x85, 0xb7, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x5d, 0xff, 0x7c, 0xe7, 0x9d, 0x00, 0x00, 0x01, 0x5d, 0xff, 0x7c, 0xe7, 0x9d, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x01,
	0x12, 0x00, 0x00, 0x00, 0x01, 0x06, 0x31, 0x32, 0x33, 0x00,
}

type wantRecord struct {
	attrs     int8
	timestamp int64
	offset    int64
	key       []byte
	value     []byte
}

var threeStubBatchesExpected = []wantRecord{
	{0, 1503229838908, 0, nil, []byte("123")},
	{0, 1503229959532, 1, nil, []byte("")},
	{0, 1503229959700, 2, nil, []byte("")},
	{0, 1503229962141, 3, nil, []byte("123")},
}

func TestIterator_ConcatenationOfMixedBatches(t *testing.T) {
	it := NewIterator(threeStubBatches, true)

	var got []wantRecord
	batchCount := 0
	for it.HasNext() {
		r, err := it.NextBatch()
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		if r == nil {
			break
		}
		batchCount++
		for {
			rec, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			got = append(got, wantRecord{rec.Attrs, rec.Timestamp, rec.Offset, rec.Key, rec.Value})
		}
	}

	if batchCount != 3 {
		t.Errorf("consumed %d batches, want 3", batchCount)
	}
	if it.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", it.Remaining())
	}
	if it.ValidBytes() != it.SizeInBytes() {
		t.Errorf("ValidBytes() = %d, SizeInBytes() = %d, want equal", it.ValidBytes(), it.SizeInBytes())
	}

	if len(got) != len(threeStubBatchesExpected) {
		t.Fatalf("decoded %d records, want %d", len(got), len(threeStubBatchesExpected))
	}
	for i, want := range threeStubBatchesExpected {
		g := got[i]
		if g.attrs != want.attrs || g.timestamp != want.timestamp || g.offset != want.offset ||
			!bytes.Equal(g.key, want.key) || !bytes.Equal(g.value, want.value) {
			t.Errorf("record %d = %+v, want %+v", i, g, want)
		}
	}
}

// firstTwoBatchesSize is the byte length of the first two whole batches in
// threeStubBatches (71 + 76); the third batch (71 bytes) is left as a
// partial tail of varying size k by the test below.
const firstTwoBatchesSize = 71 + 76

func TestIterator_TruncationTolerance(t *testing.T) {
	thirdBatchSize := len(threeStubBatches) - firstTwoBatchesSize
	for k := 1; k < thirdBatchSize; k++ {
		// Keep both whole batches plus the leading k bytes of the third,
		// i.e. the last (thirdBatchSize-k) bytes of the full buffer have
		// been removed, leaving exactly k unconsumed trailing bytes.
		truncated := threeStubBatches[:firstTwoBatchesSize+k]
		it := NewIterator(truncated, true)

		var batches int
		for it.HasNext() {
			r, err := it.NextBatch()
			if err != nil {
				t.Fatalf("k=%d: NextBatch: %v", k, err)
			}
			if r == nil {
				break
			}
			batches++
			for {
				if _, err := r.Next(); err == io.EOF {
					break
				} else if err != nil {
					t.Fatalf("k=%d: Next: %v", k, err)
				}
			}
		}

		if batches != 2 {
			t.Errorf("k=%d: consumed %d batches, want exactly 2 (the third is incomplete)", k, batches)
		}
		if it.Remaining() != k {
			t.Errorf("k=%d: Remaining() = %d, want %d", k, it.Remaining(), k)
		}
		if it.ValidBytes()+it.Remaining() != it.SizeInBytes() {
			t.Errorf("k=%d: ValidBytes+Remaining = %d, want SizeInBytes = %d",
				k, it.ValidBytes()+it.Remaining(), it.SizeInBytes())
		}
	}
}

func TestIterator_EmptyBuffer(t *testing.T) {
	it := NewIterator(nil, false)
	if it.HasNext() {
		t.Error("HasNext() on empty buffer = true, want false")
	}
	if it.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", it.Remaining())
	}
}

func TestIterator_DeclaredLengthBelowMinimumIsCorrupt(t *testing.T) {
	buf := make([]byte, 20)
	// Length field at offset 8: declare a length smaller than the minimum
	// possible record overhead (negative after the 12-byte floor check).
	buf[8], buf[9], buf[10], buf[11] = 0xff, 0xff, 0xff, 0xff // -1
	it := NewIterator(buf, false)
	if _, err := it.NextBatch(); err == nil {
		t.Fatal("expected an error for a negative declared length, got nil")
	}
}
