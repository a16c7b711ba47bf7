package message

import (
	"bytes"
	"io"
	"testing"
)

// decodeAllBatches runs buf through the iterator and flattens every record
// from every batch it yields, in order. Used for legacy-format tests since
// an uncompressed legacy Build() returns N independently-framed messages
// rather than one batch, while a compressed Build() returns a single
// wrapper batch — both are valid outputs a fetch loop must handle via the
// iterator, not by assuming a fixed batch count.
func decodeAllBatches(t *testing.T, buf []byte, validateCRC bool) []Record {
	t.Helper()
	it := NewIterator(buf, validateCRC)
	var all []Record
	for it.HasNext() {
		r, err := it.NextBatch()
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		if r == nil {
			break
		}
		for {
			rec, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			all = append(all, rec)
		}
	}
	if it.Remaining() != 0 {
		t.Fatalf("iterator left %d unconsumed bytes over a well-formed buffer", it.Remaining())
	}
	return all
}

func TestLegacyBatch_RoundTrip(t *testing.T) {
	for _, magic := range []int8{0, 1} {
		for _, compression := range []CompressionType{CompressionNone, CompressionGzip, CompressionSnappy, CompressionLZ4, CompressionZstd} {
			t.Run(compression.String(), func(t *testing.T) {
				w := NewLegacyBatchWriter(magic, compression, 0)
				for i := 0; i < 10; i++ {
					if !w.Append(int64(i), 9999999, []byte("test"), []byte("Super")) {
						t.Fatalf("Append(%d) returned false", i)
					}
				}
				buf, err := w.Build()
				if err != nil {
					t.Fatalf("Build: %v", err)
				}

				records := decodeAllBatches(t, buf, true)
				if len(records) != 10 {
					t.Fatalf("decoded %d records, want 10", len(records))
				}
				for i, rec := range records {
					if rec.Offset != int64(i) {
						t.Errorf("record %d: offset = %d, want %d", i, rec.Offset, i)
					}
					if !bytes.Equal(rec.Key, []byte("test")) {
						t.Errorf("record %d: key = %q, want %q", i, rec.Key, "test")
					}
					if !bytes.Equal(rec.Value, []byte("Super")) {
						t.Errorf("record %d: value = %q, want %q", i, rec.Value, "Super")
					}
					if magic == 0 {
						if rec.HasTimestamp {
							t.Errorf("record %d: HasTimestamp = true, want false for magic 0", i)
						}
					} else {
						if !rec.HasTimestamp {
							t.Errorf("record %d: HasTimestamp = false, want true for magic 1", i)
						}
						if rec.Timestamp != 9999999 {
							t.Errorf("record %d: timestamp = %d, want 9999999", i, rec.Timestamp)
						}
					}
					if len(rec.Headers) != 0 {
						t.Errorf("record %d: headers = %v, want empty for magic < 2", i, rec.Headers)
					}
				}
			})
		}
	}
}

func TestLegacyBatch_FirstRecordAlwaysAccepted(t *testing.T) {
	w := NewLegacyBatchWriter(1, CompressionNone, 1)
	huge := make([]byte, 4096)
	if !w.Append(0, 1, nil, huge) {
		t.Fatal("first Append with oversized message returned false, want true")
	}
	if w.Append(1, 2, nil, huge) {
		t.Error("second Append exceeding BatchSize returned true, want false")
	}
}

func TestLegacyBatch_NullKeyAndValue(t *testing.T) {
	w := NewLegacyBatchWriter(1, CompressionNone, 0)
	if !w.Append(0, 5, nil, nil) {
		t.Fatal("Append returned false")
	}
	buf, err := w.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := NewLegacyBatchReader(buf, true)
	if err != nil {
		t.Fatalf("NewLegacyBatchReader: %v", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Key != nil || rec.Value != nil {
		t.Errorf("rec = %+v, want key and value nil", rec)
	}
}

func TestLegacyBatch_Magic0CompressedKeepsAbsoluteOffsets(t *testing.T) {
	// Magic 0's compressed wrapper stores inner offsets verbatim: the
	// open question in spec.md §9 resolved as absolute_base_offset == -1
	// (pass-through), matching original_source.
	w := NewLegacyBatchWriter(0, CompressionGzip, 0)
	for i := 5; i < 15; i++ {
		if !w.Append(int64(i), 0, []byte("k"), []byte("v")) {
			t.Fatalf("Append(%d) returned false", i)
		}
	}
	buf, err := w.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, err := NewLegacyBatchReader(buf, true)
	if err != nil {
		t.Fatalf("NewLegacyBatchReader: %v", err)
	}
	if r.Metadata().CompressionType != CompressionGzip {
		t.Skip("wrapper form was not smaller than uncompressed; offsets not exercised through this path")
	}
	i := 5
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if rec.Offset != int64(i) {
			t.Errorf("offset = %d, want %d (absolute, unmodified)", rec.Offset, i)
		}
		i++
	}
}

func TestLegacyBatch_LogAppendTimeOverridesInnerTimestamps(t *testing.T) {
	w := NewLegacyBatchWriter(1, CompressionGzip, 0)
	for i := 0; i < 5; i++ {
		if !w.Append(int64(i), int64(1000+i), []byte("k"), []byte("v")) {
			t.Fatalf("Append(%d) returned false", i)
		}
	}
	buf, err := w.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Flip the wrapper's timestamp-type bit (bit 3 of the attributes byte,
	// at offset 17 in the self-framed legacy message) to LOG_APPEND_TIME
	// and recompute its CRC, simulating a broker that overwrote it on
	// append.
	mutated := append([]byte(nil), buf...)
	const attrsOffset = 16 + 1 // Offset(8)+MessageSize(4)+CRC(4)+Magic(1)
	mutated[attrsOffset] |= 1 << 3
	msgSize := int32(mutated[8])<<24 | int32(mutated[9])<<16 | int32(mutated[10])<<8 | int32(mutated[11])
	crc := checksumLegacy(mutated[16 : 12+int(msgSize)])
	mutated[12] = byte(crc >> 24)
	mutated[13] = byte(crc >> 16)
	mutated[14] = byte(crc >> 8)
	mutated[15] = byte(crc)

	r, err := NewLegacyBatchReader(mutated, true)
	if err != nil {
		t.Fatalf("NewLegacyBatchReader: %v", err)
	}
	if r.Metadata().CompressionType != CompressionGzip {
		t.Skip("wrapper form was not smaller than uncompressed; LOG_APPEND_TIME override not exercised")
	}
	outer, err := decodeLegacyMessage(mutated, false)
	if err != nil {
		t.Fatalf("decodeLegacyMessage: %v", err)
	}
	wrapperTimestamp := outer.timestamp
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if rec.Timestamp != wrapperTimestamp {
			t.Errorf("timestamp = %d, want wrapper timestamp %d (LOG_APPEND_TIME overrides inner values)", rec.Timestamp, wrapperTimestamp)
		}
	}
}

func TestLegacyBatch_CrcMismatchDetected(t *testing.T) {
	w := NewLegacyBatchWriter(1, CompressionNone, 0)
	if !w.Append(0, 1, []byte("k"), []byte("v")) {
		t.Fatal("Append returned false")
	}
	buf, err := w.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mutated := append([]byte(nil), buf...)
	mutated[len(mutated)-1] ^= 0xFF

	_, err = NewLegacyBatchReader(mutated, true)
	if err == nil {
		t.Fatal("expected CRC mismatch error, got nil")
	}
}
