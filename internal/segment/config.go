package segment

type Config struct {
	SegmentMaxBytes int64
	IndexMaxBytes   int64

	// IndexIntervalBytes bounds how many log bytes may accumulate between
	// index entries; 0 means index every batch.
	IndexIntervalBytes int64

	// ValidateCRC, when true, makes Append recompute and check the CRC32C
	// of every produced batch before it is written to the log. Recovery
	// scans never validate, regardless of this setting, since a corrupt
	// tail is truncated by recover() on length/shape grounds alone and
	// re-validating already-durable data on every restart is wasted work.
	ValidateCRC bool
}

func DefaultConfig() Config {
	return Config{
		SegmentMaxBytes:    1 << 30,  // 1GB
		IndexMaxBytes:      10 << 20, // 10MB
		IndexIntervalBytes: 4096,
		ValidateCRC:        true,
	}
}
