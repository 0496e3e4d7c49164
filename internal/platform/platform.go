// Package platform selects the source-file read strategy.
//
// The engine performs many small positioned reads under concurrent load.
// Where the OS supports it the whole source file is memory-mapped once at
// startup; otherwise every read opens its own handle and uses a positioned
// read. Both strategies return identical bytes.
package platform

import "log/slog"

// ReadMethod identifies which strategy backs a Reader.
type ReadMethod int

const (
	Pread ReadMethod = iota // per-call open + positioned read
	Mmap                    // shared read-only memory mapping
)

func (m ReadMethod) String() string {
	switch m {
	case Pread:
		return "pread"
	case Mmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// Reader provides random-access reads of an immutable file. Implementations
// are safe for concurrent use: they share no mutable state across calls.
type Reader interface {
	// ReadRange returns exactly length bytes starting at byte offset off.
	ReadRange(off, length int64) ([]byte, error)

	// Method reports the strategy backing this reader.
	Method() ReadMethod

	// Close releases any resources held by the reader.
	Close() error
}

// OpenReader probes for memory-mapped access once and falls back to
// positioned reads. The capability check happens here, at startup, never
// per call.
func OpenReader(path string, size int64) (Reader, error) {
	if size > 0 {
		r, err := openMmap(path, size)
		if err == nil {
			return r, nil
		}
		slog.Debug("mmap unavailable, falling back to pread", "path", path, "error", err)
	}
	return &preadReader{path: path, size: size}, nil
}
