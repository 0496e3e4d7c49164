package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// entrySize is the width of one persisted offset: an unsigned 64-bit
// little-endian integer.
const entrySize = 8

// errOffsetRange reports a lookup index at or beyond the line count.
// Callers treat it as "use the file size as the implicit end".
var errOffsetRange = errors.New("engine: offset index out of range")

// offsetStore holds the ordered line-start offsets. Implementations are
// read-only after the build phase and safe for concurrent lookups.
type offsetStore interface {
	// Count returns the number of lines in the index.
	Count() int64

	// OffsetAt returns the start offset of line i (0-based). Returns
	// errOffsetRange for i outside [0, Count).
	OffsetAt(i int64) (int64, error)
}

// memoryStore keeps the offset sequence in process memory.
type memoryStore struct {
	offsets []uint64
}

func (s *memoryStore) Count() int64 { return int64(len(s.offsets)) }

func (s *memoryStore) OffsetAt(i int64) (int64, error) {
	if i < 0 || i >= int64(len(s.offsets)) {
		return 0, errOffsetRange
	}
	return int64(s.offsets[i]), nil
}

// diskStore reads offsets from the sidecar index file. Only the path is
// held; each lookup opens its own handle and releases it before returning.
type diskStore struct {
	path  string
	count int64
}

func (s *diskStore) Count() int64 { return s.count }

func (s *diskStore) OffsetAt(i int64) (int64, error) {
	if i < 0 || i >= s.count {
		return 0, errOffsetRange
	}

	f, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("open index %s: %w", s.path, err)
	}
	defer f.Close()

	var buf [entrySize]byte
	if _, err := f.ReadAt(buf[:], i*entrySize); err != nil {
		return 0, fmt.Errorf("read index %s entry %d: %w", s.path, i, err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
