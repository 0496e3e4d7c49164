package platform

import (
	"fmt"
	"io"
	"os"
)

// preadReader opens the source file for each read and releases the handle
// on every exit path. No descriptor is shared across concurrent calls.
type preadReader struct {
	path string
	size int64
}

func (r *preadReader) ReadRange(off, length int64) ([]byte, error) {
	if off < 0 || length < 0 || off+length > r.size {
		return nil, fmt.Errorf("platform: range [%d, %d) outside file of %d bytes", off, off+length, r.size)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(f, off, length), buf); err != nil {
		return nil, fmt.Errorf("read %s at %d: %w", r.path, off, err)
	}
	return buf, nil
}

func (r *preadReader) Method() ReadMethod { return Pread }

func (r *preadReader) Close() error { return nil }
