//go:build unix

package platform

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mmapReader serves reads out of a shared read-only mapping of the whole
// source file. The mapping is created once at startup and only ever read,
// so no synchronization is needed.
type mmapReader struct {
	data []byte
}

func openMmap(path string, size int64) (Reader, error) {
	if size > math.MaxInt {
		return nil, fmt.Errorf("platform: file of %d bytes exceeds addressable mapping size", size)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// The mapping outlives the descriptor.
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &mmapReader{data: data}, nil
}

func (r *mmapReader) ReadRange(off, length int64) ([]byte, error) {
	if off < 0 || length < 0 || off+length > int64(len(r.data)) {
		return nil, fmt.Errorf("platform: range [%d, %d) outside mapped region of %d bytes", off, off+length, len(r.data))
	}
	out := make([]byte, length)
	copy(out, r.data[off:off+length])
	return out, nil
}

func (r *mmapReader) Method() ReadMethod { return Mmap }

func (r *mmapReader) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
