package engine

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/linewise/lineserve/internal/stats"
)

const (
	// memoryChunkSize is the scan read size in memory mode.
	memoryChunkSize = 256 << 10
	// diskChunkSize is the scan read size in disk mode; larger chunks
	// amortize syscalls over the bigger files that select this mode.
	diskChunkSize = 1 << 20
	// hugeFileCutoff skips estimation entirely: a file this large always
	// takes the disk index.
	hugeFileCutoff = int64(10) << 30
)

// chooseMode decides the index representation before scanning starts.
func chooseMode(f *os.File, size int64, cfg Config) (IndexMode, error) {
	if cfg.ForceDisk {
		return ModeDisk, nil
	}
	if size > hugeFileCutoff {
		return ModeDisk, nil
	}

	est, err := estimateLineCount(f, size)
	if err != nil {
		return ModeMemory, err
	}
	projected := est * entrySize
	slog.Debug("estimated index size",
		"lines", est,
		"projected", stats.FormatBytes(projected),
		"threshold", stats.FormatBytes(cfg.MemoryThreshold),
	)
	if projected > cfg.MemoryThreshold {
		return ModeDisk, nil
	}
	return ModeMemory, nil
}

// buildIndex runs the single-pass scan, sending offsets to the sink the
// chosen mode requires. Any error aborts construction; there is no
// partial or resumable state.
func buildIndex(f *os.File, size int64, sidecar string, cfg Config) (offsetStore, IndexMode, error) {
	mode, err := chooseMode(f, size, cfg)
	if err != nil {
		return nil, mode, err
	}

	var sink offsetSink
	chunkSize := memoryChunkSize
	if mode == ModeDisk {
		ds, dsErr := newDiskSink(sidecar)
		if dsErr != nil {
			return nil, mode, dsErr
		}
		sink = ds
		chunkSize = diskChunkSize
	} else {
		sink = &memorySink{}
	}

	if err := scan(f, size, sink, chunkSize, cfg.Stats); err != nil {
		sink.abort()
		return nil, mode, err
	}

	store, err := sink.finish()
	if err != nil {
		return nil, mode, err
	}
	return store, mode, nil
}

// scan streams the file in fixed-size chunks, emitting a line-start offset
// for byte 0 and for every position following a newline. A newline that is
// the final byte of the file starts no new line.
func scan(f *os.File, size int64, sink offsetSink, chunkSize int, st *stats.Collector) error {
	if size == 0 {
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", f.Name(), err)
	}

	if err := sink.emit(0); err != nil {
		return err
	}
	st.AddLinesIndexed(1)

	buf := make([]byte, chunkSize)
	var pos int64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			data := buf[:n]
			rel := 0
			for {
				i := bytes.IndexByte(data[rel:], '\n')
				if i < 0 {
					break
				}
				p := pos + int64(rel+i)
				if p+1 < size {
					if emitErr := sink.emit(p + 1); emitErr != nil {
						return emitErr
					}
					st.AddLinesIndexed(1)
				}
				rel += i + 1
			}
			pos += int64(n)
			st.AddBytesScanned(int64(n))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", f.Name(), err)
		}
	}
}

// offsetSink receives line-start offsets in ascending order during the scan.
type offsetSink interface {
	emit(off int64) error
	finish() (offsetStore, error)
	abort()
}

// memorySink accumulates offsets in a slice.
type memorySink struct {
	offsets []uint64
}

func (s *memorySink) emit(off int64) error {
	s.offsets = append(s.offsets, uint64(off))
	return nil
}

func (s *memorySink) finish() (offsetStore, error) {
	return &memoryStore{offsets: s.offsets}, nil
}

func (s *memorySink) abort() {}

// diskSink streams offsets to a temp file and renames it into place on
// finish, so an interrupted scan never leaves a sidecar that passes the
// staleness check.
type diskSink struct {
	dst   string
	tmp   *os.File
	w     *bufio.Writer
	count int64
}

func newDiskSink(dst string) (*diskSink, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create index temp file: %w", err)
	}
	return &diskSink{
		dst: dst,
		tmp: tmp,
		w:   bufio.NewWriterSize(tmp, 64<<10),
	}, nil
}

func (s *diskSink) emit(off int64) error {
	var buf [entrySize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(off))
	if _, err := s.w.Write(buf[:]); err != nil {
		return fmt.Errorf("write index entry: %w", err)
	}
	s.count++
	return nil
}

func (s *diskSink) finish() (offsetStore, error) {
	if err := s.w.Flush(); err != nil {
		s.abort()
		return nil, fmt.Errorf("flush index: %w", err)
	}
	if err := s.tmp.Sync(); err != nil {
		s.abort()
		return nil, fmt.Errorf("sync index: %w", err)
	}
	tmpName := s.tmp.Name()
	if err := s.tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmpName, s.dst); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("publish index %s: %w", s.dst, err)
	}

	// The persisted length must agree with the count tracked during the scan.
	info, err := os.Stat(s.dst)
	if err != nil {
		return nil, fmt.Errorf("stat index %s: %w", s.dst, err)
	}
	if info.Size() != s.count*entrySize {
		return nil, fmt.Errorf("index %s holds %d bytes, want %d entries", s.dst, info.Size(), s.count)
	}
	return &diskStore{path: s.dst, count: s.count}, nil
}

func (s *diskSink) abort() {
	name := s.tmp.Name()
	s.tmp.Close()
	os.Remove(name)
}
