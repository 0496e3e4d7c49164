// Package engine builds a byte-offset line index over one immutable text
// file and serves O(1) line lookups from it.
//
// The index is an ordered sequence of line-start offsets, held either in
// process memory or in a persisted sidecar file, chosen adaptively from an
// estimate of the file's line count. An engine is built once, synchronously,
// and is immutable afterward; GetLine is safe for any number of concurrent
// callers.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/linewise/lineserve/internal/platform"
	"github.com/linewise/lineserve/internal/stats"
)

// ErrLineNotFound reports a line number outside the file, or a line made
// unavailable by a read-time I/O failure. It is a normal query outcome,
// never a fault of the engine.
var ErrLineNotFound = errors.New("engine: line not found")

// IndexMode identifies where the offset sequence lives.
type IndexMode int

const (
	ModeMemory IndexMode = iota // in-process []uint64
	ModeDisk                    // persisted flat array of u64le offsets
)

func (m IndexMode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// DefaultMemoryThreshold is the projected index size above which the
// builder switches to the disk representation.
const DefaultMemoryThreshold = int64(512) << 20

// Config controls index construction.
type Config struct {
	// MemoryThreshold is the projected index size in bytes above which
	// the disk representation is chosen. Zero means DefaultMemoryThreshold.
	MemoryThreshold int64

	// ForceDisk bypasses estimation and always builds the disk index.
	ForceDisk bool

	// IndexDir, when set, holds sidecar index files instead of placing
	// them next to the source.
	IndexDir string

	// Stats receives build and query counters. Optional.
	Stats *stats.Collector
}

// Engine serves line lookups for one source file. Immutable after New;
// all methods are safe for concurrent use.
type Engine struct {
	path    string
	size    int64
	modTime time.Time
	mode    IndexMode
	store   offsetStore
	reader  platform.Reader
	stats   *stats.Collector
}

// New opens the source file, reuses a still-valid persisted index or
// builds a fresh one, and selects the read strategy. Any failure here is
// fatal: a missing or unreadable file, or any I/O error during the scan
// or index load, aborts construction.
func New(path string, cfg Config) (*Engine, error) {
	if cfg.MemoryThreshold <= 0 {
		cfg.MemoryThreshold = DefaultMemoryThreshold
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()

	e := &Engine{
		path:    abs,
		size:    info.Size(),
		modTime: info.ModTime(),
		stats:   cfg.Stats,
	}

	side := sidecarPath(abs, cfg.IndexDir)
	if sideInfo, ok := validSidecar(side, info.ModTime()); ok {
		e.mode = ModeDisk
		e.store = &diskStore{path: side, count: sideInfo.Size() / entrySize}
		e.stats.AddLinesIndexed(e.store.Count())
		slog.Info("reusing persisted index", "index", side, "lines", e.store.Count())
	} else {
		store, mode, buildErr := buildIndex(f, info.Size(), side, cfg)
		if buildErr != nil {
			return nil, fmt.Errorf("build index: %w", buildErr)
		}
		e.store = store
		e.mode = mode
	}

	reader, err := platform.OpenReader(abs, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	e.reader = reader
	slog.Debug("read strategy selected", "method", reader.Method().String())

	return e, nil
}

// GetLine returns the content of the 1-based line n with its terminator
// stripped. Returns ErrLineNotFound for n outside [1, LineCount] and for
// read-time I/O failures, which are logged and never fatal.
func (e *Engine) GetLine(n int64) (string, error) {
	count := e.store.Count()
	if n < 1 || n > count {
		e.stats.AddNotFound(1)
		return "", ErrLineNotFound
	}

	start, err := e.store.OffsetAt(n - 1)
	if err != nil {
		slog.Warn("offset lookup failed", "line", n, "error", err)
		e.stats.AddNotFound(1)
		return "", ErrLineNotFound
	}

	// The end of line n is one byte before line n+1 starts; the last
	// line ends at the file size with no terminator to exclude.
	end := e.size
	if n < count {
		next, nextErr := e.store.OffsetAt(n)
		if nextErr != nil {
			slog.Warn("offset lookup failed", "line", n+1, "error", nextErr)
			e.stats.AddNotFound(1)
			return "", ErrLineNotFound
		}
		end = next - 1
	}

	length := end - start
	if length <= 0 {
		e.stats.AddLinesServed(1)
		return "", nil
	}

	b, err := e.reader.ReadRange(start, length)
	if err != nil {
		slog.Warn("line read failed", "line", n, "offset", start, "error", err)
		e.stats.AddNotFound(1)
		return "", ErrLineNotFound
	}
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}

	e.stats.AddLinesServed(1)
	e.stats.AddBytesServed(int64(len(b)))
	return string(b), nil
}

// LineCount returns the number of lines in the indexed file.
func (e *Engine) LineCount() int64 { return e.store.Count() }

// Mode reports which index representation is in use.
func (e *Engine) Mode() IndexMode { return e.mode }

// ReadMethod reports the source read strategy in use.
func (e *Engine) ReadMethod() string { return e.reader.Method().String() }

// Path returns the absolute source file path.
func (e *Engine) Path() string { return e.path }

// Size returns the source file size captured at construction.
func (e *Engine) Size() int64 { return e.size }

// Close releases the read strategy's resources. The engine must not be
// used afterward.
func (e *Engine) Close() error {
	return e.reader.Close()
}
