package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// sampleSize bounds how much of the file the estimator reads.
const sampleSize = 1 << 20 // 1 MiB

// estimateLineCount projects the total line count from a bounded prefix
// sample. Never returns zero for a non-empty file, and clamps the estimate
// to size/2 (a line needs at least one content byte plus its terminator)
// so a degenerate sample cannot produce an absurd projection.
func estimateLineCount(f *os.File, size int64) (int64, error) {
	if size == 0 {
		return 0, nil
	}

	n := size
	if n > sampleSize {
		n = sampleSize
	}
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, fmt.Errorf("sample %s: %w", f.Name(), err)
	}

	newlines := int64(bytes.Count(buf, []byte{'\n'}))
	if newlines == 0 {
		// Nothing to extrapolate from; treat the whole file as one line.
		return 1, nil
	}

	avgLineLen := float64(n) / float64(newlines)
	est := int64(float64(size) / avgLineLen)
	if maxEst := size / 2; est > maxEst {
		est = maxEst
	}
	if est < 1 {
		est = 1
	}
	return est, nil
}
