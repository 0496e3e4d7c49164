package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func estimateContent(t *testing.T, content string) int64 {
	t.Helper()
	path := filepath.Join(t.TempDir(), "est.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	est, err := estimateLineCount(f, int64(len(content)))
	require.NoError(t, err)
	return est
}

func TestEstimate_EmptyFile(t *testing.T) {
	assert.Equal(t, int64(0), estimateContent(t, ""))
}

func TestEstimate_NoNewlines(t *testing.T) {
	// A non-empty sample without terminators is one line, never zero.
	assert.Equal(t, int64(1), estimateContent(t, strings.Repeat("z", 4096)))
}

func TestEstimate_UniformLines(t *testing.T) {
	content := strings.Repeat(strings.Repeat("a", 99)+"\n", 1000)
	est := estimateContent(t, content)
	assert.Equal(t, int64(1000), est)
}

func TestEstimate_ClampsAdversarialSample(t *testing.T) {
	// All-terminator content projects one byte per line; the clamp caps
	// the estimate at two bytes per line.
	content := strings.Repeat("\n", 64)
	est := estimateContent(t, content)
	assert.Equal(t, int64(32), est)
}

func TestEstimate_LongerThanSample(t *testing.T) {
	// 2 MiB of 64-byte lines: the 1 MiB sample must extrapolate to the
	// whole file.
	line := strings.Repeat("b", 63) + "\n"
	content := strings.Repeat(line, (2<<20)/64)
	est := estimateContent(t, content)
	assert.Equal(t, int64((2<<20)/64), est)
}
