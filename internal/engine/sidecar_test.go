package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarPath_NextToSource(t *testing.T) {
	assert.Equal(t, "/data/big.log"+sidecarSuffix, sidecarPath("/data/big.log", ""))
}

func TestSidecarPath_IndexDir(t *testing.T) {
	a := sidecarPath("/data/big.log", "/var/cache/lineserve")
	b := sidecarPath("/data/big.log", "/var/cache/lineserve")
	c := sidecarPath("/data/other.log", "/var/cache/lineserve")

	assert.Equal(t, a, b, "derivation must be deterministic")
	assert.NotEqual(t, a, c, "distinct sources must not collide")
	assert.Equal(t, "/var/cache/lineserve", filepath.Dir(a))
	assert.True(t, strings.HasSuffix(a, sidecarSuffix))
	// 8 hash bytes hex-encoded.
	assert.Len(t, filepath.Base(a), 16+len(sidecarSuffix))
}

func TestValidSidecar(t *testing.T) {
	dir := t.TempDir()
	side := filepath.Join(dir, "source.txt"+sidecarSuffix)
	srcMod := time.Now().Add(-time.Hour)

	// Missing.
	_, ok := validSidecar(side, srcMod)
	assert.False(t, ok)

	// Newer than the source and a whole number of entries: valid.
	require.NoError(t, os.WriteFile(side, make([]byte, 3*entrySize), 0644))
	info, ok := validSidecar(side, srcMod)
	require.True(t, ok)
	assert.Equal(t, int64(3*entrySize), info.Size())

	// Equal mtime is stale: reuse requires strictly newer.
	require.NoError(t, os.Chtimes(side, srcMod, srcMod))
	_, ok = validSidecar(side, srcMod)
	assert.False(t, ok)

	// Older is stale.
	older := srcMod.Add(-time.Hour)
	require.NoError(t, os.Chtimes(side, older, older))
	_, ok = validSidecar(side, srcMod)
	assert.False(t, ok)

	// Truncated to a partial entry: invalid even when newer.
	require.NoError(t, os.WriteFile(side, make([]byte, entrySize+3), 0644))
	_, ok = validSidecar(side, srcMod)
	assert.False(t, ok)
}
