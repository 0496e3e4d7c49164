package engine

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// sidecarSuffix is appended to the source path (or hashed name) to form
// the persisted index file name.
const sidecarSuffix = ".lineidx"

// sidecarPath returns the deterministic location of the persisted index
// for the given absolute source path. With no index directory configured
// the sidecar sits next to the source; otherwise its name is derived by
// hashing the source path so distinct sources cannot collide.
func sidecarPath(srcAbs, indexDir string) string {
	if indexDir == "" {
		return srcAbs + sidecarSuffix
	}
	h := blake3.New()
	h.Write([]byte(srcAbs))
	digest := h.Sum(nil)
	return filepath.Join(indexDir, hex.EncodeToString(digest[:8])+sidecarSuffix)
}

// validSidecar reports whether the persisted index at path can be reused
// for a source last modified at srcModTime. Reuse requires the sidecar to
// exist, be strictly newer than the source, and hold a whole number of
// entries; any other state triggers a rebuild.
func validSidecar(path string, srcModTime time.Time) (os.FileInfo, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if !info.ModTime().After(srcModTime) {
		return nil, false
	}
	if info.Size()%entrySize != 0 {
		return nil, false
	}
	return info, true
}
