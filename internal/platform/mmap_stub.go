//go:build !unix

package platform

import "errors"

// openMmap always fails on platforms without unix mmap; OpenReader falls
// back to positioned reads.
func openMmap(_ string, _ int64) (Reader, error) {
	return nil, errors.New("platform: mmap not supported")
}
