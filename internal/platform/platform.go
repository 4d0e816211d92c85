// Package platform holds OS-specific helpers for writing image files.
package platform

import "os"

// Preallocate reserves size bytes for fd. It is advisory: filesystems
// without fallocate support are silently ignored.
func Preallocate(fd *os.File, size int64) {
	if size <= 0 {
		return
	}
	preallocate(fd, size)
}
