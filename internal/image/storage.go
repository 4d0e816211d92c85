package image

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/bamsammich/efs/internal/platform"
)

const compressedSuffix = ".zst"

// replaceFile writes an image to a temporary sibling of path and renames it
// over path once fn has written everything and the data is synced. size is
// the expected uncompressed length, used for preallocation.
//
// Symlinks are followed so the file they point to is replaced. Targets that
// exist but are not regular files (device nodes, dangling links) or that sit
// in a directory we cannot create files in are overwritten in place.
func replaceFile(path string, compressed bool, size int64, fn func(io.Writer) error) error {
	info, err := os.Lstat(path)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, evalErr := filepath.EvalSymlinks(path)
		if evalErr != nil {
			return overwriteFile(path, compressed, size, fn)
		}
		path = resolved
		info, err = os.Lstat(path)
	}
	exists := err == nil
	if exists {
		if info.IsDir() {
			return fmt.Errorf("%w: %s: is a directory", ErrOpenFailed, path)
		}
		if !info.Mode().IsRegular() {
			return overwriteFile(path, compressed, size, fn)
		}
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.efs-tmp", base, uuid.New().String()[:8]))

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if exists {
			return overwriteFile(path, compressed, size, fn)
		}
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer func() {
		_ = os.Remove(tmpPath) // no-op if rename succeeded
	}()

	if exists {
		if err := tmpFd.Chmod(info.Mode().Perm()); err != nil {
			tmpFd.Close()
			return fmt.Errorf("%w: chmod %s: %w", ErrOpenFailed, tmpPath, err)
		}
	}

	if err := writeTo(tmpFd, compressed, size, fn); err != nil {
		tmpFd.Close()
		return err
	}

	if err := tmpFd.Sync(); err != nil {
		tmpFd.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrShortWrite, tmpPath, err)
	}
	if err := tmpFd.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrShortWrite, tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename %s -> %s: %w", ErrShortWrite, tmpPath, path, err)
	}
	return nil
}

// overwriteFile truncates and writes path directly, keeping its inode, mode
// and any link pointing at it.
func overwriteFile(path string, compressed bool, size int64, fn func(io.Writer) error) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	if err := writeTo(fd, compressed, size, fn); err != nil {
		fd.Close()
		return err
	}

	// Character devices commonly reject fsync; only regular files must sync.
	if info, statErr := fd.Stat(); statErr == nil && info.Mode().IsRegular() {
		if err := fd.Sync(); err != nil {
			fd.Close()
			return fmt.Errorf("%w: sync %s: %w", ErrShortWrite, path, err)
		}
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrShortWrite, path, err)
	}
	return nil
}

func writeTo(fd *os.File, compressed bool, size int64, fn func(io.Writer) error) error {
	if !compressed {
		platform.Preallocate(fd, size)
		return fn(fd)
	}

	enc, err := zstd.NewWriter(fd, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("%w: zstd encoder: %w", ErrOpenFailed, err)
	}
	if err := fn(enc); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: zstd flush: %w", ErrShortWrite, err)
	}
	return nil
}

// openFile opens path for reading, decompressing it when compressed is set.
func openFile(path string, compressed bool) (io.ReadCloser, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	if !compressed {
		return fd, nil
	}

	dec, err := zstd.NewReader(fd, zstd.WithDecoderConcurrency(1))
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("%w: zstd decoder: %w", ErrOpenFailed, err)
	}
	return &decodedFile{ReadCloser: dec.IOReadCloser(), fd: fd}, nil
}

type decodedFile struct {
	io.ReadCloser
	fd *os.File
}

func (d *decodedFile) Close() error {
	return errors.Join(d.ReadCloser.Close(), d.fd.Close())
}
