// Package image builds and loads EFS images: a layout.Header followed by
// exactly Header.MaxBlock layout.Entry records.
package image

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bamsammich/efs/internal/layout"
)

// Defaults written by Format. Disk geometry is not configurable.
const (
	DefaultSizeBloc  uint32 = 255
	DefaultMaxBlock  uint32 = 100
	DefaultFreeBlock uint32 = 100

	RootName     = "root"
	RootMaxBlock = 5
)

// DefaultMaxEntries bounds the entry table a loaded header may declare.
const DefaultMaxEntries uint32 = 1 << 16

// Options tunes Format and Load. The zero value is ready to use.
type Options struct {
	// MaxEntries rejects images declaring a larger entry table.
	// Zero means DefaultMaxEntries.
	MaxEntries uint32
	// Now stamps the root entry. Nil means time.Now.
	Now func() time.Time
}

func (o Options) maxEntries() uint32 {
	if o.MaxEntries == 0 {
		return DefaultMaxEntries
	}
	return o.MaxEntries
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// FileSystem is an image held in memory.
type FileSystem struct {
	Header  layout.Header
	Entries []layout.Entry
}

// New returns a freshly formatted FileSystem: default geometry, a zeroed
// entry table and the root directory in slot 0.
func New(now time.Time) *FileSystem {
	fs := &FileSystem{
		Header: layout.NewHeader(DefaultSizeBloc, DefaultMaxBlock, DefaultFreeBlock),
	}
	fs.Entries = make([]layout.Entry, fs.Header.MaxBlock)

	ts := uint64(now.Unix()) //nolint:gosec // G115: pre-1970 clocks are not supported
	root := &fs.Entries[0]
	root.ID = 0
	root.ParentID = 0
	_ = root.SetName(RootName) //nolint:errcheck // constant name fits
	root.Type = layout.Directory
	root.Permissions = layout.PermRead | layout.PermWrite
	root.CreatedAt = ts
	root.ModifiedAt = ts
	root.IsDelete = 0
	root.MinBlock = 0
	root.MaxBlock = RootMaxBlock
	return fs
}

// Root returns the root directory entry.
func (fs *FileSystem) Root() *layout.Entry {
	return &fs.Entries[0]
}

// Used returns the number of non-empty slots.
func (fs *FileSystem) Used() int {
	n := 0
	for i := range fs.Entries {
		if !fs.Entries[i].IsEmpty() {
			n++
		}
	}
	return n
}

// WriteTo writes the header and then every entry. It implements io.WriterTo.
func (fs *FileSystem) WriteTo(w io.Writer) (int64, error) {
	if len(fs.Entries) != int(fs.Header.MaxBlock) {
		return 0, fmt.Errorf("%w: entry table has %d slots, header declares %d",
			ErrShortWrite, len(fs.Entries), fs.Header.MaxBlock)
	}

	hdr := layout.EncodeHeader(fs.Header)
	n, err := w.Write(hdr)
	total := int64(n)
	if err == nil && n != len(hdr) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return total, fmt.Errorf("%w: header: %w", ErrShortWrite, err)
	}

	table := make([]byte, 0, len(fs.Entries)*layout.EntrySize)
	for i := range fs.Entries {
		table = layout.AppendEntry(table, &fs.Entries[i])
	}
	n, err = w.Write(table)
	total += int64(n)
	if err == nil && n != len(table) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return total, fmt.Errorf("%w: entry table (%d of %d bytes): %w", ErrShortWrite, n, len(table), err)
	}
	return total, nil
}

// Read decodes a FileSystem from r. The header is validated before the
// entry table is allocated; maxEntries bounds its size (zero means
// DefaultMaxEntries). On error no FileSystem is returned.
func Read(r io.Reader, maxEntries uint32) (*FileSystem, error) {
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}
	var hdr [layout.HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrShortRead, err)
	}
	header, err := layout.DecodeHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	if err := header.Validate(maxEntries); err != nil {
		return nil, err
	}

	table := make([]byte, int(header.MaxBlock)*layout.EntrySize)
	if n, err := io.ReadFull(r, table); err != nil {
		return nil, fmt.Errorf("%w: entry table: read %d of %d entries: %w",
			ErrShortRead, n/layout.EntrySize, header.MaxBlock, err)
	}

	fs := &FileSystem{
		Header:  header,
		Entries: make([]layout.Entry, header.MaxBlock),
	}
	for i := range fs.Entries {
		off := i * layout.EntrySize
		if err := layout.DecodeEntry(table[off:off+layout.EntrySize], &fs.Entries[i]); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Format writes a freshly formatted image to disk.Name, replacing whatever
// was there. The target is only replaced once the whole image is persisted.
func Format(disk Disk, opts Options) error {
	fs := New(opts.now())

	err := replaceFile(disk.Name, disk.Compressed(), fs.Header.ImageSize(), func(w io.Writer) error {
		_, err := fs.WriteTo(w)
		return err
	})
	if err != nil {
		return err
	}

	slog.Debug("formatted image",
		"path", disk.Name,
		"type", disk.Type,
		"entries", fs.Header.MaxBlock,
		"bytes", fs.Header.ImageSize(),
	)
	return nil
}

// Load reads the image at disk.Name. Errors mention the path once.
func Load(disk Disk, opts Options) (*FileSystem, error) {
	rc, err := openFile(disk.Name, disk.Compressed())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	fs, err := Read(rc, opts.maxEntries())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", disk.Name, err)
	}

	slog.Debug("loaded image",
		"path", disk.Name,
		"type", disk.Type,
		"entries", len(fs.Entries),
		"used", fs.Used(),
	)
	return fs, nil
}
