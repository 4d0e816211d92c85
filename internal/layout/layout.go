package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic identifies an EFS image.
	Magic = "EFS"

	// Version is the only format version this package reads and writes.
	Version uint8 = 1

	// NameSize is the fixed size of the name buffer in an Entry, including
	// the terminating NUL.
	NameSize = 256

	// HeaderSize is the encoded size of a Header:
	// 3 bytes magic + 3 x u32 + 1 byte version.
	HeaderSize = 3 + 4 + 4 + 4 + 1

	// EntrySize is the encoded size of an Entry.
	EntrySize = 4 + 4 + NameSize + 4 + 4 + 8 + 8 + 1 + 4 + 4
)

var byteOrder = binary.LittleEndian

var (
	// ErrShortBuffer is returned when a decode input is smaller than the record.
	ErrShortBuffer = errors.New("buffer smaller than record size")

	// ErrNameTooLong is returned when an entry name does not fit in NameSize-1 bytes.
	ErrNameTooLong = errors.New("entry name too long")

	// ErrInvalidFormat is returned when a decoded header is not a usable EFS header.
	ErrInvalidFormat = errors.New("invalid image format")
)

// EntryType classifies an entry.
type EntryType uint32

const (
	Directory EntryType = iota
	File
	Executable
	Library
)

var entryTypeNames = [...]string{
	Directory:  "directory",
	File:       "file",
	Executable: "executable",
	Library:    "library",
}

func (t EntryType) String() string {
	if int(t) < len(entryTypeNames) {
		return entryTypeNames[t]
	}
	return "unknown"
}

// Permission is the access bitmask stored in an entry.
type Permission uint32

const (
	PermNone    Permission = 0
	PermExecute Permission = 1
	PermWrite   Permission = 2
	PermRead    Permission = 4
)

// Has reports whether every bit of q is set in p.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

// Header is the fixed record at offset 0 of an image.
type Header struct {
	Magic     [3]byte
	SizeBloc  uint32
	MaxBlock  uint32
	FreeBlock uint32
	Version   uint8
}

// Entry is one metadata record in the entry table.
type Entry struct {
	ID          uint32
	ParentID    uint32
	Name        [NameSize]byte
	Type        EntryType
	Permissions Permission
	CreatedAt   uint64
	ModifiedAt  uint64
	IsDelete    uint8
	MinBlock    uint32
	MaxBlock    uint32
}

// NewHeader returns a header carrying the EFS magic and current version.
func NewHeader(sizeBloc, maxBlock, freeBlock uint32) Header {
	h := Header{
		SizeBloc:  sizeBloc,
		MaxBlock:  maxBlock,
		FreeBlock: freeBlock,
		Version:   Version,
	}
	copy(h.Magic[:], Magic)
	return h
}

// MagicString returns the magic bytes as a string.
func (h Header) MagicString() string {
	return string(h.Magic[:])
}

// ImageSize returns the total encoded size of an image with this header.
func (h Header) ImageSize() int64 {
	return HeaderSize + int64(h.MaxBlock)*EntrySize
}

// Validate checks the header before its entry table is allocated.
// maxEntries bounds MaxBlock; zero disables the bound.
func (h Header) Validate(maxEntries uint32) error {
	if h.MagicString() != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, h.Magic[:])
	}
	if h.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.Version)
	}
	if h.MaxBlock == 0 {
		return fmt.Errorf("%w: empty entry table", ErrInvalidFormat)
	}
	if maxEntries > 0 && h.MaxBlock > maxEntries {
		return fmt.Errorf("%w: max_block %d exceeds limit %d", ErrInvalidFormat, h.MaxBlock, maxEntries)
	}
	if h.FreeBlock > h.MaxBlock {
		return fmt.Errorf("%w: free_block %d > max_block %d", ErrInvalidFormat, h.FreeBlock, h.MaxBlock)
	}
	return nil
}

// NameString returns the name up to the first NUL.
func (e *Entry) NameString() string {
	if i := bytes.IndexByte(e.Name[:], 0); i >= 0 {
		return string(e.Name[:i])
	}
	return string(e.Name[:])
}

// SetName stores name NUL-padded into the fixed buffer.
func (e *Entry) SetName(name string) error {
	if len(name) > NameSize-1 {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrNameTooLong, len(name), NameSize-1)
	}
	e.Name = [NameSize]byte{}
	copy(e.Name[:], name)
	return nil
}

// IsEmpty reports whether the slot is unused. Unused slots are all zero.
func (e *Entry) IsEmpty() bool {
	return *e == Entry{}
}

// IsDeleted reports whether the entry is tombstoned.
func (e *Entry) IsDeleted() bool {
	return e.IsDelete != 0
}

// AppendHeader appends the encoded header to b.
func AppendHeader(b []byte, h Header) []byte {
	b = append(b, h.Magic[:]...)
	b = byteOrder.AppendUint32(b, h.SizeBloc)
	b = byteOrder.AppendUint32(b, h.MaxBlock)
	b = byteOrder.AppendUint32(b, h.FreeBlock)
	return append(b, h.Version)
}

// EncodeHeader returns the HeaderSize-byte encoding of h.
func EncodeHeader(h Header) []byte {
	return AppendHeader(make([]byte, 0, HeaderSize), h)
}

// DecodeHeader decodes the first HeaderSize bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("decode header: %w: have %d, need %d", ErrShortBuffer, len(b), HeaderSize)
	}
	var h Header
	copy(h.Magic[:], b[0:3])
	h.SizeBloc = byteOrder.Uint32(b[3:7])
	h.MaxBlock = byteOrder.Uint32(b[7:11])
	h.FreeBlock = byteOrder.Uint32(b[11:15])
	h.Version = b[15]
	return h, nil
}

// AppendEntry appends the encoded entry to b.
func AppendEntry(b []byte, e *Entry) []byte {
	b = byteOrder.AppendUint32(b, e.ID)
	b = byteOrder.AppendUint32(b, e.ParentID)
	b = append(b, e.Name[:]...)
	b = byteOrder.AppendUint32(b, uint32(e.Type))
	b = byteOrder.AppendUint32(b, uint32(e.Permissions))
	b = byteOrder.AppendUint64(b, e.CreatedAt)
	b = byteOrder.AppendUint64(b, e.ModifiedAt)
	b = append(b, e.IsDelete)
	b = byteOrder.AppendUint32(b, e.MinBlock)
	return byteOrder.AppendUint32(b, e.MaxBlock)
}

// EncodeEntry returns the EntrySize-byte encoding of e.
func EncodeEntry(e *Entry) []byte {
	return AppendEntry(make([]byte, 0, EntrySize), e)
}

// DecodeEntry decodes the first EntrySize bytes of b into e.
func DecodeEntry(b []byte, e *Entry) error {
	if len(b) < EntrySize {
		return fmt.Errorf("decode entry: %w: have %d, need %d", ErrShortBuffer, len(b), EntrySize)
	}
	e.ID = byteOrder.Uint32(b[0:4])
	e.ParentID = byteOrder.Uint32(b[4:8])
	off := 8
	copy(e.Name[:], b[off:off+NameSize])
	off += NameSize
	e.Type = EntryType(byteOrder.Uint32(b[off : off+4]))
	e.Permissions = Permission(byteOrder.Uint32(b[off+4 : off+8]))
	e.CreatedAt = byteOrder.Uint64(b[off+8 : off+16])
	e.ModifiedAt = byteOrder.Uint64(b[off+16 : off+24])
	e.IsDelete = b[off+24]
	e.MinBlock = byteOrder.Uint32(b[off+25 : off+29])
	e.MaxBlock = byteOrder.Uint32(b[off+29 : off+33])
	return nil
}
