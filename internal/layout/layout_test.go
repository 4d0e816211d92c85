package layout_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/efs/internal/layout"
)

func sampleEntry(t *testing.T) layout.Entry {
	t.Helper()
	e := layout.Entry{
		ID:          42,
		ParentID:    7,
		Type:        layout.Executable,
		Permissions: layout.PermRead | layout.PermExecute,
		CreatedAt:   1_700_000_000,
		ModifiedAt:  1_700_000_123,
		IsDelete:    1,
		MinBlock:    10,
		MaxBlock:    0xFFFFFFFF,
	}
	require.NoError(t, e.SetName("bin/tool"))
	return e
}

func TestRecordSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 16, layout.HeaderSize)
	assert.Equal(t, 297, layout.EntrySize)
	assert.Len(t, layout.EncodeHeader(layout.NewHeader(1, 2, 2)), layout.HeaderSize)
	assert.Len(t, layout.EncodeEntry(&layout.Entry{}), layout.EntrySize)
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	headers := []layout.Header{
		layout.NewHeader(255, 100, 100),
		layout.NewHeader(0, 0, 0),
		{Magic: [3]byte{'x', 'y', 'z'}, SizeBloc: 0xFFFFFFFF, MaxBlock: 1, FreeBlock: 0xDEADBEEF, Version: 0xFF},
	}
	for _, h := range headers {
		got, err := layout.DecodeHeader(layout.EncodeHeader(h))
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
}

func TestHeaderWireFormat(t *testing.T) {
	t.Parallel()

	b := layout.EncodeHeader(layout.NewHeader(255, 100, 99))
	assert.Equal(t, []byte{
		'E', 'F', 'S',
		0xFF, 0, 0, 0,
		100, 0, 0, 0,
		99, 0, 0, 0,
		1,
	}, b)
}

func TestEntryRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleEntry(t)
	var got layout.Entry
	require.NoError(t, layout.DecodeEntry(layout.EncodeEntry(&want), &got))
	assert.Equal(t, want, got)
	assert.Equal(t, "bin/tool", got.NameString())
}

func TestAppendEntryTable(t *testing.T) {
	t.Parallel()

	a := sampleEntry(t)
	b := layout.Entry{ID: 1}
	buf := layout.AppendEntry(nil, &a)
	buf = layout.AppendEntry(buf, &b)
	require.Len(t, buf, 2*layout.EntrySize)

	var got layout.Entry
	require.NoError(t, layout.DecodeEntry(buf[layout.EntrySize:], &got))
	assert.Equal(t, b, got)
}

func TestDecodeShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := layout.DecodeHeader(make([]byte, layout.HeaderSize-1))
	require.ErrorIs(t, err, layout.ErrShortBuffer)

	var e layout.Entry
	err = layout.DecodeEntry(make([]byte, layout.EntrySize-1), &e)
	require.ErrorIs(t, err, layout.ErrShortBuffer)
}

func TestSetName(t *testing.T) {
	t.Parallel()

	var e layout.Entry
	require.NoError(t, e.SetName(strings.Repeat("a", layout.NameSize-1)))
	assert.Equal(t, byte(0), e.Name[layout.NameSize-1])

	err := e.SetName(strings.Repeat("a", layout.NameSize))
	require.ErrorIs(t, err, layout.ErrNameTooLong)

	require.NoError(t, e.SetName("long-name-first"))
	require.NoError(t, e.SetName("short"))
	assert.Equal(t, "short", e.NameString())
}

func TestPermissionHas(t *testing.T) {
	t.Parallel()

	p := layout.PermRead | layout.PermWrite
	assert.Equal(t, layout.Permission(6), p)
	assert.True(t, p.Has(layout.PermRead))
	assert.True(t, p.Has(layout.PermWrite))
	assert.False(t, p.Has(layout.PermExecute))
	assert.True(t, p.Has(layout.PermNone))
}

func TestEntryTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "directory", layout.Directory.String())
	assert.Equal(t, "file", layout.File.String())
	assert.Equal(t, "executable", layout.Executable.String())
	assert.Equal(t, "library", layout.Library.String())
	assert.Equal(t, "unknown", layout.EntryType(9).String())
}

func TestEntryIsEmpty(t *testing.T) {
	t.Parallel()

	var e layout.Entry
	assert.True(t, e.IsEmpty())
	assert.False(t, e.IsDeleted())

	require.NoError(t, e.SetName("root"))
	assert.False(t, e.IsEmpty())
}

func TestHeaderValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header layout.Header
		limit  uint32
		ok     bool
	}{
		{"defaults", layout.NewHeader(255, 100, 100), 1000, true},
		{"no limit", layout.NewHeader(255, 1<<30, 0), 0, true},
		{"bad magic", layout.Header{Magic: [3]byte{'X', 'F', 'S'}, MaxBlock: 1, Version: 1}, 0, false},
		{"bad version", layout.Header{Magic: [3]byte{'E', 'F', 'S'}, MaxBlock: 1, Version: 2}, 0, false},
		{"empty table", layout.NewHeader(255, 0, 0), 0, false},
		{"over limit", layout.NewHeader(255, 1001, 0), 1000, false},
		{"free exceeds max", layout.NewHeader(255, 10, 11), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate(tt.limit)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, layout.ErrInvalidFormat)
			}
		})
	}
}

func TestImageSize(t *testing.T) {
	t.Parallel()

	h := layout.NewHeader(255, 100, 100)
	assert.Equal(t, int64(16+100*297), h.ImageSize())
}
