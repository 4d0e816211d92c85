package image

import (
	"errors"

	"github.com/bamsammich/efs/internal/layout"
)

// Errors returned by Format and Load. Each returned error wraps one of
// these together with the underlying cause, so errors.Is matches either.
var (
	ErrOpenFailed    = errors.New("open failed")
	ErrShortWrite    = errors.New("short write")
	ErrShortRead     = errors.New("short read")
	ErrInvalidFormat = layout.ErrInvalidFormat
)
