package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/efs/internal/layout"
)

// Summary is what gets printed after an image loads.
type Summary struct {
	Path     string
	DiskType string
	Header   layout.Header
	Root     layout.Entry
	Checksum string
}

// PrintSummary writes s to w, one "label: value" line per field. Styled
// output colors labels and permission bits for terminals.
func PrintSummary(w io.Writer, s Summary, styled bool) error {
	p := &summaryPrinter{w: w, styled: styled}

	p.line("Image", s.Path)
	if s.DiskType != "" {
		p.line("Disk Type", s.DiskType)
	}
	p.line("Magic", s.Header.MagicString())
	p.line("Version", fmt.Sprintf("%d", s.Header.Version))
	p.line("Block Size", fmt.Sprintf("%d", s.Header.SizeBloc))
	p.line("Free Blocks", FormatCount(int64(s.Header.FreeBlock)))
	p.line("Total Blocks", FormatCount(int64(s.Header.MaxBlock)))
	p.line("Image Size", FormatBytes(s.Header.ImageSize()))
	p.line("Root Directory Name", s.Root.NameString())
	p.flag("Read Permission", s.Root.Permissions.Has(layout.PermRead))
	p.flag("Write Permission", s.Root.Permissions.Has(layout.PermWrite))
	p.flag("Execute Permission", s.Root.Permissions.Has(layout.PermExecute))
	if s.Checksum != "" {
		p.line("BLAKE3", p.muted(s.Checksum))
	}
	return p.err
}

type summaryPrinter struct {
	w      io.Writer
	styled bool
	err    error
}

func (p *summaryPrinter) line(label, value string) {
	if p.err != nil {
		return
	}
	label += ":"
	if p.styled {
		label = styleLabel.Render(fmt.Sprintf("%-20s", label))
	}
	_, p.err = fmt.Fprintf(p.w, "%s %s\n", label, value)
}

func (p *summaryPrinter) flag(label string, v bool) {
	value := YesNo(v)
	if p.styled {
		if v {
			value = styleYes.Render(value)
		} else {
			value = styleNo.Render(value)
		}
	}
	p.line(label, value)
}

func (p *summaryPrinter) muted(s string) string {
	if p.styled {
		return styleMuted.Render(s)
	}
	return s
}
