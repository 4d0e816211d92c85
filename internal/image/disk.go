package image

import "strings"

// DiskType describes the partitioning scheme of a disk. It is recorded
// for display only and never changes how an image is encoded.
type DiskType int

const (
	DiskTypeNone DiskType = iota
	DiskTypeMBR
	DiskTypeGPT
)

func (t DiskType) String() string {
	switch t {
	case DiskTypeMBR:
		return "MBR"
	case DiskTypeGPT:
		return "GPT"
	default:
		return "NONE"
	}
}

// ParseDiskType maps "mbr" and "gpt" (any case) to their DiskType.
// Everything else, including "", is DiskTypeNone.
func ParseDiskType(s string) DiskType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MBR":
		return DiskTypeMBR
	case "GPT":
		return DiskTypeGPT
	default:
		return DiskTypeNone
	}
}

// DefaultDiskName is the image path used when none is given.
const DefaultDiskName = "efs.img"

// Disk identifies the image a Format or Load call operates on.
type Disk struct {
	Name string
	Type DiskType
}

// Compressed reports whether the image is stored zstd-compressed.
func (d Disk) Compressed() bool {
	return strings.HasSuffix(d.Name, compressedSuffix)
}
