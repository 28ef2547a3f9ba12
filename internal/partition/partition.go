// Package partition splits an Image into byte ranges tagged UBI or
// Unallocated, aligned to the image's erase-block size.
package partition

import "github.com/matthias-deu/ubift/internal/image"

// Kind tags a Partition's contents.
type Kind int

const (
	KindUBI Kind = iota
	KindUnallocated
)

func (k Kind) String() string {
	if k == KindUBI {
		return "UBI"
	}
	return "Unallocated"
}

// Partition is a byte range [Offset, End] inside an Image
// (End is inclusive, matching the teacher's Partition semantics),
// aligned to the image's block size. Partitions never overlap and,
// after Fill, tile the image.
type Partition struct {
	Image  *image.Image
	Offset int
	End    int // inclusive
	Kind   Kind

	// ubiInstance is populated by package ubi once this partition has
	// been parsed into a UBI instance; kept here so lower layers never
	// need a back-reference map.
	ubiInstance interface{}
}

// Len returns the number of bytes covered by the partition.
func (p *Partition) Len() int { return p.End - p.Offset + 1 }

// Data returns the partition's raw bytes, a slice into the Image buffer.
func (p *Partition) Data() []byte {
	return p.Image.Data()[p.Offset : p.End+1]
}

// SetUBIInstance attaches the parsed UBI instance to this partition.
func (p *Partition) SetUBIInstance(v interface{}) { p.ubiInstance = v }

// UBIInstance returns the previously attached UBI instance, or nil.
func (p *Partition) UBIInstance() interface{} { return p.ubiInstance }

// NumPEBs returns how many whole erase blocks this partition spans.
func (p *Partition) NumPEBs() int {
	bs := p.Image.BlockSize()
	if bs == 0 {
		return 0
	}
	return p.Len() / bs
}
