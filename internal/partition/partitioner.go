package partition

import (
	"bytes"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/image"
	"github.com/matthias-deu/ubift/internal/ubi/header"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

// Partitioner splits an Image into Partitions. Sub-types do this by
// different methods; UBIPartitioner is the only one this repository
// needs, kept behind an interface so a different discovery strategy
// could be substituted without touching callers.
type Partitioner interface {
	Partition(img *image.Image, cfg config.Config) []*Partition
}

// UBIPartitioner partitions a raw Image by looking for UBI erase-counter
// magic bytes. Everything that is not part of a contiguous run of UBI
// PEBs is left as a gap, later filled with Unallocated partitions.
type UBIPartitioner struct{}

// Partition implements spec.md §4.2.
func (UBIPartitioner) Partition(img *image.Image, cfg config.Config) []*Partition {
	log := cfg.Log()
	threshold := cfg.GapThreshold
	if threshold <= 0 {
		threshold = config.DefaultGapThreshold
	}

	var parts []*Partition
	start := 0
	for {
		p, next, ok := createUBIPartition(img, start, threshold, log)
		if !ok {
			break
		}
		parts = append(parts, p)
		start = next
	}
	return parts
}

type volLnum struct {
	volID uint32
	lnum  uint32
}

// createUBIPartition scans forward from start for the next EC magic,
// then extends a partition in block_size increments while either another
// EC magic is present or the running gap counter is within threshold.
func createUBIPartition(img *image.Image, start, threshold int, log ubiftlog.Logger) (*Partition, int, bool) {
	data := img.Data()
	blockSize := img.BlockSize()
	if blockSize <= 0 {
		return nil, 0, false
	}

	ecOffset := findSignature(data, header.ECMagic[:], start)
	if ecOffset < 0 {
		return nil, 0, false
	}

	current := ecOffset
	gapCounter := 0
	seen := map[volLnum]bool{}
	lastGoodEnd := current // exclusive end of the last block confirmed to belong to this partition

	for current+blockSize <= len(data) {
		hasMagic := bytes.Equal(data[current:current+4], header.ECMagic[:])
		if !hasMagic {
			gapCounter++
			if gapCounter > threshold {
				break
			}
			current += blockSize
			continue
		}
		gapCounter = 0

		// Boundary heuristic: if this PEB's VID header is readable and
		// its (vol_id, lnum) pair collides with one already seen in this
		// running partition, two UBI instances have been placed back to
		// back; end the partition one block earlier.
		ec, err := header.ParseECHeader(data, current)
		if err == nil && ec.ValidMagic() {
			vid, verr := header.ParseVIDHeader(data, current+int(ec.VidHdrOffset))
			if verr == nil && vid.ValidMagic() {
				key := volLnum{volID: vid.VolID, lnum: vid.Lnum}
				if seen[key] {
					break
				}
				seen[key] = true
			}
		}

		current += blockSize
		lastGoodEnd = current
	}

	// Trim trailing gap blocks: the partition only extends to the last
	// block that actually had (or was within tolerance of) a magic.
	end := lastGoodEnd - 1
	if end < ecOffset {
		end = ecOffset + blockSize - 1
	}

	p := &Partition{
		Image:  img,
		Offset: ecOffset,
		End:    end,
		Kind:   KindUBI,
	}
	log.Infof("discovered UBI partition [%d, %d] (%d PEBs)", p.Offset, p.End, p.NumPEBs())
	return p, end + 1, true
}

func findSignature(data, sig []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(data) {
		return -1
	}
	idx := bytes.Index(data[from:], sig)
	if idx < 0 {
		return -1
	}
	return idx + from
}

// Fill inserts Unallocated partitions into the gaps before, between and
// after the given (already sorted-by-discovery) UBI partitions, so the
// result tiles [0, len(image)).
func Fill(img *image.Image, parts []*Partition) []*Partition {
	if len(parts) == 0 {
		end := img.Len() - 1
		if end < 0 {
			end = 0
		}
		return []*Partition{{Image: img, Offset: 0, End: end, Kind: KindUnallocated}}
	}

	sorted := make([]*Partition, len(parts))
	copy(sorted, parts)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Offset < sorted[j-1].Offset; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var filled []*Partition
	if sorted[0].Offset != 0 {
		filled = append(filled, &Partition{Image: img, Offset: 0, End: sorted[0].Offset - 1, Kind: KindUnallocated})
	}
	for i, p := range sorted {
		filled = append(filled, p)
		if i+1 < len(sorted) {
			if p.End+1 != sorted[i+1].Offset {
				filled = append(filled, &Partition{Image: img, Offset: p.End + 1, End: sorted[i+1].Offset - 1, Kind: KindUnallocated})
			}
		} else if p.End != img.Len()-1 {
			filled = append(filled, &Partition{Image: img, Offset: p.End + 1, End: img.Len() - 1, Kind: KindUnallocated})
		}
	}
	return filled
}
