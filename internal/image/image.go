// Package image owns the raw byte buffer recovered from a NAND dump and
// resolves its physical geometry (erase-block size, page size, OOB
// size). Every higher layer references slices of this buffer; nothing
// above this package ever copies it wholesale.
package image

import (
	"github.com/matthias-deu/ubift/internal/config"
)

// Geometry describes the physical layout of a raw flash dump.
type Geometry struct {
	BlockSize int
	PageSize  int
	OOBSize   int
}

// Image is the immutable byte buffer plus its resolved Geometry. Once
// opened, an Image is read-only: all other entities reference (never
// copy) slices of Data by (start, length).
type Image struct {
	data []byte
	geom Geometry
}

// Open builds an Image from raw bytes. If cfg.OOBSize>0 the input is
// first deinterleaved with StripOOB. Missing PageSize/BlockSize are
// inferred from the first UBI EC header found in the image; Open fails
// with GeometryUnknownError if no EC header is present and either size
// is still missing.
func Open(data []byte, cfg config.Config) (*Image, error) {
	log := cfg.Log()

	pageSize := cfg.PageSize
	blockSize := cfg.BlockSize
	oobSize := cfg.OOBSize

	var ecOffset = -1
	if pageSize <= 0 {
		guessed, offset, err := inferPageSize(data)
		if err != nil {
			return nil, err
		}
		pageSize = guessed
		ecOffset = offset
		log.Infof("guessed page_size: %d", pageSize)
	}

	if blockSize <= 0 {
		if ecOffset < 0 {
			ecOffset = findSignature(data, ecHeaderMagic, 0)
			if ecOffset < 0 {
				return nil, &GeometryUnknownError{Reason: "no UBI EC header magic found, cannot infer block_size"}
			}
		}
		guessed, err := inferBlockSize(data, ecOffset, pageSize, oobSize)
		if err != nil {
			return nil, err
		}
		blockSize = guessed
		log.Infof("guessed block_size: %d", blockSize)
	}

	out := data
	if oobSize > 0 {
		out = StripOOB(data, blockSize, pageSize, oobSize)
	}

	if len(out)%blockSize != 0 {
		log.Warnf("invalid block_size (data_len %d not divisible by block_size %d)", len(out), blockSize)
	}
	if blockSize%pageSize != 0 {
		log.Warnf("invalid page_size (block_size %d not divisible by page_size %d)", blockSize, pageSize)
	}

	img := &Image{
		data: out,
		geom: Geometry{BlockSize: blockSize, PageSize: pageSize, OOBSize: oobSize},
	}
	log.Infof("initialized Image (block_size:%d, page_size:%d, oob_size:%d, data_len:%d)",
		blockSize, pageSize, oobSize, len(out))
	return img, nil
}

// Data returns the full deinterleaved byte buffer. Callers must not
// mutate the returned slice.
func (i *Image) Data() []byte { return i.data }

// Len returns len(Data()).
func (i *Image) Len() int { return len(i.data) }

// Geometry returns the resolved physical geometry.
func (i *Image) Geometry() Geometry { return i.geom }

func (i *Image) BlockSize() int { return i.geom.BlockSize }
func (i *Image) PageSize() int  { return i.geom.PageSize }
func (i *Image) OOBSize() int   { return i.geom.OOBSize }

// NumPEBs returns the number of physical erase blocks in the image.
func (i *Image) NumPEBs() int {
	if i.geom.BlockSize == 0 {
		return 0
	}
	return len(i.data) / i.geom.BlockSize
}

// PEB returns the raw bytes of the given physical erase block index.
func (i *Image) PEB(index int) []byte {
	start := index * i.geom.BlockSize
	end := start + i.geom.BlockSize
	if start < 0 || end > len(i.data) {
		return nil
	}
	return i.data[start:end]
}
