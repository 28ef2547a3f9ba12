package image

import (
	"bytes"
	"encoding/binary"
)

// ecHeaderMagic is the big-endian "UBI#" signature at the start of every
// PEB inside a UBI partition. The full header layout is owned by package
// ubi; geometry inference only needs the magic and the vid_hdr_offset
// field, so it reads those fields directly rather than importing ubi
// (which itself depends on a geometry-resolved Image).
var ecHeaderMagic = []byte{0x55, 0x42, 0x49, 0x23} // "UBI#"

// Field offsets within ubi_ec_hdr, see ubi.ECHeader for the full layout:
// magic(4) version(1) padding1(3) ec(8) vid_hdr_offset(4) ...
const ecVidHdrOffsetFieldOffset = 16

// findSignature returns the index of the first occurrence of sig in data
// at or after from, or -1 if not found.
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

// inferPageSize implements spec.md §4.1: page_size is always the first
// EC header's vid_hdr_offset field, which is page-aligned by
// construction.
func inferPageSize(data []byte) (int, int, error) {
	ecOffset := findSignature(data, ecHeaderMagic, 0)
	if ecOffset < 0 {
		return 0, 0, &GeometryUnknownError{Reason: "no UBI EC header magic found, cannot infer page_size"}
	}
	if ecOffset+ecVidHdrOffsetFieldOffset+4 > len(data) {
		return 0, 0, &GeometryUnknownError{Reason: "EC header near end of buffer, cannot read vid_hdr_offset"}
	}
	vidHdrOffset := binary.BigEndian.Uint32(data[ecOffset+ecVidHdrOffsetFieldOffset : ecOffset+ecVidHdrOffsetFieldOffset+4])
	if vidHdrOffset == 0 {
		return 0, 0, &GeometryUnknownError{Reason: "vid_hdr_offset is zero, cannot infer page_size"}
	}
	return int(vidHdrOffset), ecOffset, nil
}

// inferBlockSize implements spec.md §4.1: block_size is the smallest
// k*page_size (1<=k<=1023) such that another EC magic appears at
// offset(first_EC)+k*page_size (or k*(page_size+oob_size) when OOB is
// still interleaved in data, i.e. before strip_oob has run).
func inferBlockSize(data []byte, ecOffset, pageSize, oobSize int) (int, error) {
	unit := pageSize
	if oobSize > 0 {
		unit = pageSize + oobSize
	}
	for k := 1; k <= 1023; k++ {
		candidate := ecOffset + k*unit
		if candidate+len(ecHeaderMagic) > len(data) {
			break
		}
		if bytes.Equal(data[candidate:candidate+len(ecHeaderMagic)], ecHeaderMagic) {
			return pageSize * k, nil
		}
	}
	return 0, &GeometryUnknownError{Reason: "no second EC header magic found at a small multiple of page_size, cannot infer block_size"}
}

// StripOOB removes the trailing oobSize spare bytes from every pageSize
// bytes of data. It treats the whole buffer as a sequence of
// (pageSize+oobSize)-byte units and does not assume OOB is grouped at
// the end of the block — it is stripped after every page, wherever that
// page falls inside a block.
func StripOOB(data []byte, blockSize, pageSize, oobSize int) []byte {
	_ = blockSize // kept for signature parity with spec.md §4.1; unused by the per-page loop
	if oobSize <= 0 || pageSize <= 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	unit := pageSize + oobSize
	out := make([]byte, 0, len(data)/unit*pageSize+pageSize)
	for off := 0; off+pageSize <= len(data); off += unit {
		out = append(out, data[off:off+pageSize]...)
	}
	return out
}
