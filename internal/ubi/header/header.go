// Package header parses the fixed-layout, big-endian UBI on-disk headers
// (erase-counter header, volume-id header, volume-table record) that
// both the partitioner and the UBI volume layer need, bit for bit as the
// Linux kernel's ubi-media.h lays them out.
package header

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// ECMagic is the "UBI#" signature at the start of every PEB header.
var ECMagic = [4]byte{'U', 'B', 'I', '#'}

// VIDMagic is the "UBI!" signature of a volume-id header.
var VIDMagic = [4]byte{'U', 'B', 'I', '!'}

// ECHeaderSize is the on-disk size of ubi_ec_hdr.
const ECHeaderSize = 64

// ECHeader is the 64-byte erase-counter header present at offset 0 of
// every PEB inside a UBI partition.
type ECHeader struct {
	Magic        [4]byte
	Version      uint8
	Padding1     [3]byte
	EC           uint64
	VidHdrOffset uint32
	DataOffset   uint32
	ImageSeq     uint32
	Padding2     [32]byte
	HdrCRC       uint32
}

// ParseECHeader reads an ECHeader at offset in data.
func ParseECHeader(data []byte, offset int) (*ECHeader, error) {
	if offset < 0 || offset+ECHeaderSize > len(data) {
		return nil, errShortBuffer("EC header", offset, ECHeaderSize, len(data))
	}
	var h ECHeader
	r := bytes.NewReader(data[offset : offset+ECHeaderSize])
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ValidMagic reports whether the header's magic field matches ECMagic.
func (h *ECHeader) ValidMagic() bool { return h.Magic == ECMagic }

// CRCValid recomputes the CRC32 over the header (everything but the
// trailing hdr_crc field) and compares it against HdrCRC.
func (h *ECHeader) CRCValid(raw []byte, offset int) bool {
	if offset+ECHeaderSize > len(raw) {
		return false
	}
	body := raw[offset : offset+ECHeaderSize-4]
	return crc32.ChecksumIEEE(body) == h.HdrCRC
}

// VIDHeaderSize is the on-disk size of ubi_vid_hdr.
const VIDHeaderSize = 64

// Volume types carried in a VID header / volume table record.
const (
	VolDynamic = 1
	VolStatic  = 2
)

// VIDHeader identifies which (volume_id, lnum) a PEB has been mapped to.
type VIDHeader struct {
	Magic     [4]byte
	Version   uint8
	VolType   uint8
	CopyFlag  uint8
	Compat    uint8
	VolID     uint32
	Lnum      uint32
	Padding1  [4]byte
	DataSize  uint32
	UsedEbs   uint32
	DataPad   uint32
	DataCRC   uint32
	Padding2  [4]byte
	Sqnum     uint64
	Padding3  [12]byte
	HdrCRC    uint32
}

// ParseVIDHeader reads a VIDHeader at offset in data.
func ParseVIDHeader(data []byte, offset int) (*VIDHeader, error) {
	if offset < 0 || offset+VIDHeaderSize > len(data) {
		return nil, errShortBuffer("VID header", offset, VIDHeaderSize, len(data))
	}
	var h VIDHeader
	r := bytes.NewReader(data[offset : offset+VIDHeaderSize])
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ValidMagic reports whether the header's magic field matches VIDMagic.
func (h *VIDHeader) ValidMagic() bool { return h.Magic == VIDMagic }

// CRCValid recomputes the CRC32 over the header (everything but the
// trailing hdr_crc field) and compares it against HdrCRC.
func (h *VIDHeader) CRCValid(raw []byte, offset int) bool {
	if offset+VIDHeaderSize > len(raw) {
		return false
	}
	body := raw[offset : offset+VIDHeaderSize-4]
	return crc32.ChecksumIEEE(body) == h.HdrCRC
}

// LayoutVolumeID is the internal volume id (0x7fffefff) that carries the
// volume table. It is never exposed as a user-facing UBI volume.
const LayoutVolumeID = 0x7fffefff

// VTBLRecordSize is the on-disk size of one volume-table slot.
const VTBLRecordSize = 172

// VTBLNameMax is the maximum stored volume name length.
const VTBLNameMax = 128

// VTBLRecord is one 172-byte slot of the volume table, one per possible
// volume_id (0..127).
type VTBLRecord struct {
	ReservedPEBs uint32
	Alignment    uint32
	DataPad      uint32
	VolType      uint8
	UpdMarker    uint8
	NameLen      uint16
	Name         [VTBLNameMax]byte
	Flags        uint8
	Padding      [23]byte
	CRC          uint32
}

// ParseVTBLRecord reads a VTBLRecord at offset in data.
func ParseVTBLRecord(data []byte, offset int) (*VTBLRecord, error) {
	if offset < 0 || offset+VTBLRecordSize > len(data) {
		return nil, errShortBuffer("vtbl record", offset, VTBLRecordSize, len(data))
	}
	var rec VTBLRecord
	r := bytes.NewReader(data[offset : offset+VTBLRecordSize])
	if err := binary.Read(r, binary.BigEndian, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FormattedName returns the volume name truncated to NameLen.
func (v *VTBLRecord) FormattedName() string {
	n := int(v.NameLen)
	if n > len(v.Name) {
		n = len(v.Name)
	}
	return string(v.Name[:n])
}

// CRCValid recomputes the CRC32 over the record (everything but the
// trailing crc field) and compares it against CRC.
func (v *VTBLRecord) CRCValid(raw []byte, offset int) bool {
	if offset+VTBLRecordSize > len(raw) {
		return false
	}
	body := raw[offset : offset+VTBLRecordSize-4]
	return crc32.ChecksumIEEE(body) == v.CRC
}
