package recovery

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/image"
	"github.com/matthias-deu/ubift/internal/partition"
	"github.com/matthias-deu/ubift/internal/ubi"
	"github.com/matthias-deu/ubift/internal/ubi/header"
	"github.com/matthias-deu/ubift/internal/ubifs/key"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

const fixtureBlockSize = 4096
const fixtureDataOffset = 128

func encodeEC(dataOffset uint32) []byte {
	ec := header.ECHeader{Magic: header.ECMagic, EC: 1, VidHdrOffset: 64, DataOffset: dataOffset}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, ec)
	b := buf.Bytes()
	crc := crc32.ChecksumIEEE(b[:len(b)-4])
	binary.BigEndian.PutUint32(b[len(b)-4:], crc)
	return b
}

func encodeVID(volID, lnum uint32, sqnum uint64) []byte {
	vid := header.VIDHeader{Magic: header.VIDMagic, VolType: header.VolDynamic, VolID: volID, Lnum: lnum, Sqnum: sqnum}
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, vid)
	b := buf.Bytes()
	crc := crc32.ChecksumIEEE(b[:len(b)-4])
	binary.BigEndian.PutUint32(b[len(b)-4:], crc)
	return b
}

func encodeVTBL(name string, reservedPEBs uint32) []byte {
	var rec header.VTBLRecord
	rec.ReservedPEBs = reservedPEBs
	rec.VolType = header.VolDynamic
	rec.NameLen = uint16(len(name))
	copy(rec.Name[:], name)
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, rec)
	b := buf.Bytes()
	crc := crc32.ChecksumIEEE(b[:len(b)-4])
	binary.BigEndian.PutUint32(b[len(b)-4:], crc)
	return b
}

// buildVolume lays out a single-volume UBI image, one PEB per LEB given
// in lebs plus one PEB for the layout volume's volume table, and
// returns the parsed volume.
func buildVolume(t *testing.T, lebs map[int][]byte) *ubi.Volume {
	t.Helper()
	const volID = 0
	maxLnum := -1
	for lnum := range lebs {
		if lnum > maxLnum {
			maxLnum = lnum
		}
	}
	numPEBs := maxLnum + 2
	buf := make([]byte, numPEBs*fixtureBlockSize)

	copy(buf[0:], encodeEC(fixtureDataOffset))
	copy(buf[64:], encodeVID(header.LayoutVolumeID, 0, 1))
	copy(buf[fixtureDataOffset+volID*header.VTBLRecordSize:], encodeVTBL("testvol", uint32(len(lebs))))

	peb := 1
	for lnum := 0; lnum <= maxLnum; lnum++ {
		base := peb * fixtureBlockSize
		copy(buf[base:], encodeEC(fixtureDataOffset))
		copy(buf[base+64:], encodeVID(volID, uint32(lnum), uint64(peb)))
		if data, ok := lebs[lnum]; ok {
			copy(buf[base+fixtureDataOffset:], data)
		}
		peb++
	}

	cfg := config.Config{BlockSize: fixtureBlockSize, PageSize: 256}
	img, err := image.Open(buf, cfg)
	if err != nil {
		t.Fatalf("image.Open: %v", err)
	}
	p := &partition.Partition{Image: img, Offset: 0, End: len(buf) - 1, Kind: partition.KindUBI}
	inst := ubi.Parse(p, config.Default())
	vol := inst.VolumeByIndex(volID)
	if vol == nil {
		t.Fatalf("no volume at index %d after ubi.Parse", volID)
	}
	return vol
}

// buildNode assembles a full node (common header plus body) with a
// correct CRC, the way Gather's CRCValid check expects.
func buildNode(nodeType uint8, sqnum uint64, body []byte) []byte {
	total := node.CHSize + len(body)
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], node.CHMagic)
	binary.LittleEndian.PutUint64(buf[8:16], sqnum)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(total))
	buf[20] = nodeType
	copy(buf[24:], body)
	crc := crc32.ChecksumIEEE(buf[8:total])
	binary.LittleEndian.PutUint32(buf[4:8], crc)
	return buf
}

type inoBody struct {
	Key           [16]byte
	CreatSqnum    uint64
	Size          uint64
	AtimeSec      uint64
	CtimeSec      uint64
	MtimeSec      uint64
	AtimeNsec     uint32
	CtimeNsec     uint32
	MtimeNsec     uint32
	Nlink         uint32
	UID           uint32
	GID           uint32
	Mode          uint32
	Flags         uint32
	DataLen       uint32
	XattrCnt      uint32
	XattrSize     uint32
	Padding1      uint32
	XattrNamesLen uint32
	ComprType     uint16
	Padding2      [26]byte
}

func buildIno(k key.Key, sqnum uint64, nlink uint32, size uint64) []byte {
	var f inoBody
	enc := k.Encode()
	copy(f.Key[:], enc[:])
	f.Nlink = nlink
	f.Size = size
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, f)
	return buildNode(node.TypeIno, sqnum, buf.Bytes())
}

type dentBody struct {
	Key      [16]byte
	Inum     uint64
	Padding1 uint8
	Type     uint8
	Nlen     uint16
}

func buildDent(k key.Key, sqnum uint64, targetInum uint64, itype uint8, name string) []byte {
	var f dentBody
	enc := k.Encode()
	copy(f.Key[:], enc[:])
	f.Inum = targetInum
	f.Type = itype
	f.Nlen = uint16(len(name))
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, f)
	buf.WriteString(name)
	return buildNode(node.TypeDent, sqnum, buf.Bytes())
}

type dataBody struct {
	Key       [16]byte
	Size      uint32
	ComprType uint16
	Padding   [2]byte
}

func buildData(k key.Key, sqnum uint64, payload []byte) []byte {
	var f dataBody
	enc := k.Encode()
	copy(f.Key[:], enc[:])
	f.Size = uint32(len(payload))
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, f)
	buf.Write(payload)
	return buildNode(node.TypeData, sqnum, buf.Bytes())
}

// placed tracks where a node's bytes ended up inside a LEB buffer, so
// the fixture can point index branches at it.
type placed struct {
	offs int
	key  key.Key
}

// place appends raw into leb at the next free offset and returns the
// placement.
func place(leb *[]byte, k key.Key, raw []byte) placed {
	offs := len(*leb)
	*leb = append(*leb, raw...)
	return placed{offs: offs, key: k}
}

func branchOf(lnum int, p placed, length int) node.Branch {
	return node.Branch{Lnum: lnum, Offs: p.offs, Len: length, Key: p.key}
}
