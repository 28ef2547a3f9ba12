package index

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
	"github.com/matthias-deu/ubift/internal/ubifs"
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

// buildIdx encodes a UBIFS_IDX_NODE with the given level and branches.
func buildIdx(sqnum uint64, level uint16, branches []node.Branch) []byte {
	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, uint16(len(branches)))
	binary.Write(&body, binary.LittleEndian, level)
	for _, b := range branches {
		binary.Write(&body, binary.LittleEndian, uint32(b.Lnum))
		binary.Write(&body, binary.LittleEndian, uint32(b.Offs))
		binary.Write(&body, binary.LittleEndian, uint32(b.Len))
		enc := b.Key.Encode()
		body.Write(enc[:])
	}
	return buildNode(node.TypeIdx, sqnum, body.Bytes())
}

type placed struct {
	offs int
	key  key.Key
}

func place(leb *[]byte, k key.Key, raw []byte) placed {
	offs := len(*leb)
	*leb = append(*leb, raw...)
	return placed{offs: offs, key: k}
}

func branchOf(lnum int, p placed, length int) node.Branch {
	return node.Branch{Lnum: lnum, Offs: p.offs, Len: length, Key: p.key}
}

func testInstance(vol *ubi.Volume, root *node.IDX) *ubifs.Instance {
	return &ubifs.Instance{Volume: vol, Root: root}
}
