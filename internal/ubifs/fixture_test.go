package ubifs

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
// returns the parsed volume. volID is the table slot the test volume
// lives in.
func buildVolume(t *testing.T, volID uint32, lebs map[int][]byte) *ubi.Volume {
	t.Helper()
	maxLnum := -1
	for lnum := range lebs {
		if lnum > maxLnum {
			maxLnum = lnum
		}
	}
	numPEBs := maxLnum + 2 // one layout PEB plus one per LEB, 0..maxLnum
	buf := make([]byte, numPEBs*fixtureBlockSize)

	copy(buf[0:], encodeEC(fixtureDataOffset))
	copy(buf[64:], encodeVID(header.LayoutVolumeID, 0, 1))
	copy(buf[fixtureDataOffset+int(volID)*header.VTBLRecordSize:], encodeVTBL("testvol", uint32(len(lebs))))

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
	vol := inst.VolumeByIndex(int(volID))
	if vol == nil {
		t.Fatalf("no volume at index %d after ubi.Parse", volID)
	}
	return vol
}

func writeNodeCH(buf []byte, offset int, nodeType uint8, sqnum uint64, length uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], node.CHMagic)
	binary.LittleEndian.PutUint64(buf[offset+8:offset+16], sqnum)
	binary.LittleEndian.PutUint32(buf[offset+16:offset+20], length)
	buf[offset+20] = nodeType
	crc := crc32.ChecksumIEEE(buf[offset+8 : offset+int(length)])
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], crc)
}
