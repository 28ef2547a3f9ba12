package ubifs

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// This test pins down, at the node-parsing level, the linear scan
// scanMasterNodes performs before it sorts: every MST node in a LEB is
// found, in offset order. Open() itself is not exercised here, and the
// recovery package's tests build Instance values directly rather than
// through Open().

func writeCH(buf []byte, offset int, nodeType uint8, sqnum uint64, length uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], node.CHMagic)
	binary.LittleEndian.PutUint64(buf[offset+8:offset+16], sqnum)
	binary.LittleEndian.PutUint32(buf[offset+16:offset+20], length)
	buf[offset+20] = nodeType
	crc := crc32.ChecksumIEEE(buf[offset+8 : offset+int(length)])
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], crc)
}

func TestMasterNodeScanFindsNodesInOffsetOrder(t *testing.T) {
	leb := make([]byte, 4096)
	writeCH(leb[0:512], 0, node.TypeMst, 5, 512)
	writeCH(leb[512:1024], 0, node.TypeMst, 9, 512)

	var found []*node.MST
	off := 0
	for off+node.CHSize <= len(leb) {
		ch, err := node.ParseCommonHeader(leb, off)
		if err == nil && ch.ValidMagic() && ch.NodeType == node.TypeMst {
			if mst, err := node.ParseMST(leb, off); err == nil {
				found = append(found, mst)
			}
		}
		off++
	}
	if len(found) != 2 {
		t.Fatalf("found %d master nodes, want 2", len(found))
	}
	if found[0].CH.Sqnum != 5 || found[1].CH.Sqnum != 9 {
		t.Fatalf("unexpected sqnum order before sort: %d, %d", found[0].CH.Sqnum, found[1].CH.Sqnum)
	}
}
