package index

import (
	"bytes"
	"encoding/binary"

	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

var chMagicLE = func() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, node.CHMagic)
	return b
}()

// ScanVisitor is called for every plausible node signature a scan
// finds, whether or not it is still reachable from the live index —
// this is how deleted and obsolete nodes are recovered (spec.md §4.9).
type ScanVisitor func(n node.Node, lnum, offs int)

// ScanLEB performs a linear signature scan of one LEB's data area,
// parsing every UBIFS_CH magic it finds and invoking visit for each
// node that parses successfully. Unlike Traverse, this finds nodes no
// longer reachable from the index: deleted dentries, the previous
// version of an overwritten inode, obsolete data blocks.
func ScanLEB(data []byte, visit ScanVisitor) {
	off := 0
	for {
		idx := bytes.Index(data[off:], chMagicLE)
		if idx < 0 {
			return
		}
		pos := off + idx
		n, err := node.Parse(data, pos)
		if err == nil {
			visit(n, 0, pos)
		}
		off = pos + 1
	}
}

// ScanVolume runs ScanLEB over every LEB mapped in inst's volume,
// invoking visit with the LEB number each node was found in.
func ScanVolume(inst *ubifs.Instance, visit ScanVisitor) {
	for _, leb := range inst.Volume.LEBs() {
		data := leb.Data()
		ScanLEB(data, func(n node.Node, _, offs int) {
			visit(n, leb.Num, offs)
		})
	}
}
