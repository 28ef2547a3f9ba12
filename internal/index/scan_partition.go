package index

import (
	"github.com/matthias-deu/ubift/internal/partition"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// PartitionVisitor is called for every node signature found while
// scanning a whole partition, with the PEB and in-PEB offset it
// started at.
type PartitionVisitor func(n node.Node, peb, offs int)

// ScanPartition scans every byte of a UBI partition for UBIFS_CH
// signatures, independent of LEB boundaries or volume membership. Used
// when a partition's volume structure can't be trusted, or to recover
// data UBI's own bookkeeping no longer points at (spec.md §4.9). When a
// partition holds more than one UBI volume, the caller cannot tell
// which volume a found node belonged to; this is reported by the
// caller, not detected here.
func ScanPartition(p *partition.Partition, visit PartitionVisitor) {
	blockSize := p.Image.BlockSize()
	data := p.Data()
	ScanLEB(data, func(n node.Node, _, offs int) {
		peb := offs / blockSize
		pebOffs := offs - peb*blockSize
		visit(n, peb, pebOffs)
	})
}
