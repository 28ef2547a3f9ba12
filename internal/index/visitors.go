package index

import (
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// Collected bundles every directory-relevant node discovered by a
// traversal or scan, keyed by inode number the way recovery needs them
// (spec.md §4.8): dents/xentries and data nodes keep every instance
// seen (scans can turn up several generations of the same entry), and
// data nodes are deduplicated later by sqnum. Inodes keep only the last
// INO node visited for each inode number.
type Collected struct {
	Inodes    map[uint32]*node.INO
	Dents     map[uint32][]*node.Dent
	Xentries  map[uint32][]*node.Dent
	DataNodes map[uint32][]*node.Data
}

// NewCollected returns an empty Collected ready for use as a Visitor
// target.
func NewCollected() *Collected {
	return &Collected{
		Inodes:    map[uint32]*node.INO{},
		Dents:     map[uint32][]*node.Dent{},
		Xentries:  map[uint32][]*node.Dent{},
		DataNodes: map[uint32][]*node.Data{},
	}
}

// Visit implements the canonical "collect everything" visitor: every
// INO, DENT, XENT and DATA node encountered is recorded, keyed by the
// inode number it belongs to. Use this as a Visitor or ScanVisitor
// depending on whether obsolete nodes should be included.
func (c *Collected) Visit(n node.Node, lnum, offs int) {
	switch v := n.(type) {
	case *node.INO:
		c.Inodes[v.Key.Inum] = v
	case *node.Dent:
		if v.CH.NodeType == node.TypeXent {
			c.Xentries[uint32(v.Inum)] = append(c.Xentries[uint32(v.Inum)], v)
		} else {
			c.Dents[uint32(v.Inum)] = append(c.Dents[uint32(v.Inum)], v)
		}
	case *node.Data:
		c.DataNodes[v.Key.Inum] = append(c.DataNodes[v.Key.Inum], v)
	}
}
