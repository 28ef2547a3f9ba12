// Package index implements lookups and traversal over the UBIFS
// wandering B+tree: point lookup (Find), range lookup (FindRange), and
// pre-order traversal (Traverse), all driven off the root UBIFS_IDX_NODE
// an ubifs.Instance resolves from its master node (spec.md §4.7).
package index

import (
	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubifs/key"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// childIdx resolves a branch's target node and, if it is itself an
// index node, parses and returns it; a leaf target or a dangling LEB
// reference yields (nil, false).
func childIdx(inst *ubifs.Instance, b node.Branch) (*node.IDX, bool) {
	data := inst.LEBData(b.Lnum)
	if data == nil {
		return nil, false
	}
	ch, err := node.ParseCommonHeader(data, b.Offs)
	if err != nil || !ch.ValidMagic() || ch.NodeType != node.TypeIdx {
		return nil, false
	}
	idx, err := node.ParseIDX(data, b.Offs)
	if err != nil {
		return nil, false
	}
	return idx, true
}

// leaf resolves a branch's target node when the caller already knows
// it is a leaf (a child of an index node at Level 0).
func leaf(inst *ubifs.Instance, b node.Branch) node.Node {
	data := inst.LEBData(b.Lnum)
	if data == nil {
		return nil
	}
	n, err := node.Parse(data, b.Offs)
	if err != nil {
		return nil
	}
	return n
}

// Find performs a point lookup for key k starting at root, the way
// UBIFS itself resolves a key to its owning node: at each level pick
// the rightmost branch whose key is <= k, descending until level 0. It
// returns nil if no matching leaf is found.
func Find(inst *ubifs.Instance, root *node.IDX, k key.Key) node.Node {
	cur := root
	for {
		sel := selectBranch(cur, k)
		if sel < 0 {
			return nil
		}
		b := cur.Branches[sel]
		if cur.Level == 0 {
			if !b.Key.Equal(k) {
				return nil
			}
			return leaf(inst, b)
		}
		child, ok := childIdx(inst, b)
		if !ok {
			return nil
		}
		cur = child
	}
}

// selectBranch returns the index of the branch Find should descend
// into for key k: the last branch whose key is <= k, or the first
// branch if k is smaller than every branch's key. It returns -1 only
// when n has no branches.
func selectBranch(n *node.IDX, k key.Key) int {
	sel := -1
	for i, b := range n.Branches {
		if k.Less(b.Key) {
			if i == 0 {
				return 0
			}
			return sel
		}
		if b.Key.Equal(k) {
			return i
		}
		sel = i
	}
	return sel
}

// FindRange collects every leaf node whose key k satisfies min <= k <
// max, descending only into branches whose key range can overlap
// [min, max).
func FindRange(inst *ubifs.Instance, n *node.IDX, min, max key.Key) []node.Node {
	var out []node.Node
	if n.Level == 0 {
		for _, b := range n.Branches {
			if !b.Key.Less(min) && b.Key.Less(max) {
				if leafNode := leaf(inst, b); leafNode != nil {
					out = append(out, leafNode)
				}
			}
		}
		return out
	}
	start, end := rangeBounds(n, min, max)
	for i := start; i <= end; i++ {
		child, ok := childIdx(inst, n.Branches[i])
		if !ok {
			continue
		}
		out = append(out, FindRange(inst, child, min, max)...)
	}
	return out
}

// rangeBounds picks the span of branch indices whose subtrees can
// contain a key in [min, max).
func rangeBounds(n *node.IDX, min, max key.Key) (int, int) {
	start, end := 0, len(n.Branches)-1
	for i, b := range n.Branches {
		if b.Key.Less(min) {
			start = i
		}
	}
	for i := len(n.Branches) - 1; i >= 0; i-- {
		if !n.Branches[i].Key.Less(max) {
			end = i
		} else {
			break
		}
	}
	if start > end {
		start = end
	}
	return start, end
}

// Visitor is called once per node discovered by Traverse, with the LEB
// and offset it was found at.
type Visitor func(n node.Node, lnum, offs int)

// Traverse performs a pre-order walk of the subtree rooted at n,
// invoking visit on every node encountered (index nodes included).
func Traverse(inst *ubifs.Instance, n *node.IDX, visit Visitor) {
	for _, b := range n.Branches {
		child, ok := childIdx(inst, b)
		if ok {
			visit(child, b.Lnum, b.Offs)
			Traverse(inst, child, visit)
			continue
		}
		if leafNode := leaf(inst, b); leafNode != nil {
			visit(leafNode, b.Lnum, b.Offs)
		}
	}
}
