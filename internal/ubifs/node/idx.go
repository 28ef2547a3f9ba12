package node

import (
	"encoding/binary"

	"github.com/matthias-deu/ubift/internal/ubifs/key"
)

// IdxHeaderSize is the size of ubifs_idx_node after the common header,
// not counting the trailing branch array.
const IdxHeaderSize = 4

// BranchSize is the on-disk size of one ubifs_branch: lnum, offs, len,
// then the embedded key.
const BranchSize = 12 + key.Size

// Branch is one child pointer of an index node: the key it covers and
// the LEB/offset/len of the child node (another IDX node, one level
// down, or a leaf node at level 0).
type Branch struct {
	Lnum int
	Offs int
	Len  int
	Key  key.Key
}

// IDX is a UBIFS index node: one node of the wandering B+tree,
// covering child_cnt keys at the given tree level.
type IDX struct {
	CH       CommonHeader
	ChildCnt uint16
	Level    uint16
	Branches []Branch
}

func (n *IDX) Header() CommonHeader { return n.CH }

// ParseIDX parses a UBIFS_IDX_NODE at offset in data.
func ParseIDX(data []byte, offset int) (*IDX, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+IdxHeaderSize > len(data) {
		return nil, &ParseError{What: "IDX node", Offset: offset, Err: errShortBuffer(offset, CHSize+IdxHeaderSize, len(data))}
	}
	hb := data[offset+CHSize : offset+CHSize+IdxHeaderSize]
	childCnt := binary.LittleEndian.Uint16(hb[0:2])
	level := binary.LittleEndian.Uint16(hb[2:4])

	branchesStart := offset + CHSize + IdxHeaderSize
	need := int(childCnt) * BranchSize
	branchesEnd := branchesStart + need
	if branchesEnd > len(data) || branchesEnd > offset+int(ch.Len) {
		return nil, &ParseError{What: "IDX node", Offset: offset, Err: errShortBuffer(offset, need, len(data))}
	}
	branches := make([]Branch, childCnt)
	for i := 0; i < int(childCnt); i++ {
		b := data[branchesStart+i*BranchSize : branchesStart+(i+1)*BranchSize]
		branches[i] = Branch{
			Lnum: int(binary.LittleEndian.Uint32(b[0:4])),
			Offs: int(binary.LittleEndian.Uint32(b[4:8])),
			Len:  int(binary.LittleEndian.Uint32(b[8:12])),
			Key:  key.Decode(b[12 : 12+key.Size]),
		}
	}
	return &IDX{CH: *ch, ChildCnt: childCnt, Level: level, Branches: branches}, nil
}
