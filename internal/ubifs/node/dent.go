package node

import (
	"bytes"
	"encoding/binary"

	"github.com/matthias-deu/ubift/internal/ubifs/key"
)

// DentFixedSize is the size of ubifs_dent_node (shared by DENT and
// XENT nodes) after the common header, not counting the trailing name.
const DentFixedSize = 28

// Inode types a DENT/XENT's Type field can carry, matching
// UBIFS_ITYPE_*. Recovery handles REG and DIR; the rest are a named
// non-goal (spec.md §4.8 step 4).
const (
	ItypeReg  = 0
	ItypeDir  = 1
	ItypeLnk  = 2
	ItypeBlk  = 3
	ItypeChr  = 4
	ItypeFifo = 5
	ItypeSock = 6
)

type dentFixed struct {
	Key      [16]byte
	Inum     uint64
	Padding1 uint8
	Type     uint8
	Nlen     uint16
}

// Dent is a directory-entry or extended-attribute-entry node. DENT and
// XENT share this exact on-disk layout; only the common header's
// node_type distinguishes them.
type Dent struct {
	CH   CommonHeader
	// Key is the DENT/XENT's own key: the parent directory's inode
	// number plus the r5 hash of Name. Not to be confused with Inum,
	// which is the inode number of the entry's target.
	Key  key.Key
	Inum uint64
	Type  uint8
	Nlen  uint16
	// Name is a slice view into the caller's buffer, not an owned copy.
	Name []byte
}

func (n *Dent) Header() CommonHeader { return n.CH }

// ParseDent parses a UBIFS_DENT_NODE or UBIFS_XENT_NODE at offset in
// data; the caller distinguishes the two via CH.NodeType.
func ParseDent(data []byte, offset int) (*Dent, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+DentFixedSize > len(data) {
		return nil, &ParseError{What: "DENT node", Offset: offset, Err: errShortBuffer(offset, CHSize+DentFixedSize, len(data))}
	}
	var f dentFixed
	r := bytes.NewReader(data[offset+CHSize : offset+CHSize+DentFixedSize])
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, &ParseError{What: "DENT node", Offset: offset, Err: err}
	}
	nameStart := offset + CHSize + DentFixedSize
	nameEnd := nameStart + int(f.Nlen)
	if nameEnd > len(data) || nameEnd > offset+int(ch.Len) {
		return nil, &ParseError{What: "DENT node", Offset: offset, Err: errShortBuffer(offset, int(f.Nlen), len(data))}
	}
	return &Dent{
		CH: *ch, Key: key.Decode(f.Key[:key.Size]), Inum: f.Inum, Type: f.Type, Nlen: f.Nlen, Name: data[nameStart:nameEnd],
	}, nil
}
