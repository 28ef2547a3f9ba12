package node

import (
	"bytes"
	"encoding/binary"
)

// MSTFixedSize is the size of ubifs_mst_node after the common header.
const MSTFixedSize = 512 - CHSize

type mstFixed struct {
	HighestInum  uint64
	CmtNo        uint64
	Flags        uint32
	LogLnum      uint32
	RootLnum     uint32
	RootOffs     uint32
	RootLen      uint32
	GCLnum       uint32
	IheadLnum    uint32
	IheadOffs    uint32
	IndexSize    uint64
	TotalFree    uint64
	TotalDirty   uint64
	TotalUsed    uint64
	TotalDead    uint64
	TotalDark    uint64
	LptLnum      uint32
	LptOffs      uint32
	NheadLnum    uint32
	NheadOffs    uint32
	LtabLnum     uint32
	LtabOffs     uint32
	SaveLnum     uint32
	SaveOffs     uint32
	LscanLnum    uint32
	EmptyLebs    uint32
	IdxLebs      uint32
	LebCnt       uint32
	HashRootIdx  [64]byte
	HashLpt      [64]byte
	HMAC         [64]byte
	Padding      [152]byte
}

// MST is a UBIFS master node, stored twice (LEB 1 and LEB 2) for
// redundancy; the copy with the higher sequence number wins (spec.md
// §4.5).
type MST struct {
	CH         CommonHeader
	HighestInum uint64
	CmtNo      uint64
	Flags      uint32
	LogLnum    uint32
	RootLnum   uint32
	RootOffs   uint32
	RootLen    uint32
	GCLnum     uint32
	IheadLnum  uint32
	IheadOffs  uint32
	IndexSize  uint64
	TotalFree  uint64
	TotalDirty uint64
	TotalUsed  uint64
	TotalDead  uint64
	TotalDark  uint64
	LebCnt     uint32
}

func (n *MST) Header() CommonHeader { return n.CH }

// ParseMST parses a UBIFS_MST_NODE at offset in data.
func ParseMST(data []byte, offset int) (*MST, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+MSTFixedSize > len(data) {
		return nil, &ParseError{What: "MST node", Offset: offset, Err: errShortBuffer(offset, CHSize+MSTFixedSize, len(data))}
	}
	var f mstFixed
	r := bytes.NewReader(data[offset+CHSize : offset+CHSize+MSTFixedSize])
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, &ParseError{What: "MST node", Offset: offset, Err: err}
	}
	return &MST{
		CH: *ch, HighestInum: f.HighestInum, CmtNo: f.CmtNo, Flags: f.Flags,
		LogLnum: f.LogLnum, RootLnum: f.RootLnum, RootOffs: f.RootOffs, RootLen: f.RootLen,
		GCLnum: f.GCLnum, IheadLnum: f.IheadLnum, IheadOffs: f.IheadOffs,
		IndexSize: f.IndexSize, TotalFree: f.TotalFree, TotalDirty: f.TotalDirty,
		TotalUsed: f.TotalUsed, TotalDead: f.TotalDead, TotalDark: f.TotalDark,
		LebCnt: f.LebCnt,
	}, nil
}
