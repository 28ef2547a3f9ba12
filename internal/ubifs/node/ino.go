package node

import (
	"bytes"
	"encoding/binary"

	"github.com/matthias-deu/ubift/internal/ubifs/key"
)

// INOFixedSize is the size of ubifs_ino_node after the common header,
// not counting the trailing flexible data (symlink target or xattr
// value).
const INOFixedSize = 136

type inoFixed struct {
	Key           [16]byte
	CreatSqnum    uint64
	Size          uint64
	AtimeSec      uint64
	CtimeSec      uint64
	MtimeSec      uint64
	AtimeNsec     uint32
	CtimeNsec     uint32
	MtimeNsec     uint32
	Nlink         uint32
	UID           uint32
	GID           uint32
	Mode          uint32
	Flags         uint32
	DataLen       uint32
	XattrCnt      uint32
	XattrSize     uint32
	Padding1      uint32
	XattrNamesLen uint32
	ComprType     uint16
	Padding2      [26]byte
}

// INO is a UBIFS inode node: metadata plus, for symlinks and small
// xattrs, inline data following the fixed header.
type INO struct {
	CH         CommonHeader
	Key        key.Key
	CreatSqnum uint64
	Size       uint64
	AtimeSec   uint64
	CtimeSec   uint64
	MtimeSec   uint64
	Nlink      uint32
	UID        uint32
	GID        uint32
	Mode       uint32
	Flags      uint32
	DataLen    uint32
	XattrCnt   uint32
	XattrSize  uint32
	ComprType  uint16
	// Data is a slice view into the caller's buffer holding the
	// compressed inline payload (symlink target or xattr value), not an
	// owned copy.
	Data []byte
}

func (n *INO) Header() CommonHeader { return n.CH }

// ParseINO parses a UBIFS_INO_NODE at offset in data. ch.Len bounds
// the trailing Data slice.
func ParseINO(data []byte, offset int) (*INO, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+INOFixedSize > len(data) {
		return nil, &ParseError{What: "INO node", Offset: offset, Err: errShortBuffer(offset, CHSize+INOFixedSize, len(data))}
	}
	var f inoFixed
	r := bytes.NewReader(data[offset+CHSize : offset+CHSize+INOFixedSize])
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, &ParseError{What: "INO node", Offset: offset, Err: err}
	}
	dataStart := offset + CHSize + INOFixedSize
	dataEnd := offset + int(ch.Len)
	if dataEnd < dataStart || dataEnd > len(data) {
		return nil, &ParseError{What: "INO node", Offset: offset, Err: errShortBuffer(offset, int(ch.Len), len(data))}
	}
	return &INO{
		CH: *ch, Key: key.Decode(f.Key[:key.Size]), CreatSqnum: f.CreatSqnum, Size: f.Size, AtimeSec: f.AtimeSec,
		CtimeSec: f.CtimeSec, MtimeSec: f.MtimeSec, Nlink: f.Nlink, UID: f.UID, GID: f.GID,
		Mode: f.Mode, Flags: f.Flags, DataLen: f.DataLen, XattrCnt: f.XattrCnt,
		XattrSize: f.XattrSize, ComprType: f.ComprType, Data: data[dataStart:dataEnd],
	}, nil
}
