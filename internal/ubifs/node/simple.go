package node

import "encoding/binary"

// PadFixedSize is the size of ubifs_pad_node after the common header.
const PadFixedSize = 4

// Pad is a padding node filling unused space at the end of a LEB, so
// the next write starts at a minimal-I/O-unit boundary.
type Pad struct {
	CH     CommonHeader
	PadLen uint32
}

func (n *Pad) Header() CommonHeader { return n.CH }

// ParsePad parses a UBIFS_PAD_NODE at offset in data.
func ParsePad(data []byte, offset int) (*Pad, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+PadFixedSize > len(data) {
		return nil, &ParseError{What: "PAD node", Offset: offset, Err: errShortBuffer(offset, CHSize+PadFixedSize, len(data))}
	}
	b := data[offset+CHSize : offset+CHSize+PadFixedSize]
	return &Pad{CH: *ch, PadLen: binary.LittleEndian.Uint32(b)}, nil
}

// TrunFixedSize is the size of ubifs_trun_node after the common
// header.
const TrunFixedSize = 32

// Trun records a truncation of an inode's size (its old and new
// length). Recovery does not read TRUN nodes; file length comes from
// the INO node's size.
type Trun struct {
	CH      CommonHeader
	Inum    uint32
	OldSize uint64
	NewSize uint64
}

func (n *Trun) Header() CommonHeader { return n.CH }

// ParseTrun parses a UBIFS_TRUN_NODE at offset in data.
func ParseTrun(data []byte, offset int) (*Trun, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+TrunFixedSize > len(data) {
		return nil, &ParseError{What: "TRUN node", Offset: offset, Err: errShortBuffer(offset, CHSize+TrunFixedSize, len(data))}
	}
	b := data[offset+CHSize : offset+CHSize+TrunFixedSize]
	return &Trun{
		CH:      *ch,
		Inum:    binary.LittleEndian.Uint32(b[0:4]),
		OldSize: binary.LittleEndian.Uint64(b[16:24]),
		NewSize: binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

// RefFixedSize is the size of ubifs_ref_node after the common header.
const RefFixedSize = 40

// Ref points the log at the most recent bud (journal) LEB belonging to
// one journal head (spec.md §4.6).
type Ref struct {
	CH    CommonHeader
	Lnum  uint32
	Offs  uint32
	Jhead uint32
}

func (n *Ref) Header() CommonHeader { return n.CH }

// ParseRef parses a UBIFS_REF_NODE at offset in data.
func ParseRef(data []byte, offset int) (*Ref, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+RefFixedSize > len(data) {
		return nil, &ParseError{What: "REF node", Offset: offset, Err: errShortBuffer(offset, CHSize+RefFixedSize, len(data))}
	}
	b := data[offset+CHSize : offset+CHSize+RefFixedSize]
	return &Ref{
		CH:    *ch,
		Lnum:  binary.LittleEndian.Uint32(b[0:4]),
		Offs:  binary.LittleEndian.Uint32(b[4:8]),
		Jhead: binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// CSFixedSize is the size of ubifs_cs_node after the common header.
const CSFixedSize = 8

// CS marks the start of a commit in the journal log.
type CS struct {
	CH    CommonHeader
	CmtNo uint64
}

func (n *CS) Header() CommonHeader { return n.CH }

// ParseCS parses a UBIFS_CS_NODE at offset in data.
func ParseCS(data []byte, offset int) (*CS, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+CSFixedSize > len(data) {
		return nil, &ParseError{What: "CS node", Offset: offset, Err: errShortBuffer(offset, CHSize+CSFixedSize, len(data))}
	}
	b := data[offset+CHSize : offset+CHSize+CSFixedSize]
	return &CS{CH: *ch, CmtNo: binary.LittleEndian.Uint64(b)}, nil
}

// OrphFixedSize is the size of ubifs_orph_node after the common
// header, not counting the trailing inode-number array.
const OrphFixedSize = 8

// orphLastBit marks, in Orph.CmtNo's top bit, that this is the final
// orphan node of its commit.
const orphLastBit = uint64(1) << 63

// Orph lists inode numbers deleted while still open, recorded so a
// crash between unlink and close doesn't leak them (spec.md §4.6).
type Orph struct {
	CH    CommonHeader
	CmtNo uint64
	Last  bool
	Inos  []uint64
}

func (n *Orph) Header() CommonHeader { return n.CH }

// ParseOrph parses a UBIFS_ORPH_NODE at offset in data. The trailing
// inode numbers fill the remainder of the node as bounded by ch.Len.
func ParseOrph(data []byte, offset int) (*Orph, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+OrphFixedSize > len(data) {
		return nil, &ParseError{What: "ORPH node", Offset: offset, Err: errShortBuffer(offset, CHSize+OrphFixedSize, len(data))}
	}
	b := data[offset+CHSize : offset+CHSize+OrphFixedSize]
	raw := binary.LittleEndian.Uint64(b)
	cmtNo := raw &^ orphLastBit
	last := raw&orphLastBit != 0

	inosStart := offset + CHSize + OrphFixedSize
	inosEnd := offset + int(ch.Len)
	if inosEnd < inosStart || inosEnd > len(data) || (inosEnd-inosStart)%8 != 0 {
		return nil, &ParseError{What: "ORPH node", Offset: offset, Err: errShortBuffer(offset, int(ch.Len), len(data))}
	}
	inos := make([]uint64, (inosEnd-inosStart)/8)
	for i := range inos {
		inos[i] = binary.LittleEndian.Uint64(data[inosStart+i*8 : inosStart+i*8+8])
	}
	return &Orph{CH: *ch, CmtNo: cmtNo, Last: last, Inos: inos}, nil
}
