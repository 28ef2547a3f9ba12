package node

import (
	"bytes"
	"encoding/binary"

	"github.com/matthias-deu/ubift/internal/ubifs/key"
)

// DataFixedSize is the size of ubifs_data_node after the common
// header, not counting the trailing compressed payload.
const DataFixedSize = 24

type dataFixed struct {
	Key       [16]byte
	Size      uint32
	ComprType uint16
	Padding   [2]byte
}

// Data is a UBIFS data node: one compressed block (at most 4 KiB
// uncompressed, per spec.md §4.4) of a file's contents.
type Data struct {
	CH        CommonHeader
	Key       key.Key
	Size      uint32
	ComprType uint16
	// Payload is a slice view into the caller's buffer holding the
	// compressed block, not an owned copy.
	Payload []byte
}

func (n *Data) Header() CommonHeader { return n.CH }

// ParseData parses a UBIFS_DATA_NODE at offset in data.
func ParseData(data []byte, offset int) (*Data, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+CHSize+DataFixedSize > len(data) {
		return nil, &ParseError{What: "DATA node", Offset: offset, Err: errShortBuffer(offset, CHSize+DataFixedSize, len(data))}
	}
	var f dataFixed
	r := bytes.NewReader(data[offset+CHSize : offset+CHSize+DataFixedSize])
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, &ParseError{What: "DATA node", Offset: offset, Err: err}
	}
	payloadStart := offset + CHSize + DataFixedSize
	payloadEnd := offset + int(ch.Len)
	if payloadEnd < payloadStart || payloadEnd > len(data) {
		return nil, &ParseError{What: "DATA node", Offset: offset, Err: errShortBuffer(offset, int(ch.Len), len(data))}
	}
	return &Data{
		CH: *ch, Key: key.Decode(f.Key[:key.Size]), Size: f.Size, ComprType: f.ComprType, Payload: data[payloadStart:payloadEnd],
	}, nil
}
