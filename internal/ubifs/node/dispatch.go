package node

import "fmt"

// Node is implemented by every parsed node type; callers that just
// need the common header (to log, to skip, to order by sqnum) can work
// through this instead of a type switch.
type Node interface {
	Header() CommonHeader
}

// Parse reads whichever node is at offset, dispatching on node_type in
// the common header. It is the single entry point scan_leb and the
// journal/index readers use: "parse whatever is here" (spec.md §4.4).
// A ParseError is returned for a short buffer, bad magic, or unknown
// node_type; none of these are fatal to the caller, which should log
// and continue scanning.
func Parse(data []byte, offset int) (Node, error) {
	ch, err := ParseCommonHeader(data, offset)
	if err != nil {
		return nil, err
	}
	if !ch.ValidMagic() {
		return nil, &ParseError{What: "node", Offset: offset, Err: errBadMagic(ch.Magic)}
	}
	switch ch.NodeType {
	case TypeIno:
		return ParseINO(data, offset)
	case TypeData:
		return ParseData(data, offset)
	case TypeDent, TypeXent:
		return ParseDent(data, offset)
	case TypeTrun:
		return ParseTrun(data, offset)
	case TypePad:
		return ParsePad(data, offset)
	case TypeSB:
		return ParseSB(data, offset)
	case TypeMst:
		return ParseMST(data, offset)
	case TypeRef:
		return ParseRef(data, offset)
	case TypeIdx:
		return ParseIDX(data, offset)
	case TypeCS:
		return ParseCS(data, offset)
	case TypeOrph:
		return ParseOrph(data, offset)
	default:
		return nil, &ParseError{What: "node", Offset: offset, Err: errUnknownType(ch.NodeType)}
	}
}

func errBadMagic(got uint32) error {
	return fmt.Errorf("bad magic %#x, want %#x", got, uint32(CHMagic))
}

func errUnknownType(t uint8) error {
	return fmt.Errorf("unknown node_type %d", t)
}
