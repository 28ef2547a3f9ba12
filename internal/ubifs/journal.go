package ubifs

import (
	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// Journal head indices, matching UBIFS_GC_HEAD/UBIFS_BASE_HEAD/UBIFS_DATA_HEAD.
const (
	HeadGC = 0
	HeadBase = 1
	HeadData = 2
)

// Bud is one linear run of nodes appended to a journal head since the
// last commit: the LEB a REF node points at, starting at Offs.
type Bud struct {
	Lnum  int
	Offs  int
	Nodes []node.Node
}

// Journal is the UBIFS journal rooted at the master node's log_lnum
// LEB: the commit-start marker, the most recent REF per head, and the
// buds those REFs point at (spec.md §4.6). The implementer
// deliberately never replays this into the index; it is surfaced as
// metadata only.
type Journal struct {
	CS         *node.CS
	RefsByHead map[uint32]*node.Ref
	BudsByHead map[uint32]*Bud
}

// ParseJournal walks the log LEB node by node: PAD advances past
// padding, CS records the commit number, REF records the newest
// reference per jhead. Iteration stops at the first node whose common
// header fails to validate, matching the journal's log-structured
// nature (spec.md §4.6).
func ParseJournal(inst *Instance, log ubiftlog.Logger) *Journal {
	j := &Journal{RefsByHead: map[uint32]*node.Ref{}, BudsByHead: map[uint32]*Bud{}}

	data := inst.LEBData(int(inst.Master.LogLnum))
	if data == nil {
		log.Warnf("journal log LEB %d is not mapped", inst.Master.LogLnum)
		return j
	}

	off := 0
	for off+node.CHSize <= len(data) {
		ch, err := node.ParseCommonHeader(data, off)
		if err != nil || !ch.ValidMagic() {
			break
		}
		switch ch.NodeType {
		case node.TypePad:
			pad, err := node.ParsePad(data, off)
			if err != nil {
				log.Warnf("parsing PAD node in journal log: %v", err)
				return j
			}
			off += node.CHSize + node.PadFixedSize + int(pad.PadLen)
			continue
		case node.TypeCS:
			cs, err := node.ParseCS(data, off)
			if err != nil {
				log.Warnf("parsing CS node in journal log: %v", err)
				return j
			}
			j.CS = cs
		case node.TypeRef:
			ref, err := node.ParseRef(data, off)
			if err != nil {
				log.Warnf("parsing REF node in journal log: %v", err)
				return j
			}
			j.RefsByHead[ref.Jhead] = ref
		default:
			log.Warnf("unexpected node type %s in journal log at offset %d", node.TypeName(ch.NodeType), off)
			return j
		}
		if ch.Len < uint32(node.CHSize) {
			log.Warnf("node at offset %d in journal log has implausible len %d, stopping scan", off, ch.Len)
			break
		}
		off += int(ch.Len)
	}

	for head, ref := range j.RefsByHead {
		j.BudsByHead[head] = followBud(inst, ref, log)
	}
	return j
}

// followBud parses successive nodes linearly starting at ref's
// (lnum, offs), stopping at the first node whose magic fails to
// validate: a bud is a plain append-only run, not a delimited record.
func followBud(inst *Instance, ref *node.Ref, log ubiftlog.Logger) *Bud {
	bud := &Bud{Lnum: int(ref.Lnum), Offs: int(ref.Offs)}
	data := inst.LEBData(int(ref.Lnum))
	if data == nil {
		log.Warnf("journal bud references unmapped LEB %d", ref.Lnum)
		return bud
	}
	off := int(ref.Offs)
	for off+node.CHSize <= len(data) {
		ch, err := node.ParseCommonHeader(data, off)
		if err != nil || !ch.ValidMagic() {
			break
		}
		n, err := node.Parse(data, off)
		if err != nil {
			break
		}
		bud.Nodes = append(bud.Nodes, n)
		if ch.Len < uint32(node.CHSize) {
			log.Warnf("node at offset %d in bud LEB %d has implausible len %d, stopping scan", off, ref.Lnum, ch.Len)
			break
		}
		off += int(ch.Len)
	}
	return bud
}
