package ubifs

import (
	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// Orphans scans the orphan area -- orph_lebs LEBs beginning at
// 1+2+log_lebs+lpt_lebs -- collecting the leading ORPH node of each
// LEB (spec.md §3, §4.5 step 5). Each ORPH node lists inode numbers
// whose last link was removed but whose data nodes have not yet been
// reaped.
func (inst *Instance) Orphans(log ubiftlog.Logger) []*node.Orph {
	first := 1 + 2 + int(inst.SB.LogLebs) + int(inst.SB.LptLebs)
	last := first + int(inst.SB.OrphLebs)

	var out []*node.Orph
	for lnum := first; lnum < last; lnum++ {
		data := inst.LEBData(lnum)
		if data == nil {
			continue
		}
		ch, err := node.ParseCommonHeader(data, 0)
		if err != nil || !ch.ValidMagic() || ch.NodeType != node.TypeOrph {
			continue
		}
		orph, err := node.ParseOrph(data, 0)
		if err != nil {
			log.Warnf("parsing ORPH node in LEB %d: %v", lnum, err)
			continue
		}
		out = append(out, orph)
	}
	return out
}
