// Package ubifs reconstructs a UBIFS file-system instance out of one
// UBI volume: its superblock, the pair of redundant master nodes, and
// the resulting root of the on-flash wandering index (spec.md §4.5).
package ubifs

import (
	"sort"

	"golang.org/x/xerrors"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/ubi"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// masterLEBs are the two LEBs UBIFS keeps redundant copies of the
// master node in.
var masterLEBs = [2]int{1, 2}

// Instance is a parsed UBIFS file system.
type Instance struct {
	Volume *ubi.Volume
	SB     *node.SB

	// MasterNodes holds, per redundant LEB (index 0 -> LEB 1, index 1 ->
	// LEB 2), every MST node found there, sorted by descending sqnum: the
	// newest master is always MasterNodes[x][0].
	MasterNodes [2][]*node.MST
	Master      *node.MST
	Root        *node.IDX
	Journal     *Journal

	cfg config.Config
}

// Open builds an Instance from the superblock and master-node LEBs of
// vol. masternode_index selects which scanned master node copy to use
// (config.DefaultMasterNodeIndex picks the newest by sqnum; spec.md
// §4.5, §6.3 Open Question resolution).
func Open(vol *ubi.Volume, cfg config.Config) (*Instance, error) {
	log := cfg.Log()
	inst := &Instance{Volume: vol, cfg: cfg}

	sbLEB := vol.LEB(0)
	if sbLEB == nil {
		return nil, xerrors.Errorf("ubifs: volume %q has no LEB 0 (superblock)", vol.Name())
	}
	sb, err := node.ParseSB(sbLEB.Data(), 0)
	if err != nil {
		return nil, xerrors.Errorf("ubifs: parsing superblock: %w", err)
	}
	inst.SB = sb

	for i, lnum := range masterLEBs {
		inst.MasterNodes[i] = scanMasterNodes(vol, lnum, log)
	}

	idx := cfg.MasterNodeIndex
	if idx < 0 {
		idx = 0
	}
	primary := inst.MasterNodes[0]
	if idx >= len(primary) {
		return nil, xerrors.Errorf("ubifs: master node index %d requested, but only %d master nodes found in LEB %d", idx, len(primary), masterLEBs[0])
	}
	inst.Master = primary[idx]

	// Cross-check the newest master of each LEB on every parsed field
	// except the common header (which carries sqnum and CRC).
	if len(inst.MasterNodes[1]) > 0 {
		a, b := *primary[0], *inst.MasterNodes[1][0]
		a.CH, b.CH = node.CommonHeader{}, node.CommonHeader{}
		if a != b {
			log.Warnf("newest master nodes in LEB 1 and LEB 2 differ (cmt_no %d vs %d); using LEB 1's list", primary[0].CmtNo, inst.MasterNodes[1][0].CmtNo)
		}
	}

	rootLEB := vol.LEB(int(inst.Master.RootLnum))
	if rootLEB == nil {
		return nil, xerrors.Errorf("ubifs: master node points at missing root LEB %d", inst.Master.RootLnum)
	}
	root, err := node.ParseIDX(rootLEB.Data(), int(inst.Master.RootOffs))
	if err != nil {
		return nil, xerrors.Errorf("ubifs: parsing root index node: %w", err)
	}
	inst.Root = root
	inst.Journal = ParseJournal(inst, log)

	log.Infof("initialized UBIFS instance for UBI volume %q", vol.Name())
	return inst, nil
}

// scanMasterNodes finds every UBIFS_MST_NODE in the given LEB (new
// master nodes are appended, so a crash may leave stale ones before the
// latest) and returns them sorted by descending sqnum.
func scanMasterNodes(vol *ubi.Volume, lnum int, log ubiftlog.Logger) []*node.MST {
	leb := vol.LEB(lnum)
	if leb == nil {
		return nil
	}
	data := leb.Data()
	var out []*node.MST
	for off := 0; off+node.CHSize <= len(data); off++ {
		ch, err := node.ParseCommonHeader(data, off)
		if err != nil || !ch.ValidMagic() {
			continue
		}
		if ch.NodeType != node.TypeMst {
			continue
		}
		mst, err := node.ParseMST(data, off)
		if err != nil {
			log.Warnf("encountered error while parsing master node in LEB %d: %v", lnum, err)
			continue
		}
		out = append(out, mst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CH.Sqnum > out[j].CH.Sqnum })
	log.Infof("found %d master nodes in LEB %d", len(out), lnum)
	return out
}

// LEBData returns the data area of lnum within the instance's volume,
// or nil if lnum is unmapped.
func (inst *Instance) LEBData(lnum int) []byte {
	leb := inst.Volume.LEB(lnum)
	if leb == nil {
		return nil
	}
	return leb.Data()
}
