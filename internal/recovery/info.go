package recovery

import (
	"github.com/dustin/go-humanize"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/index"
	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// MasterTotals mirrors the master node's free/used/dirty/dead/dark
// space accounting, in both raw bytes and human-readable form.
type MasterTotals struct {
	Free, Dirty, Used, Dead, Dark uint64
}

// String renders the totals the way ubift_info reports them.
func (m MasterTotals) String() string {
	return "free=" + humanize.Bytes(m.Free) +
		" dirty=" + humanize.Bytes(m.Dirty) +
		" used=" + humanize.Bytes(m.Used) +
		" dead=" + humanize.Bytes(m.Dead) +
		" dark=" + humanize.Bytes(m.Dark)
}

// Info is the recoverability report an `ubift_info` query produces
// (spec.md §4.9).
type Info struct {
	DeletedInodeCount   int
	DeletedInodeSizeSum uint64
	RecoverableBytes    uint64
	Master              MasterTotals
	FilesystemSize      uint64
}

// Gather scans inst's whole volume and computes the accounting spec.md
// §4.9 defines: over scanned inodes with nlink==0 and a CRC-valid
// common header, the count and summed ino_size of deleted inodes, and
// an estimated recoverable-bytes figure that assumes the standard 4
// KiB data-node block size (spec.md §9 Open Question: do not "fix"
// this by reading individual node sizes).
func Gather(inst *ubifs.Instance, cfg config.Config) *Info {
	info := &Info{
		Master: MasterTotals{
			Free:  inst.Master.TotalFree,
			Dirty: inst.Master.TotalDirty,
			Used:  inst.Master.TotalUsed,
			Dead:  inst.Master.TotalDead,
			Dark:  inst.Master.TotalDark,
		},
		FilesystemSize: uint64(inst.SB.LebCnt) * uint64(inst.SB.LebSize),
	}

	deleted := map[uint32]*node.INO{}
	dataCounts := map[uint32]int{}
	index.ScanVolume(inst, func(n node.Node, lnum, offs int) {
		switch v := n.(type) {
		case *node.INO:
			if v.Nlink != 0 {
				return
			}
			data := inst.LEBData(lnum)
			if data == nil || !v.CH.CRCValid(data, offs) {
				return
			}
			deleted[v.Key.Inum] = v
		case *node.Data:
			dataCounts[v.Key.Inum]++
		}
	})

	for inum, ino := range deleted {
		info.DeletedInodeCount++
		info.DeletedInodeSizeSum += ino.Size

		dataBytes := uint64(dataCounts[inum]) * config.DataNodeBlockSize
		if dataBytes > ino.Size {
			dataBytes = ino.Size
		}
		info.RecoverableBytes += dataBytes
	}
	return info
}
