package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const fsstatHelp = `ubift fsstat [-flags] <input>

Print the UBIFS superblock and master node summary of one volume.
`

func cmdFsstat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("fsstat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	fset.Usage = usage(fset, fsstatHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	inst, err := openUBIFS(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	sb, mst := inst.SB, inst.Master
	fmt.Printf("superblock:\n")
	fmt.Printf("  key_hash=%d key_fmt=%d leb_size=%d leb_cnt=%d max_leb_cnt=%d\n", sb.KeyHash, sb.KeyFmt, sb.LebSize, sb.LebCnt, sb.MaxLebCnt)
	fmt.Printf("  log_lebs=%d lpt_lebs=%d orph_lebs=%d jhead_cnt=%d fanout=%d\n", sb.LogLebs, sb.LptLebs, sb.OrphLebs, sb.JheadCnt, sb.Fanout)
	fmt.Printf("  default_compr=%d fmt_version=%d uuid=%x\n", sb.DefaultCompr, sb.FmtVersion, sb.UUID)
	fmt.Printf("master node:\n")
	fmt.Printf("  highest_inum=%d cmt_no=%d root=(%d,%d) log_lnum=%d\n", mst.HighestInum, mst.CmtNo, mst.RootLnum, mst.RootOffs, mst.LogLnum)
	fmt.Printf("  total: free=%d dirty=%d used=%d dead=%d dark=%d\n", mst.TotalFree, mst.TotalDirty, mst.TotalUsed, mst.TotalDead, mst.TotalDark)
	for _, orph := range inst.Orphans(log) {
		fmt.Printf("orphan (cmt_no=%d last=%v): %v\n", orph.CmtNo, orph.Last, orph.Inos)
	}
	return nil
}
