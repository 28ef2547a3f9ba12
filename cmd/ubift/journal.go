package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matthias-deu/ubift/internal/ubifs/node"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const jlsHelp = `ubift jls [-flags] <input>

List the journal nodes of one volume: the commit-start marker and, per
journal head, the most recent reference and the bud it points at.
`

func headName(h uint32) string {
	switch h {
	case 0:
		return "GC"
	case 1:
		return "BASE"
	case 2:
		return "DATA"
	default:
		return fmt.Sprintf("head(%d)", h)
	}
}

func cmdJls(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("jls", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	fset.Usage = usage(fset, jlsHelp)
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
	j := inst.Journal
	if j.CS != nil {
		fmt.Printf("CS: cmt_no=%d\n", j.CS.CmtNo)
	}
	for head, ref := range j.RefsByHead {
		fmt.Printf("REF %s: lnum=%d offs=%d\n", headName(head), ref.Lnum, ref.Offs)
		bud := j.BudsByHead[head]
		for _, n := range bud.Nodes {
			fmt.Printf("  bud node: type=%s sqnum=%d\n", node.TypeName(n.Header().NodeType), n.Header().Sqnum)
		}
	}
	return nil
}
