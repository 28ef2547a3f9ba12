package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matthias-deu/ubift/internal/ubi"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const ubilsHelp = `ubift ubils [-flags] <input>

List the UBI instances discovered in the image and the volumes inside
each of them.
`

func cmdUbils(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ubils", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	fset.Usage = usage(fset, ubilsHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	img, err := openImage(fset.Arg(0), cfg)
	if err != nil {
		return err
	}
	parts := ubiPartitions(openPartitions(img, cfg))
	for i, p := range parts {
		inst := ubi.Parse(p, cfg)
		fmt.Printf("ubi_%d: partition [%d, %d]\n", i, p.Offset, p.End)
		for _, v := range inst.Volumes() {
			fmt.Printf("  %d: %-10s type=%-7s reserved_pebs=%d lebs=%d\n",
				v.Index, v.Name(), volTypeName(v.Type()), v.ReservedPEBs(), v.NumLEBs())
		}
	}
	return nil
}

const leblsHelp = `ubift lebls [-flags] <input>

List the logical-to-physical erase block map of one UBI volume.
`

func cmdLebls(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("lebls", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	fset.Usage = usage(fset, leblsHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	vol, err := openVolume(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	for _, leb := range vol.LEBs() {
		fmt.Printf("lnum=%-6d peb=%-6d size=%d\n", leb.Num, leb.PEBNum, leb.Size())
	}
	return nil
}

const lebcatHelp = `ubift lebcat [-flags] <input> <leb number>

Dump one LEB's data area. --headers prints the EC/VID headers of the
owning PEB instead of the data.
`

func cmdLebcat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("lebcat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	headers := fset.Bool("headers", false, "print EC/VID headers instead of data")
	fset.Usage = usage(fset, lebcatHelp)
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	vol, err := openVolume(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	lnum, err := parseIndexArg(fset.Arg(1))
	if err != nil {
		return err
	}
	leb := vol.LEB(lnum)
	if leb == nil {
		return fmt.Errorf("lnum %d is not mapped in volume %q", lnum, vol.Name())
	}
	if *headers {
		fmt.Printf("EC: ec=%d vid_hdr_offset=%d data_offset=%d\n", leb.EC.EC, leb.EC.VidHdrOffset, leb.EC.DataOffset)
		fmt.Printf("VID: vol_id=%d lnum=%d sqnum=%d\n", leb.VID.VolID, leb.VID.Lnum, leb.VID.Sqnum)
		return nil
	}
	_, err = os.Stdout.Write(leb.Data())
	return err
}

const ubicatHelp = `ubift ubicat [-flags] <input>

Dump one UBI volume's data, as the concatenation of its LEBs in lnum
order.
`

func cmdUbicat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ubicat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	fset.Usage = usage(fset, ubicatHelp)
	fset.Parse(args)
	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	vol, err := openVolume(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	for _, leb := range vol.LEBs() {
		if _, err := os.Stdout.Write(leb.Data()); err != nil {
			return err
		}
	}
	return nil
}

func volTypeName(t uint8) string {
	switch t {
	case 1:
		return "DYNAMIC"
	case 2:
		return "STATIC"
	default:
		return "UNKNOWN"
	}
}
