package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const mtdlsHelp = `ubift mtdls [-flags] <input>

List the partitions discovered in a raw flash image: contiguous runs of
UBI erase blocks, and the Unallocated gaps between them.
`

func cmdMtdls(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("mtdls", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	fset.Usage = usage(fset, mtdlsHelp)
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
	parts := openPartitions(img, cfg)
	for i, p := range parts {
		fmt.Printf("%d: %-12s [%d, %d] (%d PEBs)\n", i, p.Kind, p.Offset, p.End, p.NumPEBs())
	}
	return nil
}

const mtdcatHelp = `ubift mtdcat [-flags] <input> <partition index>

Dump the raw bytes of one partition to stdout.
`

func cmdMtdcat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("mtdcat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	fset.Usage = usage(fset, mtdcatHelp)
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	img, err := openImage(fset.Arg(0), cfg)
	if err != nil {
		return err
	}
	parts := openPartitions(img, cfg)
	idx, err := parseIndexArg(fset.Arg(1))
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(parts) {
		return fmt.Errorf("no partition at index %d (found %d)", idx, len(parts))
	}
	_, err = os.Stdout.Write(parts[idx].Data())
	return err
}

const pebcatHelp = `ubift pebcat [-flags] <input> <peb index>

Dump the raw bytes of one physical erase block to stdout.
`

func cmdPebcat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("pebcat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	fset.Usage = usage(fset, pebcatHelp)
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	img, err := openImage(fset.Arg(0), cfg)
	if err != nil {
		return err
	}
	idx, err := parseIndexArg(fset.Arg(1))
	if err != nil {
		return err
	}
	data := img.PEB(idx)
	if data == nil {
		return fmt.Errorf("no PEB at index %d (image has %d)", idx, img.NumPEBs())
	}
	_, err = os.Stdout.Write(data)
	return err
}
