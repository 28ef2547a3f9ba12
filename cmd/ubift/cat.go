package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/matthias-deu/ubift/internal/recovery"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const icatHelp = `ubift icat [-flags] <input> <inode>

Dump the reconstructed content of one inode to --output, or stdout.
`

func cmdIcat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("icat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	scan := fset.Bool("scan", false, "use the scan engine instead of the index")
	output := fset.String("output", "", "output file (default: stdout)")
	fset.Usage = usage(fset, icatHelp)
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	inst, err := openUBIFS(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	inum, err := strconv.ParseUint(fset.Arg(1), 10, 32)
	if err != nil {
		return err
	}
	c := collect(inst, *scan)
	ino := c.Inodes[uint32(inum)]
	content := recovery.RebuildFile(c.DataNodes[uint32(inum)], ino, cfg)
	if *output == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	return ioutil.WriteFile(*output, content, 0644)
}

const istatHelp = `ubift istat [-flags] <input> <inode>

Print one inode's metadata.
`

func cmdIstat(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("istat", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	scan := fset.Bool("scan", false, "use the scan engine instead of the index")
	fset.Usage = usage(fset, istatHelp)
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	cfg := geom.config(ctx, log)
	inst, err := openUBIFS(fset.Arg(0), v, cfg)
	if err != nil {
		return err
	}
	inum, err := strconv.ParseUint(fset.Arg(1), 10, 32)
	if err != nil {
		return err
	}
	c := collect(inst, *scan)
	ino, ok := c.Inodes[uint32(inum)]
	if !ok {
		return fmt.Errorf("no inode %d found", inum)
	}
	fmt.Printf("inode=%d\n", inum)
	fmt.Printf("mode=%#o nlink=%d uid=%d gid=%d size=%d\n", ino.Mode, ino.Nlink, ino.UID, ino.GID, ino.Size)
	fmt.Printf("atime=%s\n", time.Unix(int64(ino.AtimeSec), 0).UTC())
	fmt.Printf("ctime=%s\n", time.Unix(int64(ino.CtimeSec), 0).UTC())
	fmt.Printf("mtime=%s\n", time.Unix(int64(ino.MtimeSec), 0).UTC())
	fmt.Printf("compr=%d data_len=%d xattr_cnt=%d\n", ino.ComprType, ino.DataLen, ino.XattrCnt)
	if ino.Nlink == 0 {
		fmt.Println("this inode is deleted (nlink=0)")
	}
	for _, d := range c.Dents[uint32(inum)] {
		fmt.Printf("named by: %s\n", recovery.UnrollPath(d, c.Dents))
	}
	return nil
}
