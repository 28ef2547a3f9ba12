package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/matthias-deu/ubift/internal/index"
	"github.com/matthias-deu/ubift/internal/recovery"
	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

// collect runs either the index traversal or the linear scan over
// inst, depending on whether scanning was requested. --scan and
// --deleted both select the scan engine (spec.md §6.1): a scan
// surfaces deleted/obsolete nodes the index no longer reaches.
func collect(inst *ubifs.Instance, scan bool) *index.Collected {
	c := index.NewCollected()
	if scan {
		index.ScanVolume(inst, c.Visit)
	} else {
		index.Traverse(inst, inst.Root, c.Visit)
	}
	return c
}

func itypeName(t uint8) string {
	switch t {
	case node.ItypeReg:
		return "REG"
	case node.ItypeDir:
		return "DIR"
	case node.ItypeLnk:
		return "LNK"
	case node.ItypeBlk:
		return "BLK"
	case node.ItypeChr:
		return "CHR"
	case node.ItypeFifo:
		return "FIFO"
	case node.ItypeSock:
		return "SOCK"
	default:
		return fmt.Sprintf("type(%d)", t)
	}
}

// resolvePath walks path component by component from the root inode,
// using c.Dents as a (parent inum) -> children index, and returns the
// inode number the final component names.
func resolvePath(c *index.Collected, path string) (uint32, error) {
	cur := uint32(recovery.RootInum)
	path = strings.Trim(path, "/")
	if path == "" {
		return cur, nil
	}
	for _, part := range strings.Split(path, "/") {
		found := false
		for _, dents := range c.Dents {
			for _, d := range dents {
				if d.Inum != 0 && d.Key.Inum == cur && string(d.Name) == part {
					cur = uint32(d.Inum)
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("path component %q not found", part)
		}
	}
	return cur, nil
}

const flsHelp = `ubift fls [-flags] <input>

List the directory entries of one directory (--path, default "/").
`

func cmdFls(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("fls", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	path := fset.String("path", "/", "directory to list")
	xentries := fset.Bool("xentries", false, "list extended-attribute entries instead of directory entries")
	scan := fset.Bool("scan", false, "use the scan engine instead of the index")
	deleted := fset.Bool("deleted", false, "include deleted/obsolete entries (implies --scan)")
	_ = fset.String("format", "text", "output format (only \"text\" is supported)")
	fset.Usage = usage(fset, flsHelp)
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
	c := collect(inst, *scan || *deleted)
	dirInum, err := resolvePath(c, *path)
	if err != nil {
		return err
	}
	bucket := c.Dents
	if *xentries {
		bucket = c.Xentries
	}
	for _, dents := range bucket {
		for _, d := range dents {
			if d.Key.Inum != dirInum {
				continue
			}
			marker := ""
			if d.Inum == 0 {
				marker = " (deleted)"
			}
			fmt.Printf("%-20s inode=%-8d type=%s%s\n", string(d.Name), d.Inum, itypeName(d.Type), marker)
		}
	}
	return nil
}

const ilsHelp = `ubift ils [-flags] <input>

List every inode found, by inode number.
`

func cmdIls(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ils", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	scan := fset.Bool("scan", false, "use the scan engine instead of the index")
	deleted := fset.Bool("deleted", false, "include deleted/obsolete inodes (implies --scan)")
	_ = fset.String("format", "text", "output format (only \"text\" is supported)")
	fset.Usage = usage(fset, ilsHelp)
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
	c := collect(inst, *scan || *deleted)
	for inum, ino := range c.Inodes {
		deletedMark := ""
		if ino.Nlink == 0 {
			deletedMark = " (nlink=0)"
		}
		fmt.Printf("inode=%-8d size=%-10d mode=%#o nlink=%d%s\n", inum, ino.Size, ino.Mode, ino.Nlink, deletedMark)
	}
	return nil
}

const ffindHelp = `ubift ffind [-flags] <input> <inode>

List the directory entries that name the given inode.
`

func cmdFfind(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ffind", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	scan := fset.Bool("scan", false, "use the scan engine instead of the index")
	showPath := fset.Bool("path", false, "print the full unrolled path instead of the raw entry name")
	fset.Usage = usage(fset, ffindHelp)
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
	for _, d := range c.Dents[uint32(inum)] {
		if *showPath {
			fmt.Println(recovery.UnrollPath(d, c.Dents))
		} else {
			fmt.Printf("%s (parent inode=%d)\n", string(d.Name), d.Key.Inum)
		}
	}
	return nil
}
