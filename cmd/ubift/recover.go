package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matthias-deu/ubift/internal/recovery"
	"github.com/matthias-deu/ubift/internal/ubi"
	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

const recoverHelp = `ubift_recover [-flags] <input>

Reconstruct every UBIFS volume found in the image under --output, one
directory per UBI instance and volume (spec.md §6.4). --deleted also
recovers content from inodes no longer reachable from the live index;
--raw additionally (or instead, if no UBIFS instance is found on a
volume) dumps the volume's raw concatenated LEB data.
`

func truncName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func cmdUbiftRecover(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ubift_recover", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	deleted := fset.Bool("deleted", false, "also recover deleted inode content")
	raw := fset.Bool("raw", false, "also dump raw volume data (or instead, if no UBIFS instance is found)")
	output := fset.String("output", ".", "output directory")
	fset.Usage = usage(fset, recoverHelp)
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
		if cfg.Context().Err() != nil {
			return nil
		}
		ubiInst := ubi.Parse(p, cfg)
		for j, vol := range ubiInst.Volumes() {
			volDir := filepath.Join(*output, fmt.Sprintf("ubi_%d", i), fmt.Sprintf("ubi_%d_%d_%s", i, j, truncName(vol.Name(), 10)))
			if err := os.MkdirAll(volDir, 0o755); err != nil {
				log.Errorf("ubi_%d_%d: creating output directory: %v", i, j, err)
				continue
			}

			inst, err := ubifs.Open(vol, cfg)
			if err != nil {
				log.Warnf("ubi_%d_%d (%s): no UBIFS instance found: %v", i, j, vol.Name(), err)
				if *raw {
					if err := recovery.WriteRawVolume(vol, volDir); err != nil {
						log.Errorf("ubi_%d_%d: writing raw volume data: %v", i, j, err)
					}
				}
				continue
			}

			res, err := recovery.Recover(inst, volDir, cfg, recovery.Options{Deleted: *deleted})
			if err != nil {
				log.Errorf("ubi_%d_%d: %v", i, j, err)
				continue
			}
			fmt.Printf("ubi_%d_%d (%s): dirs=%d files=%d skipped=%d recovered_deleted=%d\n",
				i, j, vol.Name(), res.DirsCreated, res.FilesWritten, res.FilesSkipped, res.DeletedWritten)
			if res.Cancelled {
				return nil
			}
			if *raw {
				if err := recovery.WriteRawVolume(vol, volDir); err != nil {
					log.Errorf("ubi_%d_%d: writing raw volume data: %v", i, j, err)
				}
			}
		}
	}
	return nil
}

const infoHelp = `ubift_info [-flags] <input>

Print a recoverability report for one UBIFS volume: deleted inode
count, their summed ino_size, an estimated recoverable-bytes figure,
master node space accounting and filesystem size (spec.md §4.9).
`

func cmdUbiftInfo(ctx context.Context, log ubiftlog.Logger, args []string) error {
	fset := flag.NewFlagSet("ubift_info", flag.ExitOnError)
	geom := registerGeometryFlags(fset)
	v := registerVolumeFlags(fset)
	inodeInfo := fset.Bool("inode_info", false, "print the deleted inodes found, not just their totals")
	fset.Usage = usage(fset, infoHelp)
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
	info := recovery.Gather(inst, cfg)
	fmt.Printf("filesystem_size=%d\n", info.FilesystemSize)
	fmt.Printf("master: %s\n", info.Master)
	fmt.Printf("deleted_inode_count=%d deleted_inode_size_sum=%d recoverable_bytes=%d\n",
		info.DeletedInodeCount, info.DeletedInodeSizeSum, info.RecoverableBytes)
	if *inodeInfo {
		c := collect(inst, true)
		for inum, ino := range c.Inodes {
			if ino.Nlink != 0 {
				continue
			}
			fmt.Printf("  deleted inode=%d size=%d mode=%#o\n", inum, ino.Size, ino.Mode)
		}
	}
	return nil
}
