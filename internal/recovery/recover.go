package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/index"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// RecoveredDir is the subtree deleted-inode content is written under,
// separate from the reconstructed live tree (spec.md §6.4).
const RecoveredDir = "UBIFT_RECOVERED_FILES"

// Options controls what Recover extracts.
type Options struct {
	// Deleted additionally scans the whole volume and recovers inodes
	// no longer reachable from the live index.
	Deleted bool
}

// Result totals what Recover actually wrote, so callers can report it.
type Result struct {
	DirsCreated    int
	FilesWritten   int
	FilesSkipped   int // LNK/BLK/CHR/FIFO/SOCK, a named non-goal
	DeletedWritten int
	Cancelled      bool
}

// Recover walks inst's live index, recreating the directory tree and
// file content under outDir, and optionally recovers deleted inodes via
// a full-volume scan (spec.md §4.8).
func Recover(inst *ubifs.Instance, outDir string, cfg config.Config, opts Options) (*Result, error) {
	log := cfg.Log()
	res := &Result{}

	collected := index.NewCollected()
	index.Traverse(inst, inst.Root, collected.Visit)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output directory: %w", err)
	}

	// Directories first, so files always have somewhere to land.
	for _, dents := range collected.Dents {
		for _, d := range dents {
			if d.Inum == 0 {
				continue // a zero-Inum dent is a deletion tombstone, not a live entry
			}
			if d.Type != node.ItypeDir {
				continue
			}
			path := filepath.Join(outDir, UnrollPath(d, collected.Dents))
			if err := os.MkdirAll(path, 0o755); err != nil {
				path = filepath.Join(outDir, sanitizePath(UnrollPath(d, collected.Dents)))
				if err := os.MkdirAll(path, 0o755); err != nil {
					log.Warnf("creating directory for inode %d: %v", d.Inum, err)
					continue
				}
			}
			res.DirsCreated++
			stampMetadata(path, collected.Inodes[uint32(d.Inum)], log)
		}
	}

	for _, dents := range collected.Dents {
		for _, d := range dents {
			if cfg.Context().Err() != nil {
				res.Cancelled = true
				return res, nil
			}
			if d.Inum == 0 {
				continue
			}
			switch d.Type {
			case node.ItypeDir:
				continue // handled above
			case node.ItypeReg:
				if err := writeRegularFile(outDir, d, collected, cfg); err != nil {
					log.Warnf("writing file for inode %d: %v", d.Inum, err)
					continue
				}
				res.FilesWritten++
			default:
				log.Warnf("skipping non-regular, non-directory dent %q (inode %d, type %d): not supported", d.Name, d.Inum, d.Type)
				res.FilesSkipped++
			}
		}
	}

	if opts.Deleted {
		n, err := recoverDeleted(inst, outDir, collected, cfg)
		if err != nil {
			return res, err
		}
		res.DeletedWritten = n
	}

	return res, nil
}

// writeRegularFile reconstructs one REG dent's content and writes it
// at its unrolled path under outDir.
func writeRegularFile(outDir string, d *node.Dent, collected *index.Collected, cfg config.Config) error {
	path := UnrollPath(d, collected.Dents)
	dir, name := filepath.Split(filepath.Join(outDir, path))

	ino := collected.Inodes[uint32(d.Inum)]
	content := RebuildFile(collected.DataNodes[uint32(d.Inum)], ino, cfg)

	f, finalPath, err := createFile(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return err
	}
	stampMetadata(finalPath, ino, cfg.Log())
	return nil
}

// recoverDeleted scans the whole volume for every inode not present in
// the live index, naming each after the first scanned dent that
// targets it, or falling back to RECOVERED_INODE_DATA_<inum> (spec.md
// §4.8 step 5).
func recoverDeleted(inst *ubifs.Instance, outDir string, live *index.Collected, cfg config.Config) (int, error) {
	log := cfg.Log()
	scanned := index.NewCollected()
	index.ScanVolume(inst, scanned.Visit)

	recoveredDir := filepath.Join(outDir, RecoveredDir)
	if err := os.MkdirAll(recoveredDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", RecoveredDir, err)
	}

	written := 0
	for inum, ino := range scanned.Inodes {
		if cfg.Context().Err() != nil {
			return written, nil
		}
		if _, live := live.Inodes[inum]; live {
			continue
		}
		name := fmt.Sprintf("RECOVERED_INODE_DATA_%d", inum)
		for _, d := range scanned.Dents[inum] {
			if d.Inum != 0 && len(d.Name) > 0 {
				name = string(d.Name)
				break
			}
		}
		content := RebuildFile(scanned.DataNodes[inum], ino, cfg)
		f, path, err := createFile(recoveredDir, name)
		if err != nil {
			log.Warnf("recovering deleted inode %d: %v", inum, err)
			continue
		}
		if _, err := f.Write(content); err != nil {
			f.Close()
			log.Warnf("writing recovered inode %d: %v", inum, err)
			continue
		}
		f.Close()
		stampMetadata(path, ino, log)
		written++
	}
	return written, nil
}

// stampMetadata applies mtime/atime and mode from ino to path when ino
// is non-nil (spec.md §4.8 step 2). Failures are logged, not fatal:
// metadata stamping is best-effort forensic reconstruction, not a
// guarantee.
func stampMetadata(path string, ino *node.INO, log ubiftlog.Logger) {
	if ino == nil {
		return
	}
	atime := time.Unix(int64(ino.AtimeSec), 0)
	mtime := time.Unix(int64(ino.MtimeSec), 0)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		log.Warnf("stamping times on %s: %v", path, err)
	}
	if err := os.Chmod(path, os.FileMode(ino.Mode&0o7777)); err != nil {
		log.Warnf("stamping mode on %s: %v", path, err)
	}
}
