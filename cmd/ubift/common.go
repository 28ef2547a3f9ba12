package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/image"
	"github.com/matthias-deu/ubift/internal/partition"
	"github.com/matthias-deu/ubift/internal/ubi"
	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs"
)

// geometryFlags registers the --blocksize/--pagesize/--oob trio every
// command in spec.md §6.1 accepts.
type geometryFlags struct {
	blockSize *int
	pageSize  *int
	oob       *int
}

func registerGeometryFlags(fset *flag.FlagSet) *geometryFlags {
	return &geometryFlags{
		blockSize: fset.Int("blocksize", 0, "erase block size in bytes (0: infer)"),
		pageSize:  fset.Int("pagesize", 0, "NAND page size in bytes (0: infer)"),
		oob:       fset.Int("oob", 0, "out-of-band spare area size in bytes per page (0: none)"),
	}
}

func (g *geometryFlags) config(ctx context.Context, log ubiftlog.Logger) config.Config {
	cfg := config.Default()
	cfg.BlockSize = *g.blockSize
	cfg.PageSize = *g.pageSize
	cfg.OOBSize = *g.oob
	cfg.Logger = log
	cfg.Ctx = ctx
	return cfg
}

// openImage reads path and resolves its geometry.
func openImage(path string, cfg config.Config) (*image.Image, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return image.Open(data, cfg)
}

// openPartitions discovers and fills every partition in the image.
func openPartitions(img *image.Image, cfg config.Config) []*partition.Partition {
	parts := partition.UBIPartitioner{}.Partition(img, cfg)
	return partition.Fill(img, parts)
}

// ubiPartitions returns only the UBI-kind partitions, in order.
func ubiPartitions(parts []*partition.Partition) []*partition.Partition {
	var out []*partition.Partition
	for _, p := range parts {
		if p.Kind == partition.KindUBI {
			out = append(out, p)
		}
	}
	return out
}

// openUBIInstance opens the image, partitions it and parses the UBI
// instance at partition index ubiIndex (0-based among UBI-kind
// partitions only).
func openUBIInstance(path string, ubiIndex int, cfg config.Config) (*partition.Partition, *ubi.Instance, error) {
	img, err := openImage(path, cfg)
	if err != nil {
		return nil, nil, err
	}
	parts := ubiPartitions(openPartitions(img, cfg))
	if ubiIndex < 0 || ubiIndex >= len(parts) {
		return nil, nil, fmt.Errorf("no UBI partition at index %d (found %d)", ubiIndex, len(parts))
	}
	p := parts[ubiIndex]
	return p, ubi.Parse(p, cfg), nil
}

// findVolume resolves a volume within inst by name or index, whichever
// is set; name takes precedence when both are given.
func findVolume(inst *ubi.Instance, name string, index int) (*ubi.Volume, error) {
	if name != "" {
		if v := inst.VolumeByName(name); v != nil {
			return v, nil
		}
		return nil, fmt.Errorf("no volume named %q", name)
	}
	if v := inst.VolumeByIndex(index); v != nil {
		return v, nil
	}
	return nil, fmt.Errorf("no volume at index %d", index)
}

// openUBIFSVolume opens the UBIFS instance hosted on volume.
func openUBIFSVolume(vol *ubi.Volume, cfg config.Config) (*ubifs.Instance, error) {
	return ubifs.Open(vol, cfg)
}

// volumeFlags registers the --offset/--volname/--volindex trio used by
// every command that operates on one UBI volume.
type volumeFlags struct {
	ubiIdx   *int
	volName  *string
	volIndex *int
}

func registerVolumeFlags(fset *flag.FlagSet) *volumeFlags {
	return &volumeFlags{
		ubiIdx:   fset.Int("offset", 0, "UBI instance index"),
		volName:  fset.String("volname", "", "volume name"),
		volIndex: fset.Int("volindex", 0, "volume index"),
	}
}

// openVolume resolves the image at path down to the UBI volume v
// selects.
func openVolume(path string, v *volumeFlags, cfg config.Config) (*ubi.Volume, error) {
	_, inst, err := openUBIInstance(path, *v.ubiIdx, cfg)
	if err != nil {
		return nil, err
	}
	return findVolume(inst, *v.volName, *v.volIndex)
}

// openUBIFS resolves the image at path down to an open UBIFS instance,
// using v to pick the UBI instance and volume.
func openUBIFS(path string, v *volumeFlags, cfg config.Config) (*ubifs.Instance, error) {
	vol, err := openVolume(path, v, cfg)
	if err != nil {
		return nil, err
	}
	return openUBIFSVolume(vol, cfg)
}
