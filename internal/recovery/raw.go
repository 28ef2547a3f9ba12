package recovery

import (
	"os"
	"path/filepath"

	"github.com/matthias-deu/ubift/internal/ubi"
)

// RawVolumeFile is the name ubift_recover writes a volume's
// concatenated LEB data under when no UBIFS instance could be opened
// on it and --raw was requested (spec.md §6.4).
const RawVolumeFile = "RAW_UBI_VOL_DATA.bin"

// WriteRawVolume concatenates every mapped LEB of vol, in lnum order,
// into outDir/RAW_UBI_VOL_DATA.bin. Used as a fallback when a volume
// doesn't hold a recognisable UBIFS instance.
func WriteRawVolume(vol *ubi.Volume, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(outDir, RawVolumeFile))
	if err != nil {
		return err
	}
	defer f.Close()
	for _, leb := range vol.LEBs() {
		if _, err := f.Write(leb.Data()); err != nil {
			return err
		}
	}
	return nil
}
