package recovery

import (
	"sort"

	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/ubifs/compress"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// RebuildFile reconstructs a regular file's content from its DATA
// nodes. Each node's key payload is the 4 KiB block index; its
// decompressed bytes are written at byte offset 4096*block_index.
// ino, when non-nil, provides ino_size: a shorter buffer is
// zero-extended to that length, and an accumulation longer than
// ino_size is logged as an error and kept in full, not truncated
// (spec.md §4.8 step 3). When ino is nil (deleted-inode recovery
// with no surviving INO node), the accumulated length is used as-is.
func RebuildFile(dataNodes []*node.Data, ino *node.INO, cfg config.Config) []byte {
	log := cfg.Log()

	sorted := make([]*node.Data, len(dataNodes))
	copy(sorted, dataNodes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Key.Payload != sorted[j].Key.Payload {
			return sorted[i].Key.Payload < sorted[j].Key.Payload
		}
		// Among multiple generations of the same block (scan recovery can
		// surface more than one), the highest sqnum is the live one.
		return sorted[i].CH.Sqnum > sorted[j].CH.Sqnum
	})

	var buf []byte
	seen := map[uint32]bool{}
	for _, d := range sorted {
		if seen[d.Key.Payload] {
			continue
		}
		seen[d.Key.Payload] = true

		block := int(d.Key.Payload)
		offset := block * config.DataNodeBlockSize
		plain := compress.Decompress(d.Payload, compress.Type(d.ComprType), int(d.Size), log)

		need := offset + len(plain)
		if need > len(buf) {
			grown := make([]byte, need)
			copy(grown, buf)
			buf = grown
		}
		copy(buf[offset:], plain)
	}

	if ino != nil {
		size := int(ino.Size)
		switch {
		case size > len(buf):
			grown := make([]byte, size)
			copy(grown, buf)
			buf = grown
		case size < len(buf):
			log.Errorf("inode %d: accumulated data (%d bytes) exceeds ino_size (%d bytes); keeping accumulated content", ino.Key.Inum, len(buf), size)
		}
	}
	return buf
}
