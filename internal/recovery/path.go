// Package recovery turns the node collections the index and scan
// engines produce into on-disk artefacts: reconstructed directory
// trees, rebuilt file content, and a recoverability report (spec.md
// §4.8, §4.9).
package recovery

import (
	"strings"

	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

// RootInum is the inode number of a UBIFS volume's root directory.
// Directory entries whose parent key equals this are at the top of the
// tree, so unrolling stops without looking for a dent that names the
// root itself (spec.md §4.8: "unroll(root_parent=0) = name").
const RootInum = 1

// maxUnrollDepth guards against a corrupted parent chain that forms a
// cycle; real trees are never this deep.
const maxUnrollDepth = 4096

// UnrollPath reconstructs a dent's full path by walking parent dents:
// unroll(dent) = unroll(parent_dent) + "/" + dent.Name, stopping at the
// root. dentsByInum indexes dents by the inode number they name (the
// same keying index.Collected.Dents uses), so the dent that names
// dent's parent directory is dentsByInum[dent.Key.Inum][0]. If that
// dent is missing (the parent was deleted), the leaf name alone is
// returned (spec.md §4.8).
func UnrollPath(d *node.Dent, dentsByInum map[uint32][]*node.Dent) string {
	var parts []string
	cur := d
	for depth := 0; depth < maxUnrollDepth; depth++ {
		parts = append(parts, string(cur.Name))
		if cur.Key.Inum == RootInum {
			break
		}
		parents := dentsByInum[cur.Key.Inum]
		if len(parents) == 0 {
			break
		}
		cur = parents[0]
	}
	// parts were appended leaf-first; reverse to get root-first order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
