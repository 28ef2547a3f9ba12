package recovery

import (
	"testing"

	"github.com/matthias-deu/ubift/internal/ubifs/key"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

func dent(parentInum, inum uint32, name string) *node.Dent {
	return &node.Dent{
		Key:  key.Key{Inum: parentInum},
		Inum: uint64(inum),
		Type: node.ItypeReg,
		Name: []byte(name),
	}
}

func TestUnrollPathWalksToRoot(t *testing.T) {
	byInum := map[uint32][]*node.Dent{
		2: {dent(RootInum, 2, "home")},
		3: {dent(2, 3, "user")},
		4: {dent(3, 4, "note.txt")},
	}
	got := UnrollPath(byInum[4][0], byInum)
	if got != "home/user/note.txt" {
		t.Fatalf("UnrollPath = %q, want %q", got, "home/user/note.txt")
	}
}

func TestUnrollPathStopsAtRoot(t *testing.T) {
	byInum := map[uint32][]*node.Dent{
		2: {dent(RootInum, 2, "note.txt")},
	}
	got := UnrollPath(byInum[2][0], byInum)
	if got != "note.txt" {
		t.Fatalf("UnrollPath = %q, want %q", got, "note.txt")
	}
}

func TestUnrollPathFallsBackWhenParentMissing(t *testing.T) {
	// dent's parent inode (99) was deleted: no dent names it.
	orphan := dent(99, 5, "orphan.txt")
	byInum := map[uint32][]*node.Dent{}
	got := UnrollPath(orphan, byInum)
	if got != "orphan.txt" {
		t.Fatalf("UnrollPath = %q, want %q", got, "orphan.txt")
	}
}
