package ubifs

import (
	"encoding/binary"
	"testing"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

func TestOrphansReadsOrphanArea(t *testing.T) {
	// log_lebs=0, lpt_lebs=0: orphan area starts at LEB 1+2+0+0 = 3.
	orphData := make([]byte, 64)
	writeNodeCH(orphData, 0, node.TypeOrph, 1, node.CHSize+node.OrphFixedSize+16)
	binary.LittleEndian.PutUint64(orphData[node.CHSize:node.CHSize+8], (1<<63)|42) // last=true, cmt_no=42
	binary.LittleEndian.PutUint64(orphData[node.CHSize+8:node.CHSize+16], 100)
	binary.LittleEndian.PutUint64(orphData[node.CHSize+16:node.CHSize+24], 101)

	vol := buildVolume(t, 0, map[int][]byte{3: orphData})
	inst := &Instance{Volume: vol, SB: &node.SB{LogLebs: 0, LptLebs: 0, OrphLebs: 1}}

	orphans := inst.Orphans(ubiftlog.Discard)
	if len(orphans) != 1 {
		t.Fatalf("got %d orphan nodes, want 1", len(orphans))
	}
	o := orphans[0]
	if !o.Last || o.CmtNo != 42 {
		t.Fatalf("orph = %+v, want last=true cmt_no=42", o)
	}
	if len(o.Inos) != 2 || o.Inos[0] != 100 || o.Inos[1] != 101 {
		t.Fatalf("Inos = %v, want [100 101]", o.Inos)
	}
}

func TestOrphansSkipsUnmappedLEBs(t *testing.T) {
	// LEB 0 is mapped (so the volume exists) but the orphan area at
	// LEBs [3, 5) has nothing behind it.
	vol := buildVolume(t, 0, map[int][]byte{0: make([]byte, 64)})
	inst := &Instance{Volume: vol, SB: &node.SB{LogLebs: 0, LptLebs: 0, OrphLebs: 2}}

	if orphans := inst.Orphans(ubiftlog.Discard); len(orphans) != 0 {
		t.Fatalf("got %d orphans, want 0", len(orphans))
	}
}
