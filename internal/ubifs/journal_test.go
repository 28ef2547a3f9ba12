package ubifs

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
	"github.com/matthias-deu/ubift/internal/ubifs/node"
)

func TestParseJournalFollowsRefToBud(t *testing.T) {
	logData := make([]byte, 256)
	writeNodeCH(logData, 0, node.TypeCS, 1, node.CHSize+node.CSFixedSize)
	binary.LittleEndian.PutUint64(logData[node.CHSize:node.CHSize+8], 7) // cmt_no

	refOff := node.CHSize + node.CSFixedSize
	writeNodeCH(logData, refOff, node.TypeRef, 2, node.CHSize+node.RefFixedSize)
	binary.LittleEndian.PutUint32(logData[refOff+node.CHSize:refOff+node.CHSize+4], 1) // lnum
	binary.LittleEndian.PutUint32(logData[refOff+node.CHSize+4:refOff+node.CHSize+8], 0) // offs
	binary.LittleEndian.PutUint32(logData[refOff+node.CHSize+8:refOff+node.CHSize+12], HeadData)

	budData := make([]byte, 256)
	writeNodeCH(budData, 0, node.TypeData, 5, node.CHSize+node.DataFixedSize)

	vol := buildVolume(t, 0, map[int][]byte{0: logData, 1: budData})
	inst := &Instance{Volume: vol, Master: &node.MST{LogLnum: 0}}

	j := ParseJournal(inst, ubiftlog.Discard)
	if j.CS == nil || j.CS.CmtNo != 7 {
		t.Fatalf("CS = %+v, want CmtNo 7", j.CS)
	}
	ref, ok := j.RefsByHead[HeadData]
	if !ok || ref.Lnum != 1 {
		t.Fatalf("RefsByHead[HeadData] = %+v, ok=%v, want lnum 1", ref, ok)
	}
	bud := j.BudsByHead[HeadData]
	if bud == nil || len(bud.Nodes) != 1 {
		t.Fatalf("bud = %+v, want exactly 1 node", bud)
	}
	if bud.Nodes[0].Header().Sqnum != 5 {
		t.Fatalf("bud node sqnum = %d, want 5", bud.Nodes[0].Header().Sqnum)
	}
}

func TestParseJournalStopsAtInvalidMagic(t *testing.T) {
	logData := make([]byte, 64) // all zero: no valid magic anywhere
	vol := buildVolume(t, 0, map[int][]byte{0: logData})
	inst := &Instance{Volume: vol, Master: &node.MST{LogLnum: 0}}

	j := ParseJournal(inst, ubiftlog.Discard)
	if j.CS != nil {
		t.Fatalf("CS = %+v, want nil", j.CS)
	}
	if len(j.RefsByHead) != 0 {
		t.Fatalf("RefsByHead = %+v, want empty", j.RefsByHead)
	}
}

// A node whose ch.Len is smaller than the header it sits in front of is
// exactly the kind of corruption a forensic image produces; the scan
// must stop instead of re-parsing the same offset forever.
func TestParseJournalStopsOnImplausibleLen(t *testing.T) {
	logData := make([]byte, 64)
	writeNodeCH(logData, 0, node.TypeCS, 1, node.CHSize+node.CSFixedSize)
	binary.LittleEndian.PutUint64(logData[node.CHSize:node.CHSize+8], 7) // cmt_no
	binary.LittleEndian.PutUint32(logData[16:20], 1)                    // ch.len == 1, below CHSize

	vol := buildVolume(t, 0, map[int][]byte{0: logData})
	inst := &Instance{Volume: vol, Master: &node.MST{LogLnum: 0}}

	done := make(chan *Journal, 1)
	go func() { done <- ParseJournal(inst, ubiftlog.Discard) }()

	select {
	case j := <-done:
		if j.CS == nil || j.CS.CmtNo != 7 {
			t.Fatalf("CS = %+v, want CmtNo 7", j.CS)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ParseJournal did not return: looped on a zero-advancing node")
	}
}

// Same corruption, but inside a bud rather than the log LEB itself.
func TestFollowBudStopsOnImplausibleLen(t *testing.T) {
	budData := make([]byte, 64)
	writeNodeCH(budData, 0, node.TypeData, 5, node.CHSize+node.DataFixedSize)
	binary.LittleEndian.PutUint32(budData[16:20], 1) // ch.len == 1, below CHSize

	vol := buildVolume(t, 0, map[int][]byte{0: budData})
	inst := &Instance{Volume: vol}
	ref := &node.Ref{Lnum: 0, Offs: 0, Jhead: HeadData}

	done := make(chan *Bud, 1)
	go func() { done <- followBud(inst, ref, ubiftlog.Discard) }()

	select {
	case bud := <-done:
		// A DATA node whose len is below its own fixed size does not
		// parse, so the bud ends before it.
		if len(bud.Nodes) != 0 {
			t.Fatalf("bud.Nodes = %+v, want no nodes", bud.Nodes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("followBud did not return: looped on a zero-advancing node")
	}
}
