// Package ubi reconstructs UBI instances from a Partition: per-PEB
// erase-counter and volume-id headers, the volume table, and the
// resulting ordered LEB->PEB maps for every UBI volume.
package ubi

import (
	"github.com/matthias-deu/ubift/internal/config"
	"github.com/matthias-deu/ubift/internal/partition"
	"github.com/matthias-deu/ubift/internal/ubi/header"
)

// LEB is a Logical Erase Block: a (volume_id, lnum) identity mapped to
// exactly one PEB inside a UBI instance.
type LEB struct {
	Num    int // lnum
	PEBNum int // PEB index, relative to the owning partition
	EC     *header.ECHeader
	VID    *header.VIDHeader

	instance *Instance
}

// Data returns the LEB's data area: [PEB_base+data_offset, PEB_base+block_size).
func (l *LEB) Data() []byte {
	blockSize := l.instance.partition.Image.BlockSize()
	pebBase := l.instance.partition.Offset + l.PEBNum*blockSize
	start := pebBase + int(l.EC.DataOffset)
	end := pebBase + blockSize
	data := l.instance.partition.Image.Data()
	if start > len(data) || end > len(data) {
		return nil
	}
	return data[start:end]
}

// Size returns the size, in bytes, of the LEB's data area.
func (l *LEB) Size() int {
	return l.instance.partition.Image.BlockSize() - int(l.EC.DataOffset)
}

// Volume is a user-visible UBI volume: an ordered lnum->LEB mapping plus
// its volume-table record.
type Volume struct {
	Index  int // volume_id / slot in the volume table
	Record *header.VTBLRecord
	lebs   map[int]*LEB

	instance *Instance
}

// Name returns the decoded volume name.
func (v *Volume) Name() string { return v.Record.FormattedName() }

// Type returns header.VolDynamic or header.VolStatic.
func (v *Volume) Type() uint8 { return v.Record.VolType }

// ReservedPEBs returns the volume's reserved PEB count.
func (v *Volume) ReservedPEBs() uint32 { return v.Record.ReservedPEBs }

// LEB returns the LEB mapped to lnum, or nil if lnum is unmapped.
func (v *Volume) LEB(lnum int) *LEB { return v.lebs[lnum] }

// LEBs returns every mapped lnum, sorted ascending.
func (v *Volume) LEBs() []*LEB {
	out := make([]*LEB, 0, len(v.lebs))
	for _, leb := range v.lebs {
		out = append(out, leb)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Num < out[j-1].Num; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NumLEBs returns how many LEBs are mapped in this volume.
func (v *Volume) NumLEBs() int { return len(v.lebs) }

// Instance is a parsed UBI instance: the set of volumes discovered
// inside one UBI Partition.
type Instance struct {
	partition *partition.Partition
	volumes   []*Volume
}

// Partition returns the owning Partition.
func (u *Instance) Partition() *partition.Partition { return u.partition }

// Volumes returns every user-visible volume (the layout volume itself is
// never exposed here).
func (u *Instance) Volumes() []*Volume { return u.volumes }

// VolumeByName looks up a volume by its decoded name, or returns nil.
func (u *Instance) VolumeByName(name string) *Volume {
	for _, v := range u.volumes {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

// VolumeByIndex looks up a volume by its volume_id / slot index.
func (u *Instance) VolumeByIndex(index int) *Volume {
	for _, v := range u.volumes {
		if v.Index == index {
			return v
		}
	}
	return nil
}

// Parse builds an Instance from a UBI Partition: reads every PEB's EC
// and (if present) VID header, groups mapped PEBs by vol_id, locates the
// layout volume and reads its volume table, then materializes one
// Volume per reserved record (spec.md §4.3).
func Parse(p *partition.Partition, cfg config.Config) *Instance {
	log := cfg.Log()
	inst := &Instance{partition: p}

	blockSize := p.Image.BlockSize()
	numPEBs := p.NumPEBs()

	// group[volID][lnum] -> candidate LEB, keeping the highest sqnum on
	// collision (wear-leveling supersedes; the loser is silently
	// discarded, spec.md §4.3).
	group := map[uint32]map[int]*LEB{}

	for pebNum := 0; pebNum < numPEBs; pebNum++ {
		pebBase := p.Offset + pebNum*blockSize
		ec, err := header.ParseECHeader(p.Image.Data(), pebBase)
		if err != nil || !ec.ValidMagic() {
			log.Warnf("PEB %d has no valid EC header, skipping", pebNum)
			continue
		}
		if !ec.CRCValid(p.Image.Data(), pebBase) {
			log.Warnf("PEB %d EC header CRC mismatch, skipping", pebNum)
			continue
		}

		vidOffset := pebBase + int(ec.VidHdrOffset)
		vid, err := header.ParseVIDHeader(p.Image.Data(), vidOffset)
		if err != nil || !vid.ValidMagic() {
			continue // unmapped PEB (e.g. layout volume's free slots, erased PEBs)
		}
		if !vid.CRCValid(p.Image.Data(), vidOffset) {
			log.Warnf("PEB %d VID header CRC mismatch, skipping", pebNum)
			continue
		}

		leb := &LEB{Num: int(vid.Lnum), PEBNum: pebNum, EC: ec, VID: vid, instance: inst}
		byLnum, ok := group[vid.VolID]
		if !ok {
			byLnum = map[int]*LEB{}
			group[vid.VolID] = byLnum
		}
		if existing, clash := byLnum[leb.Num]; clash {
			if vid.Sqnum > existing.VID.Sqnum {
				byLnum[leb.Num] = leb
			}
		} else {
			byLnum[leb.Num] = leb
		}
	}

	layout, ok := group[header.LayoutVolumeID]
	if !ok || len(layout) == 0 {
		log.Errorf("%v", &header.MissingLayoutVolumeError{PartitionOffset: p.Offset})
		return inst
	}

	// Read the volume table from the layout volume's first LEB.
	firstLEB := layout[0]
	if firstLEB == nil {
		for _, l := range layout {
			firstLEB = l
			break
		}
	}
	dataOffset := int(firstLEB.EC.DataOffset)
	tableBase := p.Offset + firstLEB.PEBNum*blockSize + dataOffset

	for slot := 0; slot < 128; slot++ {
		recOffset := tableBase + slot*header.VTBLRecordSize
		rec, err := header.ParseVTBLRecord(p.Image.Data(), recOffset)
		if err != nil {
			break
		}
		if rec.ReservedPEBs == 0 {
			continue
		}
		lebs, ok := group[uint32(slot)]
		if !ok {
			continue
		}
		vol := &Volume{Index: slot, Record: rec, lebs: lebs, instance: inst}
		inst.volumes = append(inst.volumes, vol)
		log.Infof("created UBI volume '%s' (vol_num: %d, LEBs: %d)", vol.Name(), slot, len(lebs))
	}

	return inst
}
