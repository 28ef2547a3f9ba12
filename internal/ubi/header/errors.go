package header

import "fmt"

func errShortBuffer(what string, offset, want, have int) error {
	return fmt.Errorf("%s at offset %d needs %d bytes, buffer only has %d", what, offset, want, have)
}

// MissingLayoutVolumeError is logged by ubi.Parse (not fatal) when a UBI partition has
// no layout volume (id LayoutVolumeID): the partition then yields zero
// user volumes (spec.md §7).
type MissingLayoutVolumeError struct {
	PartitionOffset int
}

func (e *MissingLayoutVolumeError) Error() string {
	return fmt.Sprintf("no layout volume in UBI partition at offset %d", e.PartitionOffset)
}
