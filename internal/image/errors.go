package image

import "fmt"

// GeometryUnknownError is returned by Open when block_size or page_size
// is neither supplied nor inferable from the image contents. It is fatal
// at the image-open boundary (spec.md §7).
type GeometryUnknownError struct {
	Reason string
}

func (e *GeometryUnknownError) Error() string {
	return fmt.Sprintf("geometry unknown: %s", e.Reason)
}
