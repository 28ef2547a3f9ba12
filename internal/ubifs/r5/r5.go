// Package r5 implements UBIFS's r5 path-name hash, used as the payload
// of DENT/XENT keys. Ported from the same algorithm as
// /linux/fs/ubifs/key.h's key_r5_hash.
package r5

// Hash returns the 29-bit r5 hash of name, the value stored as the
// payload of a DENT or XENT key.
func Hash(name string) uint32 {
	var h uint32
	for _, c := range []byte(name) {
		h += uint32(c) << 4
		h += uint32(c) >> 4
		h *= 11
	}
	h &= 0x1FFFFFFF
	// Values 0 and 1 are reserved for "." and "..", 2 is reserved as the
	// "end of readdir" marker.
	if h <= 2 {
		h += 3
	}
	return h
}
