// Package key implements the UBIFS on-disk key: a 64-bit, little-endian
// value combining an inode number, a key type and a type-specific
// payload, with the total ordering UBIFS's wandering tree is indexed by.
package key

import "encoding/binary"

// Key types, matching UBIFS_KEY_TYPES.
const (
	TypeIno  = 0
	TypeData = 1
	TypeDent = 2
	TypeXent = 3
)

// Size is the on-disk size of a key as embedded in a UBIFS_BRANCH.
const Size = 8

// Key is the decoded form of a UBIFS key: 64 bits little-endian, bits
// 0..31 the inode number, bits 61..63 the key type, bits 32..60 the
// 29-bit payload (spec.md §3).
type Key struct {
	Inum    uint32
	Type    uint8
	Payload uint32
}

// Create builds a Key the way UBIFS_KEY.create_key does: payload is
// masked to 29 bits.
func Create(inum uint32, keyType uint8, payload uint32) Key {
	return Key{Inum: inum, Type: keyType, Payload: payload & 0x1FFFFFFF}
}

// Decode reads a Key from its 8-byte little-endian on-disk form.
func Decode(b []byte) Key {
	inum := binary.LittleEndian.Uint32(b[0:4])
	v := binary.LittleEndian.Uint32(b[4:8])
	return Key{
		Inum:    inum,
		Type:    uint8(v >> 29),
		Payload: v & 0x1FFFFFFF,
	}
}

// Encode writes the Key to its 8-byte little-endian on-disk form.
func (k Key) Encode() [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint32(out[0:4], k.Inum)
	binary.LittleEndian.PutUint32(out[4:8], (uint32(k.Type)<<29)|(k.Payload&0x1FFFFFFF))
	return out
}

// Compare returns -1, 0 or 1 comparing lexicographically on
// (Inum, Type, Payload), the total ordering the wandering tree relies on.
func (k Key) Compare(other Key) int {
	switch {
	case k.Inum != other.Inum:
		if k.Inum < other.Inum {
			return -1
		}
		return 1
	case k.Type != other.Type:
		if k.Type < other.Type {
			return -1
		}
		return 1
	case k.Payload != other.Payload:
		if k.Payload < other.Payload {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether k sorts strictly before other.
func (k Key) Less(other Key) bool { return k.Compare(other) < 0 }

// Equal reports whether k and other are identical.
func (k Key) Equal(other Key) bool { return k.Compare(other) == 0 }
