// Package compress implements the on-the-fly decompression UBIFS
// applies to DATA and inline INO payloads, dispatched by the
// compr_type field UBIFS stores in each node (spec.md §4.4, §7).
package compress

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

// Type mirrors UBIFS_COMPRESSION_TYPE.
type Type uint16

const (
	None Type = 0
	LZO  Type = 1
	ZLIB Type = 2
	ZSTD Type = 3
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZO:
		return "lzo"
	case ZLIB:
		return "zlib"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// Decompress decompresses data according to compr_type. size is the
// uncompressed size recorded in the node (used as a size hint for LZO;
// ignored otherwise). Decompression never fails upward: on
// any error it logs a warning and returns an empty slice, mirroring
// compression.py's decompress, so recovery of the rest of the image
// can continue (spec.md §7 "never fail the whole run").
func Decompress(data []byte, compr Type, size int, log ubiftlog.Logger) []byte {
	out, err := decompress(data, compr, size)
	if err != nil {
		log.Warnf("decompressing data using %s: %v", compr, err)
		return []byte{}
	}
	return out
}

func decompress(data []byte, compr Type, size int) ([]byte, error) {
	switch compr {
	case None:
		return data, nil
	case LZO:
		return lzoDecompress(data, size)
	case ZLIB:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return out, nil
	case ZSTD:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := io.ReadAll(dec)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression type %d", uint16(compr))
	}
}
