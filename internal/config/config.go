// Package config carries the configuration that is threaded explicitly
// through every layer of the core, instead of flags or globals. The
// whole analysis is meant to be a deterministic pure function of (image
// bytes, Config).
package config

import (
	"context"

	"github.com/matthias-deu/ubift/internal/ubiftlog"
)

// Default tuning values, named after the fields in spec.md they back.
const (
	// DefaultGapThreshold is the number of consecutive non-UBI PEBs the
	// partitioner tolerates before ending a UBI partition.
	DefaultGapThreshold = 3

	// DefaultMasterNodeIndex selects the most recent master node
	// (highest sqnum) in LEB 1.
	DefaultMasterNodeIndex = 0

	// DataNodeBlockSize is the fixed block size UBIFS_DATA_NODE keys are
	// indexed by; used both to place decompressed payloads and to
	// estimate recoverable bytes.
	DataNodeBlockSize = 4096
)

// Config is passed by value (or as a pointer to an immutable value) into
// every constructor in the core. Nothing here is mutated after
// construction.
type Config struct {
	// BlockSize, PageSize and OOBSize describe the physical geometry of
	// the image. Zero means "infer it".
	BlockSize int
	PageSize  int
	OOBSize   int

	// GapThreshold is the partitioner's tolerance (in whole PEBs) for
	// gaps between EC-header magics while extending a UBI partition.
	GapThreshold int

	// MasterNodeIndex selects which master-node candidate (0 = most
	// recent by sqnum) is used as the active master node.
	MasterNodeIndex int

	// Logger receives every diagnostic the core emits. Must never be
	// nil; callers that don't care should pass ubiftlog.Discard.
	Logger ubiftlog.Logger

	// Ctx is checked cooperatively by long-running operations (notably
	// recovery) between discrete units of work (one file at a time). No
	// operation blocks on it; it is consulted, not awaited.
	Ctx context.Context
}

// Default returns a Config with every tunable at its spec-mandated
// default and a discarding logger. Callers typically override Logger and
// Ctx.
func Default() Config {
	return Config{
		GapThreshold:    DefaultGapThreshold,
		MasterNodeIndex: DefaultMasterNodeIndex,
		Logger:          ubiftlog.Discard,
		Ctx:             context.Background(),
	}
}

// Log returns c.Logger, defaulting to a discarding logger if the caller
// built a Config by hand and left it nil.
func (c Config) Log() ubiftlog.Logger {
	if c.Logger == nil {
		return ubiftlog.Discard
	}
	return c.Logger
}

// Context returns c.Ctx, defaulting to context.Background().
func (c Config) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
