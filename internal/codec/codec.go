// Package codec converts between in-memory atomic structures and the
// normalized catalog document form. Encoding denormalizes derived search
// fields (mass, spacegroup, symbol counts, volume) next to the faithful
// structure data; decoding rebuilds the structure and ignores the derived
// fields, which are recomputed on the next encode.
package codec

import (
	"time"

	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Codec performs structure <-> document conversion.
type Codec struct {
	spacegroups driven.SpacegroupDetector
	now         func() time.Time
}

// Config holds dependencies for a Codec.
type Config struct {
	// Spacegroups classifies lattice symmetry during encode.
	Spacegroups driven.SpacegroupDetector

	// Now supplies document timestamps. Defaults to time.Now.
	Now func() time.Time
}

// New creates a codec.
func New(cfg Config) *Codec {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		spacegroups: cfg.Spacegroups,
		now:         now,
	}
}
