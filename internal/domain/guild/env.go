package guild

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// IDGenerator produces unique ids with a readable prefix such as "req" or "official".
type IDGenerator interface {
	NewID(prefix string) string
}

// Env supplies the impure inputs of Reduce so that Reduce itself stays pure.
// A zero Env is usable: it falls back to the wall clock, a process-wide id
// sequence and the default artifact fee.
type Env struct {
	Now         func() time.Time
	IDs         IDGenerator
	ArtifactFee shared.Cents
}

// DefaultEnv uses the wall clock, the given ids and the default artifact fee.
func DefaultEnv(ids IDGenerator) Env {
	return Env{Now: time.Now, IDs: ids, ArtifactFee: council.DefaultArtifactFee}
}

// fallbackIDs serves every Env without its own generator, so ids stay unique
// across Reduce calls.
var fallbackIDs = &SequenceIDs{}

func (e Env) ids() IDGenerator {
	if e.IDs == nil {
		return fallbackIDs
	}
	return e.IDs
}

func (e Env) artifactFee() shared.Cents {
	if e.ArtifactFee <= 0 {
		return council.DefaultArtifactFee
	}
	return e.ArtifactFee
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// SequenceIDs hands out "<prefix>-1", "<prefix>-2", … in order. Useful for
// deterministic replays and tests.
type SequenceIDs struct {
	n atomic.Int64
}

// NewID implements IDGenerator.
func (s *SequenceIDs) NewID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.n.Add(1))
}
