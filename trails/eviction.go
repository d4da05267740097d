package trails

import (
	"github.com/pkg/errors"
)

// SweepScope selects which entries a sweep considers
type SweepScope string

const (
	// SweepScopeStore sweeps every stream with the number of the frame just processed
	SweepScopeStore = SweepScope("store")
	// SweepScopeStream sweeps only the stream of the frame just processed.
	// Use it when each source has its own frame counter.
	SweepScopeStream = SweepScope("stream")
)

// ParseSweepScope converts string to SweepScope. Empty string means SweepScopeStore
func ParseSweepScope(s string) (SweepScope, error) {
	switch SweepScope(s) {
	case "", SweepScopeStore:
		return SweepScopeStore, nil
	case SweepScopeStream:
		return SweepScopeStream, nil
	default:
		return "", errors.Errorf("unknown sweep scope '%s'", s)
	}
}

// Sweeper purges expired trails. It must run once per frame, after every object of that frame
// has been recorded: an object seen in the frame is then never evicted by the same frame.
type Sweeper struct {
	// Max number of frames object could stay unseen. Default is 60
	Threshold int
	Scope     SweepScope
}

// NewSweeperDefault creates store-wide sweeper with default threshold
func NewSweeperDefault() *Sweeper {
	return &Sweeper{
		Threshold: DefaultExpirationFrames,
		Scope:     SweepScopeStore,
	}
}

// Sweep evicts expired entries relative to frame.FrameNumber. Returns number of removed entries.
func (sweeper *Sweeper) Sweep(store *TrajectoryStore, frame FrameContext) int {
	if sweeper.Scope == SweepScopeStream {
		return store.EvictStream(frame.StreamID, frame.FrameNumber, sweeper.Threshold)
	}
	return store.Evict(frame.FrameNumber, sweeper.Threshold)
}
