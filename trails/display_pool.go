package trails

import (
	"sort"
	"sync"
)

// DisplayPool is external allocator of display units.
// AcquireUnit returns nil when pool can't give more units for a frame.
type DisplayPool interface {
	AcquireUnit(frame *FrameMeta) *DisplayUnit
	CommitUnit(frame *FrameMeta, unit *DisplayUnit)
}

type frameKey struct {
	stream StreamID
	frame  int
}

// MemoryPool is in-memory DisplayPool. Committed units are kept per (stream, frame) until released.
type MemoryPool struct {
	mu sync.Mutex
	// Max number of units acquired for a single frame. Zero means no limit
	maxUnitsPerFrame int
	acquired         map[frameKey]int
	committed        map[frameKey][]*DisplayUnit
	free             []*DisplayUnit
}

// NewMemoryPool creates pool. maxUnitsPerFrame <= 0 disables the per-frame budget
func NewMemoryPool(maxUnitsPerFrame int) *MemoryPool {
	return &MemoryPool{
		maxUnitsPerFrame: maxUnitsPerFrame,
		acquired:         make(map[frameKey]int),
		committed:        make(map[frameKey][]*DisplayUnit),
	}
}

// AcquireUnit implements DisplayPool
func (pool *MemoryPool) AcquireUnit(frame *FrameMeta) *DisplayUnit {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	key := frameKey{stream: frame.StreamID, frame: frame.FrameNumber}
	if pool.maxUnitsPerFrame > 0 && pool.acquired[key] >= pool.maxUnitsPerFrame {
		return nil
	}
	pool.acquired[key]++
	if n := len(pool.free); n > 0 {
		unit := pool.free[n-1]
		pool.free = pool.free[:n-1]
		return unit
	}
	return &DisplayUnit{}
}

// CommitUnit implements DisplayPool
func (pool *MemoryPool) CommitUnit(frame *FrameMeta, unit *DisplayUnit) {
	if unit == nil {
		return
	}
	pool.mu.Lock()
	defer pool.mu.Unlock()
	key := frameKey{stream: frame.StreamID, frame: frame.FrameNumber}
	pool.committed[key] = append(pool.committed[key], unit)
}

// Committed returns units committed to the frame, in commit order
func (pool *MemoryPool) Committed(stream StreamID, frameNumber int) []*DisplayUnit {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	units := pool.committed[frameKey{stream: stream, frame: frameNumber}]
	result := make([]*DisplayUnit, len(units))
	copy(result, units)
	return result
}

// FrameRef names a frame with committed units
type FrameRef struct {
	StreamID    StreamID `json:"stream_id"`
	FrameNumber int      `json:"frame_number"`
}

// Frames lists frames which have committed units, sorted by stream and frame number
func (pool *MemoryPool) Frames() []FrameRef {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	refs := make([]FrameRef, 0, len(pool.committed))
	for key := range pool.committed {
		refs = append(refs, FrameRef{StreamID: key.stream, FrameNumber: key.frame})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].StreamID != refs[j].StreamID {
			return refs[i].StreamID < refs[j].StreamID
		}
		return refs[i].FrameNumber < refs[j].FrameNumber
	})
	return refs
}

// Release returns frame's units to the free list, once the sink is done with them
func (pool *MemoryPool) Release(stream StreamID, frameNumber int) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	key := frameKey{stream: stream, frame: frameNumber}
	for _, unit := range pool.committed[key] {
		unit.Reset()
		pool.free = append(pool.free, unit)
	}
	delete(pool.committed, key)
	delete(pool.acquired, key)
}
