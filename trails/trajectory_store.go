package trails

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultExpirationFrames is number of frames an object may stay unseen before its trail is purged
const DefaultExpirationFrames = 60

// TrajectoryStore keeps bounded trails per (stream, object).
// Object ids are only unique within a stream, so entries are sharded by stream and each shard has its own lock.
type TrajectoryStore struct {
	mu      sync.RWMutex
	streams map[StreamID]*streamShard
	// Creates per-entry smoother. Nil means anchors are stored as is
	newSmoother func(Point) anchorSmoother
}

type streamShard struct {
	mu      sync.Mutex
	entries map[ObjectID]*TrajectoryEntry
}

// StoreOption configures TrajectoryStore
type StoreOption func(*TrajectoryStore)

// WithAnchorSmoothing enables Kalman filtered anchors
func WithAnchorSmoothing(enabled bool) StoreOption {
	return func(store *TrajectoryStore) {
		if enabled {
			store.newSmoother = newKalmanSmoother
		} else {
			store.newSmoother = nil
		}
	}
}

// NewTrajectoryStore creates empty store
func NewTrajectoryStore(options ...StoreOption) *TrajectoryStore {
	store := &TrajectoryStore{
		streams: make(map[StreamID]*streamShard),
	}
	for _, o := range options {
		o(store)
	}
	return store
}

// shard returns stream shard, creating it when create is set
func (store *TrajectoryStore) shard(stream StreamID, create bool) *streamShard {
	store.mu.RLock()
	shard, ok := store.streams[stream]
	store.mu.RUnlock()
	if ok || !create {
		return shard
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if shard, ok = store.streams[stream]; ok {
		return shard
	}
	shard = &streamShard{
		entries: make(map[ObjectID]*TrajectoryEntry),
	}
	store.streams[stream] = shard
	return shard
}

// RecordObservation appends anchor to the object's trail, keeps at most MaxTrailPoints newest points
// and marks object as seen at frameNumber. The returned error is not nil only when smoothing failed:
// raw point is stored in that case.
func (store *TrajectoryStore) RecordObservation(stream StreamID, object ObjectID, point Point, frameNumber int) error {
	shard := store.shard(stream, true)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	entry, ok := shard.entries[object]
	if !ok {
		entry = newTrajectoryEntry()
		shard.entries[object] = entry
	}
	var err error
	if store.newSmoother != nil {
		smoothed, smoothErr := entry.smooth(point, store.newSmoother)
		if smoothErr == nil {
			point = smoothed
		}
		err = smoothErr
	}
	entry.append(point, MaxTrailPoints)
	entry.lastSeenFrame = frameNumber
	return err
}

// Evict removes every entry unseen for more than threshold frames relative to currentFrame.
// Surviving entries are trimmed to MaxSweepTrailPoints. Returns number of removed entries.
func (store *TrajectoryStore) Evict(currentFrame, threshold int) int {
	store.mu.RLock()
	shards := make([]*streamShard, 0, len(store.streams))
	for _, shard := range store.streams {
		shards = append(shards, shard)
	}
	store.mu.RUnlock()
	removed := 0
	for _, shard := range shards {
		removed += shard.evict(currentFrame, threshold)
	}
	return removed
}

// EvictStream is Evict restricted to one stream
func (store *TrajectoryStore) EvictStream(stream StreamID, currentFrame, threshold int) int {
	shard := store.shard(stream, false)
	if shard == nil {
		return 0
	}
	return shard.evict(currentFrame, threshold)
}

func (shard *streamShard) evict(currentFrame, threshold int) int {
	shard.mu.Lock()
	defer shard.mu.Unlock()
	removed := 0
	for objectID, entry := range shard.entries {
		// Remove object if it was not found for a long time
		if currentFrame-entry.lastSeenFrame > threshold {
			delete(shard.entries, objectID)
			removed++
			continue
		}
		entry.trim(MaxSweepTrailPoints)
	}
	return removed
}

// Trail returns copy of object's points, oldest first. Nil if object is not tracked
func (store *TrajectoryStore) Trail(stream StreamID, object ObjectID) []Point {
	shard := store.shard(stream, false)
	if shard == nil {
		return nil
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	entry, ok := shard.entries[object]
	if !ok {
		return nil
	}
	track := make([]Point, len(entry.points))
	copy(track, entry.points)
	return track
}

// LastSeen returns frame number when object was observed last time
func (store *TrajectoryStore) LastSeen(stream StreamID, object ObjectID) (int, bool) {
	shard := store.shard(stream, false)
	if shard == nil {
		return 0, false
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	entry, ok := shard.entries[object]
	if !ok {
		return 0, false
	}
	return entry.lastSeenFrame, true
}

// StreamLen returns number of tracked objects of a single stream
func (store *TrajectoryStore) StreamLen(stream StreamID) int {
	shard := store.shard(stream, false)
	if shard == nil {
		return 0
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return len(shard.entries)
}

// Len returns number of tracked objects over all streams
func (store *TrajectoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	total := 0
	for _, shard := range store.streams {
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}

// Reset drops every entry
func (store *TrajectoryStore) Reset() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.streams = make(map[StreamID]*streamShard)
}

// TrajectorySnapshot is a read-only copy of one entry
type TrajectorySnapshot struct {
	TrackID       uuid.UUID `json:"track_id"`
	StreamID      StreamID  `json:"stream_id"`
	ObjectID      ObjectID  `json:"object_id"`
	LastSeenFrame int       `json:"last_seen_frame"`
	Points        []Point   `json:"points"`
	PathLength    float64   `json:"path_length"`
}

// Snapshot copies every entry. Result is sorted by stream and then by object.
func (store *TrajectoryStore) Snapshot() []TrajectorySnapshot {
	store.mu.RLock()
	defer store.mu.RUnlock()
	snapshots := []TrajectorySnapshot{}
	for streamID, shard := range store.streams {
		shard.mu.Lock()
		for objectID, entry := range shard.entries {
			track := entry.GetTrack()
			points := make([]Point, len(track))
			copy(points, track)
			snapshots = append(snapshots, TrajectorySnapshot{
				TrackID:       entry.GetID(),
				StreamID:      streamID,
				ObjectID:      objectID,
				LastSeenFrame: entry.GetLastSeen(),
				Points:        points,
				PathLength:    PathLength(points),
			})
		}
		shard.mu.Unlock()
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].StreamID != snapshots[j].StreamID {
			return snapshots[i].StreamID < snapshots[j].StreamID
		}
		return snapshots[i].ObjectID < snapshots[j].ObjectID
	})
	return snapshots
}
