package trails

import (
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

// BatchStats counts what one ProcessBatch call did
type BatchStats struct {
	Frames         int `json:"frames"`
	SkippedFrames  int `json:"skipped_frames"`
	Objects        int `json:"objects"`
	Units          int `json:"units"`
	Circles        int `json:"circles"`
	DroppedCircles int `json:"dropped_circles"`
	Evicted        int `json:"evicted"`
}

// Add accumulates other stats
func (stats *BatchStats) Add(other BatchStats) {
	stats.Frames += other.Frames
	stats.SkippedFrames += other.SkippedFrames
	stats.Objects += other.Objects
	stats.Units += other.Units
	stats.Circles += other.Circles
	stats.DroppedCircles += other.DroppedCircles
	stats.Evicted += other.Evicted
}

// Engine draws per-object trails and labels. It owns the trajectory store and the color table.
// ProcessBatch is meant to be called from the single pipeline callback thread.
type Engine struct {
	log     logs.Log
	cfg     Config
	store   *TrajectoryStore
	colors  *ColorTable
	pool    DisplayPool
	sweeper *Sweeper
}

// NewEngine creates engine for given color table and display pool
func NewEngine(log logs.Log, colors *ColorTable, pool DisplayPool, cfg Config) (*Engine, error) {
	if log == nil {
		return nil, errors.New("log is required")
	}
	if colors == nil {
		return nil, errors.New("color table is required")
	}
	if pool == nil {
		return nil, errors.New("display pool is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scope, err := ParseSweepScope(cfg.SweepScope)
	if err != nil {
		return nil, err
	}
	if cfg.FontName == "" {
		cfg.FontName = DefaultFontName
	}
	sweeper := NewSweeperDefault()
	sweeper.Threshold = cfg.ExpirationFrames
	sweeper.Scope = scope
	return &Engine{
		log:     log,
		cfg:     cfg,
		store:   NewTrajectoryStore(WithAnchorSmoothing(cfg.SmoothAnchors)),
		colors:  colors,
		pool:    pool,
		sweeper: sweeper,
	}, nil
}

// Store returns engine's trajectory store
func (e *Engine) Store() *TrajectoryStore {
	return e.store
}

// Colors returns engine's color table
func (e *Engine) Colors() *ColorTable {
	return e.colors
}

// ProcessBatch handles one batch. Failures never leave this function: a bad frame record
// is logged and skipped, the rest of the batch is still processed.
func (e *Engine) ProcessBatch(batch *Batch) (stats BatchStats) {
	if batch == nil {
		e.log.Warnf("Unable to get batch, skipping")
		return stats
	}
	activeStreams := e.cfg.NumSources
	if activeStreams <= 0 {
		activeStreams = len(batch.Frames)
	}
	for idx, frame := range batch.Frames {
		if frame == nil {
			e.log.Warnf("Batch frame %d has no metadata, skipping", idx)
			stats.SkippedFrames++
			continue
		}
		frameStats, err := e.processFrameSafe(frame, activeStreams)
		if err != nil {
			e.log.Errorf("Stream %d frame %d skipped: %v", frame.StreamID, frame.FrameNumber, err)
			stats.SkippedFrames++
			continue
		}
		stats.Add(frameStats)
	}
	return stats
}

func (e *Engine) processFrameSafe(frame *FrameMeta, activeStreams int) (stats BatchStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	if err := validateFrame(frame); err != nil {
		return stats, err
	}
	return e.processFrame(frame, activeStreams), nil
}

// validateFrame runs before anything is recorded, so a rejected frame leaves no partial trails
func validateFrame(frame *FrameMeta) error {
	for i, obj := range frame.Objects {
		if obj == nil {
			return errors.Errorf("object %d has no metadata", i)
		}
		if !obj.Box.IsBounded() {
			return errors.Errorf("object %d (id %d) has malformed box %v", i, obj.ObjectID, obj.Box)
		}
	}
	return nil
}

// processFrame emits every object before recording any of them. The pool is the only
// collaborator which may fail mid-frame, so a panic there leaves the store untouched.
func (e *Engine) processFrame(frame *FrameMeta, activeStreams int) BatchStats {
	stats := BatchStats{Frames: 1}
	ctx := FrameContext{
		StreamID:      frame.StreamID,
		FrameNumber:   frame.FrameNumber,
		ActiveStreams: activeStreams,
	}
	// Trails as they will be after this frame is recorded. Same object twice in a frame sees its earlier anchor
	pending := make(map[ObjectID]*TrajectoryEntry, len(frame.Objects))
	anchors := make([]Point, len(frame.Objects))
	for i, obj := range frame.Objects {
		color := e.colors.Color(obj.ClassID)
		if obj.Label == "" {
			obj.Label = e.colors.Label(obj.ClassID)
		}
		if e.cfg.HideBoxes {
			HideBox(obj)
		}

		anchors[i] = obj.Box.Anchor()
		entry, ok := pending[obj.ObjectID]
		if !ok {
			entry = &TrajectoryEntry{points: e.store.Trail(ctx.StreamID, obj.ObjectID)}
			pending[obj.ObjectID] = entry
		}
		entry.append(anchors[i], MaxTrailPoints)

		StyleLabel(obj, color, e.cfg.FontName, ctx.ActiveStreams)

		trailStats := EmitTrail(e.pool, frame, entry.GetTrack(), color)
		stats.Units += trailStats.Units
		stats.Circles += trailStats.Circles
		stats.DroppedCircles += trailStats.Dropped
		stats.Objects++
	}
	for i, obj := range frame.Objects {
		err := e.store.RecordObservation(ctx.StreamID, obj.ObjectID, anchors[i], ctx.FrameNumber)
		if err != nil {
			e.log.Warnf("Stream %d object %d: %v", ctx.StreamID, obj.ObjectID, err)
		}
	}
	stats.Evicted = e.sweeper.Sweep(e.store, ctx)
	return stats
}
