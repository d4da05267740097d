package trails

import (
	"math"
	"testing"

	"github.com/cyclopcam/logs"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *MemoryPool) {
	t.Helper()
	colors := BuildColorTable([]string{"person", "bicycle", "car"}, WithColorSeed(1))
	pool := NewMemoryPool(cfg.MaxUnitsPerFrame)
	engine, err := NewEngine(logs.NewTestingLog(t), colors, pool, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return engine, pool
}

func singleObjectBatch(stream StreamID, frameNumber int, obj ObjectMeta) *Batch {
	return &Batch{
		Frames: []*FrameMeta{
			{StreamID: stream, FrameNumber: frameNumber, Objects: []*ObjectMeta{&obj}},
		},
	}
}

func TestEngineScenario(t *testing.T) {
	engine, pool := newTestEngine(t, DefaultConfig())

	var lastObj *ObjectMeta
	for frame := 1; frame <= 5; frame++ {
		batch := singleObjectBatch(0, frame, ObjectMeta{
			ObjectID: 7,
			ClassID:  2,
			Box:      NewRect(100+5*float64(frame-1), 100, 40, 60),
		})
		stats := engine.ProcessBatch(batch)
		if stats.Frames != 1 || stats.Objects != 1 || stats.SkippedFrames != 0 {
			t.Errorf("frame %d: wrong stats %+v", frame, stats)
		}
		lastObj = batch.Frames[0].Objects[0]
	}

	trail := engine.Store().Trail(0, 7)
	if len(trail) != 5 {
		t.Errorf("incorrect trail length: %d, expected: %d", len(trail), 5)
		return
	}
	for i, pt := range trail {
		expected := Point{X: 120 + 5*i, Y: 160}
		if pt != expected {
			t.Errorf("wrong trail point %d: %v, expected: %v", i, pt, expected)
		}
	}

	if lastObj.Text.Font.FontSize != 10 {
		t.Errorf("wrong font size: %d, expected: %d", lastObj.Text.Font.FontSize, 10)
	}
	if lastObj.Text.DisplayText != "Car" {
		t.Errorf("label should fall back to class label, got '%s'", lastObj.Text.DisplayText)
	}
	if lastObj.Text.BgColor != engine.Colors().Color(2).WithAlpha(LabelBgAlpha) {
		t.Errorf("wrong label background: %v", lastObj.Text.BgColor)
	}
	if lastObj.Rect.BorderWidth != 0 || lastObj.Rect.HasBgColor {
		t.Errorf("box should be hidden: %+v", lastObj.Rect)
	}

	// Frame 5: four older points drawn, the newest is not
	units := pool.Committed(0, 5)
	if len(units) != 1 || units[0].NumCircles != 4 {
		t.Errorf("wrong units for frame 5: %d units", len(units))
	}

	engine.ProcessBatch(&Batch{Frames: []*FrameMeta{{StreamID: 0, FrameNumber: 65}}})
	if _, ok := engine.Store().LastSeen(0, 7); !ok {
		t.Error("entry should survive sweep at frame 65")
	}
	stats := engine.ProcessBatch(&Batch{Frames: []*FrameMeta{{StreamID: 0, FrameNumber: 66}}})
	if _, ok := engine.Store().LastSeen(0, 7); ok {
		t.Error("entry should be evicted by sweep at frame 66")
	}
	if stats.Evicted != 1 {
		t.Errorf("incorrect number of evicted entries: %d, expected: %d", stats.Evicted, 1)
	}
}

func TestEngineSeenObjectIsNotEvicted(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	obj := ObjectMeta{ObjectID: 1, ClassID: 0, Box: NewRect(10, 10, 10, 10)}
	engine.ProcessBatch(singleObjectBatch(0, 1, obj))
	// Long gap, the object reappears far beyond expiration window
	engine.ProcessBatch(singleObjectBatch(0, 500, obj))
	trail := engine.Store().Trail(0, 1)
	if len(trail) != 2 {
		t.Errorf("object seen in the frame must survive its sweep, trail length %d", len(trail))
	}
}

func TestEngineSkipsBadFrames(t *testing.T) {
	engine, pool := newTestEngine(t, DefaultConfig())

	stats := engine.ProcessBatch(nil)
	if stats.Frames != 0 {
		t.Errorf("nil batch should be skipped: %+v", stats)
	}

	good := &ObjectMeta{ObjectID: 1, ClassID: 0, Box: NewRect(10, 10, 10, 10)}
	bad := &ObjectMeta{ObjectID: 2, ClassID: 0, Box: NewRect(math.NaN(), 10, 10, 10)}
	batch := &Batch{
		Frames: []*FrameMeta{
			nil,
			{StreamID: 0, FrameNumber: 1, Objects: []*ObjectMeta{good, bad}},
			{StreamID: 1, FrameNumber: 1, Objects: []*ObjectMeta{good}},
		},
	}
	stats = engine.ProcessBatch(batch)
	if stats.SkippedFrames != 2 || stats.Frames != 1 {
		t.Errorf("wrong stats: %+v", stats)
	}
	// Frame with malformed object must not record anything
	if engine.Store().StreamLen(0) != 0 {
		t.Errorf("skipped frame recorded %d entries", engine.Store().StreamLen(0))
	}
	if len(pool.Committed(0, 1)) != 0 {
		t.Error("skipped frame should not commit units")
	}
	if engine.Store().StreamLen(1) != 1 {
		t.Error("other frames of the batch should still be processed")
	}
}

func TestEngineUnknownClass(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	batch := singleObjectBatch(0, 1, ObjectMeta{ObjectID: 1, ClassID: 99, Label: "ufo", Box: NewRect(10, 10, 10, 10)})
	engine.ProcessBatch(batch)
	obj := batch.Frames[0].Objects[0]
	if obj.Text.BgColor != DefaultColor.WithAlpha(LabelBgAlpha) {
		t.Errorf("unknown class should use default color, got %v", obj.Text.BgColor)
	}
	if obj.Text.DisplayText != "Ufo" {
		t.Errorf("wrong display text: '%s'", obj.Text.DisplayText)
	}
}

func TestEngineActiveStreams(t *testing.T) {
	cfg := DefaultConfig()
	engine, _ := newTestEngine(t, cfg)
	tall := func() *ObjectMeta {
		return &ObjectMeta{ObjectID: 1, ClassID: 0, Box: NewRect(10, 10, 10, 500)}
	}
	batch := &Batch{
		Frames: []*FrameMeta{
			{StreamID: 0, FrameNumber: 1, Objects: []*ObjectMeta{tall()}},
			{StreamID: 1, FrameNumber: 1, Objects: []*ObjectMeta{tall()}},
			{StreamID: 2, FrameNumber: 1, Objects: []*ObjectMeta{tall()}},
		},
	}
	engine.ProcessBatch(batch)
	if size := batch.Frames[0].Objects[0].Text.Font.FontSize; size != 10 {
		t.Errorf("wrong font size for three streams: %d, expected: %d", size, 10)
	}

	cfg.NumSources = 1
	engine, _ = newTestEngine(t, cfg)
	engine.ProcessBatch(batch)
	if size := batch.Frames[0].Objects[0].Text.Font.FontSize; size != MaxFontSize {
		t.Errorf("wrong font size for configured single source: %d, expected: %d", size, MaxFontSize)
	}
}

func TestEngineSweepScopeStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SweepScope = string(SweepScopeStream)
	engine, _ := newTestEngine(t, cfg)
	engine.ProcessBatch(singleObjectBatch(0, 1, ObjectMeta{ObjectID: 1, Box: NewRect(10, 10, 10, 10)}))
	// Stream 1 counter is far ahead, stream 0 must not be affected
	engine.ProcessBatch(singleObjectBatch(1, 1000, ObjectMeta{ObjectID: 1, Box: NewRect(10, 10, 10, 10)}))
	if engine.Store().StreamLen(0) != 1 {
		t.Error("stream scoped sweep should not evict other streams")
	}

	engine, _ = newTestEngine(t, DefaultConfig())
	engine.ProcessBatch(singleObjectBatch(0, 1, ObjectMeta{ObjectID: 1, Box: NewRect(10, 10, 10, 10)}))
	engine.ProcessBatch(singleObjectBatch(1, 1000, ObjectMeta{ObjectID: 1, Box: NewRect(10, 10, 10, 10)}))
	if engine.Store().StreamLen(0) != 0 {
		t.Error("store scoped sweep should evict stale entries of every stream")
	}
}

func TestEngineChurnIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExpirationFrames = 10
	engine, pool := newTestEngine(t, cfg)
	for frame := 0; frame < 2000; frame++ {
		// A fresh object id every frame, like a detector without tracker
		engine.ProcessBatch(singleObjectBatch(0, frame, ObjectMeta{ObjectID: ObjectID(frame), Box: NewRect(10, 10, 10, 10)}))
		pool.Release(0, frame)
	}
	if n := engine.Store().Len(); n > cfg.ExpirationFrames+1 {
		t.Errorf("store grew to %d entries under id churn", n)
	}
}

func TestNewEngineErrors(t *testing.T) {
	log := logs.NewTestingLog(t)
	colors := BuildColorTable([]string{"a"})
	pool := NewMemoryPool(0)
	if _, err := NewEngine(nil, colors, pool, DefaultConfig()); err == nil {
		t.Error("engine without log should fail")
	}
	if _, err := NewEngine(log, nil, pool, DefaultConfig()); err == nil {
		t.Error("engine without colors should fail")
	}
	if _, err := NewEngine(log, colors, nil, DefaultConfig()); err == nil {
		t.Error("engine without pool should fail")
	}
	cfg := DefaultConfig()
	cfg.SweepScope = "nowhere"
	if _, err := NewEngine(log, colors, pool, cfg); err == nil {
		t.Error("engine with bad sweep scope should fail")
	}
}

// failingPool panics on acquisition number failAt and later
type failingPool struct {
	*MemoryPool
	acquired int
	failAt   int
}

func (pool *failingPool) AcquireUnit(frame *FrameMeta) *DisplayUnit {
	pool.acquired++
	if pool.acquired >= pool.failAt {
		panic("display pool is broken")
	}
	return pool.MemoryPool.AcquireUnit(frame)
}

func TestEnginePanickingPoolRecordsNothing(t *testing.T) {
	colors := BuildColorTable([]string{"person", "car"}, WithColorSeed(1))
	pool := &failingPool{MemoryPool: NewMemoryPool(0), failAt: 3}
	engine, err := NewEngine(logs.NewTestingLog(t), colors, pool, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	first := &ObjectMeta{ObjectID: 1, ClassID: 0, Box: NewRect(10, 10, 10, 10)}
	second := &ObjectMeta{ObjectID: 2, ClassID: 1, Box: NewRect(50, 50, 10, 10)}
	stats := engine.ProcessBatch(&Batch{
		Frames: []*FrameMeta{
			{StreamID: 0, FrameNumber: 1, Objects: []*ObjectMeta{first}},
		},
	})
	if stats.Frames != 1 || stats.SkippedFrames != 0 {
		t.Errorf("wrong stats: %+v", stats)
	}
	before := engine.Store().Trail(0, 1)

	// Second acquisition of this frame panics, after the first object was emitted
	stats = engine.ProcessBatch(&Batch{
		Frames: []*FrameMeta{
			{StreamID: 0, FrameNumber: 2, Objects: []*ObjectMeta{first, second}},
		},
	})
	if stats.SkippedFrames != 1 || stats.Frames != 0 {
		t.Errorf("wrong stats: %+v", stats)
	}
	if engine.Store().Len() != 1 {
		t.Errorf("incorrect number of entries: %d, expected: %d", engine.Store().Len(), 1)
	}
	after := engine.Store().Trail(0, 1)
	if len(after) != len(before) {
		t.Errorf("skipped frame changed trail: %v, expected: %v", after, before)
	}
	if lastSeen, _ := engine.Store().LastSeen(0, 1); lastSeen != 1 {
		t.Errorf("skipped frame changed last seen: %d, expected: %d", lastSeen, 1)
	}
	if _, ok := engine.Store().LastSeen(0, 2); ok {
		t.Error("skipped frame recorded new object")
	}
}

func TestEngineRejectsHugeBox(t *testing.T) {
	engine, _ := newTestEngine(t, DefaultConfig())
	good := &ObjectMeta{ObjectID: 1, ClassID: 0, Box: NewRect(10, 10, 10, 10)}
	huge := &ObjectMeta{ObjectID: 2, ClassID: 0, Box: NewRect(1e300, -1e300, 10, 10)}
	stats := engine.ProcessBatch(&Batch{
		Frames: []*FrameMeta{
			{StreamID: 0, FrameNumber: 1, Objects: []*ObjectMeta{good, huge}},
		},
	})
	if stats.SkippedFrames != 1 {
		t.Errorf("frame with huge box should be skipped: %+v", stats)
	}
	if engine.Store().Len() != 0 {
		t.Errorf("skipped frame recorded %d entries", engine.Store().Len())
	}
}

func TestEngineSameObjectTwiceInFrame(t *testing.T) {
	engine, pool := newTestEngine(t, DefaultConfig())
	for frame := 1; frame <= 2; frame++ {
		first := ObjectMeta{ObjectID: 3, ClassID: 0, Box: NewRect(10, 10, 10, 10)}
		second := ObjectMeta{ObjectID: 3, ClassID: 0, Box: NewRect(20, 10, 10, 10)}
		engine.ProcessBatch(&Batch{
			Frames: []*FrameMeta{
				{StreamID: 0, FrameNumber: frame, Objects: []*ObjectMeta{&first, &second}},
			},
		})
	}
	trail := engine.Store().Trail(0, 3)
	if len(trail) != 4 {
		t.Errorf("incorrect trail length: %d, expected: %d", len(trail), 4)
	}
	// On frame 2 the second occurrence sees 3 earlier anchors and draws them
	circles := 0
	for _, unit := range pool.Committed(0, 2) {
		circles += unit.NumCircles
	}
	if circles != 2+3 {
		t.Errorf("incorrect number of circles: %d, expected: %d", circles, 5)
	}
}
