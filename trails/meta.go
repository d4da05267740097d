package trails

// StreamID identifies one video source within a batch (muxer pad index)
type StreamID int

// ObjectID is the detector supplied object identifier.
// It is unique within a stream at a point in time only: detectors without a tracker may reassign it every frame.
type ObjectID uint64

// RGBA is a color with components in [0, 1]
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// WithAlpha returns copy of color with alpha replaced
func (c RGBA) WithAlpha(alpha float64) RGBA {
	c.A = alpha
	return c
}

var (
	// White is the label foreground color
	White = RGBA{R: 1.0, G: 1.0, B: 1.0, A: 1.0}
)

// FontParams describes label font
type FontParams struct {
	FontName  string `json:"font_name"`
	FontSize  int    `json:"font_size"`
	FontColor RGBA   `json:"font_color"`
}

// TextParams is label styling attached to a detected object
type TextParams struct {
	DisplayText string     `json:"display_text"`
	XOffset     int        `json:"x_offset"`
	YOffset     int        `json:"y_offset"`
	Font        FontParams `json:"font"`
	SetBgColor  bool       `json:"set_bg_color"`
	BgColor     RGBA       `json:"bg_color"`
}

// RectParams is bounding box styling attached to a detected object
type RectParams struct {
	BorderWidth int  `json:"border_width"`
	HasBgColor  bool `json:"has_bg_color"`
}

// ObjectMeta is one detected object of a frame. Text and Rect are written by the engine.
type ObjectMeta struct {
	ObjectID ObjectID   `json:"object_id"`
	ClassID  int        `json:"class_id"`
	Label    string     `json:"label"`
	Box      Rectangle  `json:"box"`
	Text     TextParams `json:"text"`
	Rect     RectParams `json:"rect"`
}

// FrameMeta is the record of one stream inside a batch
type FrameMeta struct {
	StreamID    StreamID      `json:"stream_id"`
	FrameNumber int           `json:"frame_number"`
	Objects     []*ObjectMeta `json:"objects"`
}

// Batch is set of per-stream frame records delivered together for one processing cycle
type Batch struct {
	Frames []*FrameMeta `json:"frames"`
}

// FrameContext is what the engine knows about the frame being processed
type FrameContext struct {
	StreamID      StreamID
	FrameNumber   int
	ActiveStreams int
}

// CircleParams is a single point marker primitive
type CircleParams struct {
	XC     int  `json:"xc"`
	YC     int  `json:"yc"`
	Radius int  `json:"radius"`
	Color  RGBA `json:"color"`
}

// DisplayUnit is a fixed capacity container of primitives accepted by display pool
type DisplayUnit struct {
	Circles    [MaxCirclesPerUnit]CircleParams `json:"-"`
	NumCircles int                             `json:"num_circles"`
}

// CircleList returns the filled circle slots
func (unit *DisplayUnit) CircleList() []CircleParams {
	n := clampInt(unit.NumCircles, 0, MaxCirclesPerUnit)
	return unit.Circles[:n]
}

// Reset empties the unit so it could be reused by a pool
func (unit *DisplayUnit) Reset() {
	unit.NumCircles = 0
	unit.Circles = [MaxCirclesPerUnit]CircleParams{}
}
