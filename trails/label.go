package trails

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinFontSize is label font size for zero height boxes and crowded multi-stream layouts
	MinFontSize = 8
	// MaxFontSize is label font size for boxes of 100px and taller on a single stream
	MaxFontSize = 12
	// LabelOffsetX and LabelOffsetY shift label from box center so a short text looks centered
	LabelOffsetX = 20
	LabelOffsetY = 10
	// LabelBgAlpha is opacity of label background
	LabelBgAlpha = 0.6
	// DefaultFontName is label font
	DefaultFontName = "Serif"
)

// ComputeLabelPlacement returns label position: box center shifted by (-LabelOffsetX, -LabelOffsetY).
// Both coordinates are at least 1 so label always stays inside the frame.
func ComputeLabelPlacement(box Rectangle) (int, int) {
	center := box.Center()
	x := maxInt(1, center.X-LabelOffsetX)
	y := maxInt(1, center.Y-LabelOffsetY)
	return x, y
}

// ComputeFontSize scales font with box height: MinFontSize at zero height, max size at 100px and above.
// Every extra active stream lowers max size by one, but never below MinFontSize.
func ComputeFontSize(boxHeight float64, activeStreams int) int {
	maxSize := MaxFontSize
	if activeStreams > 1 {
		maxSize = maxInt(MinFontSize, MaxFontSize-(activeStreams-1))
	}
	size := float64(MinFontSize) + float64(maxSize-MinFontSize)*(boxHeight/100.0)
	if math.IsNaN(size) {
		return MinFontSize
	}
	// Clamp before truncation: int() of a float outside int range is undefined
	size = math.Min(math.Max(size, MinFontSize), float64(maxSize))
	return int(size)
}

// Capitalize upper-cases the first letter and lower-cases the rest
func Capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

// StyleLabel writes label text, position and colors into object's text params
func StyleLabel(obj *ObjectMeta, color RGBA, fontName string, activeStreams int) {
	x, y := ComputeLabelPlacement(obj.Box)
	if fontName == "" {
		fontName = DefaultFontName
	}
	obj.Text = TextParams{
		DisplayText: Capitalize(obj.Label),
		XOffset:     x,
		YOffset:     y,
		Font: FontParams{
			FontName:  fontName,
			FontSize:  ComputeFontSize(float64(int(obj.Box.Height)), activeStreams),
			FontColor: White,
		},
		SetBgColor: true,
		BgColor:    color.WithAlpha(LabelBgAlpha),
	}
}

// HideBox makes detector's bounding box invisible, only the trail and label are drawn
func HideBox(obj *ObjectMeta) {
	obj.Rect.BorderWidth = 0
	obj.Rect.HasBgColor = false
}
