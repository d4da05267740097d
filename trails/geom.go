package trails

import (
	"math"
)

// MaxCoordinate bounds every box component. Larger values can't come from a real frame
const MaxCoordinate = 1 << 31

// Rectangle is a detector bounding box in frame pixels (left, top, width, height)
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// IsFinite reports whether every component of the box is a real number
func (r Rectangle) IsFinite() bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsBounded reports whether every component of the box is finite and within MaxCoordinate by magnitude
func (r Rectangle) IsBounded() bool {
	if !r.IsFinite() {
		return false
	}
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.Abs(v) > MaxCoordinate {
			return false
		}
	}
	return true
}

// toPixel truncates v toward zero, saturating at MaxCoordinate. NaN becomes zero
func toPixel(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(-MaxCoordinate, math.Min(v, MaxCoordinate)))
}

// Anchor returns bottom-center of the box. This is the position stored in trails.
func (r Rectangle) Anchor() Point {
	left := toPixel(r.X)
	top := toPixel(r.Y)
	width := toPixel(r.Width)
	height := toPixel(r.Height)
	return NewPoint(int(float64(left)+float64(width)/2.0), top+height)
}

// Center returns integer center of the box. Width and height are halved with floor division.
func (r Rectangle) Center() Point {
	left := toPixel(r.X)
	top := toPixel(r.Y)
	return NewPoint(left+floorDiv(toPixel(r.Width), 2), top+floorDiv(toPixel(r.Height), 2))
}

// Point is a trail position in frame pixels
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewPoint(x, y int) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// Valid reports whether point could be drawn. Non-positive coordinates mean "not yet valid"
func (p Point) Valid() bool {
	return p.X > 0 && p.Y > 0
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}
