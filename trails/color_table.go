package trails

import (
	"math/rand/v2"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	// DefaultColor is returned for class ids which are not present in the table
	DefaultColor = RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1.0}
)

// ColorTable maps class id (label index) to stable color.
// It is built once at pipeline start and read-only after that.
type ColorTable struct {
	labels []string
	colors []colorful.Color
}

type colorTableOptions struct {
	rng *rand.Rand
}

// ColorTableOption configures BuildColorTable
type ColorTableOption func(*colorTableOptions)

// WithColorSeed makes generated colors reproducible
func WithColorSeed(seed uint64) ColorTableOption {
	return func(o *colorTableOptions) {
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// BuildColorTable assigns pseudo-random color for each label index.
// Red, green and blue are drawn uniformly from [0, 1), alpha is always full opacity.
// Without WithColorSeed colors differ between runs.
func BuildColorTable(labels []string, options ...ColorTableOption) *ColorTable {
	opts := colorTableOptions{}
	for _, o := range options {
		o(&opts)
	}
	next := rand.Float64
	if opts.rng != nil {
		next = opts.rng.Float64
	}
	table := ColorTable{
		labels: make([]string, len(labels)),
		colors: make([]colorful.Color, len(labels)),
	}
	copy(table.labels, labels)
	for idx := range labels {
		table.colors[idx] = colorful.Color{
			R: next(),
			G: next(),
			B: next(),
		}
	}
	return &table
}

// Len returns number of classes
func (table *ColorTable) Len() int {
	return len(table.colors)
}

// Color returns class color or DefaultColor when class id is unknown
func (table *ColorTable) Color(classID int) RGBA {
	if classID < 0 || classID >= len(table.colors) {
		return DefaultColor
	}
	c := table.colors[classID]
	return RGBA{R: c.R, G: c.G, B: c.B, A: 1.0}
}

// Hex returns class color in "#rrggbb" form
func (table *ColorTable) Hex(classID int) string {
	if classID < 0 || classID >= len(table.colors) {
		return colorful.Color{R: DefaultColor.R, G: DefaultColor.G, B: DefaultColor.B}.Hex()
	}
	return table.colors[classID].Hex()
}

// Label returns class label or empty string when class id is unknown
func (table *ColorTable) Label(classID int) string {
	if classID < 0 || classID >= len(table.labels) {
		return ""
	}
	return table.labels[classID]
}
