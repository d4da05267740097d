// Package render rasterizes overlay metadata into an image.
// It plays the role of the on-screen display element for offline replays.
package render

import (
	"image"

	"github.com/LdDl/trail-osd/trails"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

// Canvas draws frames of fixed size
type Canvas struct {
	dc       *gg.Context
	fontPath string
	fontSize int
}

// NewCanvas creates transparent canvas of width x height pixels
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		dc: gg.NewContext(width, height),
	}
}

// SetFontFile makes labels use TrueType font from path at their computed size.
// Without it the built-in fixed size face is used.
func (c *Canvas) SetFontFile(path string) error {
	if err := c.dc.LoadFontFace(path, float64(trails.MaxFontSize)); err != nil {
		return errors.Wrapf(err, "Can't load font '%s'", path)
	}
	c.fontPath = path
	c.fontSize = trails.MaxFontSize
	return nil
}

// Clear fills canvas with color
func (c *Canvas) Clear(color trails.RGBA) {
	c.dc.SetRGBA(color.R, color.G, color.B, color.A)
	c.dc.Clear()
}

// DrawBackground draws img at the top-left corner of the canvas, unscaled
func (c *Canvas) DrawBackground(img image.Image) {
	c.dc.DrawImage(img, 0, 0)
}

// LoadBackground reads PNG or JPEG file for DrawBackground
func LoadBackground(path string) (image.Image, error) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load background '%s'", path)
	}
	return img, nil
}

// DrawFrame draws trail circles of committed units and then labels of frame objects
func (c *Canvas) DrawFrame(frame *trails.FrameMeta, units []*trails.DisplayUnit) error {
	for _, unit := range units {
		for _, circle := range unit.CircleList() {
			c.dc.SetRGBA(circle.Color.R, circle.Color.G, circle.Color.B, circle.Color.A)
			c.dc.DrawCircle(float64(circle.XC), float64(circle.YC), float64(circle.Radius))
			c.dc.Fill()
		}
	}
	for _, obj := range frame.Objects {
		if obj == nil {
			continue
		}
		if err := c.drawLabel(obj.Text); err != nil {
			return err
		}
	}
	return nil
}

func (c *Canvas) drawLabel(text trails.TextParams) error {
	if text.DisplayText == "" {
		return nil
	}
	if c.fontPath != "" && text.Font.FontSize != c.fontSize {
		if err := c.dc.LoadFontFace(c.fontPath, float64(text.Font.FontSize)); err != nil {
			return errors.Wrapf(err, "Can't load font '%s'", c.fontPath)
		}
		c.fontSize = text.Font.FontSize
	}
	w, h := c.dc.MeasureString(text.DisplayText)
	x := float64(text.XOffset)
	y := float64(text.YOffset)
	if text.SetBgColor {
		bg := text.BgColor
		c.dc.SetRGBA(bg.R, bg.G, bg.B, bg.A)
		c.dc.DrawRectangle(x, y, w, h)
		c.dc.Fill()
	}
	fg := text.Font.FontColor
	c.dc.SetRGBA(fg.R, fg.G, fg.B, fg.A)
	c.dc.DrawStringAnchored(text.DisplayText, x, y, 0, 1)
	return nil
}

// Image returns canvas content
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// SavePNG writes canvas content to file
func (c *Canvas) SavePNG(path string) error {
	if err := c.dc.SavePNG(path); err != nil {
		return errors.Wrapf(err, "Can't save '%s'", path)
	}
	return nil
}
