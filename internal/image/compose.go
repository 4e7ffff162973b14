package imagepkg

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	DefaultCanvasWidth  = 2000
	DefaultCanvasHeight = 3000
	DefaultTargetEdge   = 1600
)

// Layout fixes the canvas size and the edge length front and back images are
// scaled to. Front sits at the top-left corner, back at the bottom-right.
type Layout struct {
	Width  int
	Height int
	Edge   int
}

// DefaultLayout returns the 2000x3000 canvas with 1600px images.
func DefaultLayout() Layout {
	return Layout{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight, Edge: DefaultTargetEdge}
}

// Validate checks that both images fit on the canvas. Overlap between the
// two regions is allowed; back is drawn over front.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", l.Width, l.Height)
	}
	if l.Edge <= 0 {
		return fmt.Errorf("target edge must be positive, got %d", l.Edge)
	}
	if l.Edge > l.Width || l.Edge > l.Height {
		return fmt.Errorf("target edge %d does not fit canvas %dx%d", l.Edge, l.Width, l.Height)
	}
	return nil
}

// BackOffset is where the top-left corner of the back image lands.
func (l Layout) BackOffset() image.Point {
	return image.Pt(l.Width-l.Edge, l.Height-l.Edge)
}

// Overlaps reports whether the front and back regions share pixels.
func (l Layout) Overlaps() bool {
	front := image.Rect(0, 0, l.Edge, l.Edge)
	off := l.BackOffset()
	back := image.Rect(off.X, off.Y, off.X+l.Edge, off.Y+l.Edge)
	return front.Overlaps(back)
}

// StampOrigin returns the position of a size x size stamp in the bottom-left
// corner, inset by margin. It fails when the stamp would touch either image.
func (l Layout) StampOrigin(size, margin int) (image.Point, error) {
	if size <= 0 || margin < 0 {
		return image.Point{}, fmt.Errorf("invalid stamp size %d or margin %d", size, margin)
	}
	freeW := l.Width - l.Edge
	freeH := l.Height - l.Edge
	if size+2*margin > freeW || size+2*margin > freeH {
		return image.Point{}, fmt.Errorf("stamp %dpx with margin %d does not fit free area %dx%d", size, margin, freeW, freeH)
	}
	return image.Pt(margin, l.Height-margin-size), nil
}

// Composer renders promotional composites and action shots.
type Composer struct {
	Layout      Layout
	Quality     int
	Stamp       image.Image
	StampMargin int
}

// NewComposer returns a Composer with the default layout and JPEG quality.
func NewComposer() *Composer {
	return &Composer{Layout: DefaultLayout(), Quality: DefaultJPEGQuality}
}

// Square validates and scales a front or back image to the layout edge.
func (c *Composer) Square(img image.Image) (*image.NRGBA, error) {
	return ScaleSquare(img, c.Layout.Edge)
}

// Promo composes already scaled front and back images onto a white canvas.
// Each image is blended through its own alpha channel.
func (c *Composer) Promo(front, back image.Image) (*image.NRGBA, error) {
	if err := c.Layout.Validate(); err != nil {
		return nil, err
	}
	canvas := imaging.New(c.Layout.Width, c.Layout.Height, color.White)
	canvas = imaging.Overlay(canvas, front, image.Pt(0, 0), 1.0)
	canvas = imaging.Overlay(canvas, back, c.Layout.BackOffset(), 1.0)

	if c.Stamp != nil {
		pos, err := c.Layout.StampOrigin(c.Stamp.Bounds().Dx(), c.StampMargin)
		if err != nil {
			return nil, err
		}
		canvas = imaging.Paste(canvas, c.Stamp, pos)
	}
	return canvas, nil
}

// Action halves img and flattens it onto an opaque white background of the
// same size.
func (c *Composer) Action(img image.Image) *image.NRGBA {
	return FlattenOnWhite(HalfScale(img))
}

// FlattenOnWhite alpha-composites img onto a white background sized to fit it.
func FlattenOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
