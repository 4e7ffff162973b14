package imagepkg

import (
	"image"

	"github.com/disintegration/imaging"
)

// ScaleSquare resizes a square image to edge x edge with a Lanczos filter.
// Non-square input yields a ShapeError without a path.
func ScaleSquare(img image.Image, edge int) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, &ShapeError{Width: b.Dx(), Height: b.Dy()}
	}
	return imaging.Resize(img, edge, edge, imaging.Lanczos), nil
}

// HalfScale halves both dimensions (floor, at least one pixel) with a
// Lanczos filter. Any aspect ratio is accepted.
func HalfScale(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w := max(1, b.Dx()/2)
	h := max(1, b.Dy()/2)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
