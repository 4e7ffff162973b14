package imagepkg

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/gen2brain/jpegli"
)

const DefaultJPEGQuality = 95

// EncodeJPEG writes img as a baseline JPEG with full-resolution chroma (4:4:4)
// and optimized Huffman tables.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpegli.Encode(w, img, &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
		ProgressiveLevel:  0,
		OptimizeCoding:    true,
	})
}

// Encode writes img using the composer's quality.
func (c *Composer) Encode(w io.Writer, img image.Image) error {
	return EncodeJPEG(w, img, c.Quality)
}

// Save writes img to path through a temporary file in the same directory, so
// a failed encode never leaves a partial output behind.
func (c *Composer) Save(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".promo-*.jpg")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := c.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output %s: %w", path, err)
	}
	return nil
}
