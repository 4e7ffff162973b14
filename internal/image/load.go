package imagepkg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
)

// DecodePNG decodes r into a 4-channel NRGBA image. Anything that does not
// decode as PNG is rejected with a FormatError.
func DecodePNG(r io.Reader) (*image.NRGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, &FormatError{Format: "unknown", Err: err}
	}
	if format != "png" {
		return nil, &FormatError{Format: format}
	}
	return imaging.Clone(img), nil
}

// DecodePNGLimit is DecodePNG with a pixel budget. The header is checked
// first, so an oversized image is rejected with a SizeError before its pixel
// buffer is allocated. A non-positive maxPixels disables the check.
func DecodePNGLimit(r io.Reader, maxPixels int) (*image.NRGBA, error) {
	if maxPixels <= 0 {
		return DecodePNG(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Format: "unknown", Err: err}
	}
	if format != "png" {
		return nil, &FormatError{Format: format}
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, &SizeError{Width: cfg.Width, Height: cfg.Height, MaxPixels: maxPixels}
	}
	return DecodePNG(bytes.NewReader(data))
}

// Load reads and decodes the PNG at path. The file is left on disk.
func Load(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Path: path, Role: "source"}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	img, err := DecodePNG(bytes.NewReader(data))
	if err != nil {
		return nil, WithPath(err, path)
	}
	return img, nil
}

// LoadAndRemove decodes the PNG at path fully into memory and then deletes
// the file. A file that fails to decode is not deleted.
func LoadAndRemove(path string) (*image.NRGBA, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("delete source %s: %w", path, err)
	}
	return img, nil
}
