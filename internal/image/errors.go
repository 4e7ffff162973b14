package imagepkg

import (
	"errors"
	"fmt"
)

// FormatError reports an input whose encoded format is not PNG.
type FormatError struct {
	Path   string
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not a PNG file: %v", subject(e.Path), e.Err)
	}
	return fmt.Sprintf("%s is not a PNG file (format=%s)", subject(e.Path), e.Format)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ShapeError reports a front or back image that is not square.
type ShapeError struct {
	Path   string
	Width  int
	Height int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s is not square: %dx%d", subject(e.Path), e.Width, e.Height)
}

// SizeError reports an image whose declared dimensions exceed a pixel budget.
// It is raised from the header, before any pixel data is decoded.
type SizeError struct {
	Path      string
	Width     int
	Height    int
	MaxPixels int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s is too large: %dx%d exceeds %d pixels", subject(e.Path), e.Width, e.Height, e.MaxPixels)
}

// MissingFileError reports an expected input that is absent. Role names what
// was expected: "front", "back", "action", "directory" or "source".
type MissingFileError struct {
	Path string
	Role string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing %s: %s", e.Role, e.Path)
}

// IsValidation reports whether err is a FormatError or a ShapeError.
func IsValidation(err error) bool {
	var fe *FormatError
	var se *ShapeError
	return errors.As(err, &fe) || errors.As(err, &se)
}

// IsTooLarge reports whether err is a SizeError.
func IsTooLarge(err error) bool {
	var se *SizeError
	return errors.As(err, &se)
}

// IsMissing reports whether err is a MissingFileError.
func IsMissing(err error) bool {
	var me *MissingFileError
	return errors.As(err, &me)
}

// WithPath attaches path to a FormatError, ShapeError or SizeError that was
// raised without one. Other errors are returned unchanged.
func WithPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		cp := *fe
		cp.Path = path
		return &cp
	}
	var se *ShapeError
	if errors.As(err, &se) && se.Path == "" {
		cp := *se
		cp.Path = path
		return &cp
	}
	var ze *SizeError
	if errors.As(err, &ze) && ze.Path == "" {
		cp := *ze
		cp.Path = path
		return &cp
	}
	return err
}

func subject(path string) string {
	if path == "" {
		return "image"
	}
	return path
}
