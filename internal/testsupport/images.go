// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// Solid returns a w x h NRGBA image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// WritePNG writes a solid w x h PNG to path, creating parent directories.
func WritePNG(t testing.TB, path string, w, h int, c color.NRGBA) {
	t.Helper()
	writeImage(t, path, Solid(w, h, c), imaging.PNG)
}

// WriteJPEG writes a solid JPEG to path regardless of its extension.
func WriteJPEG(t testing.TB, path string, w, h int, c color.NRGBA) {
	t.Helper()
	writeImage(t, path, Solid(w, h, c), imaging.JPEG)
}

// WriteText writes arbitrary bytes that no image decoder accepts.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Exists reports whether path is present on disk.
func Exists(t testing.TB, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}

// Near reports whether two colors differ by at most tol per channel. JPEG
// round trips need the slack.
func Near(got color.Color, want color.NRGBA, tol int) bool {
	g := color.NRGBAModel.Convert(got).(color.NRGBA)
	return diff(g.R, want.R) <= tol && diff(g.G, want.G) <= tol && diff(g.B, want.B) <= tol
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func writeImage(t testing.TB, path string, img image.Image, format imaging.Format) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := imaging.Encode(f, img, format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}
