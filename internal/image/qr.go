package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultQRLevel = "medium"

// ParseQRLevel maps a config or query value to a go-qrcode recovery level.
// Empty means medium.
func ParseQRLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("unknown qr level %q (want low, medium, high or highest)", s)
	}
}

func newQR(text string, level qrcode.RecoveryLevel) (*qrcode.QRCode, error) {
	if text == "" {
		return nil, errors.New("qr text is empty")
	}
	q, err := qrcode.New(text, level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return q, nil
}

// GenerateQRPNG returns PNG bytes of a size x size QR code for text.
func GenerateQRPNG(text string, size int, level qrcode.RecoveryLevel) ([]byte, error) {
	q, err := newQR(text, level)
	if err != nil {
		return nil, err
	}
	return q.PNG(size)
}

// GenerateQRImage returns the QR code as an in-memory image for stamping.
func GenerateQRImage(text string, size int, level qrcode.RecoveryLevel) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("qr size must be positive, got %d", size)
	}
	q, err := newQR(text, level)
	if err != nil {
		return nil, err
	}
	return q.Image(size), nil
}
