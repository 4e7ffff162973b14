package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	imagepkg "github.com/youruser/promoapp/internal/image"
)

const (
	defaultQRSize = 400
	maxQRSize     = 2048
)

// Fetcher downloads a PNG for URL-based compose requests.
type Fetcher interface {
	FetchPNG(ctx context.Context, url string) (*image.NRGBA, error)
}

// Handler serves composites rendered in memory. Uploaded inputs are never
// written to disk, so no source policy applies.
type Handler struct {
	composer  *imagepkg.Composer
	fetcher   Fetcher
	logger    *zap.Logger
	maxPixels int
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMaxPixels caps the declared width*height of each uploaded image.
// A non-positive value disables the cap.
func WithMaxPixels(n int) Option {
	return func(h *Handler) { h.maxPixels = n }
}

func NewHandler(composer *imagepkg.Composer, fetcher Fetcher, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{composer: composer, fetcher: fetcher, logger: logger, maxPixels: imagepkg.DefaultMaxPixels}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// qr endpoint returns a PNG of a QR for "text" query param; "size" and
// "level" are optional
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := defaultQRSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		v, err := strconv.Atoi(sizeStr)
		if err != nil || v <= 0 || v > maxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("size must be between 1 and %d", maxQRSize)})
			return
		}
		size = v
	}
	level, err := imagepkg.ParseQRLevel(c.Query("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := imagepkg.GenerateQRPNG(text, size, level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// compose accepts multipart "front" and "back" PNG uploads.
func (h *Handler) composeHandler(c *gin.Context) {
	front, ok := h.formImage(c, "front")
	if !ok {
		return
	}
	back, ok := h.formImage(c, "back")
	if !ok {
		return
	}
	h.renderPromo(c, front, back)
}

// compose/url accepts JSON with front_url and back_url.
func (h *Handler) composeURLHandler(c *gin.Context) {
	var req struct {
		FrontURL string `json:"front_url" binding:"required"`
		BackURL  string `json:"back_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.fetcher == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "remote fetch disabled"})
		return
	}

	ctx := c.Request.Context()
	front, err := h.fetcher.FetchPNG(ctx, req.FrontURL)
	if err != nil {
		h.fail(c, "front", err)
		return
	}
	back, err := h.fetcher.FetchPNG(ctx, req.BackURL)
	if err != nil {
		h.fail(c, "back", err)
		return
	}
	h.renderPromo(c, front, back)
}

// action accepts a multipart "image" of any aspect ratio.
func (h *Handler) actionHandler(c *gin.Context) {
	img, ok := h.formImage(c, "image")
	if !ok {
		return
	}
	h.writeJPEG(c, h.composer.Action(img))
}

func (h *Handler) renderPromo(c *gin.Context, front, back image.Image) {
	sf, err := h.composer.Square(front)
	if err != nil {
		h.fail(c, "front", err)
		return
	}
	sb, err := h.composer.Square(back)
	if err != nil {
		h.fail(c, "back", err)
		return
	}
	canvas, err := h.composer.Promo(sf, sb)
	if err != nil {
		h.fail(c, "compose", err)
		return
	}
	h.writeJPEG(c, canvas)
}

func (h *Handler) formImage(c *gin.Context, field string) (*image.NRGBA, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing form file %q", field)})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	defer f.Close()

	img, err := imagepkg.DecodePNGLimit(f, h.maxPixels)
	if err != nil {
		h.fail(c, field, imagepkg.WithPath(err, fh.Filename))
		return nil, false
	}
	return img, true
}

func (h *Handler) writeJPEG(c *gin.Context, img image.Image) {
	buf := new(bytes.Buffer)
	if err := h.composer.Encode(buf, img); err != nil {
		h.fail(c, "encode", err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

func (h *Handler) fail(c *gin.Context, field string, err error) {
	status := http.StatusInternalServerError
	switch {
	case imagepkg.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case imagepkg.IsTooLarge(err):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case h.fetcher != nil && c.FullPath() == "/api/compose/url":
		status = http.StatusBadGateway
	}
	h.logger.Warn("request failed", zap.String("field", field), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error(), "field": field})
}
