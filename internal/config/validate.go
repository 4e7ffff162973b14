package config

import (
	"errors"
	"fmt"

	imagepkg "github.com/youruser/promoapp/internal/image"
	"github.com/youruser/promoapp/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if c.JPEG.Quality < 1 || c.JPEG.Quality > 100 {
		return fmt.Errorf("jpeg.quality must be between 1 and 100, got %d", c.JPEG.Quality)
	}
	if c.Buckets.Count <= 0 {
		return errors.New("buckets.count must be positive")
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateStamp(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateCanvas() error {
	if err := c.Layout().Validate(); err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	return nil
}

func (c *Config) validateSources() error {
	switch c.Sources.Policy {
	case PolicyDeleteOnLoad, PolicyDeleteAfterSave, PolicyKeep:
		return nil
	default:
		return fmt.Errorf("sources.policy: unsupported value %q (want %s, %s or %s)",
			c.Sources.Policy, PolicyDeleteOnLoad, PolicyDeleteAfterSave, PolicyKeep)
	}
}

func (c *Config) validateStamp() error {
	if _, err := imagepkg.ParseQRLevel(c.Stamp.QRLevel); err != nil {
		return fmt.Errorf("stamp.qr_level: %w", err)
	}
	if c.Stamp.QRText == "" {
		return nil
	}
	if _, err := c.Layout().StampOrigin(c.Stamp.QRSize, c.Stamp.Margin); err != nil {
		return fmt.Errorf("stamp: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode: unsupported value %q", c.Server.Mode)
	}
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.FetchTimeoutSeconds <= 0 {
		return errors.New("server.fetch_timeout_seconds must be positive")
	}
	if c.Server.MaxUploadPixels <= 0 {
		return errors.New("server.max_upload_pixels must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
