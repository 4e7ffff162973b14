package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	imagepkg "github.com/youruser/promoapp/internal/image"
)

//go:embed sample_config.toml
var sampleConfig string

// Source policies control when input files are removed.
const (
	PolicyDeleteOnLoad    = "delete-on-load"
	PolicyDeleteAfterSave = "delete-after-save"
	PolicyKeep            = "keep"
)

// Paths holds the source root and output directory.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	OutputDir string `toml:"output_dir"`
}

// Canvas holds the composite geometry.
type Canvas struct {
	Width      int `toml:"width"`
	Height     int `toml:"height"`
	TargetEdge int `toml:"target_edge"`
}

// JPEG holds encoder settings.
type JPEG struct {
	Quality int `toml:"quality"`
}

// Buckets configures the numbered-bucket layout.
type Buckets struct {
	Count int `toml:"count"`
}

// Sources configures what happens to input files.
type Sources struct {
	Policy string `toml:"policy"`
}

// Stamp configures the optional QR code in the free corner of the canvas.
type Stamp struct {
	QRText  string `toml:"qr_text"`
	QRSize  int    `toml:"qr_size"`
	QRLevel string `toml:"qr_level"`
	Margin  int    `toml:"margin"`
}

// Server configures the HTTP API.
type Server struct {
	Bind                string `toml:"bind"`
	Mode                string `toml:"mode"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	MaxUploadPixels     int    `toml:"max_upload_pixels"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Canvas  Canvas  `toml:"canvas"`
	JPEG    JPEG    `toml:"jpeg"`
	Buckets Buckets `toml:"buckets"`
	Sources Sources `toml:"sources"`
	Stamp   Stamp   `toml:"stamp"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The resolved path and whether it existed are returned
// alongside the config.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Normalize trims values and expands paths. Load calls it; callers that
// override fields afterwards should call it again before Validate.
func (c *Config) Normalize() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return err
	}
	c.Sources.Policy = strings.ToLower(strings.TrimSpace(c.Sources.Policy))
	if c.Sources.Policy == "" {
		c.Sources.Policy = defaultSourcePolicy
	}
	c.Stamp.QRText = strings.TrimSpace(c.Stamp.QRText)
	c.Stamp.QRLevel = strings.ToLower(strings.TrimSpace(c.Stamp.QRLevel))
	if c.Stamp.QRLevel == "" {
		c.Stamp.QRLevel = imagepkg.DefaultQRLevel
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// Layout returns the canvas geometry as a compositor layout.
func (c *Config) Layout() imagepkg.Layout {
	return imagepkg.Layout{Width: c.Canvas.Width, Height: c.Canvas.Height, Edge: c.Canvas.TargetEdge}
}

// FetchTimeout returns the remote fetch timeout for the HTTP API.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Server.FetchTimeoutSeconds) * time.Second
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
