package config

import (
	imagepkg "github.com/youruser/promoapp/internal/image"
)

const (
	defaultSourceDir      = "src"
	defaultOutputDir      = "out"
	defaultBucketCount    = 5
	defaultSourcePolicy   = PolicyDeleteOnLoad
	defaultQRSize         = 320
	defaultStampMargin    = 40
	defaultServerBind     = "127.0.0.1:8080"
	defaultServerMode     = "release"
	defaultFetchTimeout   = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultConfigLocation = "~/.config/promo/config.toml"
	projectConfigName     = "promo.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
		},
		Canvas: Canvas{
			Width:      imagepkg.DefaultCanvasWidth,
			Height:     imagepkg.DefaultCanvasHeight,
			TargetEdge: imagepkg.DefaultTargetEdge,
		},
		JPEG: JPEG{
			Quality: imagepkg.DefaultJPEGQuality,
		},
		Buckets: Buckets{
			Count: defaultBucketCount,
		},
		Sources: Sources{
			Policy: defaultSourcePolicy,
		},
		Stamp: Stamp{
			QRSize:  defaultQRSize,
			QRLevel: imagepkg.DefaultQRLevel,
			Margin:  defaultStampMargin,
		},
		Server: Server{
			Bind:                defaultServerBind,
			Mode:                defaultServerMode,
			FetchTimeoutSeconds: defaultFetchTimeout,
			MaxUploadPixels:     imagepkg.DefaultMaxPixels,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
