package shadermount

import "log/slog"

// Option configures an Instance during Mount.
//
// Example:
//
//	inst, err := shadermount.Mount(host, driver, sh, props,
//	    shadermount.WithMaxTextureSize(1024),
//	    shadermount.WithClearColor(shadermount.Black),
//	)
type Option func(*options)

// options holds optional configuration for Mount.
type options struct {
	logger         *slog.Logger
	loader         TextureLoader
	maxTextureSize int
	clearColor     Color
}

// defaultOptions returns the default mount options.
func defaultOptions() options {
	return options{
		loader:         DefaultLoader{},
		maxTextureSize: 4096,
		clearColor:     Transparent,
	}
}

// WithLogger sets the logger for one instance and its driver, overriding
// the package logger set with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTextureLoader sets the loader used for URL image parameters.
func WithTextureLoader(l TextureLoader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithMaxTextureSize bounds the side of uploaded textures. Larger images are
// downscaled; their aspect ratio uniform still reports the source size.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		o.maxTextureSize = n
	}
}

// WithClearColor sets the color shown while the instance has no working
// program, e.g. after a compile failure.
func WithClearColor(c Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}
