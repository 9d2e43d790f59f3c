package shadermount

import (
	"context"
	"log/slog"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if _, ok := o.loader.(DefaultLoader); !ok {
		t.Errorf("loader = %T, want DefaultLoader", o.loader)
	}
	if o.maxTextureSize != 4096 {
		t.Errorf("maxTextureSize = %d, want 4096", o.maxTextureSize)
	}
	if o.clearColor != Transparent {
		t.Errorf("clearColor = %v, want transparent", o.clearColor)
	}
	if o.logger != nil {
		t.Error("logger must default to the package logger")
	}
}

func TestOptionsApply(t *testing.T) {
	l := slog.New(nopHandler{})
	loader := TextureLoaderFunc(func(context.Context, string) (*Pixels, error) { return nil, nil })

	o := defaultOptions()
	for _, opt := range []Option{
		WithLogger(l),
		WithTextureLoader(loader),
		WithMaxTextureSize(512),
		WithClearColor(White),
	} {
		opt(&o)
	}

	if o.logger != l {
		t.Error("WithLogger not applied")
	}
	if _, ok := o.loader.(TextureLoaderFunc); !ok {
		t.Errorf("loader = %T, want TextureLoaderFunc", o.loader)
	}
	if o.maxTextureSize != 512 {
		t.Errorf("maxTextureSize = %d, want 512", o.maxTextureSize)
	}
	if o.clearColor != White {
		t.Errorf("clearColor = %v, want white", o.clearColor)
	}
}

func TestWithTextureLoaderNilIgnored(t *testing.T) {
	o := defaultOptions()
	WithTextureLoader(nil)(&o)
	if _, ok := o.loader.(DefaultLoader); !ok {
		t.Errorf("loader = %T, want DefaultLoader kept", o.loader)
	}
}
