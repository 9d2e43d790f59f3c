package shadermount

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPixelsFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12)) // non-zero origin
	src.Set(10, 10, color.RGBA{R: 255, A: 255})
	px := PixelsFromImage(src)

	if px.Width != 3 || px.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", px.Width, px.Height)
	}
	if err := px.Validate(); err != nil {
		t.Fatal(err)
	}
	if px.Data[0] != 255 || px.Data[3] != 255 {
		t.Errorf("first pixel = %v, want opaque red", px.Data[:4])
	}
	if px.AspectRatio() != 1.5 {
		t.Errorf("AspectRatio = %v, want 1.5", px.AspectRatio())
	}
}

func TestPixelsValidate(t *testing.T) {
	var nilPx *Pixels
	tests := []struct {
		name string
		px   *Pixels
		ok   bool
	}{
		{"nil", nilPx, false},
		{"zero size", &Pixels{}, false},
		{"short data", &Pixels{Width: 2, Height: 2, Data: make([]byte, 4)}, false},
		{"ok", NewPixels(2, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.px.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate = %v, ok = %v", err, tt.ok)
			}
		})
	}
	if nilPx.AspectRatio() != 1 {
		t.Error("nil AspectRatio must be 1")
	}
}

func TestPixelsDownscale(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},
		{100, 50, 0, 100, 50},
		{100, 50, 20, 20, 10},
		{50, 100, 20, 10, 20},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		px := NewPixels(tt.w, tt.h)
		got := px.Downscale(tt.max)
		if got.Width != tt.wantW || got.Height != tt.wantH {
			t.Errorf("Downscale(%dx%d, %d) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.max, got.Width, got.Height, tt.wantW, tt.wantH)
		}
		if err := got.Validate(); err != nil {
			t.Error(err)
		}
	}
}

func TestDefaultLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, encodePNG(t, testImage(4, 2)), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{path, "file://" + path} {
		px, err := DefaultLoader{}.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("Load(%s): %v", ref, err)
		}
		if px.Width != 4 || px.Height != 2 {
			t.Errorf("Load(%s) = %dx%d, want 4x2", ref, px.Width, px.Height)
		}
	}

	if _, err := (DefaultLoader{}).Load(context.Background(), filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("missing file: want error")
	}
}

func TestDefaultLoaderHTTP(t *testing.T) {
	data := encodePNG(t, testImage(3, 3))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Write(data)
		case "/garbage":
			w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := DefaultLoader{Client: srv.Client()}
	px, err := l.Load(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if px.Width != 3 || px.Data[2] != 200 {
		t.Errorf("decoded %dx%d %v", px.Width, px.Height, px.Data[:4])
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("404: want error")
	}
	if _, err := l.Load(context.Background(), srv.URL+"/garbage"); err == nil {
		t.Error("garbage: want decode error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, srv.URL+"/ok.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}
}

func TestTextureConstructors(t *testing.T) {
	if s := TextureFromURL("a.png"); s.URL != "a.png" || s.Pixels != nil || s.IsZero() {
		t.Errorf("TextureFromURL = %+v", s)
	}
	s := TextureFromImage(testImage(2, 4))
	if s.Pixels == nil || s.Pixels.AspectRatio() != 0.5 {
		t.Errorf("TextureFromImage = %+v", s)
	}
	if !(ImageSource{}).IsZero() {
		t.Error("zero ImageSource must report IsZero")
	}
}
