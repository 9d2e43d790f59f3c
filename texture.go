package shadermount

import (
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Pixels is an un-premultiplied RGBA8 image, rows top to bottom with a stride
// of 4*Width bytes.
type Pixels struct {
	Width, Height int
	Data          []byte
}

// NewPixels allocates a transparent w×h buffer.
func NewPixels(w, h int) *Pixels {
	return &Pixels{Width: w, Height: h, Data: make([]byte, 4*w*h)}
}

// PixelsFromImage converts any image to Pixels.
func PixelsFromImage(img image.Image) *Pixels {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Pixels{Width: b.Dx(), Height: b.Dy(), Data: dst.Pix}
}

// AspectRatio returns Width/Height, or 1 for an empty buffer.
func (p *Pixels) AspectRatio() float64 {
	if p == nil || p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return float64(p.Width) / float64(p.Height)
}

// Validate checks the buffer size against the dimensions.
func (p *Pixels) Validate() error {
	if p == nil {
		return fmt.Errorf("shadermount: nil pixels")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("shadermount: invalid pixel size %dx%d", p.Width, p.Height)
	}
	if len(p.Data) != 4*p.Width*p.Height {
		return fmt.Errorf("shadermount: pixel data is %d bytes, want %d", len(p.Data), 4*p.Width*p.Height)
	}
	return nil
}

// Downscale returns p scaled so neither side exceeds max, keeping the aspect
// ratio. p is returned unchanged if it already fits or max <= 0.
func (p *Pixels) Downscale(max int) *Pixels {
	if max <= 0 || (p.Width <= max && p.Height <= max) {
		return p
	}
	w, h := p.Width, p.Height
	if w >= h {
		h = maxInt(1, h*max/w)
		w = max
	} else {
		w = maxInt(1, w*max/h)
		h = max
	}
	src := &image.NRGBA{Pix: p.Data, Stride: 4 * p.Width, Rect: image.Rect(0, 0, p.Width, p.Height)}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Pixels{Width: w, Height: h, Data: dst.Pix}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// TextureLoader fetches the pixels behind a URL-like reference. Load runs on
// its own goroutine and must honor ctx cancellation.
type TextureLoader interface {
	Load(ctx context.Context, ref string) (*Pixels, error)
}

// TextureLoaderFunc adapts a function to TextureLoader.
type TextureLoaderFunc func(ctx context.Context, ref string) (*Pixels, error)

// Load calls f.
func (f TextureLoaderFunc) Load(ctx context.Context, ref string) (*Pixels, error) {
	return f(ctx, ref)
}

// DefaultLoader loads http(s) URLs and local files and decodes PNG, JPEG,
// GIF, BMP and WebP.
type DefaultLoader struct {
	// Client is used for http and https references. nil means
	// http.DefaultClient.
	Client *http.Client
}

// Load implements TextureLoader.
func (l DefaultLoader) Load(ctx context.Context, ref string) (*Pixels, error) {
	var r io.ReadCloser
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		client := l.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("shadermount: fetch %s: %s", ref, resp.Status)
		}
		r = resp.Body
	default:
		f, err := os.Open(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("shadermount: decode %s: %w", ref, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return PixelsFromImage(img), nil
}

// textureSlot is one image parameter of an instance.
type textureSlot struct {
	name   string // uniform name
	source ImageSource

	// pixels are kept once available so a lost context can be rebuilt
	// without loading again.
	pixels  *Pixels
	tex     Texture
	binding *TextureBinding

	cancel  context.CancelFunc
	loading bool
	failed  bool
}

// bind creates the backend texture for the slot's pixels, or a placeholder
// binding while they are not available.
func (s *textureSlot) bind(ctx Context, maxSize int) error {
	if s.pixels == nil {
		s.binding = &TextureBinding{}
		return nil
	}
	px := s.pixels.Downscale(maxSize)
	tex, err := ctx.CreateTexture(px)
	if err != nil {
		s.binding = &TextureBinding{}
		return err
	}
	s.tex = tex
	// The aspect ratio is the source's, not the downscaled copy's.
	s.binding = &TextureBinding{Texture: tex, Width: s.pixels.Width, Height: s.pixels.Height}
	return nil
}

// releaseTexture frees the backend texture but keeps the pixels.
func (s *textureSlot) releaseTexture() {
	if s.tex != nil {
		s.tex.Release()
		s.tex = nil
	}
	s.binding = nil
}

// cancelLoad stops an in-flight load.
func (s *textureSlot) cancelLoad() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
}

// TextureFromImage returns an image parameter value bound synchronously.
func TextureFromImage(img image.Image) ImageSource {
	return ImageSource{Pixels: PixelsFromImage(img)}
}

// TextureFromURL returns an image parameter value loaded asynchronously. The
// shader samples a neutral placeholder until the load completes. A failed
// load is never retried.
func TextureFromURL(ref string) ImageSource {
	return ImageSource{URL: ref}
}
