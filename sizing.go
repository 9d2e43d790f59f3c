package shadermount

import (
	"fmt"
	"math"
	"strings"
)

// FitMode selects how the world rectangle is mapped onto the surface.
type FitMode uint8

const (
	// FitContain scales uniformly so the whole world is visible.
	FitContain FitMode = iota
	// FitCover scales uniformly so the world covers the surface, cropping the
	// excess.
	FitCover
	// FitFill scales each axis independently so the world maps exactly onto
	// the surface.
	FitFill
	// FitCrop maps one world unit to one physical pixel.
	FitCrop
	// FitNativePixel maps one world unit to one CSS pixel, ignoring the
	// device pixel ratio.
	FitNativePixel
)

var fitModeNames = [...]string{
	FitContain:     "contain",
	FitCover:       "cover",
	FitFill:        "fill",
	FitCrop:        "crop",
	FitNativePixel: "native-pixel",
}

// String returns the CSS-style name of the mode.
func (f FitMode) String() string {
	if int(f) < len(fitModeNames) {
		return fitModeNames[f]
	}
	return fmt.Sprintf("FitMode(%d)", f)
}

// ParseFitMode parses a mode name as produced by String.
func ParseFitMode(s string) (FitMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range fitModeNames {
		if s == name {
			return FitMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown fit mode %q", ErrInvalidParam, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FitMode) UnmarshalText(text []byte) error {
	m, err := ParseFitMode(string(text))
	if err != nil {
		return err
	}
	*f = m
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f FitMode) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// SizingConfig describes how shader space is laid over the surface.
type SizingConfig struct {
	Fit FitMode `yaml:"fit"`
	// Scale multiplies the fit scale. Values <= 0 are treated as 1.
	Scale float64 `yaml:"scale"`
	// Rotation in degrees, clockwise in pixel space, about Origin.
	Rotation float64 `yaml:"rotation"`
	// Origin is the anchor within both the world and the surface, in [0,1]².
	Origin Vec2 `yaml:"origin,flow"`
	// Offset shifts the world in post-rotation normalized units.
	Offset Vec2 `yaml:"offset,flow"`
	// WorldWidth and WorldHeight are the logical world size. Zero means the
	// surface's physical size, re-derived on every resize.
	WorldWidth  float64 `yaml:"worldWidth"`
	WorldHeight float64 `yaml:"worldHeight"`
}

// DefaultSizing returns a centered contain fit at scale 1.
func DefaultSizing() SizingConfig {
	return SizingConfig{Fit: FitContain, Scale: 1, Origin: Vec2{0.5, 0.5}}
}

// SurfaceDescriptor describes the host surface as the backend sees it.
type SurfaceDescriptor struct {
	// Width and Height are physical pixels.
	Width, Height int
	// PixelRatio is physical pixels per CSS pixel. Values <= 0 mean 1.
	PixelRatio float64
	Kind       BackendKind
}

// Empty reports whether the surface has no area.
func (s SurfaceDescriptor) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

func (s SurfaceDescriptor) pixelRatio() float64 {
	if s.PixelRatio > 0 {
		return s.PixelRatio
	}
	return 1
}

// Transform is the mapping from physical surface pixels to shader UV space.
type Transform struct {
	// Scale is physical pixels per world unit on each axis.
	Scale Vec2
	// Rotation in radians.
	Rotation float64
	// Offset in UV units.
	Offset Vec2
	Origin Vec2
	// World is the world size used for the mapping.
	World Vec2
	// Surface is the physical surface size.
	Surface    Vec2
	PixelRatio float64
	// Overflow is the scaled world size minus the surface size in pixels.
	// Positive components are cropped, negative ones are letterboxed.
	Overflow Vec2
	// Matrix maps a pixel position (top-left origin) to UV.
	Matrix Matrix

	empty bool
}

// Empty reports whether the surface had no area. Callers skip the frame.
func (t Transform) Empty() bool { return t.empty }

// ComputeTransform computes the surface to UV mapping for cfg.
// The result depends only on its arguments, bit for bit.
func ComputeTransform(cfg SizingConfig, surface SurfaceDescriptor) Transform {
	if surface.Empty() {
		return Transform{
			Scale:      Vec2{1, 1},
			World:      Vec2{1, 1},
			Origin:     cfg.Origin,
			PixelRatio: surface.pixelRatio(),
			Matrix:     Identity(),
			empty:      true,
		}
	}

	w, h := float64(surface.Width), float64(surface.Height)
	dpr := surface.pixelRatio()

	ww, wh := cfg.WorldWidth, cfg.WorldHeight
	if ww <= 0 {
		ww = w
	}
	if wh <= 0 {
		wh = h
	}

	var sx, sy float64
	switch cfg.Fit {
	case FitCover:
		sx = math.Max(w/ww, h/wh)
		sy = sx
	case FitFill:
		sx, sy = w/ww, h/wh
	case FitCrop:
		sx, sy = 1, 1
	case FitNativePixel:
		sx, sy = dpr, dpr
	default: // FitContain
		sx = math.Min(w/ww, h/wh)
		sy = sx
	}
	if cfg.Scale > 0 {
		sx *= cfg.Scale
		sy *= cfg.Scale
	}

	theta := cfg.Rotation * math.Pi / 180
	ox, oy := cfg.Origin[0], cfg.Origin[1]

	// pixel -> anchor-relative world units -> unrotated -> normalized -> uv
	m := Translate(ox-cfg.Offset[0], oy-cfg.Offset[1]).
		Multiply(Scale(1/ww, 1/wh)).
		Multiply(Rotate(-theta)).
		Multiply(Scale(1/sx, 1/sy)).
		Multiply(Translate(-ox*w, -oy*h))

	return Transform{
		Scale:      Vec2{sx, sy},
		Rotation:   theta,
		Offset:     cfg.Offset,
		Origin:     cfg.Origin,
		World:      Vec2{ww, wh},
		Surface:    Vec2{w, h},
		PixelRatio: dpr,
		Overflow:   Vec2{ww*sx - w, wh*sy - h},
		Matrix:     m,
	}
}

// Builtin sizing uniform names.
const (
	UniformResolution  = "u_resolution"
	UniformPixelRatio  = "u_pixelRatio"
	UniformWorldSize   = "u_worldSize"
	UniformUVScale     = "u_uvScale"
	UniformUVRotation  = "u_uvRotation"
	UniformUVOffset    = "u_uvOffset"
	UniformOrigin      = "u_origin"
	UniformUVTransform = "u_uvTransform"
)

// Uniforms returns the sizing uniforms as builtin entries.
func (t Transform) Uniforms() []Entry {
	return []Entry{
		{Name: UniformResolution, Value: t.Surface, Builtin: true},
		{Name: UniformPixelRatio, Value: Float(t.PixelRatio), Builtin: true},
		{Name: UniformWorldSize, Value: t.World, Builtin: true},
		{Name: UniformUVScale, Value: t.Scale, Builtin: true},
		{Name: UniformUVRotation, Value: Float(t.Rotation), Builtin: true},
		{Name: UniformUVOffset, Value: t.Offset, Builtin: true},
		{Name: UniformOrigin, Value: t.Origin, Builtin: true},
		{Name: UniformUVTransform, Value: t.Matrix.Mat3(), Builtin: true},
	}
}
