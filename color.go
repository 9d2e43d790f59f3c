package shadermount

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/shadermount/internal/cache"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
)

// Color is an sRGB color with each channel in [0, 1].
// Channels are stored un-premultiplied; see [Color.Premultiplied].
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	Black       = Color{R: 0, G: 0, B: 0, A: 1}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
	Transparent = Color{}
)

// Premultiplied returns the color packed for GPU upload, with RGB scaled by
// alpha.
func (c Color) Premultiplied() [4]float32 {
	return [4]float32{
		float32(c.R * c.A),
		float32(c.G * c.A),
		float32(c.B * c.A),
		float32(c.A),
	}
}

// Lerp performs linear interpolation between two colors.
func (c Color) Lerp(other Color, t float64) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// String formats the color as CSS color(srgb r g b / a). The channels use the
// shortest representation that parses back to the same float64, so
// Normalize(c.String()) returns c exactly.
func (c Color) String() string {
	var sb strings.Builder
	sb.WriteString("color(srgb ")
	sb.WriteString(formatChannel(c.R))
	sb.WriteByte(' ')
	sb.WriteString(formatChannel(c.G))
	sb.WriteByte(' ')
	sb.WriteString(formatChannel(c.B))
	sb.WriteString(" / ")
	sb.WriteString(formatChannel(c.A))
	sb.WriteByte(')')
	return sb.String()
}

func formatChannel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// normalized is a memoized Normalize result.
type normalized struct {
	color Color
	err   error
}

var colorMemo = cache.NewMemo[string, normalized](512)

// Normalize parses a color string into a Color.
//
// Accepted forms:
//   - hex: #rgb, #rgba, #rrggbb, #rrggbbaa
//   - rgb()/rgba() with 0-255 numbers or percentages, comma or space syntax
//   - hsl()/hsla() with deg, turn, rad or grad hue units
//   - hwb(), oklch()
//   - color(srgb r g b / a)
//   - transparent and the SVG 1.1 named colors (case-insensitive)
//
// Unparsable input fails with an error wrapping [ErrInvalidColorFormat].
// Callers substitute a default; see [NormalizeOr]. Results are memoized.
func Normalize(s string) (Color, error) {
	r := colorMemo.GetOrCompute(s, func(s string) normalized {
		c, err := parseColor(s)
		return normalized{color: c, err: err}
	})
	return r.color, r.err
}

// NormalizeOr returns the parsed color, or fallback if s is invalid.
func NormalizeOr(s string, fallback Color) Color {
	c, err := Normalize(s)
	if err != nil {
		return fallback
	}
	return c
}

// MustNormalize is like Normalize but panics on invalid input.
// It is intended for package-level color constants.
func MustNormalize(s string) Color {
	c, err := Normalize(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseColor(input string) (Color, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty string", ErrInvalidColorFormat)
	}

	var (
		c   Color
		err error
	)
	switch {
	case s[0] == '#':
		c, err = parseHexColor(s[1:])
	case strings.HasSuffix(s, ")"):
		c, err = parseFunctional(strings.ToLower(s))
	default:
		c, err = parseNamed(s)
	}
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, input, err)
	}
	return c.clamped(), nil
}

func (c Color) clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// clamp01 restricts a value to [0, 1]. NaN maps to 0.
func clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func parseHexColor(hex string) (Color, error) {
	digits := make([]uint32, len(hex))
	for i := 0; i < len(hex); i++ {
		d, ok := hexDigit(hex[i])
		if !ok {
			return Color{}, fmt.Errorf("bad hex digit %q", hex[i])
		}
		digits[i] = d
	}

	var r, g, b, a uint32
	a = 255
	switch len(hex) {
	case 3: // RGB
		r, g, b = digits[0]*17, digits[1]*17, digits[2]*17
	case 4: // RGBA
		r, g, b, a = digits[0]*17, digits[1]*17, digits[2]*17, digits[3]*17
	case 6: // RRGGBB
		r, g, b = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
	case 8: // RRGGBBAA
		r, g, b = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		a = digits[6]<<4 | digits[7]
	default:
		return Color{}, fmt.Errorf("hex color must have 3, 4, 6 or 8 digits, got %d", len(hex))
	}

	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c - 'a' + 10), true
	case 'A' <= c && c <= 'F':
		return uint32(c - 'A' + 10), true
	}
	return 0, false
}

func parseNamed(s string) (Color, error) {
	name := cases.Fold().String(s)
	if name == "transparent" {
		return Transparent, nil
	}
	rgba, ok := colornames.Map[name]
	if !ok {
		return Color{}, fmt.Errorf("unknown color name")
	}
	return Color{
		R: float64(rgba.R) / 255,
		G: float64(rgba.G) / 255,
		B: float64(rgba.B) / 255,
		A: float64(rgba.A) / 255,
	}, nil
}

// parseFunctional handles name(args) forms. s is lower case.
func parseFunctional(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return Color{}, fmt.Errorf("missing '('")
	}
	fn := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]

	if fn == "color" {
		return parseColorFunc(body)
	}

	args, alpha, err := splitArgs(body)
	if err != nil {
		return Color{}, err
	}
	if len(args) != 3 {
		return Color{}, fmt.Errorf("%s() needs 3 components, got %d", fn, len(args))
	}

	var c colorful.Color
	switch fn {
	case "rgb", "rgba":
		var ch [3]float64
		for i, a := range args {
			if ch[i], err = parseRGBChannel(a); err != nil {
				return Color{}, err
			}
		}
		c = colorful.Color{R: ch[0], G: ch[1], B: ch[2]}
	case "hsl", "hsla":
		h, s, l, err := parseHueTriple(args)
		if err != nil {
			return Color{}, err
		}
		c = colorful.Hsl(h, clamp01(s), clamp01(l))
	case "hwb":
		h, w, b, err := parseHueTriple(args)
		if err != nil {
			return Color{}, err
		}
		c = hwb(h, clamp01(w), clamp01(b))
	case "oklch":
		c, err = parseOkLch(args)
		if err != nil {
			return Color{}, err
		}
	default:
		return Color{}, fmt.Errorf("unknown color function %q", fn)
	}

	a := 1.0
	if alpha != "" {
		if a, err = parseAlpha(alpha); err != nil {
			return Color{}, err
		}
	}
	return Color{R: c.R, G: c.G, B: c.B, A: a}, nil
}

// parseColorFunc handles color(srgb r g b [/ a]).
func parseColorFunc(body string) (Color, error) {
	args, alpha, err := splitArgs(body)
	if err != nil {
		return Color{}, err
	}
	if len(args) != 4 || args[0] != "srgb" {
		return Color{}, fmt.Errorf("color() supports only srgb with 3 components")
	}
	var ch [3]float64
	for i, a := range args[1:] {
		if ch[i], err = parseUnitChannel(a); err != nil {
			return Color{}, err
		}
	}
	a := 1.0
	if alpha != "" {
		if a, err = parseAlpha(alpha); err != nil {
			return Color{}, err
		}
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

// splitArgs splits a functional body into components and an optional alpha.
// Both legacy "a, b, c, d" and modern "a b c / d" syntax are accepted.
func splitArgs(body string) (args []string, alpha string, err error) {
	if strings.Contains(body, ",") {
		if strings.Contains(body, "/") {
			return nil, "", fmt.Errorf("mixed comma and slash syntax")
		}
		parts := strings.Split(body, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, "", fmt.Errorf("empty component")
			}
			args = append(args, p)
		}
		if len(args) == 4 {
			return args[:3], args[3], nil
		}
		return args, "", nil
	}

	main, alpha, hasAlpha := strings.Cut(body, "/")
	if hasAlpha {
		alpha = strings.TrimSpace(alpha)
		if alpha == "" || strings.ContainsAny(alpha, " \t/") {
			return nil, "", fmt.Errorf("bad alpha component")
		}
	}
	args = strings.Fields(main)
	// srgb prefix plus three channels is the color() layout.
	if !hasAlpha && len(args) == 4 && args[0] != "srgb" {
		return args[:3], args[3], nil
	}
	return args, alpha, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// parsePercentOr parses "p%" as p/100, or a plain number divided by scale.
func parsePercentOr(s string, scale float64) (float64, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := parseNumber(p)
		return v / 100, err
	}
	v, err := parseNumber(s)
	return v / scale, err
}

func parseRGBChannel(s string) (float64, error) { return parsePercentOr(s, 255) }

func parseUnitChannel(s string) (float64, error) { return parsePercentOr(s, 1) }

func parseAlpha(s string) (float64, error) {
	v, err := parsePercentOr(s, 1)
	return clamp01(v), err
}

// parseHue returns a hue in degrees normalized to [0, 360).
func parseHue(s string) (float64, error) {
	var (
		v   float64
		err error
	)
	switch {
	case strings.HasSuffix(s, "deg"):
		v, err = parseNumber(strings.TrimSuffix(s, "deg"))
	case strings.HasSuffix(s, "grad"):
		v, err = parseNumber(strings.TrimSuffix(s, "grad"))
		v *= 0.9
	case strings.HasSuffix(s, "rad"):
		v, err = parseNumber(strings.TrimSuffix(s, "rad"))
		v *= 180 / math.Pi
	case strings.HasSuffix(s, "turn"):
		v, err = parseNumber(strings.TrimSuffix(s, "turn"))
		v *= 360
	default:
		v, err = parseNumber(s)
	}
	if err != nil {
		return 0, err
	}
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v, nil
}

// parseHueTriple parses "h a% b%" where a and b may also be plain numbers
// on a 0-100 scale.
func parseHueTriple(args []string) (h, a, b float64, err error) {
	if h, err = parseHue(args[0]); err != nil {
		return 0, 0, 0, err
	}
	if a, err = parsePercentOr(args[1], 100); err != nil {
		return 0, 0, 0, err
	}
	if b, err = parsePercentOr(args[2], 100); err != nil {
		return 0, 0, 0, err
	}
	return h, a, b, nil
}

// hwb converts hue/whiteness/blackness through HSV.
func hwb(h, w, b float64) colorful.Color {
	if w+b >= 1 {
		gray := w / (w + b)
		return colorful.Color{R: gray, G: gray, B: gray}
	}
	v := 1 - b
	s := 1 - w/v
	return colorful.Hsv(h, s, v)
}

// parseOkLch parses "L C H". L is 0-1 or a percentage, C is absolute or a
// percentage of 0.4. Out-of-gamut results are clamped to sRGB.
func parseOkLch(args []string) (colorful.Color, error) {
	l, err := parsePercentOr(args[0], 1)
	if err != nil {
		return colorful.Color{}, err
	}
	var chroma float64
	if p, ok := strings.CutSuffix(args[1], "%"); ok {
		v, err := parseNumber(p)
		if err != nil {
			return colorful.Color{}, err
		}
		chroma = v / 100 * 0.4
	} else if chroma, err = parseNumber(args[1]); err != nil {
		return colorful.Color{}, err
	}
	h, err := parseHue(args[2])
	if err != nil {
		return colorful.Color{}, err
	}
	return colorful.OkLch(clamp01(l), math.Max(chroma, 0), h).Clamped(), nil
}
