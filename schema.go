package shadermount

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// ParamType is the declared type of a shader parameter.
type ParamType string

// Parameter types.
const (
	ParamFloat  ParamType = "float"
	ParamInt    ParamType = "int"
	ParamBool   ParamType = "bool"
	ParamVec2   ParamType = "vec2"
	ParamColor  ParamType = "color"
	ParamColors ParamType = "colors"
	ParamImage  ParamType = "image"
)

// UniformPrefix is prepended to a parameter name to form its uniform name.
const UniformPrefix = "u_"

// UniformName returns the uniform bound to parameter p.
func UniformName(p string) string { return UniformPrefix + p }

// ParamDecl declares one typed parameter.
type ParamDecl struct {
	Name    string    `yaml:"name"`
	Type    ParamType `yaml:"type"`
	Default any       `yaml:"default,omitempty"`
	Min     *float64  `yaml:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty"`
	// MaxItems bounds a colors list. It is also the uniform array length.
	MaxItems int `yaml:"maxItems,omitempty"`
}

// Schema is the versioned parameter record of one shader. Wrapper input is
// validated against it with Bind; the runtime only sees the typed result.
type Schema struct {
	Name    string      `yaml:"name"`
	Version int         `yaml:"version"`
	Params  []ParamDecl `yaml:"params"`

	defaults Params
}

var paramNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ParseSchema decodes and validates a YAML schema.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the schema and resolves its defaults. Schemas built in Go
// must be validated before Bind.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSchema)
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Version < 0 {
		return fmt.Errorf("%w: %s: bad version %d", ErrInvalidSchema, s.Name, s.Version)
	}

	seen := make(map[string]bool, len(s.Params))
	defaults := make(Params, 0, len(s.Params))
	for i := range s.Params {
		d := &s.Params[i]
		if !paramNameRE.MatchString(d.Name) {
			return fmt.Errorf("%w: %s: bad parameter name %q", ErrInvalidSchema, s.Name, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidSchema, s.Name, d.Name)
		}
		seen[d.Name] = true

		switch d.Type {
		case ParamFloat, ParamInt, ParamBool, ParamVec2, ParamColor, ParamImage:
		case ParamColors:
			if d.MaxItems <= 0 {
				return fmt.Errorf("%w: %s.%s: colors needs maxItems > 0", ErrInvalidSchema, s.Name, d.Name)
			}
		default:
			return fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidSchema, s.Name, d.Name, d.Type)
		}
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return fmt.Errorf("%w: %s.%s: min > max", ErrInvalidSchema, s.Name, d.Name)
		}

		v, err := d.zero()
		if d.Default != nil {
			v, err = d.convert(d.Default, nil)
		}
		if err != nil {
			return fmt.Errorf("%w: %s.%s default: %v", ErrInvalidSchema, s.Name, d.Name, err)
		}
		defaults = append(defaults, Param{Name: d.Name, Type: d.Type, Value: v})
	}
	s.defaults = defaults
	return nil
}

// Decl returns the declaration of parameter name.
func (s *Schema) Decl(name string) (ParamDecl, bool) {
	for _, d := range s.Params {
		if d.Name == name {
			return d, true
		}
	}
	return ParamDecl{}, false
}

// Defaults returns the declared default of every parameter.
func (s *Schema) Defaults() Params {
	if s.defaults == nil && len(s.Params) > 0 {
		if err := s.Validate(); err != nil {
			return nil
		}
	}
	return slices.Clone(s.defaults)
}

// Bind validates wrapper input against the schema and returns typed
// parameters. Missing keys take their default. Unknown keys and values of
// the wrong type fail with ErrInvalidParam. A color that does not parse
// falls back to the declared default and is logged.
func (s *Schema) Bind(input map[string]any) (Params, error) {
	if s.defaults == nil && len(s.Params) > 0 {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	for k := range input {
		if _, ok := s.Decl(k); !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrInvalidParam, s.Name, k)
		}
	}

	out := make(Params, len(s.Params))
	for i, d := range s.Params {
		def := s.defaults[i]
		out[i] = def
		raw, ok := input[d.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := d.convert(raw, def.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidParam, s.Name, d.Name, err)
		}
		out[i].Value = v
	}
	return out, nil
}

// Uniforms returns the uniforms a program must declare to consume every
// parameter of the schema.
func (s *Schema) Uniforms() []UniformDecl {
	var decls []UniformDecl
	for _, d := range s.Params {
		name := UniformName(d.Name)
		switch d.Type {
		case ParamFloat:
			decls = append(decls, UniformDecl{Name: name, Kind: KindFloat})
		case ParamInt:
			decls = append(decls, UniformDecl{Name: name, Kind: KindInt})
		case ParamBool:
			decls = append(decls, UniformDecl{Name: name, Kind: KindBool})
		case ParamVec2:
			decls = append(decls, UniformDecl{Name: name, Kind: KindVec2})
		case ParamColor:
			decls = append(decls, UniformDecl{Name: name, Kind: KindVec4})
		case ParamColors:
			decls = append(decls,
				UniformDecl{Name: name, Kind: KindVec4, ArrayLen: d.MaxItems},
				UniformDecl{Name: name + CountSuffix, Kind: KindFloat})
		case ParamImage:
			decls = append(decls,
				UniformDecl{Name: name, Kind: KindTexture},
				UniformDecl{Name: name + AspectRatioSuffix, Kind: KindFloat})
		}
	}
	return decls
}

func (d *ParamDecl) zero() (any, error) {
	switch d.Type {
	case ParamFloat:
		return 0.0, nil
	case ParamInt:
		return 0, nil
	case ParamBool:
		return false, nil
	case ParamVec2:
		return Vec2{}, nil
	case ParamColor:
		return Transparent, nil
	case ParamColors:
		return ColorList{}, nil
	case ParamImage:
		return ImageSource{}, nil
	}
	return nil, fmt.Errorf("unknown type %q", d.Type)
}

// convert turns a raw wrapper value into the parameter's Go type.
// fallback is the value used for colors that fail to parse; nil makes such
// colors an error, which is how defaults are checked.
func (d *ParamDecl) convert(raw, fallback any) (any, error) {
	switch d.Type {
	case ParamFloat:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", raw)
		}
		return f, d.checkRange(f)

	case ParamInt:
		f, ok := toFloat(raw)
		if !ok || f != float64(int64(f)) {
			return nil, fmt.Errorf("want integer, got %v", raw)
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return nil, fmt.Errorf("%v overflows a 32-bit integer uniform", raw)
		}
		return int(f), d.checkRange(f)

	case ParamBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", raw)
		}
		return b, nil

	case ParamVec2:
		return toVec2(raw)

	case ParamColor:
		return d.convertColor(raw, fallback)

	case ParamColors:
		list, err := d.convertColors(raw, fallback)
		if err != nil {
			return nil, err
		}
		if len(list) > d.MaxItems {
			return nil, fmt.Errorf("%d colors exceed maxItems %d", len(list), d.MaxItems)
		}
		return list, nil

	case ParamImage:
		switch v := raw.(type) {
		case string:
			return ImageSource{URL: v}, nil
		case *Pixels:
			return ImageSource{Pixels: v}, nil
		case image.Image:
			return ImageSource{Pixels: PixelsFromImage(v)}, nil
		case ImageSource:
			return v, nil
		}
		return nil, fmt.Errorf("want URL, *Pixels or image.Image, got %T", raw)
	}
	return nil, fmt.Errorf("unknown type %q", d.Type)
}

func (d *ParamDecl) checkRange(f float64) error {
	if d.Min != nil && f < *d.Min {
		return fmt.Errorf("%v below min %v", f, *d.Min)
	}
	if d.Max != nil && f > *d.Max {
		return fmt.Errorf("%v above max %v", f, *d.Max)
	}
	return nil
}

func (d *ParamDecl) convertColor(raw, fallback any) (any, error) {
	switch v := raw.(type) {
	case Color:
		return v, nil
	case string:
		c, err := Normalize(v)
		if err == nil {
			return c, nil
		}
		if fallback == nil {
			return nil, err
		}
		Logger().Warn("shadermount: invalid color, using default",
			"param", d.Name, "input", v, "default", fallback)
		return fallback, nil
	}
	return nil, fmt.Errorf("want color string, got %T", raw)
}

func (d *ParamDecl) convertColors(raw, fallback any) (ColorList, error) {
	var items []any
	switch v := raw.(type) {
	case ColorList:
		return slices.Clone(v), nil
	case []Color:
		return slices.Clone(ColorList(v)), nil
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("want list of colors, got %T", raw)
	}

	list := make(ColorList, 0, len(items))
	for i, it := range items {
		var c Color
		switch v := it.(type) {
		case Color:
			c = v
		case string:
			var err error
			if c, err = Normalize(v); err != nil {
				if fallback == nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				Logger().Warn("shadermount: invalid color in list, using default list",
					"param", d.Name, "index", i, "input", v)
				return slices.Clone(fallback.(ColorList)), nil
			}
		default:
			return nil, fmt.Errorf("item %d: want color string, got %T", i, it)
		}
		list = append(list, c)
	}
	return list, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case Float:
		return float64(n), true
	case Int:
		return float64(n), true
	}
	return 0, false
}

func toVec2(v any) (Vec2, error) {
	switch x := v.(type) {
	case Vec2:
		return x, nil
	case [2]float64:
		return Vec2(x), nil
	case []float64:
		if len(x) == 2 {
			return Vec2{x[0], x[1]}, nil
		}
	case []any:
		if len(x) == 2 {
			a, ok1 := toFloat(x[0])
			b, ok2 := toFloat(x[1])
			if ok1 && ok2 {
				return Vec2{a, b}, nil
			}
		}
	}
	return Vec2{}, fmt.Errorf("want 2 numbers, got %v", v)
}

// ImageSource is the value of an image parameter: a URL-like reference
// loaded asynchronously, or pixels bound synchronously.
type ImageSource struct {
	URL    string
	Pixels *Pixels
}

// IsZero reports whether no image is set.
func (s ImageSource) IsZero() bool { return s.URL == "" && s.Pixels == nil }

// Param is one bound parameter.
type Param struct {
	Name  string
	Type  ParamType
	Value any
}

// Params are bound parameters in schema order.
type Params []Param

// Get returns the parameter called name.
func (p Params) Get(name string) (Param, bool) {
	for _, x := range p {
		if x.Name == name {
			return x, true
		}
	}
	return Param{}, false
}

// Shader is a catalog entry: canonical GLSL ES 3.00 fragment source, an
// optional WGSL program for the wgpu backend, and the parameter schema.
type Shader struct {
	Name   string
	Source string
	WGSL   string
	Schema *Schema
}

// shaderManifest is the on-disk form of a Shader.
type shaderManifest struct {
	Schema `yaml:",inline"`
	Source string `yaml:"source"`
	WGSL   string `yaml:"wgsl,omitempty"`
}

// LoadShader reads a YAML shader manifest. Its source and wgsl fields are
// paths relative to the manifest.
func LoadShader(path string) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m shaderManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidSchema, path, err)
	}
	if err := m.Schema.Validate(); err != nil {
		return nil, err
	}

	sh := &Shader{Name: m.Name, Schema: &m.Schema}
	dir := filepath.Dir(path)
	if m.Source != "" {
		src, err := os.ReadFile(filepath.Join(dir, m.Source))
		if err != nil {
			return nil, fmt.Errorf("read shader source: %w", err)
		}
		sh.Source = string(src)
	}
	if m.WGSL != "" {
		src, err := os.ReadFile(filepath.Join(dir, m.WGSL))
		if err != nil {
			return nil, fmt.Errorf("read wgsl source: %w", err)
		}
		sh.WGSL = string(src)
	}
	if sh.Source == "" && sh.WGSL == "" {
		return nil, fmt.Errorf("%w: %s: no shader source", ErrInvalidSchema, path)
	}
	return sh, nil
}
