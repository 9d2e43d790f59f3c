package shadermount

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the type of a uniform value or declaration.
type Kind uint8

// Uniform kinds.
const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindBool
	KindVec2
	KindVec3
	KindVec4
	KindMat3
	KindColor
	KindColorList
	KindTexture
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindFloat:     "float",
	KindInt:       "int",
	KindBool:      "bool",
	KindVec2:      "vec2",
	KindVec3:      "vec3",
	KindVec4:      "vec4",
	KindMat3:      "mat3",
	KindColor:     "color",
	KindColorList: "color list",
	KindTexture:   "sampler2D",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a uniform value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	equal(Value) bool
}

type (
	// Float is a float uniform.
	Float float64
	// Int is an int uniform.
	Int int32
	// Bool is a bool uniform.
	Bool bool
	// Vec2 is a vec2 uniform. It is also used for 2D points in this package.
	Vec2 [2]float64
	// Vec3 is a vec3 uniform.
	Vec3 [3]float64
	// Vec4 is a vec4 uniform.
	Vec4 [4]float64
	// Mat3 is a column-major mat3 uniform.
	Mat3 [9]float64
	// ColorList is a vec4 array uniform with a companion count uniform.
	ColorList []Color
)

func (Float) Kind() Kind     { return KindFloat }
func (Int) Kind() Kind       { return KindInt }
func (Bool) Kind() Kind      { return KindBool }
func (Vec2) Kind() Kind      { return KindVec2 }
func (Vec3) Kind() Kind      { return KindVec3 }
func (Vec4) Kind() Kind      { return KindVec4 }
func (Mat3) Kind() Kind      { return KindMat3 }
func (Color) Kind() Kind     { return KindColor }
func (ColorList) Kind() Kind { return KindColorList }

func (v Float) equal(o Value) bool { w, ok := o.(Float); return ok && v == w }
func (v Int) equal(o Value) bool   { w, ok := o.(Int); return ok && v == w }
func (v Bool) equal(o Value) bool  { w, ok := o.(Bool); return ok && v == w }
func (v Vec2) equal(o Value) bool  { w, ok := o.(Vec2); return ok && v == w }
func (v Vec3) equal(o Value) bool  { w, ok := o.(Vec3); return ok && v == w }
func (v Vec4) equal(o Value) bool  { w, ok := o.(Vec4); return ok && v == w }
func (v Mat3) equal(o Value) bool  { w, ok := o.(Mat3); return ok && v == w }
func (c Color) equal(o Value) bool { w, ok := o.(Color); return ok && c == w }

// equal compares lists element by element.
func (l ColorList) equal(o Value) bool {
	w, ok := o.(ColorList)
	return ok && slices.Equal(l, w)
}

// TextureBinding binds a texture to a sampler uniform. Bindings compare by
// identity: a new binding is always uploaded, the same binding never twice.
type TextureBinding struct {
	// Texture is nil until the source is available; backends bind a neutral
	// texture in its place.
	Texture Texture
	// Width and Height are the source dimensions in pixels.
	Width, Height int
}

// Kind returns KindTexture.
func (*TextureBinding) Kind() Kind { return KindTexture }

func (b *TextureBinding) equal(o Value) bool {
	w, ok := o.(*TextureBinding)
	return ok && b == w
}

// AspectRatio returns width/height of the source, or 1 if unknown.
func (b *TextureBinding) AspectRatio() float64 {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return 1
	}
	return float64(b.Width) / float64(b.Height)
}

// Entry is one uniform in a Snapshot.
type Entry struct {
	Name  string
	Value Value
	// Builtin marks runtime-provided uniforms (time, sizing). A program that
	// does not declare a builtin is not warned about it.
	Builtin bool
}

// Snapshot is an ordered set of uniform values keyed by name.
// Setting an existing name keeps its original position.
type Snapshot struct {
	entries []Entry
	index   map[string]int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{index: make(map[string]int)}
}

// Set stores a parameter value.
func (s *Snapshot) Set(name string, v Value) { s.set(Entry{Name: name, Value: v}) }

// SetBuiltin stores a runtime-provided value.
func (s *Snapshot) SetBuiltin(name string, v Value) {
	s.set(Entry{Name: name, Value: v, Builtin: true})
}

func (s *Snapshot) set(e Entry) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[e.Name]; ok {
		s.entries[i] = e
		return
	}
	s.index[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Get returns the value stored under name.
func (s *Snapshot) Get(name string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.entries[i].Value, true
}

// Delete removes name from the snapshot.
func (s *Snapshot) Delete(name string) {
	i, ok := s.index[name]
	if !ok {
		return
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	delete(s.index, name)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].Name] = j
	}
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the entries in insertion order. The slice is a copy.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	return slices.Clone(s.entries)
}

// Clone returns an independent copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	if s == nil {
		return c
	}
	c.entries = slices.Clone(s.entries)
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// UniformDecl describes a uniform declared by a compiled program.
type UniformDecl struct {
	Name string
	Kind Kind
	// ArrayLen is the declared array length, or 0 for non-arrays.
	ArrayLen int
}

// Slots maps uniform names to the program's declarations.
type Slots map[string]UniformDecl

// NewSlots indexes decls by name.
func NewSlots(decls []UniformDecl) Slots {
	s := make(Slots, len(decls))
	for _, d := range decls {
		s[d.Name] = d
	}
	return s
}

// Sorted returns the declarations ordered by name.
func (s Slots) Sorted() []UniformDecl {
	out := make([]UniformDecl, 0, len(s))
	for _, d := range s {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b UniformDecl) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// accepts reports whether v can be uploaded into a slot declared as d.
func (d UniformDecl) accepts(v Value) bool {
	switch v.Kind() {
	case KindColor:
		return d.Kind == KindVec4 && d.ArrayLen == 0
	case KindColorList:
		return d.Kind == KindVec4 && d.ArrayLen > 0
	default:
		return d.Kind == v.Kind() && d.ArrayLen == 0
	}
}

// CountSuffix names the companion uniform holding a list's active length.
const CountSuffix = "Count"

// AspectRatioSuffix names the companion uniform holding a texture's aspect
// ratio.
const AspectRatioSuffix = "AspectRatio"
