// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package skia

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/shadermount"
)

// slot is a uniform of the effect with the kind it accepts.
type slot struct {
	Uniform
	decl shadermount.UniformDecl
}

// Program is a runtime effect with its uniform data.
type Program struct {
	ctx      *Context
	name     string
	effect   Effect
	uniforms map[string]slot
	data     []byte
	released bool
}

func newProgram(c *Context, src shadermount.ProgramSource, e Effect) (*Program, error) {
	declared := shadermount.NewSlots(src.Uniforms)
	p := &Program{ctx: c, name: src.Name, effect: e, uniforms: make(map[string]slot)}
	size := 0
	for _, u := range e.Uniforms() {
		decl, err := declFor(u, declared)
		if err != nil {
			return nil, err
		}
		p.uniforms[u.Name] = slot{Uniform: u, decl: decl}
		size = max(size, u.Offset+u.Size())
	}
	p.data = make([]byte, size)
	return p, nil
}

// declFor returns the shadermount declaration of an effect uniform. A GLSL
// bool becomes an SkSL int and keeps accepting Bool values.
func declFor(u Uniform, declared shadermount.Slots) (shadermount.UniformDecl, error) {
	d := shadermount.UniformDecl{Name: u.Name, ArrayLen: u.Count}
	switch u.Type {
	case Float:
		d.Kind = shadermount.KindFloat
	case Float2:
		d.Kind = shadermount.KindVec2
	case Float3:
		d.Kind = shadermount.KindVec3
	case Float4:
		d.Kind = shadermount.KindVec4
	case Float3x3:
		d.Kind = shadermount.KindMat3
	case Int:
		d.Kind = shadermount.KindInt
		if decl, ok := declared[u.Name]; ok && decl.Kind == shadermount.KindBool {
			d.Kind = shadermount.KindBool
		}
	}
	if u.Count > 0 && d.Kind != shadermount.KindVec4 {
		return d, fmt.Errorf("skia: %s: arrays of %s are not supported", u.Name, u.Type)
	}
	return d, nil
}

// Slots implements shadermount.Program.
func (p *Program) Slots() shadermount.Slots {
	s := make(shadermount.Slots, len(p.uniforms))
	for name, u := range p.uniforms {
		s[name] = u.decl
	}
	return s
}

// Upload implements shadermount.Program. Uniform data is kept on the CPU
// and handed to the surface with every draw.
func (p *Program) Upload(u shadermount.Update) error {
	if p.ctx.Lost() {
		return shadermount.ErrContextLost
	}
	s, ok := p.uniforms[u.Name]
	if !ok {
		return &shadermount.UnknownUniformError{Name: u.Name}
	}
	words, err := encode(s, u.Value)
	if err != nil {
		return err
	}
	if u.Count == nil {
		p.write(s, words)
		return nil
	}

	// The count is checked before either slot is written.
	cs, ok := p.uniforms[u.Count.Name]
	if !ok {
		return &shadermount.UnknownUniformError{Name: u.Count.Name}
	}
	var count shadermount.Value = shadermount.Int(u.CountValue())
	if cs.decl.Kind == shadermount.KindFloat {
		count = shadermount.Float(u.CountValue())
	}
	countWords, err := encode(cs, count)
	if err != nil {
		return err
	}
	p.write(s, words)
	p.write(cs, countWords)
	return nil
}

// encode converts v into the 32-bit words of slot s.
func encode(s slot, v shadermount.Value) ([]uint32, error) {
	var words []uint32
	switch x := v.(type) {
	case shadermount.Float:
		words = floats(float64(x))
	case shadermount.Int:
		words = []uint32{uint32(x)}
	case shadermount.Bool:
		words = []uint32{0}
		if x {
			words[0] = 1
		}
	case shadermount.Vec2:
		words = floats(x[:]...)
	case shadermount.Vec3:
		words = floats(x[:]...)
	case shadermount.Vec4:
		words = floats(x[:]...)
	case shadermount.Mat3:
		words = floats(x[:]...)
	case shadermount.Color:
		pm := x.Premultiplied()
		words = floats(float64(pm[0]), float64(pm[1]), float64(pm[2]), float64(pm[3]))
	case shadermount.ColorList:
		words = make([]uint32, 4*s.Count)
		for i, c := range x[:min(len(x), s.Count)] {
			pm := c.Premultiplied()
			copy(words[4*i:], floats(float64(pm[0]), float64(pm[1]), float64(pm[2]), float64(pm[3])))
		}
	}
	if words == nil || 4*len(words) != s.Size() || !kindMatches(s.decl, v) {
		return nil, fmt.Errorf("%w: %s is %s, got %v", shadermount.ErrUniformType, s.Name, s.Type, v.Kind())
	}
	return words, nil
}

func (p *Program) write(s slot, words []uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(p.data[s.Offset+4*i:], w)
	}
}

func kindMatches(d shadermount.UniformDecl, v shadermount.Value) bool {
	switch v.Kind() {
	case shadermount.KindColor:
		return d.Kind == shadermount.KindVec4 && d.ArrayLen == 0
	case shadermount.KindColorList:
		return d.Kind == shadermount.KindVec4 && d.ArrayLen > 0
	default:
		return d.Kind == v.Kind() && d.ArrayLen == 0
	}
}

func floats(vs ...float64) []uint32 {
	w := make([]uint32, len(vs))
	for i, v := range vs {
		w[i] = math.Float32bits(float32(v))
	}
	return w
}

// Draw implements shadermount.Program.
func (p *Program) Draw() error {
	if p.released {
		return fmt.Errorf("skia: draw with released program %q", p.name)
	}
	if err := p.ctx.surface.Draw(p.effect, p.data); err != nil {
		return p.ctx.check(fmt.Errorf("skia: draw: %w", err))
	}
	return nil
}

// Release implements shadermount.Program. Idempotent.
func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.effect.Release()
}
