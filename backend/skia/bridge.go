// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package skia

import (
	"fmt"

	"github.com/gogpu/shadermount"
)

// Bridge is the host's Skia binding.
type Bridge interface {
	// Device identifies the GPU context. Bridges sharing a device return
	// equal values.
	Device() any

	// NewSurface creates a drawable of w×h pixels.
	NewSurface(w, h int) (Surface, error)

	// MakeEffect compiles SkSL into a runtime effect. The error text is the
	// Skia diagnostic.
	MakeEffect(sksl string) (Effect, error)

	// MakeImage uploads un-premultiplied RGBA8 pixels.
	MakeImage(px *shadermount.Pixels) (Image, error)
}

// Surface is a drawable bound to a host view.
type Surface interface {
	Resize(w, h int) error
	// Clear fills the surface with a premultiplied color.
	Clear(rgba [4]float32) error
	// Draw fills the surface with the effect. uniforms is laid out as the
	// effect's Uniforms describe.
	Draw(e Effect, uniforms []byte) error
	// Lost reports whether the GPU context was abandoned.
	Lost() bool
	Release()
}

// Effect is a compiled runtime effect.
type Effect interface {
	// Uniforms describe the effect's uniform data, as
	// SkRuntimeEffect::uniforms does.
	Uniforms() []Uniform
	Release()
}

// Image is an uploaded texture.
type Image interface {
	Width() int
	Height() int
	Release()
}

// UniformType is the SkSL type of a uniform.
type UniformType uint8

// Uniform types.
const (
	Float UniformType = iota
	Float2
	Float3
	Float4
	Float2x2
	Float3x3
	Float4x4
	Int
	Int2
	Int3
	Int4
)

// size returns the packed size of one element in bytes.
func (t UniformType) size() int {
	switch t {
	case Float, Int:
		return 4
	case Float2, Int2:
		return 8
	case Float3, Int3:
		return 12
	case Float4, Int4, Float2x2:
		return 16
	case Float3x3:
		return 36
	case Float4x4:
		return 64
	}
	return 0
}

func (t UniformType) String() string {
	switch t {
	case Float:
		return "float"
	case Float2:
		return "float2"
	case Float3:
		return "float3"
	case Float4:
		return "float4"
	case Float2x2:
		return "float2x2"
	case Float3x3:
		return "float3x3"
	case Float4x4:
		return "float4x4"
	case Int:
		return "int"
	case Int2:
		return "int2"
	case Int3:
		return "int3"
	case Int4:
		return "int4"
	}
	return fmt.Sprintf("UniformType(%d)", t)
}

// Uniform is one uniform of an effect.
type Uniform struct {
	Name   string
	Type   UniformType
	Offset int
	// Count is the array length, or 0 for non-arrays.
	Count int
}

// Size returns the packed size of the uniform in bytes.
func (u Uniform) Size() int { return u.Type.size() * max(u.Count, 1) }
