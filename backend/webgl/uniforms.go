// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webgl

import (
	"fmt"

	"github.com/gogpu/shadermount"
)

// vertexSource draws a full-surface triangle.
const vertexSource = `#version 300 es
void main() {
    vec2 p = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2));
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
`

// uniformCall is one gl.uniform* invocation. Exactly one of floats and ints
// is set.
type uniformCall struct {
	fn     string
	floats []float32
	ints   []int32
}

// vector reports whether fn takes a typed array rather than scalars.
func (c uniformCall) vector() bool {
	return c.fn == "uniform4fv" || c.fn == "uniformMatrix3fv"
}

// callFor returns the GL call that uploads v into a uniform declared as d.
func callFor(d shadermount.UniformDecl, v shadermount.Value) (uniformCall, error) {
	mismatch := func() (uniformCall, error) {
		return uniformCall{}, fmt.Errorf("%w: %s is %v, got %v", shadermount.ErrUniformType, d.Name, d.Kind, v.Kind())
	}
	if d.ArrayLen > 0 {
		list, ok := v.(shadermount.ColorList)
		if !ok || d.Kind != shadermount.KindVec4 {
			return mismatch()
		}
		fs := make([]float32, 4*d.ArrayLen)
		for i, c := range list[:min(len(list), d.ArrayLen)] {
			pm := c.Premultiplied()
			copy(fs[4*i:], pm[:])
		}
		return uniformCall{fn: "uniform4fv", floats: fs}, nil
	}

	switch x := v.(type) {
	case shadermount.Float:
		if d.Kind == shadermount.KindFloat {
			return uniformCall{fn: "uniform1f", floats: []float32{float32(x)}}, nil
		}
	case shadermount.Int:
		if d.Kind == shadermount.KindInt {
			return uniformCall{fn: "uniform1i", ints: []int32{int32(x)}}, nil
		}
	case shadermount.Bool:
		if d.Kind == shadermount.KindBool {
			var b int32
			if x {
				b = 1
			}
			return uniformCall{fn: "uniform1i", ints: []int32{b}}, nil
		}
	case shadermount.Vec2:
		if d.Kind == shadermount.KindVec2 {
			return uniformCall{fn: "uniform2f", floats: f32s(x[:])}, nil
		}
	case shadermount.Vec3:
		if d.Kind == shadermount.KindVec3 {
			return uniformCall{fn: "uniform3f", floats: f32s(x[:])}, nil
		}
	case shadermount.Vec4:
		if d.Kind == shadermount.KindVec4 {
			return uniformCall{fn: "uniform4f", floats: f32s(x[:])}, nil
		}
	case shadermount.Color:
		if d.Kind == shadermount.KindVec4 {
			pm := x.Premultiplied()
			return uniformCall{fn: "uniform4f", floats: pm[:]}, nil
		}
	case shadermount.Mat3:
		if d.Kind == shadermount.KindMat3 {
			return uniformCall{fn: "uniformMatrix3fv", floats: f32s(x[:])}, nil
		}
	}
	return mismatch()
}

// countCall returns the call for the companion count of a list update.
func countCall(d shadermount.UniformDecl, n int) (uniformCall, error) {
	switch d.Kind {
	case shadermount.KindFloat:
		return uniformCall{fn: "uniform1f", floats: []float32{float32(n)}}, nil
	case shadermount.KindInt:
		return uniformCall{fn: "uniform1i", ints: []int32{int32(n)}}, nil
	}
	return uniformCall{}, fmt.Errorf("%w: count %s must be float or int", shadermount.ErrUniformType, d.Name)
}

func f32s(vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		out[i] = float32(v)
	}
	return out
}
