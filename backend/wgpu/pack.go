// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/shadermount"
)

// encode writes v into the uniform block at the member's offset and returns
// the byte range written.
func (m member) encode(block []byte, v shadermount.Value) (lo, hi uint32, err error) {
	if !m.accepts(v) {
		return 0, 0, fmt.Errorf("wgpu: cannot encode %v into %s (%v)", v.Kind(), m.decl.Name, m.decl.Kind)
	}
	var buf []byte
	switch x := v.(type) {
	case shadermount.Float:
		buf = f32s(float64(x))
	case shadermount.Int:
		buf = binary.LittleEndian.AppendUint32(nil, uint32(int32(x)))
	case shadermount.Bool:
		var b uint32
		if x {
			b = 1
		}
		buf = binary.LittleEndian.AppendUint32(nil, b)
	case shadermount.Vec2:
		buf = f32s(x[:]...)
	case shadermount.Vec3:
		buf = f32s(x[:]...)
	case shadermount.Vec4:
		buf = f32s(x[:]...)
	case shadermount.Mat3:
		// mat3x3<f32> columns are padded to 16 bytes.
		for c := 0; c < 3; c++ {
			buf = append(buf, f32s(x[3*c], x[3*c+1], x[3*c+2], 0)...)
		}
	case shadermount.Color:
		buf = premul(x)
	case shadermount.ColorList:
		buf = make([]byte, 0, int(m.stride)*m.decl.ArrayLen)
		for i := 0; i < m.decl.ArrayLen; i++ {
			var c []byte
			if i < len(x) {
				c = premul(x[i])
			} else {
				c = make([]byte, 16)
			}
			buf = append(buf, c...)
			if pad := int(m.stride) - len(c); pad > 0 {
				buf = append(buf, make([]byte, pad)...)
			}
		}
	default:
		return 0, 0, fmt.Errorf("wgpu: cannot encode %v into %s", v.Kind(), m.decl.Name)
	}

	lo, hi = m.offset, m.offset+uint32(len(buf))
	if int(hi) > len(block) {
		return 0, 0, fmt.Errorf("wgpu: %s: %d bytes at offset %d overflow the %d byte uniform block",
			m.decl.Name, len(buf), m.offset, len(block))
	}
	copy(block[lo:hi], buf)
	return lo, hi, nil
}

func (m member) accepts(v shadermount.Value) bool {
	d := m.decl
	switch v.Kind() {
	case shadermount.KindColor:
		return d.Kind == shadermount.KindVec4 && d.ArrayLen == 0
	case shadermount.KindColorList:
		return d.Kind == shadermount.KindVec4 && d.ArrayLen > 0
	default:
		return d.Kind == v.Kind() && d.ArrayLen == 0
	}
}

func f32s(vs ...float64) []byte {
	b := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v)))
	}
	return b
}

func premul(c shadermount.Color) []byte {
	p := c.Premultiplied()
	return f32s(float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3]))
}
