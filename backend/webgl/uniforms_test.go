// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package webgl

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/shadermount"
)

func TestCallFor(t *testing.T) {
	decl := func(k shadermount.Kind, n int) shadermount.UniformDecl {
		return shadermount.UniformDecl{Name: "u", Kind: k, ArrayLen: n}
	}
	tests := []struct {
		name   string
		decl   shadermount.UniformDecl
		value  shadermount.Value
		fn     string
		floats []float32
		ints   []int32
	}{
		{"float", decl(shadermount.KindFloat, 0), shadermount.Float(0.25), "uniform1f", []float32{0.25}, nil},
		{"int", decl(shadermount.KindInt, 0), shadermount.Int(7), "uniform1i", nil, []int32{7}},
		{"bool", decl(shadermount.KindBool, 0), shadermount.Bool(true), "uniform1i", nil, []int32{1}},
		{"vec2", decl(shadermount.KindVec2, 0), shadermount.Vec2{1, 2}, "uniform2f", []float32{1, 2}, nil},
		{"color", decl(shadermount.KindVec4, 0), shadermount.Color{R: 1, G: 1, A: 0.5}, "uniform4f", []float32{0.5, 0.5, 0, 0.5}, nil},
		{"mat3", decl(shadermount.KindMat3, 0), shadermount.Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}, "uniformMatrix3fv", []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, nil},
		{
			"list", decl(shadermount.KindVec4, 2), shadermount.ColorList{{R: 1, A: 1}},
			"uniform4fv", []float32{1, 0, 0, 1, 0, 0, 0, 0}, nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := callFor(tt.decl, tt.value)
			if err != nil {
				t.Fatal(err)
			}
			if c.fn != tt.fn || !slices.Equal(c.floats, tt.floats) || !slices.Equal(c.ints, tt.ints) {
				t.Errorf("call = %+v, want %s %v %v", c, tt.fn, tt.floats, tt.ints)
			}
		})
	}
}

func TestCallForMismatch(t *testing.T) {
	tests := []struct {
		name  string
		decl  shadermount.UniformDecl
		value shadermount.Value
	}{
		{"float into vec2", shadermount.UniformDecl{Name: "u", Kind: shadermount.KindVec2}, shadermount.Float(1)},
		{"list into scalar", shadermount.UniformDecl{Name: "u", Kind: shadermount.KindVec4}, shadermount.ColorList{}},
		{"color into array", shadermount.UniformDecl{Name: "u", Kind: shadermount.KindVec4, ArrayLen: 4}, shadermount.Color{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := callFor(tt.decl, tt.value); !errors.Is(err, shadermount.ErrUniformType) {
				t.Errorf("err = %v, want ErrUniformType", err)
			}
		})
	}
}

func TestCountCall(t *testing.T) {
	c, err := countCall(shadermount.UniformDecl{Name: "n", Kind: shadermount.KindInt}, 3)
	if err != nil || c.fn != "uniform1i" || c.ints[0] != 3 {
		t.Errorf("int count = %+v, %v", c, err)
	}
	c, err = countCall(shadermount.UniformDecl{Name: "n", Kind: shadermount.KindFloat}, 3)
	if err != nil || c.fn != "uniform1f" || c.floats[0] != 3 {
		t.Errorf("float count = %+v, %v", c, err)
	}
	if _, err := countCall(shadermount.UniformDecl{Name: "n", Kind: shadermount.KindVec2}, 3); err == nil {
		t.Error("vec2 count accepted")
	}
}
