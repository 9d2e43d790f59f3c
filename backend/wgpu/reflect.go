// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/shadermount"
)

// member is one field of the uniform block.
type member struct {
	decl   shadermount.UniformDecl
	offset uint32
	// stride is the array stride, 0 for non-arrays.
	stride uint32
	// scalar is the element scalar kind, used to encode numbers.
	scalar ir.ScalarKind
}

// textureBinding is a texture_2d global.
type textureBinding struct {
	name    string
	binding uint32
}

// layout is the resource interface of a WGSL program.
type layout struct {
	fragment   string
	vertex     string
	hasVertex  bool
	uniformBuf *uint32 // binding of the uniform block
	blockSize  uint32
	members    map[string]member
	textures   []textureBinding
	samplers   []uint32
}

// slots returns the declared uniforms.
func (l *layout) slots() shadermount.Slots {
	s := make(shadermount.Slots, len(l.members)+len(l.textures))
	for name, m := range l.members {
		s[name] = m.decl
	}
	for _, t := range l.textures {
		s[t.name] = shadermount.UniformDecl{Name: t.name, Kind: shadermount.KindTexture}
	}
	return s
}

// reflect parses and validates WGSL and returns its layout. Diagnostics are
// returned as the error text.
func reflect(src string) (*layout, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, err
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, err
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, err
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Message
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}

	l := &layout{members: make(map[string]member)}
	for _, ep := range mod.EntryPoints {
		switch ep.Stage {
		case ir.StageFragment:
			if l.fragment == "" {
				l.fragment = ep.Name
			}
		case ir.StageVertex:
			if !l.hasVertex {
				l.hasVertex = true
				l.vertex = ep.Name
			}
		}
	}
	if l.fragment == "" {
		return nil, errors.New("no @fragment entry point")
	}

	for _, gv := range mod.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		if gv.Binding.Group != 0 {
			return nil, fmt.Errorf("%s: only @group(0) is supported", gv.Name)
		}
		switch inner := mod.Types[gv.Type].Inner.(type) {
		case ir.StructType:
			if gv.Space != ir.SpaceUniform {
				return nil, fmt.Errorf("%s: storage buffers are not supported", gv.Name)
			}
			if l.uniformBuf != nil {
				return nil, fmt.Errorf("%s: only one uniform block is supported", gv.Name)
			}
			b := gv.Binding.Binding
			l.uniformBuf = &b
			l.blockSize = align16(inner.Span)
			for _, m := range inner.Members {
				mem, err := reflectMember(mod, m)
				if err != nil {
					return nil, err
				}
				l.members[m.Name] = mem
			}
		case ir.ImageType:
			l.textures = append(l.textures, textureBinding{name: gv.Name, binding: gv.Binding.Binding})
		case ir.SamplerType:
			l.samplers = append(l.samplers, gv.Binding.Binding)
		default:
			return nil, fmt.Errorf("%s: unsupported binding type %T", gv.Name, inner)
		}
	}
	return l, nil
}

func reflectMember(mod *ir.Module, m ir.StructMember) (member, error) {
	mem := member{decl: shadermount.UniformDecl{Name: m.Name}, offset: m.Offset}
	switch t := mod.Types[m.Type].Inner.(type) {
	case ir.ScalarType:
		mem.scalar = t.Kind
		switch t.Kind {
		case ir.ScalarFloat:
			mem.decl.Kind = shadermount.KindFloat
		case ir.ScalarSint:
			mem.decl.Kind = shadermount.KindInt
		case ir.ScalarUint:
			mem.decl.Kind = shadermount.KindBool
		}
	case ir.VectorType:
		mem.scalar = t.Scalar.Kind
		if t.Scalar.Kind != ir.ScalarFloat {
			break
		}
		switch t.Size {
		case ir.Vec2:
			mem.decl.Kind = shadermount.KindVec2
		case ir.Vec3:
			mem.decl.Kind = shadermount.KindVec3
		case ir.Vec4:
			mem.decl.Kind = shadermount.KindVec4
		}
	case ir.MatrixType:
		mem.scalar = t.Scalar.Kind
		if t.Columns == ir.Vec3 && t.Rows == ir.Vec3 && t.Scalar.Kind == ir.ScalarFloat {
			mem.decl.Kind = shadermount.KindMat3
		}
	case ir.ArrayType:
		v, ok := mod.Types[t.Base].Inner.(ir.VectorType)
		if !ok || v.Size != ir.Vec4 || v.Scalar.Kind != ir.ScalarFloat || t.Size.Constant == nil {
			return mem, fmt.Errorf("%s: only fixed-size array<vec4<f32>, N> uniforms are supported", m.Name)
		}
		mem.scalar = ir.ScalarFloat
		mem.decl.Kind = shadermount.KindVec4
		mem.decl.ArrayLen = int(*t.Size.Constant)
		mem.stride = t.Stride
		if mem.stride == 0 {
			mem.stride = 16
		}
	}
	// Members of other types stay KindInvalid; values sent to them are
	// rejected as type mismatches.
	return mem, nil
}

func align16(n uint32) uint32 { return (n + 15) &^ 15 }
