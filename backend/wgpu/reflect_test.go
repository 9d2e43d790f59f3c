// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"strings"
	"testing"

	"github.com/gogpu/shadermount"
)

const testWGSL = `
struct Uniforms {
    u_time: f32,
    u_resolution: vec2<f32>,
    u_tint: vec4<f32>,
    u_colors: array<vec4<f32>, 4>,
    u_colorsCount: f32,
    u_steps: i32,
    u_invert: u32,
    u_uvTransform: mat3x3<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var u_image: texture_2d<f32>;
@group(0) @binding(2) var u_sampler: sampler;

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    let uv = pos.xy / u.u_resolution;
    let c = textureSample(u_image, u_sampler, uv);
    return c * u.u_tint * (0.5 + 0.5 * sin(u.u_time));
}
`

func TestReflect(t *testing.T) {
	l, err := reflect(testWGSL)
	if err != nil {
		t.Fatalf("reflect: %v", err)
	}
	if l.fragment != "fs_main" {
		t.Errorf("fragment = %q, want fs_main", l.fragment)
	}
	if l.hasVertex {
		t.Error("hasVertex = true for a fragment-only program")
	}
	if l.uniformBuf == nil || *l.uniformBuf != 0 {
		t.Fatalf("uniform binding = %v, want 0", l.uniformBuf)
	}
	if l.blockSize%16 != 0 {
		t.Errorf("blockSize = %d, not 16-byte aligned", l.blockSize)
	}

	tests := []struct {
		name     string
		kind     shadermount.Kind
		arrayLen int
		offset   uint32
	}{
		{"u_time", shadermount.KindFloat, 0, 0},
		{"u_resolution", shadermount.KindVec2, 0, 8},
		{"u_tint", shadermount.KindVec4, 0, 16},
		{"u_colors", shadermount.KindVec4, 4, 32},
		{"u_colorsCount", shadermount.KindFloat, 0, 96},
		{"u_steps", shadermount.KindInt, 0, 100},
		{"u_invert", shadermount.KindBool, 0, 104},
		{"u_uvTransform", shadermount.KindMat3, 0, 112},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := l.members[tt.name]
			if !ok {
				t.Fatalf("member %s not reflected", tt.name)
			}
			if m.decl.Kind != tt.kind || m.decl.ArrayLen != tt.arrayLen {
				t.Errorf("decl = %v[%d], want %v[%d]", m.decl.Kind, m.decl.ArrayLen, tt.kind, tt.arrayLen)
			}
			if m.offset != tt.offset {
				t.Errorf("offset = %d, want %d", m.offset, tt.offset)
			}
		})
	}

	slots := l.slots()
	if d := slots["u_image"]; d.Kind != shadermount.KindTexture {
		t.Errorf("u_image kind = %v, want texture", d.Kind)
	}
	if len(l.samplers) != 1 || l.samplers[0] != 2 {
		t.Errorf("samplers = %v, want [2]", l.samplers)
	}
}

func TestReflectErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax",
			src:  "fn broken( {",
		},
		{
			name: "no fragment",
			src: `@vertex fn vs() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
`,
			want: "no @fragment",
		},
		{
			name: "group 1",
			src: `struct U { a: f32 }
@group(1) @binding(0) var<uniform> u: U;
@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(u.a); }
`,
			want: "@group(0)",
		},
		{
			name: "two blocks",
			src: `struct U { a: f32 }
@group(0) @binding(0) var<uniform> u: U;
@group(0) @binding(1) var<uniform> v: U;
@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(u.a + v.a); }
`,
			want: "one uniform block",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reflect(tt.src)
			if err == nil {
				t.Fatal("reflect succeeded, want error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
