package shader

import (
	"errors"
	"reflect"
	"testing"
)

func TestUniforms(t *testing.T) {
	src := "#version 300 es\n" +
		"precision mediump float;\n" +
		"#define MAX_COLORS 10\n" +
		"uniform float u_time;\n" +
		"uniform highp vec2 u_resolution;\n" +
		"uniform vec4 u_colors[MAX_COLORS];\n" +
		"uniform float u_colorsCount, u_softness;\n" +
		"uniform sampler2D u_image;\n" +
		"out vec4 fragColor;\n" +
		"float helper() { float uniform_like = 1.0; return uniform_like; }\n" +
		"void main() { fragColor = vec4(u_time); }\n"

	got, err := Uniforms(src)
	if err != nil {
		t.Fatalf("Uniforms: %v", err)
	}
	want := []Uniform{
		{Name: "u_time", Type: "float"},
		{Name: "u_resolution", Type: "vec2"},
		{Name: "u_colors", Type: "vec4", ArrayLen: 10},
		{Name: "u_colorsCount", Type: "float"},
		{Name: "u_softness", Type: "float"},
		{Name: "u_image", Type: "sampler2D"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Uniforms =\n%+v\nwant\n%+v", got, want)
	}
}

func TestUniformsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"block", "uniform Params { float a; };"},
		{"array without length", "uniform vec4 u_c[];"},
		{"non constant length", "uniform vec4 u_c[N];"},
		{"missing semicolon", "uniform float u_a\nvoid main() {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Uniforms(tt.src); err == nil {
				t.Error("Uniforms succeeded, want error")
			}
		})
	}

	_, err := Uniforms("uniform Params { float a; };")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("uniform block error = %v, want ErrUnsupported", err)
	}
}
