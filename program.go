package shadermount

import (
	"fmt"

	"github.com/gogpu/shadermount/shader"
)

// adaptSource rewrites canonical source for a backend dialect. It is called
// exactly once per compile.
var adaptSource = shader.Adapt

// glslKinds maps GLSL uniform types to uniform kinds.
var glslKinds = map[string]Kind{
	"float":     KindFloat,
	"int":       KindInt,
	"bool":      KindBool,
	"vec2":      KindVec2,
	"vec3":      KindVec3,
	"vec4":      KindVec4,
	"mat3":      KindMat3,
	"sampler2D": KindTexture,
}

// ReflectUniforms returns the uniform declarations of canonical GLSL source.
// Types without a uniform kind are reported as KindInvalid, so any value
// sent to them is rejected as a type mismatch.
func ReflectUniforms(src string) ([]UniformDecl, error) {
	us, err := shader.Uniforms(src)
	if err != nil {
		return nil, err
	}
	decls := make([]UniformDecl, 0, len(us))
	for _, u := range us {
		decls = append(decls, UniformDecl{Name: u.Name, Kind: glslKinds[u.Type], ArrayLen: u.ArrayLen})
	}
	return decls, nil
}

// dialectFor returns the source dialect a backend compiles.
func dialectFor(k BackendKind) shader.Dialect {
	switch k {
	case BackendSkia:
		return shader.SkSL
	case BackendWGPU:
		return shader.WGSL
	default:
		return shader.GLSL
	}
}

// programSource prepares sh for a backend. WGPU programs use the shader's
// own WGSL; the others adapt the canonical GLSL.
func programSource(sh *Shader, k BackendKind) (ProgramSource, error) {
	d := dialectFor(k)
	if d == shader.WGSL {
		if sh.WGSL == "" {
			return ProgramSource{}, fmt.Errorf("shader %q has no WGSL program", sh.Name)
		}
		return ProgramSource{Name: sh.Name, Code: sh.WGSL}, nil
	}

	decls, err := ReflectUniforms(sh.Source)
	if err != nil {
		return ProgramSource{}, err
	}
	code, err := adaptSource(sh.Source, d)
	if err != nil {
		return ProgramSource{}, err
	}
	return ProgramSource{Name: sh.Name, Code: code, Uniforms: decls}, nil
}
