// Package shader adapts canonical GLSL ES 3.00 fragment shaders to the
// dialects of the other backends.
//
// Canonical shaders are written in a constrained subset: one top-level
// vec4 output variable, a void main(), object-like #define macros only, and
// uniforms declared one statement at a time. Adapt rewrites that subset over
// a token stream and fails with an *UnsupportedError for anything outside
// it, instead of emitting source that would misbehave on the device.
//
// The SkSL rewrite is not idempotent: its output has no output variable, so a
// second application fails. Callers adapt exactly once per compile.
package shader
