// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package skia is the native-surface backend of shadermount. It runs the
// SkSL produced by package shader as a Skia runtime effect.
//
// Skia itself lives in the host: the platform layer (a cgo binding, a
// mobile view) implements [Bridge] around SkRuntimeEffect and an SkSurface,
// and registers it once at startup:
//
//	skia.Register(bridge)
//
// Runtime effects have no samplers, so skia programs declare only numeric
// uniforms. Bool uniforms are passed as int.
package skia
