// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu is the native GPU backend of shadermount, built on the
// gogpu/wgpu HAL.
//
// Programs are WGSL. The fragment entry point of a shader's WGSL source is
// drawn over a full-surface triangle; a vertex stage is supplied when the
// source has none. Uniforms live in one uniform buffer at @group(0):
//
//	struct Uniforms {
//	    u_time: f32,
//	    u_resolution: vec2<f32>,
//	    u_colors: array<vec4<f32>, 8>,
//	    u_colorsCount: f32,
//	    u_grain: u32,
//	}
//	@group(0) @binding(0) var<uniform> params: Uniforms;
//	@group(0) @binding(1) var u_image: texture_2d<f32>;
//	@group(0) @binding(2) var u_imageSampler: sampler;
//
// Struct member names are the uniform names. Layout is reflected from the
// naga IR, so any binding numbers and member order work. WGSL has no
// host-shareable bool, so u32 members take bool values and i32 members take
// int values. Textures are the uniforms of texture_2d globals; every sampler
// global is bound to a shared linear sampler.
//
// Importing the package registers the "wgpu" driver, which opens the best
// HAL backend on first use. Applications choose the HAL backends by
// importing them (for example github.com/gogpu/wgpu/hal/allbackends).
package wgpu
