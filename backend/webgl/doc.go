// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package webgl is the browser backend of shadermount. It runs canonical
// GLSL ES 3.00 fragment programs on a WebGL2 canvas.
//
// The driver is available when building for js/wasm:
//
//	canvas := js.Global().Get("document").Call("getElementById", "hero")
//	webgl.Register(canvas)
//
// The context listens for webglcontextlost and reports the loss through
// Lost, after which the instance recreates every resource once the browser
// restores the context.
package webgl
