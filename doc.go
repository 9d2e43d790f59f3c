// Package shadermount mounts a parametric fragment shader onto a host surface
// and keeps a GPU render loop synchronized with that surface.
//
// # Overview
//
// A mounted shader is a single fragment program drawn over a full-surface
// quad. The runtime owns everything around that program: mapping the surface
// to shader UV space, turning typed parameters into uniform uploads, driving
// a virtual animation clock, and creating and releasing backend resources as
// the host surface attaches, resizes and detaches.
//
// # Quick Start
//
//	sh := &shadermount.Shader{Name: "waves", Source: wavesGLSL, Schema: schema}
//	params, err := sh.Schema.Bind(map[string]any{
//	    "colorBack": "#000000",
//	    "colors":    []any{"#ff0000", "hsl(200 80% 50%)"},
//	    "speed":     1.0,
//	})
//	if err != nil {
//	    return err
//	}
//
//	inst, err := shadermount.Mount(host, driver, sh, shadermount.Props{
//	    Params: params,
//	    Sizing: shadermount.SizingConfig{Fit: shadermount.FitCover, Scale: 1},
//	    Speed:  1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer inst.Unmount()
//
// # Components
//
//   - Color normalization: [Normalize] parses hex, functional and named colors
//   - Sizing: [ComputeTransform] maps surface pixels to shader UV space
//   - Uniform synchronization: [Reconcile] computes the minimal upload set
//   - Animation: [Scheduler] drives the virtual clock from host frames
//   - Shader adaptation: package shader rewrites GLSL for other dialects
//   - Lifecycle: [Instance] owns context, program, textures and teardown
//
// # Backends
//
// Backends implement [Driver] and register themselves with [RegisterDriver]:
//
//   - backend/wgpu: native GPU through gogpu/wgpu, programs written in WGSL
//   - backend/skia: native surfaces running Skia runtime effects (SkSL)
//   - backend/webgl: browser canvas through WebGL2 (js/wasm only)
//
// # Threading
//
// An Instance is driven from a single render thread. Texture loaders run on
// their own goroutines and hand results back through [Host] Post. Nothing on
// an Instance is safe for concurrent use.
package shadermount

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
