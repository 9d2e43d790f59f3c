package shadermount

import (
	"math"

	"github.com/gogpu/gpucontext"
)

// Host is the surface a shader is mounted on.
//
// Size is reported in logical points and ScaleFactor converts to physical
// pixels, as for any gpucontext.WindowProvider. Post schedules fn on the
// render thread; it is the only Host method that may be called from other
// goroutines.
type Host interface {
	gpucontext.WindowProvider
	FrameSource
	Post(fn func())
}

// DescribeSurface returns the physical surface of w for a backend kind.
func DescribeSurface(w gpucontext.WindowProvider, kind BackendKind) SurfaceDescriptor {
	lw, lh := w.Size()
	scale := w.ScaleFactor()
	if !(scale > 0) {
		scale = 1
	}
	return SurfaceDescriptor{
		Width:      int(math.Round(float64(lw) * scale)),
		Height:     int(math.Round(float64(lh) * scale)),
		PixelRatio: scale,
		Kind:       kind,
	}
}
