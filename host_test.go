package shadermount

import (
	"testing"

	"github.com/gogpu/gpucontext"
)

func TestDescribeSurface(t *testing.T) {
	tests := []struct {
		name string
		w    gpucontext.WindowProvider
		want SurfaceDescriptor
	}{
		{"standard", gpucontext.NullWindowProvider{W: 800, H: 600, SF: 1}, SurfaceDescriptor{800, 600, 1, BackendWGPU}},
		{"retina", gpucontext.NullWindowProvider{W: 400, H: 300, SF: 2}, SurfaceDescriptor{800, 600, 2, BackendWGPU}},
		{"fractional", gpucontext.NullWindowProvider{W: 101, H: 33, SF: 1.5}, SurfaceDescriptor{152, 50, 1.5, BackendWGPU}},
		{"unset scale", gpucontext.NullWindowProvider{W: 10, H: 20}, SurfaceDescriptor{10, 20, 1, BackendWGPU}},
		{"zero", gpucontext.NullWindowProvider{}, SurfaceDescriptor{0, 0, 1, BackendWGPU}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeSurface(tt.w, BackendWGPU); got != tt.want {
				t.Errorf("DescribeSurface = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFakeHostIsHost(t *testing.T) {
	var _ Host = newFakeHost(1, 1, 1)
}
