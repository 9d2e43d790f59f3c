package shadermount

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
)

// BackendKind identifies a graphics backend family.
type BackendKind uint8

// Backend kinds.
const (
	BackendUnknown BackendKind = iota
	// BackendWebGL is a browser canvas running GLSL ES 3.00.
	BackendWebGL
	// BackendSkia is a native surface running Skia runtime effects (SkSL).
	BackendSkia
	// BackendWGPU is a native GPU device running WGSL.
	BackendWGPU
)

// String returns the registry name of the backend.
func (k BackendKind) String() string {
	switch k {
	case BackendWebGL:
		return "webgl"
	case BackendSkia:
		return "skia"
	case BackendWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("BackendKind(%d)", k)
	}
}

// Driver creates backend contexts for host surfaces.
type Driver interface {
	Kind() BackendKind
	// Acquire creates a context bound to a surface of the given size.
	Acquire(surface SurfaceDescriptor) (Context, error)
}

// ProgramSource is a fragment program in the backend's dialect.
type ProgramSource struct {
	Name string
	Code string
	// Uniforms are the declarations reflected from the canonical source.
	// Backends that reflect their own dialect may ignore them.
	Uniforms []UniformDecl
}

// Context is a backend graphics context owned by one instance.
//
// All methods run on the render thread. After Lost reports true the only
// valid call is Release.
type Context interface {
	// DeviceKey identifies the underlying device. Contexts that share a
	// device return equal keys, which lets instances share read-only
	// resources such as the noise texture.
	DeviceKey() any

	// Compile builds a program. Failures return a *CompileError carrying the
	// backend diagnostic.
	Compile(src ProgramSource) (Program, error)

	// CreateTexture uploads RGBA8 pixels.
	CreateTexture(px *Pixels) (Texture, error)

	// Resize resizes the drawable. It never invalidates programs.
	Resize(surface SurfaceDescriptor) error

	// Clear fills the surface with c, un-premultiplied. Instances without a
	// working program show this instead of drawing.
	Clear(c Color) error

	// Lost reports whether the context was lost and must be recreated.
	Lost() bool

	// Release frees every resource of the context. Idempotent.
	Release()
}

// Program is a compiled fragment program.
type Program interface {
	// Slots returns the uniforms the program declares.
	Slots() Slots

	// Upload writes one uniform. Colors are premultiplied while packing. A
	// color list update writes the array and its count together.
	Upload(u Update) error

	// Draw renders the full-surface quad with the uploaded uniforms.
	Draw() error

	Release()
}

// Texture is a sampled backend texture.
type Texture interface {
	gpucontext.Texture
	Release()
}

var drivers = gpucontext.NewRegistry[Driver](
	gpucontext.WithPriority("wgpu", "skia", "webgl"),
)

// RegisterDriver makes a backend available under name. Backend packages call
// it from init.
func RegisterDriver(name string, factory func() Driver) {
	drivers.Register(name, factory)
}

// DriverByName returns a new driver registered under name, or nil.
func DriverByName(name string) Driver {
	return drivers.Get(name)
}

// BestDriver returns the highest-priority registered driver, or nil.
// Priority is wgpu, then skia, then webgl.
func BestDriver() Driver {
	return drivers.Best()
}

// AvailableDrivers returns the registered driver names, sorted.
func AvailableDrivers() []string {
	names := drivers.Available()
	slices.Sort(names)
	return names
}
