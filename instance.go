package shadermount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// UniformTime is the builtin uniform holding the virtual time in seconds.
const UniformTime = "u_time"

// Props are the inputs of a mounted shader.
type Props struct {
	// Params are the bound shader parameters. nil means the schema defaults.
	Params Params
	// Sizing maps the surface to shader space. The zero value means
	// DefaultSizing.
	Sizing SizingConfig
	// Speed multiplies host frame time. 0 pauses the animation.
	Speed float64
	// Frame, when set, forces the virtual time in seconds.
	Frame *float64
}

// Stats counts the work an instance did.
type Stats struct {
	Compiles      int
	Uploads       int
	Draws         int
	Skipped       int
	ContextLosses int
}

// Instance is a shader mounted on a host surface. It owns the backend
// context, the compiled program, textures and the animation clock.
//
// All methods must be called on the render thread.
type Instance struct {
	host   Host
	driver Driver
	shader *Shader
	opts   options
	log    *slog.Logger

	ctx     Context
	program Program
	slots   Slots
	err     error
	lost    bool
	// retrying is set while a recovery waits for the backend to come back.
	retrying bool

	props     Props
	surface   SurfaceDescriptor
	transform Transform
	committed *Snapshot
	textures  []*textureSlot
	noise     *sharedNoise
	sched     *Scheduler

	loads      context.Context
	cancelLoad context.CancelFunc

	warned map[string]bool
	stats  Stats
	closed bool
}

// Mount acquires a backend context for host, compiles sh, uploads every
// uniform and starts the animation clock. The first frame is drawn on the
// next host frame callback.
//
// A compile failure returns an error matching ErrShaderCompile with the
// backend diagnostic; nothing is left allocated.
func Mount(host Host, driver Driver, sh *Shader, props Props, opts ...Option) (*Instance, error) {
	if driver == nil {
		return nil, ErrNoDriver
	}
	if host == nil {
		return nil, errors.New("shadermount: nil host")
	}
	if sh == nil {
		return nil, fmt.Errorf("%w: nil shader", ErrInvalidSchema)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	} else {
		propagateLogger(driver, log)
	}

	if props.Params == nil && sh.Schema != nil {
		props.Params = sh.Schema.Defaults()
	}
	if props.Sizing == (SizingConfig{}) {
		props.Sizing = DefaultSizing()
	}

	inst := &Instance{
		host:   host,
		driver: driver,
		shader: sh,
		opts:   o,
		log:    log,
		props:  props,
		warned: make(map[string]bool),
	}
	inst.loads, inst.cancelLoad = context.WithCancel(context.Background())
	inst.textures = inst.makeTextureSlots(props.Params, nil)
	inst.surface = DescribeSurface(host, driver.Kind())
	inst.transform = ComputeTransform(props.Sizing, inst.surface)
	inst.sched = NewScheduler(host, inst.frame)
	if props.Frame != nil {
		inst.sched.elapsed = *props.Frame
	}

	if err := inst.acquire(); err != nil {
		inst.release()
		inst.cancelLoad()
		return nil, err
	}
	for _, s := range inst.textures {
		inst.startLoad(s)
	}
	inst.sched.Mount(props.Speed, props.Frame)

	log.Info("shadermount: mounted",
		"shader", sh.Name,
		"backend", driver.Kind(),
		"width", inst.surface.Width,
		"height", inst.surface.Height)
	return inst, nil
}

// acquire creates the context, program and textures, then uploads every
// uniform.
func (i *Instance) acquire() error {
	kind := i.driver.Kind()
	ctx, err := i.driver.Acquire(i.surface)
	if err != nil {
		return fmt.Errorf("shadermount: acquire %s context: %w", kind, err)
	}
	i.ctx = ctx

	src, err := programSource(i.shader, kind)
	if err != nil {
		return &CompileError{Backend: kind, Shader: i.shader.Name, Err: err}
	}
	i.stats.Compiles++
	prog, err := ctx.Compile(src)
	if err != nil {
		var ce *CompileError
		if !errors.As(err, &ce) {
			err = &CompileError{Backend: kind, Shader: i.shader.Name, Err: err}
		}
		return err
	}
	i.program = prog
	i.slots = prog.Slots()
	i.log.Debug("shadermount: compiled", "shader", i.shader.Name, "backend", kind, "uniforms", len(i.slots))

	for _, s := range i.textures {
		if err := s.bind(ctx, i.opts.maxTextureSize); err != nil {
			i.warn(fmt.Errorf("shadermount: texture %s: %w", s.name, err))
		}
	}
	if _, ok := i.slots[UniformNoiseTexture]; ok {
		n, err := acquireNoise(ctx)
		if err != nil {
			i.warn(fmt.Errorf("shadermount: noise texture: %w", err))
		} else {
			i.noise = n
		}
	}

	i.committed = NewSnapshot()
	i.sync()
	return nil
}

// release frees all backend resources but keeps loaded pixels, so the
// instance can be rebuilt after a context loss.
func (i *Instance) release() {
	for _, s := range i.textures {
		s.releaseTexture()
	}
	if i.noise != nil {
		i.noise.release()
		i.noise = nil
	}
	if i.program != nil {
		i.program.Release()
		i.program = nil
	}
	if i.ctx != nil {
		i.ctx.Release()
		i.ctx = nil
	}
	i.slots = nil
	i.committed = NewSnapshot()
}

// recover tears the instance down and rebuilds it on a new context. When
// the backend is still lost the instance stays down and retries on the next
// frame.
func (i *Instance) recover() bool {
	if !i.retrying {
		i.stats.ContextLosses++
		i.log.Warn("shadermount: backend context lost, recreating", "shader", i.shader.Name)
	}

	i.release()
	i.lost = false
	i.surface = DescribeSurface(i.host, i.driver.Kind())
	i.transform = ComputeTransform(i.props.Sizing, i.surface)
	if err := i.acquire(); err != nil {
		i.err = err
		if errors.Is(err, ErrContextLost) {
			i.release()
			i.lost = true
			i.retrying = true
			i.log.Debug("shadermount: backend still lost, retrying", "shader", i.shader.Name, "err", err)
			i.sched.Invalidate()
			return false
		}
		i.retrying = false
		if i.program != nil {
			i.program.Release()
			i.program = nil
		}
		i.log.Error("shadermount: recreate failed", "shader", i.shader.Name, "err", err)
		return false
	}
	i.retrying = false
	i.err = nil
	return true
}

// frame is the scheduler callback.
func (i *Instance) frame(elapsed float64) {
	if i.closed {
		return
	}
	if i.lost || (i.ctx != nil && i.ctx.Lost()) {
		if !i.recover() {
			return
		}
	}
	if i.ctx == nil {
		return
	}
	if i.program == nil {
		if err := i.ctx.Clear(i.opts.clearColor); err != nil {
			i.warn(fmt.Errorf("shadermount: clear: %w", err))
		}
		return
	}
	if i.transform.Empty() {
		i.stats.Skipped++
		return
	}

	i.sync()
	if i.lost {
		i.sched.Invalidate()
		return
	}
	if err := i.program.Draw(); err != nil {
		if errors.Is(err, ErrContextLost) {
			i.lost = true
			i.sched.Invalidate()
			return
		}
		i.warn(fmt.Errorf("shadermount: draw: %w", err))
		return
	}
	i.stats.Draws++
}

// snapshot builds the desired uniform state.
func (i *Instance) snapshot() *Snapshot {
	s := NewSnapshot()
	s.SetBuiltin(UniformTime, Float(i.sched.Elapsed()))
	for _, e := range i.transform.Uniforms() {
		s.set(e)
	}

	for _, p := range i.props.Params {
		name := UniformName(p.Name)
		switch v := p.Value.(type) {
		case float64:
			s.Set(name, Float(v))
		case int:
			s.Set(name, Int(int32(v)))
		case bool:
			s.Set(name, Bool(v))
		case ImageSource:
			if slot := i.textureSlot(name); slot != nil && slot.binding != nil {
				s.Set(name, slot.binding)
				s.SetBuiltin(name+AspectRatioSuffix, Float(slot.binding.AspectRatio()))
			}
		case Value:
			s.Set(name, v)
		default:
			i.warn(fmt.Errorf("%w: %s has unsupported value %T", ErrInvalidParam, p.Name, p.Value))
		}
	}

	if i.noise != nil {
		s.SetBuiltin(UniformNoiseTexture, i.noise.binding)
	}
	return s
}

// sync reconciles the desired state with the committed one and uploads the
// difference. Only accepted uploads are committed.
func (i *Instance) sync() {
	if i.program == nil || i.lost {
		return
	}
	set := Reconcile(i.committed, i.snapshot(), i.slots)
	for _, w := range set.Warnings {
		i.warn(w)
	}
	for _, u := range set.Updates {
		if err := i.program.Upload(u); err != nil {
			if errors.Is(err, ErrContextLost) {
				i.lost = true
				return
			}
			i.warn(fmt.Errorf("shadermount: upload %s: %w", u.Name, err))
			continue
		}
		i.committed.Set(u.Name, u.Value)
		i.stats.Uploads++
	}
	if n := len(set.Updates); n > 0 {
		i.log.Debug("shadermount: uniforms uploaded", "shader", i.shader.Name, "count", n)
	}
}

// warn logs err once per distinct message.
func (i *Instance) warn(err error) {
	msg := err.Error()
	if i.warned[msg] {
		return
	}
	i.warned[msg] = true
	i.log.Warn(msg, "shader", i.shader.Name)
}

// OnResize applies a new surface size. The program is never recompiled;
// only the sizing uniforms change.
func (i *Instance) OnResize(surface SurfaceDescriptor) error {
	if i.closed {
		return ErrInstanceClosed
	}
	surface.Kind = i.driver.Kind()
	if surface == i.surface {
		return nil
	}
	i.surface = surface
	i.transform = ComputeTransform(i.props.Sizing, surface)
	if i.ctx == nil || surface.Empty() {
		return nil
	}

	if err := i.ctx.Resize(surface); err != nil {
		if errors.Is(err, ErrContextLost) {
			i.lost = true
			i.sched.Invalidate()
			return nil
		}
		return fmt.Errorf("shadermount: resize: %w", err)
	}
	i.sync()
	i.sched.Invalidate()
	return nil
}

// OnParamsChanged applies new props: changed uniforms are uploaded, image
// parameters whose source changed are reloaded and the clock follows the new
// speed and frame.
func (i *Instance) OnParamsChanged(next Props) error {
	if i.closed {
		return ErrInstanceClosed
	}
	if next.Params == nil && i.shader.Schema != nil {
		next.Params = i.shader.Schema.Defaults()
	}
	if next.Sizing == (SizingConfig{}) {
		next.Sizing = DefaultSizing()
	}
	prev := i.props
	i.props = next

	retired := i.textures
	i.textures = i.makeTextureSlots(next.Params, retired)
	for _, s := range i.textures {
		if s.binding == nil && i.ctx != nil {
			if err := s.bind(i.ctx, i.opts.maxTextureSize); err != nil {
				i.warn(fmt.Errorf("shadermount: texture %s: %w", s.name, err))
			}
		}
		i.startLoad(s)
	}
	if next.Sizing != prev.Sizing {
		i.transform = ComputeTransform(next.Sizing, i.surface)
	}

	i.sync()

	// Replaced textures are freed once nothing is bound to them.
	for _, old := range retired {
		if !containsSlot(i.textures, old) {
			old.cancelLoad()
			old.releaseTexture()
		}
	}

	i.sched.SetSpeed(next.Speed)
	if next.Frame != nil && (prev.Frame == nil || *prev.Frame != *next.Frame) {
		i.sched.SetFrame(*next.Frame)
	}
	i.sched.Invalidate()
	return nil
}

// makeTextureSlots returns a slot per image parameter, reusing slots from
// prev whose source did not change.
func (i *Instance) makeTextureSlots(params Params, prev []*textureSlot) []*textureSlot {
	var slots []*textureSlot
	for _, p := range params {
		src, ok := p.Value.(ImageSource)
		if !ok {
			continue
		}
		name := UniformName(p.Name)
		var slot *textureSlot
		for _, old := range prev {
			if old.name == name && old.source == src {
				slot = old
				break
			}
		}
		if slot == nil {
			slot = &textureSlot{name: name, source: src, pixels: src.Pixels}
		}
		slots = append(slots, slot)
	}
	return slots
}

func containsSlot(slots []*textureSlot, s *textureSlot) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

func (i *Instance) textureSlot(name string) *textureSlot {
	for _, s := range i.textures {
		if s.name == name {
			return s
		}
	}
	return nil
}

// startLoad begins the asynchronous load of a URL slot. Failed loads are
// not retried; the placeholder stays bound.
func (i *Instance) startLoad(s *textureSlot) {
	if s.source.URL == "" || s.pixels != nil || s.loading || s.failed {
		return
	}
	ctx, cancel := context.WithCancel(i.loads)
	s.cancel = cancel
	s.loading = true

	loader, host, ref := i.opts.loader, i.host, s.source.URL
	i.log.Debug("shadermount: loading texture", "uniform", s.name, "ref", ref)
	go func() {
		px, err := loader.Load(ctx, ref)
		if ctx.Err() != nil {
			return
		}
		host.Post(func() { i.finishLoad(s, px, err) })
	}()
}

// finishLoad runs on the render thread when a load completes.
func (i *Instance) finishLoad(s *textureSlot, px *Pixels, err error) {
	if i.closed || !s.loading {
		return
	}
	s.cancelLoad()
	if err == nil {
		err = px.Validate()
	}
	if err != nil {
		s.failed = true
		i.log.Warn("shadermount: texture load failed, keeping placeholder",
			"uniform", s.name, "ref", s.source.URL, "err", err)
		return
	}

	s.pixels = px
	if i.ctx == nil {
		return
	}
	old := s.tex
	s.tex = nil
	if err := s.bind(i.ctx, i.opts.maxTextureSize); err != nil {
		i.warn(fmt.Errorf("shadermount: texture %s: %w", s.name, err))
	}
	i.sync()
	if old != nil {
		old.Release()
	}
	i.sched.Invalidate()
}

// Unmount cancels the pending frame, cancels texture loads and releases all
// backend resources, in that order. It is idempotent.
func (i *Instance) Unmount() {
	if i.closed {
		return
	}
	i.closed = true
	i.sched.Unmount()
	i.cancelLoad()
	for _, s := range i.textures {
		s.cancelLoad()
	}
	i.release()
	i.log.Info("shadermount: unmounted", "shader", i.shader.Name)
}

// Pause stops the animation clock.
func (i *Instance) Pause() { i.sched.Pause() }

// Resume restarts the animation clock.
func (i *Instance) Resume() { i.sched.Resume() }

// SetFrame forces the virtual time to t seconds and redraws.
func (i *Instance) SetFrame(t float64) { i.sched.SetFrame(t) }

// Invalidate requests a redraw.
func (i *Instance) Invalidate() { i.sched.Invalidate() }

// State returns the animation state.
func (i *Instance) State() SchedulerState { return i.sched.State() }

// Clock returns the animation clock.
func (i *Instance) Clock() ClockState { return i.sched.Clock() }

// Shader returns the mounted shader.
func (i *Instance) Shader() *Shader { return i.shader }

// Backend returns the kind of the instance's driver.
func (i *Instance) Backend() BackendKind { return i.driver.Kind() }

// Surface returns the current surface.
func (i *Instance) Surface() SurfaceDescriptor { return i.surface }

// Transform returns the current sizing transform.
func (i *Instance) Transform() Transform { return i.transform }

// Uniforms returns a copy of the uniform values bound on the GPU.
func (i *Instance) Uniforms() *Snapshot { return i.committed.Clone() }

// Err returns the error that left the instance without a program, if any.
func (i *Instance) Err() error { return i.err }

// Stats returns the instance counters.
func (i *Instance) Stats() Stats { return i.stats }

// Closed reports whether Unmount was called.
func (i *Instance) Closed() bool { return i.closed }
