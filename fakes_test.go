package shadermount

import (
	"errors"
	"sync"
)

// fakeHost is a Host with manual frames and a manual task queue.
type fakeHost struct {
	*fakeFrames
	w, h    int
	scale   float64
	redraws int

	mu    sync.Mutex
	tasks []func()
	post  chan struct{}
}

func newFakeHost(w, h int, scale float64) *fakeHost {
	return &fakeHost{
		fakeFrames: newFakeFrames(),
		w:          w,
		h:          h,
		scale:      scale,
		post:       make(chan struct{}, 16),
	}
}

func (h *fakeHost) Size() (int, int)     { return h.w, h.h }
func (h *fakeHost) ScaleFactor() float64 { return h.scale }
func (h *fakeHost) RequestRedraw()       { h.redraws++ }

func (h *fakeHost) Post(fn func()) {
	h.mu.Lock()
	h.tasks = append(h.tasks, fn)
	h.mu.Unlock()
	h.post <- struct{}{}
}

// drain runs queued tasks on the calling goroutine.
func (h *fakeHost) drain() int {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// events records backend calls across all fakes in order.
type events struct {
	log []string
}

func (e *events) add(s string) { e.log = append(e.log, s) }

type fakeDriver struct {
	kind     BackendKind
	ev       *events
	device   any
	acquires int
	contexts []*fakeContext

	// slots override the program's reflected uniforms when set.
	slots      Slots
	compileErr error
	acquireErr error
}

func newFakeDriver(kind BackendKind) *fakeDriver {
	return &fakeDriver{kind: kind, ev: &events{}, device: new(int)}
}

func (d *fakeDriver) Kind() BackendKind { return d.kind }

func (d *fakeDriver) Acquire(s SurfaceDescriptor) (Context, error) {
	d.acquires++
	d.ev.add("acquire")
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	c := &fakeContext{driver: d, surface: s}
	d.contexts = append(d.contexts, c)
	return c, nil
}

// last returns the most recent context.
func (d *fakeDriver) last() *fakeContext { return d.contexts[len(d.contexts)-1] }

type fakeContext struct {
	driver   *fakeDriver
	surface  SurfaceDescriptor
	sources  []ProgramSource
	programs []*fakeProgram
	textures []*fakeTexture
	resizes  int
	clears   []Color
	lost     bool
	released bool
}

func (c *fakeContext) DeviceKey() any { return c.driver.device }

func (c *fakeContext) Compile(src ProgramSource) (Program, error) {
	c.driver.ev.add("compile")
	c.sources = append(c.sources, src)
	if c.driver.compileErr != nil {
		return nil, c.driver.compileErr
	}
	slots := c.driver.slots
	if slots == nil {
		slots = NewSlots(src.Uniforms)
	}
	p := &fakeProgram{ctx: c, slots: slots, values: make(map[string]Value)}
	c.programs = append(c.programs, p)
	return p, nil
}

func (c *fakeContext) CreateTexture(px *Pixels) (Texture, error) {
	c.driver.ev.add("texture")
	t := &fakeTexture{w: px.Width, h: px.Height, ev: c.driver.ev}
	c.textures = append(c.textures, t)
	return t, nil
}

func (c *fakeContext) Resize(s SurfaceDescriptor) error {
	if c.lost {
		return ErrContextLost
	}
	c.resizes++
	c.surface = s
	return nil
}

func (c *fakeContext) Clear(col Color) error {
	c.clears = append(c.clears, col)
	return nil
}

func (c *fakeContext) Lost() bool { return c.lost }

func (c *fakeContext) Release() {
	if c.released {
		return
	}
	c.released = true
	c.driver.ev.add("release context")
}

type fakeProgram struct {
	ctx      *fakeContext
	slots    Slots
	uploads  []Update
	values   map[string]Value
	draws    int
	released bool
}

func (p *fakeProgram) Slots() Slots { return p.slots }

func (p *fakeProgram) Upload(u Update) error {
	if p.ctx.lost {
		return ErrContextLost
	}
	p.uploads = append(p.uploads, u)
	p.values[u.Name] = u.Value
	return nil
}

func (p *fakeProgram) Draw() error {
	if p.ctx.lost {
		return ErrContextLost
	}
	p.draws++
	return nil
}

func (p *fakeProgram) Release() {
	p.released = true
	p.ctx.driver.ev.add("release program")
}

// uploadsOf returns the names uploaded since index from.
func (p *fakeProgram) uploadsOf(from int) []string {
	var names []string
	for _, u := range p.uploads[from:] {
		names = append(names, u.Name)
	}
	return names
}

type fakeTexture struct {
	w, h     int
	ev       *events
	released int
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }

func (t *fakeTexture) Release() {
	t.released++
	t.ev.add("release texture")
}

var errFake = errors.New("fake failure")
