// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package webgl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"syscall/js"

	"github.com/gogpu/shadermount"
)

// Register makes canvas available as the "webgl" driver.
func Register(canvas js.Value) {
	shadermount.RegisterDriver("webgl", func() shadermount.Driver { return NewDriver(canvas) })
}

// Driver creates WebGL2 contexts on a canvas element.
type Driver struct {
	canvas js.Value
}

// NewDriver returns a driver for canvas.
func NewDriver(canvas js.Value) *Driver { return &Driver{canvas: canvas} }

// Kind implements shadermount.Driver.
func (d *Driver) Kind() shadermount.BackendKind { return shadermount.BackendWebGL }

// Acquire implements shadermount.Driver.
func (d *Driver) Acquire(surface shadermount.SurfaceDescriptor) (shadermount.Context, error) {
	if !d.canvas.Truthy() {
		return nil, errors.New("webgl: no canvas")
	}
	attrs := js.Global().Get("Object").New()
	attrs.Set("alpha", true)
	attrs.Set("premultipliedAlpha", true)
	attrs.Set("antialias", false)
	gl := d.canvas.Call("getContext", "webgl2", attrs)
	if !gl.Truthy() {
		return nil, errors.New("webgl: webgl2 context is not available")
	}

	c := &Context{canvas: d.canvas, gl: gl}
	c.initConsts()
	c.onLost = js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			// Allows the browser to restore the context later.
			args[0].Call("preventDefault")
		}
		c.lost = true
		shadermount.Logger().Warn("webgl: context lost")
		return nil
	})
	d.canvas.Call("addEventListener", "webglcontextlost", c.onLost)

	c.vao = gl.Call("createVertexArray")
	gl.Call("enable", c.consts.blend)
	gl.Call("blendFunc", c.consts.one, c.consts.oneMinusSrcAlpha)
	if err := c.Resize(surface); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

type glConsts struct {
	triangles        int
	texture2D        int
	rgba8            int
	rgba             int
	unsignedByte     int
	textureMinFilter int
	textureMagFilter int
	linear           int
	clampToEdge      int
	textureWrapS     int
	textureWrapT     int
	texture0         int
	colorBufferBit   int
	blend            int
	one              int
	oneMinusSrcAlpha int
	compileStatus    int
	linkStatus       int
	vertexShader     int
	fragmentShader   int
	unpackAlignment  int
}

// Context is a WebGL2 rendering context on a canvas.
type Context struct {
	canvas js.Value
	gl     js.Value
	consts glConsts
	vao    js.Value
	onLost js.Func

	width, height int
	lost          bool
	released      bool
}

func (c *Context) initConsts() {
	gl := c.gl
	c.consts = glConsts{
		triangles:        gl.Get("TRIANGLES").Int(),
		texture2D:        gl.Get("TEXTURE_2D").Int(),
		rgba8:            gl.Get("RGBA8").Int(),
		rgba:             gl.Get("RGBA").Int(),
		unsignedByte:     gl.Get("UNSIGNED_BYTE").Int(),
		textureMinFilter: gl.Get("TEXTURE_MIN_FILTER").Int(),
		textureMagFilter: gl.Get("TEXTURE_MAG_FILTER").Int(),
		linear:           gl.Get("LINEAR").Int(),
		clampToEdge:      gl.Get("CLAMP_TO_EDGE").Int(),
		textureWrapS:     gl.Get("TEXTURE_WRAP_S").Int(),
		textureWrapT:     gl.Get("TEXTURE_WRAP_T").Int(),
		texture0:         gl.Get("TEXTURE0").Int(),
		colorBufferBit:   gl.Get("COLOR_BUFFER_BIT").Int(),
		blend:            gl.Get("BLEND").Int(),
		one:              gl.Get("ONE").Int(),
		oneMinusSrcAlpha: gl.Get("ONE_MINUS_SRC_ALPHA").Int(),
		compileStatus:    gl.Get("COMPILE_STATUS").Int(),
		linkStatus:       gl.Get("LINK_STATUS").Int(),
		vertexShader:     gl.Get("VERTEX_SHADER").Int(),
		fragmentShader:   gl.Get("FRAGMENT_SHADER").Int(),
		unpackAlignment:  gl.Get("UNPACK_ALIGNMENT").Int(),
	}
}

// DeviceKey implements shadermount.Context. Every canvas has its own
// context, so nothing is shared across canvases.
func (c *Context) DeviceKey() any { return c }

// Lost implements shadermount.Context.
func (c *Context) Lost() bool {
	return c.lost || c.gl.Call("isContextLost").Bool()
}

// Resize implements shadermount.Context.
func (c *Context) Resize(surface shadermount.SurfaceDescriptor) error {
	if c.Lost() {
		return shadermount.ErrContextLost
	}
	w, h := max(surface.Width, 1), max(surface.Height, 1)
	if w != c.width || h != c.height {
		c.canvas.Set("width", w)
		c.canvas.Set("height", h)
		c.width, c.height = w, h
	}
	c.gl.Call("viewport", 0, 0, w, h)
	return nil
}

// Clear implements shadermount.Context.
func (c *Context) Clear(col shadermount.Color) error {
	if c.Lost() {
		return shadermount.ErrContextLost
	}
	p := col.Premultiplied()
	c.gl.Call("clearColor", p[0], p[1], p[2], p[3])
	c.gl.Call("clear", c.consts.colorBufferBit)
	return nil
}

// CreateTexture implements shadermount.Context.
func (c *Context) CreateTexture(px *shadermount.Pixels) (shadermount.Texture, error) {
	if err := px.Validate(); err != nil {
		return nil, err
	}
	if c.Lost() {
		return nil, shadermount.ErrContextLost
	}
	gl, k := c.gl, c.consts
	tex := gl.Call("createTexture")
	gl.Call("bindTexture", k.texture2D, tex)
	gl.Call("texParameteri", k.texture2D, k.textureMinFilter, k.linear)
	gl.Call("texParameteri", k.texture2D, k.textureMagFilter, k.linear)
	gl.Call("texParameteri", k.texture2D, k.textureWrapS, k.clampToEdge)
	gl.Call("texParameteri", k.texture2D, k.textureWrapT, k.clampToEdge)
	gl.Call("pixelStorei", k.unpackAlignment, 1)

	data := js.Global().Get("Uint8Array").New(len(px.Data))
	js.CopyBytesToJS(data, px.Data)
	gl.Call("texImage2D", k.texture2D, 0, k.rgba8, px.Width, px.Height, 0, k.rgba, k.unsignedByte, data)
	return &texture{ctx: c, tex: tex, w: px.Width, h: px.Height}, nil
}

// Compile implements shadermount.Context. src.Code is GLSL ES 3.00.
func (c *Context) Compile(src shadermount.ProgramSource) (shadermount.Program, error) {
	if c.Lost() {
		return nil, shadermount.ErrContextLost
	}
	gl, k := c.gl, c.consts
	fail := func(log string) error {
		if c.Lost() {
			return shadermount.ErrContextLost
		}
		return &shadermount.CompileError{Backend: shadermount.BackendWebGL, Shader: src.Name, Log: log}
	}

	vs, log := c.compileShader(k.vertexShader, vertexSource)
	if log != "" {
		return nil, fail("vertex: " + log)
	}
	defer gl.Call("deleteShader", vs)
	fs, log := c.compileShader(k.fragmentShader, src.Code)
	if log != "" {
		return nil, fail(log)
	}
	defer gl.Call("deleteShader", fs)

	prog := gl.Call("createProgram")
	gl.Call("attachShader", prog, vs)
	gl.Call("attachShader", prog, fs)
	gl.Call("linkProgram", prog)
	if !gl.Call("getProgramParameter", prog, k.linkStatus).Bool() {
		log := gl.Call("getProgramInfoLog", prog).String()
		gl.Call("deleteProgram", prog)
		return nil, fail(log)
	}

	p := &Program{ctx: c, name: src.Name, prog: prog, slots: make(shadermount.Slots), locs: make(map[string]js.Value)}
	var samplers []string
	for _, d := range src.Uniforms {
		loc := gl.Call("getUniformLocation", prog, d.Name)
		if loc.IsNull() {
			// Declared but optimized out.
			continue
		}
		p.locs[d.Name] = loc
		if d.Kind == shadermount.KindTexture {
			samplers = append(samplers, d.Name)
		}
		p.slots[d.Name] = d
	}
	sort.Strings(samplers)
	p.units = make(map[string]int, len(samplers))
	p.textures = make(map[string]*texture, len(samplers))
	gl.Call("useProgram", prog)
	for i, name := range samplers {
		p.units[name] = i
		gl.Call("uniform1i", p.locs[name], i)
	}
	shadermount.Logger().Debug("webgl: program linked", "shader", src.Name, "uniforms", len(p.slots))
	return p, nil
}

func (c *Context) compileShader(kind int, source string) (js.Value, string) {
	gl := c.gl
	sh := gl.Call("createShader", kind)
	gl.Call("shaderSource", sh, source)
	gl.Call("compileShader", sh)
	if !gl.Call("getShaderParameter", sh, c.consts.compileStatus).Bool() {
		log := gl.Call("getShaderInfoLog", sh).String()
		gl.Call("deleteShader", sh)
		if log == "" {
			log = "unknown compile error"
		}
		return js.Null(), log
	}
	return sh, ""
}

// Release implements shadermount.Context. Idempotent.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.released = true
	c.canvas.Call("removeEventListener", "webglcontextlost", c.onLost)
	c.onLost.Release()
	if c.vao.Truthy() && !c.Lost() {
		c.gl.Call("deleteVertexArray", c.vao)
	}
}

// Program is a linked GLSL program.
type Program struct {
	ctx      *Context
	name     string
	prog     js.Value
	slots    shadermount.Slots
	locs     map[string]js.Value
	units    map[string]int
	textures map[string]*texture
	released bool
}

// Slots implements shadermount.Program.
func (p *Program) Slots() shadermount.Slots { return p.slots }

// Upload implements shadermount.Program.
func (p *Program) Upload(u shadermount.Update) error {
	if p.ctx.Lost() {
		return shadermount.ErrContextLost
	}
	d, ok := p.slots[u.Name]
	if !ok {
		return &shadermount.UnknownUniformError{Name: u.Name}
	}
	if b, ok := u.Value.(*shadermount.TextureBinding); ok {
		var tex *texture
		if b.Texture != nil {
			t, ok := b.Texture.(*texture)
			if !ok || t.ctx != p.ctx {
				return fmt.Errorf("%w: %s: texture belongs to another context", shadermount.ErrUniformType, u.Name)
			}
			tex = t
		}
		p.textures[u.Name] = tex
		return nil
	}

	call, err := callFor(d, u.Value)
	if err != nil {
		return err
	}
	p.ctx.gl.Call("useProgram", p.prog)
	p.apply(p.locs[u.Name], call)
	if u.Count != nil {
		loc, ok := p.locs[u.Count.Name]
		if !ok {
			return &shadermount.UnknownUniformError{Name: u.Count.Name}
		}
		cc, err := countCall(p.slots[u.Count.Name], u.CountValue())
		if err != nil {
			return err
		}
		p.apply(loc, cc)
	}
	return nil
}

func (p *Program) apply(loc js.Value, c uniformCall) {
	gl := p.ctx.gl
	switch {
	case c.fn == "uniformMatrix3fv":
		gl.Call(c.fn, loc, false, float32Array(c.floats))
	case c.vector():
		gl.Call(c.fn, loc, float32Array(c.floats))
	case c.ints != nil:
		args := []any{loc}
		for _, v := range c.ints {
			args = append(args, v)
		}
		gl.Call(c.fn, args...)
	default:
		args := []any{loc}
		for _, v := range c.floats {
			args = append(args, v)
		}
		gl.Call(c.fn, args...)
	}
}

// Draw implements shadermount.Program.
func (p *Program) Draw() error {
	if p.released {
		return fmt.Errorf("webgl: draw with released program %q", p.name)
	}
	c := p.ctx
	if c.Lost() {
		return shadermount.ErrContextLost
	}
	gl, k := c.gl, c.consts
	gl.Call("useProgram", p.prog)
	for name, unit := range p.units {
		gl.Call("activeTexture", k.texture0+unit)
		if t := p.textures[name]; t != nil && !t.released {
			gl.Call("bindTexture", k.texture2D, t.tex)
		} else {
			gl.Call("bindTexture", k.texture2D, js.Null())
		}
	}
	gl.Call("clearColor", 0, 0, 0, 0)
	gl.Call("clear", k.colorBufferBit)
	gl.Call("bindVertexArray", c.vao)
	gl.Call("drawArrays", k.triangles, 0, 3)
	return nil
}

// Release implements shadermount.Program. Idempotent.
func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	if !p.ctx.Lost() {
		p.ctx.gl.Call("deleteProgram", p.prog)
	}
}

type texture struct {
	ctx      *Context
	tex      js.Value
	w, h     int
	released bool
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }

func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	if !t.ctx.Lost() {
		t.ctx.gl.Call("deleteTexture", t.tex)
	}
}

func float32Array(vs []float32) js.Value {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	u8 := js.Global().Get("Uint8Array").New(len(buf))
	js.CopyBytesToJS(u8, buf)
	return js.Global().Get("Float32Array").New(u8.Get("buffer"))
}
