// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package skia

import (
	"errors"
	"fmt"

	"github.com/gogpu/shadermount"
)

// Register makes b available as the "skia" driver.
func Register(b Bridge) {
	shadermount.RegisterDriver("skia", func() shadermount.Driver { return NewDriver(b) })
}

// Driver creates contexts through a Bridge.
type Driver struct {
	bridge Bridge
}

// NewDriver returns a driver for b.
func NewDriver(b Bridge) *Driver { return &Driver{bridge: b} }

// Kind implements shadermount.Driver.
func (d *Driver) Kind() shadermount.BackendKind { return shadermount.BackendSkia }

// Acquire implements shadermount.Driver.
func (d *Driver) Acquire(surface shadermount.SurfaceDescriptor) (shadermount.Context, error) {
	s, err := d.bridge.NewSurface(max(surface.Width, 1), max(surface.Height, 1))
	if err != nil {
		return nil, fmt.Errorf("skia: new surface: %w", err)
	}
	return &Context{bridge: d.bridge, surface: s}, nil
}

// Context draws into one bridge surface.
type Context struct {
	bridge   Bridge
	surface  Surface
	released bool
}

// DeviceKey implements shadermount.Context.
func (c *Context) DeviceKey() any { return c.bridge.Device() }

// Lost implements shadermount.Context.
func (c *Context) Lost() bool { return c.surface.Lost() }

// Compile implements shadermount.Context. src.Code is SkSL.
func (c *Context) Compile(src shadermount.ProgramSource) (shadermount.Program, error) {
	if c.Lost() {
		return nil, shadermount.ErrContextLost
	}
	e, err := c.bridge.MakeEffect(src.Code)
	if err != nil {
		if err := c.check(err); errors.Is(err, shadermount.ErrContextLost) {
			return nil, err
		}
		return nil, &shadermount.CompileError{Backend: shadermount.BackendSkia, Shader: src.Name, Log: err.Error()}
	}
	p, err := newProgram(c, src, e)
	if err != nil {
		e.Release()
		return nil, &shadermount.CompileError{Backend: shadermount.BackendSkia, Shader: src.Name, Err: err}
	}
	shadermount.Logger().Debug("skia: effect compiled", "shader", src.Name, "uniforms", len(p.uniforms))
	return p, nil
}

// CreateTexture implements shadermount.Context.
func (c *Context) CreateTexture(px *shadermount.Pixels) (shadermount.Texture, error) {
	if err := px.Validate(); err != nil {
		return nil, err
	}
	img, err := c.bridge.MakeImage(px)
	if err != nil {
		return nil, c.check(fmt.Errorf("skia: make image: %w", err))
	}
	return &texture{Image: img}, nil
}

// Resize implements shadermount.Context.
func (c *Context) Resize(surface shadermount.SurfaceDescriptor) error {
	if err := c.surface.Resize(max(surface.Width, 1), max(surface.Height, 1)); err != nil {
		return c.check(fmt.Errorf("skia: resize: %w", err))
	}
	return nil
}

// Clear implements shadermount.Context.
func (c *Context) Clear(col shadermount.Color) error {
	if err := c.surface.Clear(col.Premultiplied()); err != nil {
		return c.check(fmt.Errorf("skia: clear: %w", err))
	}
	return nil
}

// Release implements shadermount.Context. Idempotent.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.released = true
	c.surface.Release()
}

// check maps a failure on an abandoned surface to ErrContextLost.
func (c *Context) check(err error) error {
	if errors.Is(err, shadermount.ErrContextLost) {
		return err
	}
	if c.surface.Lost() {
		shadermount.Logger().Warn("skia: context lost", "err", err)
		return fmt.Errorf("%w: %v", shadermount.ErrContextLost, err)
	}
	return err
}

// texture adapts a bridge image. Release is idempotent.
type texture struct {
	Image
	released bool
}

func (t *texture) Release() {
	if !t.released {
		t.released = true
		t.Image.Release()
	}
}
