// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shadermount"
	"github.com/gogpu/wgpu/hal"
)

// Context renders one instance into an offscreen target texture. Hosts
// composite the target with Target.
type Context struct {
	owner  *device
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	width, height uint32
	target        hal.Texture
	targetView    hal.TextureView

	sampler     hal.Sampler
	placeholder *texture

	inflight []submission
	lost     bool
	released bool
}

// submission is a command buffer the GPU may still be reading.
type submission struct {
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
	index   uint64
}

// DeviceKey implements shadermount.Context.
func (c *Context) DeviceKey() any { return c.device }

// Lost implements shadermount.Context.
func (c *Context) Lost() bool { return c.lost }

// Target returns the render target view and its size in pixels.
func (c *Context) Target() (hal.TextureView, uint32, uint32) {
	return c.targetView, c.width, c.height
}

// Resize implements shadermount.Context. The target is recreated only when
// the pixel size changes.
func (c *Context) Resize(surface shadermount.SurfaceDescriptor) error {
	w, h := uint32(max(surface.Width, 1)), uint32(max(surface.Height, 1))
	if c.target != nil && w == c.width && h == c.height {
		return nil
	}
	c.destroyTarget()

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "shadermount_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        c.format,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return c.check("create target", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "shadermount_target_view",
		Format:        c.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return c.check("create target view", err)
	}
	c.target, c.targetView = tex, view
	c.width, c.height = w, h
	slogger().Debug("wgpu: target resized", "width", w, "height", h)
	return nil
}

// CreateTexture implements shadermount.Context.
func (c *Context) CreateTexture(px *shadermount.Pixels) (shadermount.Texture, error) {
	if err := px.Validate(); err != nil {
		return nil, err
	}
	w, h := uint32(px.Width), uint32(px.Height)
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "shadermount_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, c.check("create texture", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "shadermount_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, c.check("create texture view", err)
	}
	err = c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		px.Data,
		&hal.ImageDataLayout{BytesPerRow: 4 * w, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		c.device.DestroyTextureView(view)
		c.device.DestroyTexture(tex)
		return nil, c.check("write texture", err)
	}
	slogger().Debug("wgpu: texture created", "width", w, "height", h)
	return &texture{ctx: c, tex: tex, view: view, w: px.Width, h: px.Height}, nil
}

// Clear implements shadermount.Context.
func (c *Context) Clear(col shadermount.Color) error {
	p := col.Premultiplied()
	clear := gputypes.Color{R: float64(p[0]), G: float64(p[1]), B: float64(p[2]), A: float64(p[3])}
	return c.submit("shadermount_clear", clear, nil)
}

// Release implements shadermount.Context.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.released = true
	if !c.lost {
		_ = c.device.WaitIdle()
	}
	c.reclaim(true)
	if c.placeholder != nil {
		c.placeholder.Release()
		c.placeholder = nil
	}
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	c.destroyTarget()
}

func (c *Context) destroyTarget() {
	if c.targetView != nil {
		c.device.DestroyTextureView(c.targetView)
		c.targetView = nil
	}
	if c.target != nil {
		c.device.DestroyTexture(c.target)
		c.target = nil
	}
}

// linearSampler returns the sampler bound to every sampler slot.
func (c *Context) linearSampler() (hal.Sampler, error) {
	if c.sampler != nil {
		return c.sampler, nil
	}
	s, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "shadermount_linear",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, c.check("create sampler", err)
	}
	c.sampler = s
	return s, nil
}

// placeholderTexture returns a transparent 1x1 texture bound to texture
// slots that have no image yet.
func (c *Context) placeholderTexture() (*texture, error) {
	if c.placeholder != nil {
		return c.placeholder, nil
	}
	t, err := c.CreateTexture(&shadermount.Pixels{Width: 1, Height: 1, Data: make([]byte, 4)})
	if err != nil {
		return nil, err
	}
	c.placeholder = t.(*texture)
	return c.placeholder, nil
}

// submit records one render pass into the target and submits it. draw may be
// nil for a clear-only pass.
func (c *Context) submit(label string, clear gputypes.Color, draw func(hal.RenderPassEncoder)) error {
	if c.lost {
		return shadermount.ErrContextLost
	}
	c.reclaim(false)

	enc, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return c.check("create encoder", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		return c.check("begin encoding", err)
	}
	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}},
	})
	if draw != nil {
		draw(pass)
	}
	pass.End()

	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return c.check("end encoding", err)
	}
	idx, err := c.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		c.device.FreeCommandBuffer(cmd)
		enc.Destroy()
		return c.check("submit", err)
	}
	c.inflight = append(c.inflight, submission{encoder: enc, cmd: cmd, index: idx})
	return nil
}

// reclaim frees command buffers the GPU has finished with, or all of them
// when all is set.
func (c *Context) reclaim(all bool) {
	done := c.queue.PollCompleted()
	keep := c.inflight[:0]
	for _, s := range c.inflight {
		if !all && s.index > done {
			keep = append(keep, s)
			continue
		}
		c.device.FreeCommandBuffer(s.cmd)
		s.encoder.Destroy()
	}
	c.inflight = keep
}

// check maps device loss to shadermount.ErrContextLost and marks the
// context and its device lost.
func (c *Context) check(op string, err error) error {
	if errors.Is(err, hal.ErrDeviceLost) {
		c.lost = true
		if c.owner != nil {
			c.owner.lost.Store(true)
		}
		slogger().Warn("wgpu: device lost", "op", op, "err", err)
		return fmt.Errorf("%w: %s: %v", shadermount.ErrContextLost, op, err)
	}
	return fmt.Errorf("wgpu: %s: %w", op, err)
}

// texture is a sampled RGBA8 texture.
type texture struct {
	ctx      *Context
	tex      hal.Texture
	view     hal.TextureView
	w, h     int
	released bool
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }

// Release destroys the texture. Idempotent.
func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.ctx.device.DestroyTextureView(t.view)
	t.ctx.device.DestroyTexture(t.tex)
}
