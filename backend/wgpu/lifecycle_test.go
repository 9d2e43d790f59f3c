// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/shadermount"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const noiseWGSL = `
struct Uniforms {
    u_time: f32,
    u_resolution: vec2<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var u_noiseTexture: texture_2d<f32>;
@group(0) @binding(2) var u_noiseSampler: sampler;

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return textureSample(u_noiseTexture, u_noiseSampler, pos.xy / u.u_resolution);
}
`

// lostDevice fails resource and encoder creation with hal.ErrDeviceLost once
// lost is set.
type lostDevice struct {
	hal.Device
	lost bool
}

func (d *lostDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.lost {
		return nil, hal.ErrDeviceLost
	}
	return d.Device.CreateTexture(desc)
}

func (d *lostDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	if d.lost {
		return nil, hal.ErrDeviceLost
	}
	return d.Device.CreateCommandEncoder(desc)
}

// openLostDevice opens a noop device wrapped in a lostDevice.
func openLostDevice(t *testing.T) (*lostDevice, *device) {
	t.Helper()
	dev, err := openBackend(noop.API{})
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	ld := &lostDevice{Device: dev.device}
	return ld, &device{device: ld, queue: dev.queue, destroy: dev.destroy}
}

func mountOn(t *testing.T, d shadermount.Driver, src string) (*testHost, *shadermount.Instance) {
	t.Helper()
	host := &testHost{NullWindowProvider: gpucontext.NullWindowProvider{W: 64, H: 32, SF: 1}}
	inst, err := shadermount.Mount(host, d, &shadermount.Shader{Name: "test", WGSL: src}, shadermount.Props{Speed: 1})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return host, inst
}

func TestNoiseTextureSharedAcrossInstances(t *testing.T) {
	d, err := NewHeadlessDriver()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	var bindings []*shadermount.TextureBinding
	for n := range 2 {
		host, inst := mountOn(t, d, noiseWGSL)
		defer inst.Unmount()
		host.tick(16 * time.Millisecond)
		v, ok := inst.Uniforms().Get(shadermount.UniformNoiseTexture)
		if !ok {
			t.Fatalf("instance %d: noise texture not bound", n)
		}
		bindings = append(bindings, v.(*shadermount.TextureBinding))
		if s := inst.Stats(); s.Draws != 1 {
			t.Errorf("instance %d: Draws = %d, want 1", n, s.Draws)
		}
	}
	if bindings[0].Texture != bindings[1].Texture {
		t.Error("instances on one device got different noise textures")
	}
}

func TestTextureFromSiblingContextAccepted(t *testing.T) {
	ctx := newTestContext(t)
	p := compileTest(t, ctx, testWGSL)

	d := &Driver{dev: ctx.owner, format: ctx.format}
	sibling, err := d.Acquire(shadermount.SurfaceDescriptor{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer sibling.Release()
	tex, err := sibling.CreateTexture(shadermount.NewPixels(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	if err := p.Upload(shadermount.Update{Name: "u_image", Value: &shadermount.TextureBinding{Texture: tex}}); err != nil {
		t.Errorf("texture from the same device: %v", err)
	}
}

func TestDeviceLossReopensOwnedDevice(t *testing.T) {
	var opened []*lostDevice
	d := &Driver{
		owned:  true,
		format: gputypes.TextureFormatRGBA8Unorm,
		open: func() (*device, error) {
			ld, dev := openLostDevice(t)
			opened = append(opened, ld)
			return dev, nil
		},
	}
	defer d.Close()

	host, inst := mountOn(t, d, testWGSL)
	defer inst.Unmount()
	host.tick(16 * time.Millisecond)

	opened[0].lost = true
	for range 3 {
		host.tick(16 * time.Millisecond)
	}

	if len(opened) != 2 {
		t.Fatalf("devices opened = %d, want 2", len(opened))
	}
	if err := inst.Err(); err != nil {
		t.Fatalf("Err after recovery: %v", err)
	}
	s := inst.Stats()
	if s.ContextLosses != 1 {
		t.Errorf("ContextLosses = %d, want 1", s.ContextLosses)
	}
	if s.Compiles != 2 {
		t.Errorf("Compiles = %d, want 2", s.Compiles)
	}
	if s.Draws < 2 {
		t.Errorf("Draws = %d, want draws on the new device", s.Draws)
	}
}

func TestDeviceLossWaitsForReset(t *testing.T) {
	ld, dev := openLostDevice(t)
	defer dev.destroy()
	d := NewDriver(ld, dev.queue)

	host, inst := mountOn(t, d, testWGSL)
	host.tick(16 * time.Millisecond)
	ld.lost = true

	for range 5 {
		host.tick(16 * time.Millisecond)
	}
	if !errors.Is(inst.Err(), shadermount.ErrContextLost) {
		t.Fatalf("Err = %v, want ErrContextLost while the device is lost", inst.Err())
	}
	if host.frame == nil {
		t.Fatal("no frame requested for the next recovery attempt")
	}
	if s := inst.Stats(); s.ContextLosses != 1 {
		t.Errorf("ContextLosses = %d, want 1 across retries", s.ContextLosses)
	}

	fresh, freshDev := openLostDevice(t)
	defer freshDev.destroy()
	d.Reset(fresh, freshDev.queue)
	draws := inst.Stats().Draws
	host.tick(16 * time.Millisecond)

	if err := inst.Err(); err != nil {
		t.Fatalf("Err after Reset: %v", err)
	}
	if got := inst.Stats().Draws; got != draws+1 {
		t.Errorf("Draws = %d, want %d", got, draws+1)
	}
	inst.Unmount()
}
