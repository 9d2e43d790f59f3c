// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shadermount"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func init() {
	shadermount.RegisterDriver("wgpu", func() shadermount.Driver {
		return &Driver{open: openDefault, format: gputypes.TextureFormatRGBA8Unorm}
	})
}

// ErrNoAdapter is returned when a HAL backend exposes no adapter.
var ErrNoAdapter = errors.New("wgpu: no GPU adapter found")

// Driver creates contexts on one HAL device.
type Driver struct {
	mu     sync.Mutex
	dev    *device
	format gputypes.TextureFormat

	// open provides the device on first use and again after a device loss.
	// It is nil for caller-owned devices.
	open func() (*device, error)
	// owned drivers destroy their devices on Close.
	owned   bool
	retired []*device
}

// Option configures a Driver.
type Option func(*Driver)

// WithFormat sets the render target format. The default is RGBA8Unorm.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(d *Driver) { d.format = f }
}

// NewDriver returns a driver rendering on an existing device, e.g. one
// shared with the host application. The caller keeps ownership of the
// device. After a device loss, Acquire fails with shadermount.ErrContextLost
// until Reset supplies a new device.
func NewDriver(dev hal.Device, queue hal.Queue, opts ...Option) *Driver {
	d := &Driver{dev: &device{device: dev, queue: queue}, format: gputypes.TextureFormatRGBA8Unorm}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewHeadlessDriver opens a device on the noop HAL backend. It validates
// and compiles programs and records every GPU call without a GPU, which
// suits tests and tooling.
func NewHeadlessDriver(opts ...Option) (*Driver, error) {
	d := &Driver{
		open:   func() (*device, error) { return openBackend(noop.API{}) },
		owned:  true,
		format: gputypes.TextureFormatRGBA8Unorm,
	}
	for _, opt := range opts {
		opt(d)
	}
	if _, err := d.handles(); err != nil {
		return nil, err
	}
	return d, nil
}

// Kind implements shadermount.Driver.
func (d *Driver) Kind() shadermount.BackendKind { return shadermount.BackendWGPU }

// SetLogger sets the backend logger. It is called by shadermount.Mount
// when the instance was given its own logger.
func (d *Driver) SetLogger(l *slog.Logger) { setLogger(l) }

// Acquire implements shadermount.Driver.
func (d *Driver) Acquire(surface shadermount.SurfaceDescriptor) (shadermount.Context, error) {
	dev, err := d.handles()
	if err != nil {
		return nil, err
	}
	c := &Context{owner: dev, device: dev.device, queue: dev.queue, format: d.format}
	if err := c.Resize(surface); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

// Reset replaces the device of a driver created by NewDriver, typically
// after the host recreated a lost device. Instances waiting for recovery
// pick it up on their next frame.
func (d *Driver) Reset(dev hal.Device, queue hal.Queue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dev = &device{device: dev, queue: queue}
}

// Close destroys the devices the driver opened itself.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.owned {
		return
	}
	for _, dev := range append(d.retired, d.dev) {
		if dev != nil && dev.destroy != nil {
			dev.destroy()
		}
	}
	d.dev, d.retired = nil, nil
}

// handles returns the current device. A lost device is replaced when the
// driver can open devices itself.
func (d *Driver) handles() (*device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dev != nil && d.dev.lost.Load() {
		if d.open == nil {
			return nil, fmt.Errorf("%w: wgpu: device lost", shadermount.ErrContextLost)
		}
		// Contexts still on the lost device release into it, so it is
		// destroyed on Close rather than now.
		d.retired = append(d.retired, d.dev)
		d.dev = nil
	}
	if d.dev == nil {
		if d.open == nil {
			return nil, errors.New("wgpu: driver has no device")
		}
		dev, err := d.open()
		if err != nil {
			return nil, err
		}
		d.dev = dev
	}
	return d.dev, nil
}

// device is an opened HAL device.
type device struct {
	device  hal.Device
	queue   hal.Queue
	destroy func()
	lost    atomic.Bool
}

var (
	defaultMu  sync.Mutex
	defaultDev *device
)

// openDefault opens the best registered HAL backend once per process, so
// registry-created drivers share one device. A lost device is replaced.
func openDefault() (*device, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDev != nil && !defaultDev.lost.Load() {
		return defaultDev, nil
	}
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("wgpu: select backend: %w", err)
	}
	dev, err := openBackend(backend)
	if err != nil {
		return nil, err
	}
	defaultDev = dev
	return dev, nil
}

func openBackend(backend hal.Backend) (*device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	slogger().Info("wgpu: device opened", "backend", backend.Variant(), "adapter", selected.Info.Name)

	return &device{
		device: open.Device,
		queue:  open.Queue,
		destroy: func() {
			open.Device.Destroy()
			instance.Destroy()
		},
	}, nil
}
