// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostbind

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/shadermount"
)

// ErrBindingClosed is returned when operations are attempted on a closed
// binding.
var ErrBindingClosed = errors.New("hostbind: binding is closed")

// Binding is a shader mounted on a window.
type Binding struct {
	pump   *Pump
	inst   *shadermount.Instance
	kind   shadermount.BackendKind
	closed bool
}

// Bind mounts sh on w and forwards resize events from events. A nil events
// source means the application calls Resize itself.
func Bind(w gpucontext.WindowProvider, events gpucontext.EventSource, driver shadermount.Driver,
	sh *shadermount.Shader, props shadermount.Props, opts ...shadermount.Option) (*Binding, error) {
	if w == nil {
		return nil, errors.New("hostbind: nil window")
	}
	if driver == nil {
		return nil, shadermount.ErrNoDriver
	}
	pump := NewPump(w)
	inst, err := shadermount.Mount(pump, driver, sh, props, opts...)
	if err != nil {
		pump.Close()
		return nil, fmt.Errorf("hostbind: %w", err)
	}
	b := &Binding{pump: pump, inst: inst, kind: driver.Kind()}
	if events != nil {
		// Resize events may arrive from the platform thread.
		events.OnResize(func(int, int) {
			pump.Post(func() {
				if err := b.Resize(); err != nil && !errors.Is(err, ErrBindingClosed) {
					shadermount.Logger().Warn("hostbind: resize failed", "err", err)
				}
			})
		})
	}
	return b, nil
}

// Frame runs one frame of the pump. Call it from the window's draw
// callback.
func (b *Binding) Frame() {
	if b.closed {
		return
	}
	b.pump.Frame()
}

// Advance runs one frame with an explicit frame time.
func (b *Binding) Advance(dt time.Duration) {
	if b.closed {
		return
	}
	b.pump.Advance(dt)
}

// Resize re-reads the window size and forwards it to the instance.
func (b *Binding) Resize() error {
	if b.closed {
		return ErrBindingClosed
	}
	return b.inst.OnResize(shadermount.DescribeSurface(b.pump.WindowProvider, b.kind))
}

// SetParams forwards new parameters to the instance.
func (b *Binding) SetParams(props shadermount.Props) error {
	if b.closed {
		return ErrBindingClosed
	}
	return b.inst.OnParamsChanged(props)
}

// Instance returns the mounted instance.
func (b *Binding) Instance() *shadermount.Instance { return b.inst }

// Pump returns the host the instance is mounted on.
func (b *Binding) Pump() *Pump { return b.pump }

// Close unmounts the instance. Close is idempotent.
func (b *Binding) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.inst.Unmount()
	b.pump.Close()
	return nil
}
