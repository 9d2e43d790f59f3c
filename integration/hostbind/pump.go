// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hostbind

import (
	"slices"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/shadermount"
)

// Pump implements shadermount.Host for a window driven by the
// application's own render loop.
type Pump struct {
	gpucontext.WindowProvider

	mu     sync.Mutex
	tasks  []func()
	closed bool

	// Render thread only.
	frames map[shadermount.FrameID]func(time.Duration)
	order  []shadermount.FrameID
	next   shadermount.FrameID
	last   time.Time
	now    func() time.Time
}

// NewPump returns a pump for w.
func NewPump(w gpucontext.WindowProvider) *Pump {
	return &Pump{
		WindowProvider: w,
		frames:         make(map[shadermount.FrameID]func(time.Duration)),
		now:            time.Now,
	}
}

// RequestFrame implements shadermount.FrameSource. The callback runs on the
// next Frame, and a redraw is requested from the window.
func (p *Pump) RequestFrame(fn func(dt time.Duration)) shadermount.FrameID {
	p.next++
	id := p.next
	p.frames[id] = fn
	p.order = append(p.order, id)
	p.RequestRedraw()
	return id
}

// CancelFrame implements shadermount.FrameSource.
func (p *Pump) CancelFrame(id shadermount.FrameID) {
	delete(p.frames, id)
}

// Post queues fn for the next Frame. Safe for concurrent use. Tasks posted
// after Close are dropped.
func (p *Pump) Post(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()
	p.RequestRedraw()
}

// Pending reports whether a frame or task is waiting.
func (p *Pump) Pending() bool {
	p.mu.Lock()
	n := len(p.tasks)
	p.mu.Unlock()
	return n > 0 || len(p.frames) > 0
}

// Frame runs queued tasks, then the frame callbacks requested before the
// call. Callbacks requested while running wait for the next Frame. dt is
// the time since the previous Frame, 0 for the first.
func (p *Pump) Frame() {
	now := p.now()
	var dt time.Duration
	if !p.last.IsZero() {
		dt = now.Sub(p.last)
	}
	p.last = now
	p.Advance(dt)
}

// Advance is Frame with an explicit frame time, for offline rendering.
func (p *Pump) Advance(dt time.Duration) {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}

	order := slices.Clone(p.order)
	p.order = p.order[:0]
	for _, id := range order {
		fn, ok := p.frames[id]
		if !ok {
			continue
		}
		delete(p.frames, id)
		fn(dt)
	}
}

// Close drops pending work.
func (p *Pump) Close() {
	p.mu.Lock()
	p.closed = true
	p.tasks = nil
	p.mu.Unlock()
	clear(p.frames)
	p.order = nil
}
