// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hostbind connects a shadermount instance to a gogpu-style host
// window.
//
// Applications that own their render loop do not have a frame scheduler
// or a task queue of the kind shadermount.Host asks for. A [Pump] provides
// both on top of any gpucontext.WindowProvider: frame requests and posted
// tasks are queued, and the application runs them from its draw callback.
//
// # Usage
//
//	b, err := hostbind.Bind(app, app.EventSource(), shadermount.BestDriver(), sh, shadermount.Props{Speed: 1})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    b.Frame()
//	})
//
// # Thread Safety
//
// Post and RequestRedraw may be called from any goroutine. Everything else,
// including Frame and Close, runs on the render thread.
package hostbind
