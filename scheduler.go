package shadermount

import (
	"fmt"
	"time"
)

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameSource delivers host frame callbacks, e.g. requestAnimationFrame or a
// vsync-driven window loop. fn receives the time since the previous host
// frame. CancelFrame must guarantee fn is not called afterwards.
type FrameSource interface {
	RequestFrame(fn func(dt time.Duration)) FrameID
	CancelFrame(id FrameID)
}

// SchedulerState is the animation state of an instance.
type SchedulerState uint8

// Scheduler states.
const (
	StateIdle SchedulerState = iota
	StateRunning
	StatePaused
	StateDestroyed
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("SchedulerState(%d)", s)
	}
}

// ClockState is a read-only view of the virtual clock.
type ClockState struct {
	Speed   float64
	Running bool
	Elapsed float64
}

// Scheduler drives a virtual clock from host frame callbacks.
//
// It is single-threaded: every method, and the frame callback, must run on
// the render thread. A tick that arrives while another is in progress is
// dropped and replaced by a fresh frame request.
type Scheduler struct {
	src     FrameSource
	onFrame func(elapsed float64)

	state   SchedulerState
	speed   float64
	elapsed float64

	pending    FrameID
	hasPending bool
	ticking    bool
	again      bool

	// skipAdvance drops the first delta after a resume so the time spent
	// paused is not counted.
	skipAdvance bool
	// autoPaused is set when the clock is paused only because speed is 0.
	autoPaused bool
}

// NewScheduler creates an idle scheduler. onFrame is called once per
// delivered frame with the current virtual time in seconds.
func NewScheduler(src FrameSource, onFrame func(elapsed float64)) *Scheduler {
	return &Scheduler{src: src, onFrame: onFrame, speed: 1}
}

// Mount starts the clock. A speed of 0 mounts Paused. When frame is non-nil
// the clock starts at *frame seconds. The first frame is always requested.
func (s *Scheduler) Mount(speed float64, frame *float64) {
	if s.state != StateIdle {
		return
	}
	s.speed = sanitizeSpeed(speed)
	if frame != nil {
		s.elapsed = *frame
	}
	if s.speed == 0 {
		s.state = StatePaused
		s.autoPaused = true
	} else {
		s.state = StateRunning
	}
	s.skipAdvance = true
	s.request()
}

// Pause stops advancing the clock.
func (s *Scheduler) Pause() {
	if s.state != StateRunning {
		return
	}
	s.state = StatePaused
	s.autoPaused = false
}

// Resume continues a paused clock. The pause gap is not counted.
func (s *Scheduler) Resume() {
	if s.state != StatePaused {
		return
	}
	s.state = StateRunning
	s.autoPaused = false
	s.skipAdvance = true
	s.request()
}

// SetSpeed changes the speed multiplier. Negative speeds are clamped to 0.
// Speed 0 keeps a running clock Running but stops requesting frames; a clock
// paused only by a zero speed resumes when the speed becomes positive.
func (s *Scheduler) SetSpeed(speed float64) {
	if s.state == StateDestroyed {
		return
	}
	speed = sanitizeSpeed(speed)
	prev := s.speed
	s.speed = speed

	switch {
	case s.state == StatePaused && s.autoPaused && speed > 0:
		s.Resume()
	case s.state == StateRunning && prev == 0 && speed > 0:
		s.skipAdvance = true
		s.request()
	}
}

func sanitizeSpeed(speed float64) float64 {
	if !(speed >= 0) {
		Logger().Warn("shadermount: negative or invalid speed clamped to 0", "speed", speed)
		return 0
	}
	return speed
}

// SetFrame forces the virtual time to t seconds and requests a redraw.
// It works in any state except Destroyed.
func (s *Scheduler) SetFrame(t float64) {
	if s.state == StateDestroyed {
		return
	}
	s.elapsed = t
	s.request()
}

// Invalidate requests one redraw without changing the clock.
func (s *Scheduler) Invalidate() { s.request() }

// Unmount cancels the pending frame and makes the scheduler inert.
// No frame callback runs after Unmount returns.
func (s *Scheduler) Unmount() {
	if s.state == StateDestroyed {
		return
	}
	if s.hasPending {
		s.src.CancelFrame(s.pending)
		s.hasPending = false
	}
	s.state = StateDestroyed
}

// State returns the current state.
func (s *Scheduler) State() SchedulerState { return s.state }

// Elapsed returns the virtual time in seconds.
func (s *Scheduler) Elapsed() float64 { return s.elapsed }

// Speed returns the speed multiplier.
func (s *Scheduler) Speed() float64 { return s.speed }

// Clock returns the clock state.
func (s *Scheduler) Clock() ClockState {
	return ClockState{Speed: s.speed, Running: s.state == StateRunning, Elapsed: s.elapsed}
}

// Pending reports whether a frame request is outstanding.
func (s *Scheduler) Pending() bool { return s.hasPending }

func (s *Scheduler) request() {
	if s.hasPending || s.state == StateIdle || s.state == StateDestroyed {
		return
	}
	s.hasPending = true
	s.pending = s.src.RequestFrame(s.tick)
}

func (s *Scheduler) tick(dt time.Duration) {
	s.hasPending = false
	if s.state == StateDestroyed {
		return
	}
	if s.ticking {
		s.again = true
		return
	}
	s.ticking = true

	if s.state == StateRunning {
		if s.skipAdvance {
			s.skipAdvance = false
		} else if dt > 0 {
			s.elapsed += dt.Seconds() * s.speed
		}
	}
	if s.onFrame != nil {
		s.onFrame(s.elapsed)
	}

	s.ticking = false
	if s.again || (s.state == StateRunning && s.speed > 0) {
		s.again = false
		s.request()
	}
}
