package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shadermount"
	"github.com/gogpu/shadermount/backend/wgpu"
	"github.com/gogpu/shadermount/integration/hostbind"
)

// script is a trace scenario.
type script struct {
	Surface surfaceSize              `yaml:"surface"`
	Sizing  shadermount.SizingConfig `yaml:"sizing"`
	Speed   *float64                 `yaml:"speed"`
	Params  map[string]any           `yaml:"params"`
	Steps   []step                   `yaml:"steps"`
}

type surfaceSize struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// step is one scripted event. Exactly one field is set.
type step struct {
	Frame    time.Duration  `yaml:"frame"`
	Frames   int            `yaml:"frames"`
	Resize   *surfaceSize   `yaml:"resize"`
	Params   map[string]any `yaml:"params"`
	Pause    bool           `yaml:"pause"`
	Resume   bool           `yaml:"resume"`
	SetFrame *float64       `yaml:"setFrame"`
}

func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := script{Sizing: shadermount.DefaultSizing()}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Surface.Width <= 0 || s.Surface.Height <= 0 {
		s.Surface.Width, s.Surface.Height = 800, 600
	}
	return &s, nil
}

// traceWindow is a resizable headless window.
type traceWindow struct {
	size surfaceSize
}

func (w *traceWindow) Size() (int, int) { return w.size.Width, w.size.Height }

func (w *traceWindow) ScaleFactor() float64 {
	if w.size.Scale <= 0 {
		return 1
	}
	return w.size.Scale
}

func (w *traceWindow) RequestRedraw() {}

func traceCmd(args []string, out io.Writer) error {
	fs := newFlagSet("trace")
	verbose := fs.Bool("v", false, "log runtime events to stderr")
	dt := fs.Duration("dt", time.Second/60, "frame time of frames steps")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("trace: want a shader manifest and a script")
	}
	verboseLogging(*verbose)

	sh, err := shadermount.LoadShader(fs.Arg(0))
	if err != nil {
		return err
	}
	sc, err := loadScript(fs.Arg(1))
	if err != nil {
		return err
	}
	return trace(sh, sc, *dt, out)
}

func trace(sh *shadermount.Shader, sc *script, dt time.Duration, out io.Writer) error {
	props, err := scriptProps(sh, sc.Params, sc)
	if err != nil {
		return err
	}

	d, err := wgpu.NewHeadlessDriver()
	if err != nil {
		return err
	}
	defer d.Close()

	win := &traceWindow{size: sc.Surface}
	b, err := hostbind.Bind(win, nil, d, sh, props)
	if err != nil {
		return err
	}
	defer b.Close()
	inst := b.Instance()

	report := func(label string, prev shadermount.Stats) shadermount.Stats {
		s := inst.Stats()
		fmt.Fprintf(out, "%-22s compiles=%d uploads=+%d draws=+%d skipped=+%d t=%.3f\n",
			label, s.Compiles, s.Uploads-prev.Uploads, s.Draws-prev.Draws, s.Skipped-prev.Skipped,
			inst.Clock().Elapsed)
		return s
	}
	stats := report("mount", shadermount.Stats{})

	for i, st := range sc.Steps {
		var label string
		switch {
		case st.Frame > 0:
			b.Advance(st.Frame)
			label = fmt.Sprintf("frame %v", st.Frame)
		case st.Frames > 0:
			for range st.Frames {
				b.Advance(dt)
			}
			label = fmt.Sprintf("frames %d", st.Frames)
		case st.Resize != nil:
			win.size = *st.Resize
			if err := b.Resize(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			s := inst.Surface()
			label = fmt.Sprintf("resize %dx%d", s.Width, s.Height)
		case st.Params != nil:
			p, err := scriptProps(sh, st.Params, sc)
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			if err := b.SetParams(p); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			label = "params"
		case st.Pause:
			inst.Pause()
			label = "pause"
		case st.Resume:
			inst.Resume()
			label = "resume"
		case st.SetFrame != nil:
			inst.SetFrame(*st.SetFrame)
			label = fmt.Sprintf("set frame %g", *st.SetFrame)
		default:
			return fmt.Errorf("step %d: empty step", i+1)
		}
		stats = report(label, stats)
	}

	if err := inst.Err(); err != nil {
		return err
	}
	tr := inst.Transform()
	fmt.Fprintf(out, "surface %dx%d scale %.4gx%.4g overflow %gx%g\n",
		inst.Surface().Width, inst.Surface().Height, tr.Scale[0], tr.Scale[1], tr.Overflow[0], tr.Overflow[1])
	return nil
}

// scriptProps binds params against the shader schema.
func scriptProps(sh *shadermount.Shader, params map[string]any, sc *script) (shadermount.Props, error) {
	bound, err := sh.Schema.Bind(params)
	if err != nil {
		return shadermount.Props{}, err
	}
	props := shadermount.Props{Params: bound, Sizing: sc.Sizing, Speed: 1}
	if sc.Speed != nil {
		props.Speed = *sc.Speed
	}
	return props, nil
}
