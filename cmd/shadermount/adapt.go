package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gogpu/shadermount"
	"github.com/gogpu/shadermount/backend/wgpu"
	"github.com/gogpu/shadermount/shader"
)

func adaptCmd(args []string, out io.Writer) error {
	fs := newFlagSet("adapt")
	dialect := fs.String("dialect", "sksl", "target dialect: glsl or sksl")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("adapt: want one shader file")
	}
	d, err := shader.ParseDialect(*dialect)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	code, err := shader.Adapt(string(src), d)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, code)
	return err
}

func uniformsCmd(args []string, out io.Writer) error {
	fs := newFlagSet("uniforms")
	isWGSL := fs.Bool("wgsl", false, "the file is a WGSL program")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("uniforms: want one shader file")
	}
	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	var decls []shadermount.UniformDecl
	if *isWGSL {
		decls, err = wgslUniforms(fs.Arg(0), string(src))
	} else {
		decls, err = shadermount.ReflectUniforms(string(src))
	}
	if err != nil {
		return err
	}
	for _, d := range decls {
		if d.ArrayLen > 0 {
			fmt.Fprintf(out, "%s\t%v[%d]\n", d.Name, d.Kind, d.ArrayLen)
		} else {
			fmt.Fprintf(out, "%s\t%v\n", d.Name, d.Kind)
		}
	}
	return nil
}

// wgslUniforms compiles src on a headless device and returns its slots
// sorted by name.
func wgslUniforms(name, src string) ([]shadermount.UniformDecl, error) {
	d, err := wgpu.NewHeadlessDriver()
	if err != nil {
		return nil, err
	}
	defer d.Close()
	ctx, err := d.Acquire(shadermount.SurfaceDescriptor{Width: 1, Height: 1, PixelRatio: 1, Kind: shadermount.BackendWGPU})
	if err != nil {
		return nil, err
	}
	defer ctx.Release()
	p, err := ctx.Compile(shadermount.ProgramSource{Name: name, Code: src})
	if err != nil {
		return nil, err
	}
	defer p.Release()
	return p.Slots().Sorted(), nil
}
