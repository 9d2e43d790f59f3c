// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shadermount"
	"github.com/gogpu/wgpu/hal"
)

// vertexEntry is the entry point of the full-surface triangle appended to
// programs that declare no vertex stage.
const vertexEntry = "shadermount_vs"

const vertexPrelude = `
@vertex
fn shadermount_vs(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let p = vec2<f32>(f32((i << 1u) & 2u), f32(i & 2u));
    return vec4<f32>(p * 2.0 - 1.0, 0.0, 1.0);
}
`

// Program is a compiled WGSL fragment program.
type Program struct {
	ctx    *Context
	name   string
	layout *layout

	shader         hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.RenderPipeline

	uniforms hal.Buffer
	// block shadows the uniform buffer contents.
	block []byte

	textures  map[string]*texture
	bindGroup hal.BindGroup
	dirty     bool
	released  bool
}

// Compile implements shadermount.Context. The source is validated with naga
// before any GPU object is created, so diagnostics carry WGSL line numbers.
func (c *Context) Compile(src shadermount.ProgramSource) (shadermount.Program, error) {
	if c.lost {
		return nil, shadermount.ErrContextLost
	}
	code := src.Code
	l, err := reflect(code)
	if err != nil {
		return nil, &shadermount.CompileError{Backend: shadermount.BackendWGPU, Shader: src.Name, Log: err.Error()}
	}
	vertex := vertexEntry
	if l.hasVertex {
		vertex = l.vertex
	} else {
		code += vertexPrelude
	}

	p := &Program{ctx: c, name: src.Name, layout: l, textures: make(map[string]*texture), dirty: true}
	if err := p.create(code, vertex); err != nil {
		p.Release()
		return nil, err
	}
	slogger().Debug("wgpu: program compiled", "shader", src.Name,
		"uniforms", len(l.members), "textures", len(l.textures))
	return p, nil
}

func (p *Program) create(code, vertex string) error {
	c := p.ctx
	var err error
	p.shader, err = c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.name,
		Source: hal.ShaderSource{WGSL: code},
	})
	if err != nil {
		return c.check("create shader module", err)
	}

	p.bindLayout, err = c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.name + "_bind_layout",
		Entries: p.layoutEntries(),
	})
	if err != nil {
		return c.check("create bind group layout", err)
	}
	p.pipelineLayout, err = c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return c.check("create pipeline layout", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.name,
		Layout: p.pipelineLayout,
		Vertex: hal.VertexState{Module: p.shader, EntryPoint: vertex},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: p.layout.fragment,
			Targets: []gputypes.ColorTargetState{{
				Format:    c.format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return c.check("create render pipeline", err)
	}

	if p.layout.uniformBuf != nil {
		p.block = make([]byte, max(p.layout.blockSize, 16))
		p.uniforms, err = c.device.CreateBuffer(&hal.BufferDescriptor{
			Label: p.name + "_uniforms",
			Size:  uint64(len(p.block)),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return c.check("create uniform buffer", err)
		}
		if err := c.queue.WriteBuffer(p.uniforms, 0, p.block); err != nil {
			return c.check("write uniforms", err)
		}
	}
	return nil
}

func (p *Program) layoutEntries() []gputypes.BindGroupLayoutEntry {
	l := p.layout
	var entries []gputypes.BindGroupLayoutEntry
	if l.uniformBuf != nil {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    *l.uniformBuf,
			Visibility: gputypes.ShaderStageFragment | gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, t := range l.textures {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    t.binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	for _, b := range l.samplers {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		})
	}
	return entries
}

// Slots implements shadermount.Program.
func (p *Program) Slots() shadermount.Slots { return p.layout.slots() }

// Upload implements shadermount.Program.
func (p *Program) Upload(u shadermount.Update) error {
	if p.ctx.lost {
		return shadermount.ErrContextLost
	}
	if b, ok := u.Value.(*shadermount.TextureBinding); ok {
		return p.bindTexture(u.Name, b)
	}

	m, ok := p.layout.members[u.Name]
	if !ok {
		return &shadermount.UnknownUniformError{Name: u.Name}
	}
	if err := p.write(m, u.Value); err != nil {
		return err
	}
	if u.Count != nil {
		cm, ok := p.layout.members[u.Count.Name]
		if !ok {
			return &shadermount.UnknownUniformError{Name: u.Count.Name}
		}
		n := u.CountValue()
		var v shadermount.Value = shadermount.Float(n)
		if cm.decl.Kind == shadermount.KindInt {
			v = shadermount.Int(n)
		}
		if err := p.write(cm, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) write(m member, v shadermount.Value) error {
	lo, hi, err := m.encode(p.block, v)
	if err != nil {
		return fmt.Errorf("%w: %v", shadermount.ErrUniformType, err)
	}
	if err := p.ctx.queue.WriteBuffer(p.uniforms, uint64(lo), p.block[lo:hi]); err != nil {
		return p.ctx.check("write uniform "+m.decl.Name, err)
	}
	return nil
}

func (p *Program) bindTexture(name string, b *shadermount.TextureBinding) error {
	found := false
	for _, t := range p.layout.textures {
		if t.name == name {
			found = true
			break
		}
	}
	if !found {
		return &shadermount.UnknownUniformError{Name: name}
	}
	var tex *texture
	if b != nil && b.Texture != nil {
		t, ok := b.Texture.(*texture)
		if !ok || t.ctx.device != p.ctx.device {
			return fmt.Errorf("%w: %s: texture belongs to another device", shadermount.ErrUniformType, name)
		}
		tex = t
	}
	p.textures[name] = tex
	p.dirty = true
	return nil
}

// bind rebuilds the bind group after texture changes.
func (p *Program) bind() error {
	if !p.dirty && p.bindGroup != nil {
		return nil
	}
	c := p.ctx
	l := p.layout
	var entries []gputypes.BindGroupEntry
	if l.uniformBuf != nil {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: *l.uniformBuf,
			Resource: gputypes.BufferBinding{
				Buffer: p.uniforms.NativeHandle(),
				Size:   uint64(len(p.block)),
			},
		})
	}
	for _, t := range l.textures {
		tex := p.textures[t.name]
		if tex == nil || tex.released {
			ph, err := c.placeholderTexture()
			if err != nil {
				return err
			}
			tex = ph
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  t.binding,
			Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
		})
	}
	if len(l.samplers) > 0 {
		s, err := c.linearSampler()
		if err != nil {
			return err
		}
		for _, b := range l.samplers {
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  b,
				Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
			})
		}
	}

	bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.name + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return c.check("create bind group", err)
	}
	if p.bindGroup != nil {
		c.device.DestroyBindGroup(p.bindGroup)
	}
	p.bindGroup = bg
	p.dirty = false
	return nil
}

// Draw implements shadermount.Program. It renders one full-surface
// triangle into the context target.
func (p *Program) Draw() error {
	if p.released {
		return fmt.Errorf("wgpu: draw with released program %q", p.name)
	}
	if err := p.bind(); err != nil {
		return err
	}
	return p.ctx.submit(p.name, gputypes.Color{}, func(pass hal.RenderPassEncoder) {
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, p.bindGroup, nil)
		pass.Draw(3, 1, 0, 0)
	})
}

// Release implements shadermount.Program. Idempotent.
func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	d := p.ctx.device
	if p.bindGroup != nil {
		d.DestroyBindGroup(p.bindGroup)
	}
	if p.uniforms != nil {
		d.DestroyBuffer(p.uniforms)
	}
	if p.pipeline != nil {
		d.DestroyRenderPipeline(p.pipeline)
	}
	if p.pipelineLayout != nil {
		d.DestroyPipelineLayout(p.pipelineLayout)
	}
	if p.bindLayout != nil {
		d.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.shader != nil {
		d.DestroyShaderModule(p.shader)
	}
	p.textures = nil
}
