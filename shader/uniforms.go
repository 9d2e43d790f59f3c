package shader

import (
	"fmt"
	"strconv"
)

// Uniform is a uniform declared by a canonical shader.
type Uniform struct {
	Name string
	// Type is the GLSL type name, e.g. "float", "vec4" or "sampler2D".
	Type string
	// ArrayLen is the declared array length, or 0.
	ArrayLen int
}

// Uniforms returns the top-level uniform declarations of canonical source in
// declaration order. Macros are expanded first, so array lengths may be
// given by #define. Uniform blocks are not supported.
func Uniforms(src string) ([]Uniform, error) {
	raw, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	pp := &preprocessor{dialect: GLSL}
	toks, err := pp.run(raw)
	if err != nil {
		return nil, err
	}

	var sig []Token
	depth := 0
	var depths []int
	for _, t := range toks {
		if !t.significant() {
			continue
		}
		sig = append(sig, t)
		depths = append(depths, depth)
		switch t.Text {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	at := func(k int) Token {
		if k < 0 || k >= len(sig) {
			return Token{}
		}
		return sig[k]
	}

	var out []Uniform
	for k := 0; k < len(sig); k++ {
		t := sig[k]
		if t.Text != "uniform" || t.Kind != Ident || depths[k] != 0 {
			continue
		}
		j := k + 1
		for precisionQualifiers[at(j).Text] {
			j++
		}
		ty := at(j)
		if ty.Kind != Ident {
			return nil, fmt.Errorf("shader: line %d: malformed uniform declaration", t.Line)
		}
		if at(j+1).Text == "{" {
			return nil, unsupported(GLSL, t.Line, "uniform "+ty.Text, "uniform blocks")
		}
		j++

		for {
			name := at(j)
			if name.Kind != Ident {
				return nil, fmt.Errorf("shader: line %d: malformed uniform declaration", t.Line)
			}
			u := Uniform{Name: name.Text, Type: ty.Text}
			j++
			if at(j).Text == "[" {
				n, err := strconv.Atoi(at(j + 1).Text)
				if err != nil || n <= 0 || at(j+2).Text != "]" {
					return nil, fmt.Errorf("shader: line %d: uniform %s: array length must be a positive integer", t.Line, name.Text)
				}
				u.ArrayLen = n
				j += 3
			}
			out = append(out, u)

			switch at(j).Text {
			case ",":
				j++
				continue
			case ";":
			default:
				return nil, fmt.Errorf("shader: line %d: uniform %s: expected ';'", t.Line, name.Text)
			}
			break
		}
		k = j
	}
	return out, nil
}
