package shader

import (
	"fmt"
	"strings"
)

// Dialect is a target shading language.
type Dialect uint8

// Dialects.
const (
	// GLSL is canonical GLSL ES 3.00, used by WebGL2.
	GLSL Dialect = iota
	// SkSL is the Skia runtime effect language.
	SkSL
	// WGSL is the WebGPU shading language. Textual adaptation to WGSL is
	// not supported; wgpu programs carry their own WGSL.
	WGSL
)

func (d Dialect) String() string {
	switch d {
	case GLSL:
		return "glsl"
	case SkSL:
		return "sksl"
	case WGSL:
		return "wgsl"
	default:
		return fmt.Sprintf("Dialect(%d)", d)
	}
}

// ParseDialect parses a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "glsl":
		return GLSL, nil
	case "sksl":
		return SkSL, nil
	case "wgsl":
		return WGSL, nil
	}
	return 0, fmt.Errorf("shader: unknown dialect %q", s)
}

// typeRenames maps GLSL vector and matrix types to SkSL.
var typeRenames = map[string]string{
	"vec2": "float2", "vec3": "float3", "vec4": "float4",
	"ivec2": "int2", "ivec3": "int3", "ivec4": "int4",
	"bvec2": "bool2", "bvec3": "bool3", "bvec4": "bool4",
	"mat2": "float2x2", "mat3": "float3x3", "mat4": "float4x4",
	"mat2x2": "float2x2", "mat2x3": "float2x3", "mat2x4": "float2x4",
	"mat3x2": "float3x2", "mat3x3": "float3x3", "mat3x4": "float3x4",
	"mat4x2": "float4x2", "mat4x3": "float4x3", "mat4x4": "float4x4",
}

var precisionQualifiers = map[string]bool{"lowp": true, "mediump": true, "highp": true}

// Adapt rewrites canonical GLSL ES 3.00 fragment source for dialect d.
//
// For GLSL the source is validated and returned unchanged. For SkSL:
//   - #version, #extension and #pragma lines are removed
//   - object-like #define macros are expanded and removed
//   - precision statements and qualifiers are removed
//   - the output variable declaration is removed
//   - void main() becomes half4 main(float2 fragCoord)
//   - gl_FragCoord becomes fragCoord
//   - a single trailing output assignment becomes a return; any other use of
//     the output becomes a local half4 returned at every exit
//   - vector and matrix types are renamed (vec2 to float2, mat3 to float3x3)
func Adapt(src string, d Dialect) (string, error) {
	switch d {
	case GLSL:
		if _, err := analyze(src, GLSL); err != nil {
			return "", err
		}
		return src, nil
	case SkSL:
		u, err := analyze(src, SkSL)
		if err != nil {
			return "", err
		}
		return u.rewriteSkSL()
	case WGSL:
		return "", unsupported(d, 0, "dialect", "textual adaptation to WGSL is not supported")
	}
	return "", fmt.Errorf("shader: unknown dialect %d", d)
}

// unit is a preprocessed shader with the significant-token structure
// resolved.
type unit struct {
	dialect Dialect
	toks    []Token

	sig    []int // indices into toks of significant tokens
	braces []int // brace depth before each sig token
	parens []int // paren depth before each sig token

	out     outputDecl
	main    mainDecl
	version string
}

// outputDecl spans the top-level `[layout(...)] out vec4 name;`.
type outputDecl struct {
	name       string
	start, end int // sig positions, inclusive
}

// mainDecl locates `void main()` and its body.
type mainDecl struct {
	void       int // sig position of "void"
	open       int // sig position of "("
	close      int // sig position of ")"
	bodyOpen   int // sig position of "{"
	bodyClose  int // sig position of "}"
	firstToken int // toks index following "{"
}

func analyze(src string, d Dialect) (*unit, error) {
	raw, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	pp := &preprocessor{dialect: d, strict: d != GLSL}
	toks, err := pp.run(raw)
	if err != nil {
		return nil, err
	}

	u := &unit{dialect: d, toks: toks, version: pp.version}
	brace, paren := 0, 0
	for i, t := range toks {
		if !t.significant() {
			continue
		}
		u.sig = append(u.sig, i)
		u.braces = append(u.braces, brace)
		u.parens = append(u.parens, paren)
		switch t.Text {
		case "{":
			brace++
		case "}":
			brace--
		case "(":
			paren++
		case ")":
			paren--
		}
		if brace < 0 || paren < 0 {
			return nil, unsupported(d, t.Line, t.Text, "unbalanced")
		}
	}
	if brace != 0 || paren != 0 {
		return nil, unsupported(d, 0, "source", "unbalanced braces or parentheses")
	}

	if err := u.findOutput(); err != nil {
		return nil, err
	}
	if err := u.findMain(); err != nil {
		return nil, err
	}
	return u, nil
}

// at returns the significant token at sig position k, or a zero token.
func (u *unit) at(k int) Token {
	if k < 0 || k >= len(u.sig) {
		return Token{}
	}
	return u.toks[u.sig[k]]
}

func (u *unit) topLevel(k int) bool { return u.braces[k] == 0 && u.parens[k] == 0 }

// skipQualifiers returns the first sig position at or after k that is not a
// precision qualifier.
func (u *unit) skipQualifiers(k int) int {
	for precisionQualifiers[u.at(k).Text] {
		k++
	}
	return k
}

func (u *unit) findOutput() error {
	found := 0
	for k := range u.sig {
		t := u.at(k)
		if t.Kind != Ident || !u.topLevel(k) {
			continue
		}
		if t.Text == "in" && u.dialect == SkSL {
			return unsupported(u.dialect, t.Line, "in", "varying inputs")
		}
		if t.Text != "out" {
			continue
		}

		start := k
		if u.at(k-1).Text == ")" {
			open := k - 1
			for open >= 0 && u.at(open).Text != "(" {
				open--
			}
			if u.at(open-1).Text == "layout" {
				start = open - 1
			}
		}
		ty := u.skipQualifiers(k + 1)
		name := ty + 1
		end := name + 1
		if u.at(ty).Kind != Ident || u.at(name).Kind != Ident {
			return unsupported(u.dialect, t.Line, "out", "malformed output declaration")
		}
		if u.at(end).Text != ";" {
			return unsupported(u.dialect, t.Line, "out "+u.at(name).Text, "only a single non-array output is supported")
		}
		if u.at(ty).Text != "vec4" {
			return unsupported(u.dialect, t.Line, "out "+u.at(name).Text, "output must be vec4")
		}
		found++
		if found > 1 {
			return unsupported(u.dialect, t.Line, "out "+u.at(name).Text, "multiple output variables")
		}
		u.out = outputDecl{name: u.at(name).Text, start: start, end: end}
	}
	if found == 0 {
		return unsupported(u.dialect, 0, "out", "no output variable declared")
	}
	return nil
}

func (u *unit) findMain() error {
	found := false
	for k := range u.sig {
		if u.at(k).Text != "main" || u.at(k).Kind != Ident || !u.topLevel(k) {
			continue
		}
		line := u.at(k).Line
		if found {
			return unsupported(u.dialect, line, "main", "defined more than once")
		}
		if u.at(k-1).Text != "void" {
			return unsupported(u.dialect, line, "main", "entry point must return void")
		}
		if u.at(k+1).Text != "(" {
			continue
		}
		closeK := k + 2
		if u.at(closeK).Text == "void" {
			closeK++
		}
		if u.at(closeK).Text != ")" {
			return unsupported(u.dialect, line, "main", "entry point takes no parameters")
		}
		if u.at(closeK+1).Text != "{" {
			// A prototype.
			continue
		}
		m := mainDecl{void: k - 1, open: k + 1, close: closeK, bodyOpen: closeK + 1}
		m.bodyClose = -1
		for j := m.bodyOpen + 1; j < len(u.sig); j++ {
			if u.at(j).Text == "}" && u.braces[j] == 1 {
				m.bodyClose = j
				break
			}
		}
		m.firstToken = u.sig[m.bodyOpen] + 1
		u.main = m
		found = true
	}
	if !found {
		return unsupported(u.dialect, 0, "main", "no void main() entry point")
	}
	return nil
}

func (u *unit) inMain(k int) bool { return k > u.main.bodyOpen && k < u.main.bodyClose }

// edit accumulates token-level changes for emission.
type edit struct {
	drop   map[int]bool
	repl   map[int]string
	before map[int]string
	after  map[int]string
}

func (u *unit) rewriteSkSL() (string, error) {
	e := edit{
		drop:   make(map[int]bool),
		repl:   make(map[int]string),
		before: make(map[int]string),
		after:  make(map[int]string),
	}
	d := u.dialect

	for k := 0; k < len(u.sig); k++ {
		t := u.at(k)
		if t.Kind != Ident {
			continue
		}
		switch {
		case t.Text == "precision":
			end := k
			for end < len(u.sig) && u.at(end).Text != ";" {
				end++
			}
			for i := u.sig[k]; i <= u.sig[min(end, len(u.sig)-1)]; i++ {
				e.drop[i] = true
			}
			k = end
		case precisionQualifiers[t.Text]:
			e.drop[u.sig[k]] = true
			u.dropInlineSpace(e, u.sig[k]+1)
		case t.Text == "sampler2D":
			return "", unsupported(d, t.Line, "sampler2D", "samplers are not available in runtime effects")
		}
	}

	// Output declaration.
	for i := u.sig[u.out.start]; i <= u.sig[u.out.end]; i++ {
		e.drop[i] = true
	}

	// Entry point.
	m := u.main
	e.repl[u.sig[m.void]] = "half4"
	e.repl[u.sig[m.open]] = "(float2 fragCoord"
	for i := u.sig[m.open] + 1; i < u.sig[m.close]; i++ {
		e.drop[i] = true
	}

	if err := u.rewriteOutput(e); err != nil {
		return "", err
	}

	for k := range u.sig {
		t := u.at(k)
		if t.Kind != Ident || e.drop[u.sig[k]] {
			continue
		}
		if _, ok := e.repl[u.sig[k]]; ok {
			continue
		}
		if t.Text == "gl_FragCoord" {
			r, err := u.fragCoord(k)
			if err != nil {
				return "", err
			}
			e.repl[u.sig[k]] = r
			continue
		}
		if r, ok := typeRenames[t.Text]; ok && u.at(k-1).Text != "." {
			e.repl[u.sig[k]] = r
		}
	}

	var sb strings.Builder
	for i, t := range u.toks {
		sb.WriteString(e.before[i])
		if !e.drop[i] {
			if r, ok := e.repl[i]; ok {
				sb.WriteString(r)
			} else {
				sb.WriteString(t.Text)
			}
		}
		sb.WriteString(e.after[i])
	}
	return sb.String(), nil
}

// dropInlineSpace drops toks[i] if it is whitespace without a newline.
func (u *unit) dropInlineSpace(e edit, i int) {
	if i < len(u.toks) && u.toks[i].Kind == Space && !strings.Contains(u.toks[i].Text, "\n") {
		e.drop[i] = true
	}
}

// rewriteOutput turns writes to the output variable into returns.
func (u *unit) rewriteOutput(e edit) error {
	d, m, name := u.dialect, u.main, u.out.name

	var refs, returns []int
	for k := range u.sig {
		t := u.at(k)
		if t.Kind != Ident {
			continue
		}
		switch {
		case t.Text == name && u.at(k-1).Text != ".":
			if k >= u.out.start && k <= u.out.end {
				continue
			}
			if !u.inMain(k) {
				return unsupported(d, t.Line, name, "output used outside main")
			}
			refs = append(refs, k)
		case t.Text == "return" && u.inMain(k):
			if u.at(k+1).Text != ";" {
				return unsupported(d, t.Line, "return", "main returns a value")
			}
			returns = append(returns, k)
		}
	}

	// A single trailing `name = expr;` directly in main's body.
	if len(refs) == 1 && len(returns) == 0 {
		r := refs[0]
		prev := u.at(r - 1).Text
		if u.braces[r] == 1 && u.parens[r] == 0 && u.at(r+1).Text == "=" &&
			(prev == "{" || prev == ";" || prev == "}") {
			semi := r + 2
			for semi < m.bodyClose && !(u.at(semi).Text == ";" && u.braces[semi] == 1 && u.parens[semi] == 0) {
				semi++
			}
			if semi+1 == m.bodyClose {
				e.repl[u.sig[r]] = "return"
				eq := u.sig[r+1]
				e.drop[eq] = true
				u.dropInlineSpace(e, eq+1)
				return nil
			}
		}
	}

	indent := "  "
	if sp := u.toks[m.firstToken]; m.firstToken < len(u.toks) && sp.Kind == Space {
		if nl := strings.LastIndexByte(sp.Text, '\n'); nl >= 0 {
			indent = sp.Text[nl+1:]
		}
	}
	e.after[u.sig[m.bodyOpen]] = fmt.Sprintf("\n%shalf4 %s = half4(0);", indent, name)
	for _, k := range returns {
		e.repl[u.sig[k]] = "return " + name
	}
	closeTok := u.sig[m.bodyClose]
	e.before[closeTok] = fmt.Sprintf("%sreturn %s;\n", indent, name)
	// Keep the closing brace's own indentation when the body ends on its
	// own line.
	if prev := closeTok - 1; prev >= 0 && u.toks[prev].Kind == Space {
		if nl := strings.LastIndexByte(u.toks[prev].Text, '\n'); nl >= 0 {
			e.before[closeTok] += u.toks[prev].Text[nl+1:]
			e.repl[prev] = u.toks[prev].Text[:nl+1]
		}
	}
	return nil
}

// fragCoord returns the replacement for gl_FragCoord at sig position k.
func (u *unit) fragCoord(k int) (string, error) {
	t := u.at(k)
	if !u.inMain(k) {
		return "", unsupported(u.dialect, t.Line, "gl_FragCoord", "used outside main")
	}
	if u.at(k+1).Text != "." {
		return "float4(fragCoord, 0.0, 1.0)", nil
	}
	swizzle := u.at(k + 2).Text
	if strings.Trim(swizzle, "xyrgst") != "" {
		return "", unsupported(u.dialect, t.Line, "gl_FragCoord."+swizzle, "only x and y are available")
	}
	return "fragCoord", nil
}
