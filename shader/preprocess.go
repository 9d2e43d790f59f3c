package shader

import "strings"

// macro is an object-like #define.
type macro struct {
	body []Token
}

// preprocessor drops directives and expands object-like macros.
type preprocessor struct {
	dialect Dialect
	// strict rejects directives that cannot be expressed after rewriting:
	// function-like macros and conditional compilation.
	strict bool
	macros map[string]macro
	// version is the text of the #version directive, if any.
	version string
}

func splitDirective(text string) (name, rest string) {
	body := strings.ReplaceAll(text[1:], "\\\n", " ")
	body = strings.TrimLeft(body, " \t")
	n := 0
	for n < len(body) && isIdentPart(body[n]) {
		n++
	}
	return body[:n], body[n:]
}

// run returns toks without directives and with macros expanded.
func (p *preprocessor) run(toks []Token) ([]Token, error) {
	if p.macros == nil {
		p.macros = make(map[string]macro)
	}
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != Directive {
			out = append(out, p.expand(t, nil)...)
			continue
		}

		name, rest := splitDirective(t.Text)
		switch name {
		case "version":
			p.version = strings.TrimSpace(rest)
		case "extension", "pragma", "":
		case "define":
			if err := p.define(t, rest); err != nil {
				return nil, err
			}
		case "undef":
			delete(p.macros, strings.TrimSpace(rest))
		case "if", "ifdef", "ifndef", "elif", "else", "endif":
			if p.strict {
				return nil, unsupported(p.dialect, t.Line, "#"+name, "conditional compilation")
			}
		default:
			if p.strict {
				return nil, unsupported(p.dialect, t.Line, "#"+name, "unknown directive")
			}
		}
	}
	return out, nil
}

func (p *preprocessor) define(t Token, rest string) error {
	rest = strings.TrimLeft(rest, " \t")
	n := 0
	for n < len(rest) && isIdentPart(rest[n]) {
		n++
	}
	name := rest[:n]
	if name == "" {
		return unsupported(p.dialect, t.Line, "#define", "missing macro name")
	}
	if n < len(rest) && rest[n] == '(' {
		if p.strict {
			return unsupported(p.dialect, t.Line, "#define "+name, "function-like macro")
		}
		return nil
	}

	body, err := Tokenize(strings.TrimSpace(rest[n:]))
	if err != nil {
		return err
	}
	kept := body[:0]
	for _, b := range body {
		if b.Kind == Comment {
			continue
		}
		b.Line = t.Line
		kept = append(kept, b)
	}
	p.macros[name] = macro{body: kept}
	return nil
}

// expand replaces a macro identifier with its body, recursively. active
// holds the macros being expanded, which are not expanded again.
func (p *preprocessor) expand(t Token, active []string) []Token {
	if t.Kind != Ident {
		return []Token{t}
	}
	m, ok := p.macros[t.Text]
	if !ok {
		return []Token{t}
	}
	for _, a := range active {
		if a == t.Text {
			return []Token{t}
		}
	}
	active = append(active, t.Text)

	var out []Token
	for _, b := range m.body {
		b.Line = t.Line
		out = append(out, p.expand(b, active)...)
	}
	return out
}
