package shader

import (
	"strings"
	"testing"
)

func TestTokenizeRoundTrip(t *testing.T) {
	src := "#version 300 es\n" +
		"#define LONG 1 + \\\n  2\n" +
		"/* block\n comment */ uniform float u_x; // trailing\n" +
		"void main() { float a = 1.5e-3 + .5 + 0x1F + 2u; a <<= 1; }\n"
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for _, tok := range toks {
		sb.WriteString(tok.Text)
	}
	if sb.String() != src {
		t.Errorf("concatenated tokens differ from source:\n%q", sb.String())
	}
}

func TestTokenizeKinds(t *testing.T) {
	toks, err := Tokenize("#define N 3\nx+=1.0e2f;")
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		kind TokenKind
		text string
		line int
	}{
		{Directive, "#define N 3", 1},
		{Space, "\n", 1},
		{Ident, "x", 2},
		{Punct, "+=", 2},
		{Number, "1.0e2f", 2},
		{Punct, ";", 2},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(toks), toks, len(want))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text || toks[i].Line != w.line {
			t.Errorf("token %d = %v %q line %d, want %v %q line %d",
				i, toks[i].Kind, toks[i].Text, toks[i].Line, w.kind, w.text, w.line)
		}
	}
}

func TestTokenizeContinuedDirective(t *testing.T) {
	toks, err := Tokenize("#define A 1 \\\n + 2\nA")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != Directive || !strings.Contains(toks[0].Text, "+ 2") {
		t.Errorf("directive = %q, want continuation included", toks[0].Text)
	}
	last := toks[len(toks)-1]
	if last.Text != "A" || last.Line != 3 {
		t.Errorf("last token = %q line %d, want A on line 3", last.Text, last.Line)
	}
}

func TestTokenizeHashMidLine(t *testing.T) {
	toks, err := Tokenize("a # b")
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range toks {
		if tok.Kind == Directive {
			t.Errorf("mid-line # tokenized as directive: %q", tok.Text)
		}
	}
}

func TestTokenizeUnterminatedComment(t *testing.T) {
	if _, err := Tokenize("float a; /* open"); err == nil {
		t.Error("Tokenize accepted an unterminated comment")
	}
}
