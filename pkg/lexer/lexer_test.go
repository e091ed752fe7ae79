package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `$add = i4(i4, i4) global
entry:
$x = add $a, $b
ret $x`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdent, "add"},
		{TokenEquals, "="},
		{TokenBare, "i4"},
		{TokenLParen, "("},
		{TokenBare, "i4"},
		{TokenComma, ","},
		{TokenBare, "i4"},
		{TokenRParen, ")"},
		{TokenBare, "global"},
		{TokenBare, "entry"},
		{TokenColon, ":"},
		{TokenIdent, "x"},
		{TokenEquals, "="},
		{TokenBare, "add"},
		{TokenIdent, "a"},
		{TokenComma, ","},
		{TokenIdent, "b"},
		{TokenBare, "ret"},
		{TokenIdent, "x"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%v, got=%v (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"hi\012there"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected string token, got %v", tok.Type)
	}
	want := "hi\nthere"
	if tok.Literal != want {
		t.Fatalf("expected %q, got %q", want, tok.Literal)
	}
}

func TestNegativeInt(t *testing.T) {
	l := New(`-7`)
	tok := l.NextToken()
	if tok.Type != TokenInt || tok.Literal != "-7" {
		t.Fatalf("expected int -7, got %v %q", tok.Type, tok.Literal)
	}
}

func TestCommentSkipped(t *testing.T) {
	l := New("# a comment\n$x")
	tok := l.NextToken()
	if tok.Type != TokenIdent || tok.Literal != "x" {
		t.Fatalf("expected ident x, got %v %q", tok.Type, tok.Literal)
	}
}
