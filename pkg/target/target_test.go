package target

import "testing"

func TestParseLinux(t *testing.T) {
	s, err := Parse("linux-x86_64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PrivatePrefix != ".L" || s.LeadingUnderscore || s.AlignLog2 {
		t.Fatalf("unexpected linux descriptor: %+v", s)
	}
}

func TestParseDarwin(t *testing.T) {
	s, err := Parse("darwin-x86_64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PrivatePrefix != "L" || !s.LeadingUnderscore || !s.AlignLog2 {
		t.Fatalf("unexpected darwin descriptor: %+v", s)
	}
	if got := s.Mangle("main"); got != "_main" {
		t.Fatalf("expected _main, got %q", got)
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("plan9-arm"); err == nil {
		t.Fatal("expected error for unsupported triple")
	}
}

func TestAlignDirective(t *testing.T) {
	linux, _ := Parse("linux-x86_64")
	if got := linux.AlignDirective(16); got != 16 {
		t.Fatalf("linux align(16): expected 16, got %d", got)
	}
	darwin, _ := Parse("darwin-x86_64")
	if got := darwin.AlignDirective(16); got != 4 {
		t.Fatalf("darwin align(16): expected log2=4, got %d", got)
	}
}
