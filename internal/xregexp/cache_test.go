package xregexp

import "testing"

func TestMatchString(t *testing.T) {
	Clear()

	if !MatchString("^hel+o$", "hello") {
		t.Fatalf("expected match")
	}

	if MatchString("^hel+o$", "goodbye") {
		t.Fatalf("expected no match")
	}
}

func TestMatchStringInvalidPattern(t *testing.T) {
	Clear()

	if MatchString("(unterminated", "anything") {
		t.Fatalf("invalid pattern should never match")
	}

	if CompileError("(unterminated") == nil {
		t.Fatalf("expected compile error to be recorded")
	}
}

func TestMatchStringCachesCompiledPattern(t *testing.T) {
	Clear()

	pattern := `^\d+$`
	if !MatchString(pattern, "123") {
		t.Fatalf("expected match on first compile")
	}

	if !MatchString(pattern, "456") {
		t.Fatalf("expected match from cached pattern")
	}
}
