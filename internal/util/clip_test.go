package util

import (
	"strings"
	"testing"
)

func TestClipTextShortInputUnchanged(t *testing.T) {
	if out := ClipText("hello world", 100); out != "hello world" {
		t.Fatalf("unexpected clip output: %q", out)
	}
}

func TestClipTextCutsAtWordBoundary(t *testing.T) {
	in := strings.Repeat("lorem ipsum ", 50)
	out := ClipText(in, 40)
	if !strings.HasSuffix(out, " [...]") {
		t.Fatalf("expected ellipsis marker, got %q", out)
	}
	if len([]rune(out)) > 50 {
		t.Fatalf("clip exceeded limit: %d runes", len([]rune(out)))
	}
}
