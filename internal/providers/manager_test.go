package providers

import (
	"context"
	"strings"
	"testing"

	"profilemeister/internal/config"
)

func TestNewManagerDefaultsToMock(t *testing.T) {
	m, err := NewManager(config.Config{LLMProviders: ""})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	p, ref := m.First()
	if ref.Name != "mock" {
		t.Fatalf("expected mock provider, got %q", ref.Name)
	}
	resp, info, err := p.Generate(context.Background(), GenerateRequest{Operation: "draft", Prompt: "hello"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if info.Name != "mock" || resp.Text == "" {
		t.Errorf("unexpected mock response: %+v %+v", resp, info)
	}
}

func TestNewManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewManager(config.Config{LLMProviders: "mock|acme"})
	if err == nil || !strings.Contains(err.Error(), "unsupported provider") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestManagerByName(t *testing.T) {
	m, err := NewManager(config.Config{LLMProviders: "mock|gemini"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 providers, got %d", m.Count())
	}
	if _, ref, ok := m.ByName("GEMINI"); !ok || ref.Name != "gemini" {
		t.Errorf("ByName(GEMINI) = %+v %v", ref, ok)
	}
	if _, _, ok := m.ByName("openai"); ok {
		t.Error("ByName should miss unconfigured provider")
	}
}

func TestMockProviderDeterministic(t *testing.T) {
	p := NewMockProvider()
	req := GenerateRequest{Operation: "fact_refine", Prompt: "same prompt"}
	a, _, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _, _ := p.Generate(context.Background(), req)
	if a.Text != b.Text {
		t.Error("mock output must be deterministic for identical requests")
	}
	if !strings.Contains(a.Text, "Fact-checked") {
		t.Errorf("fact operation output unexpected: %q", a.Text)
	}
}
