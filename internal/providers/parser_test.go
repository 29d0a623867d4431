package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("mock| gemini |openai:OPENAI_KEY_EU")
	if len(refs) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(refs))
	}
	if refs[0].Name != "mock" || refs[0].KeyAlias != "" {
		t.Errorf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Name != "gemini" {
		t.Errorf("expected trimmed gemini, got %q", refs[1].Name)
	}
	if refs[2].Name != "openai" || refs[2].KeyAlias != "OPENAI_KEY_EU" {
		t.Errorf("unexpected openai ref: %+v", refs[2])
	}
}

func TestParseProviderListEmptyDefaultsToMock(t *testing.T) {
	for _, raw := range []string{"", "  ", "||"} {
		refs := ParseProviderList(raw)
		if len(refs) != 1 || refs[0].Name != "mock" {
			t.Errorf("ParseProviderList(%q) = %+v, want single mock", raw, refs)
		}
	}
}
