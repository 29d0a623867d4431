package providers

import (
	"context"
	"fmt"
	"strings"

	"profilemeister/internal/util"
)

// MockProvider produces deterministic text so local runs and tests exercise
// the full pipeline, cache included, without a live model.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(_ context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	digest := util.SHA256Hex([]byte(req.Prompt))[:12]
	op := strings.ToLower(req.Operation)
	var text string
	switch {
	case strings.Contains(op, "fact"):
		text = fmt.Sprintf("Fact-checked content (%s). No corrections were warranted against the supplied sources.", digest)
	case strings.Contains(op, "insight"):
		text = fmt.Sprintf("Insight-enhanced content (%s).\n\n- Non-obvious observation derived from documented facts.", digest)
	default:
		text = fmt.Sprintf("## Mock Section\n\nDeterministic draft content (%s) grounded in %d source document(s).", digest, len(req.Context))
	}
	return GenerateResponse{Text: text}, info, nil
}
