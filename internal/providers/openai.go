package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider uses the official openai-go SDK (chat completions).
type OpenAIProvider struct {
	keyName string
	model   string
	opts    []option.RequestOption
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	model := os.Getenv("PROFILEMEISTER_OPENAI_MODEL")
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	var opts []option.RequestOption
	if key := resolveOpenAIKey(keyName); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if base := strings.TrimSpace(os.Getenv("PROFILEMEISTER_OPENAI_BASE_URL")); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAIProvider{keyName: keyName, model: model, opts: opts}
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: o.model, Key: o.keyName}
	if len(o.opts) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	client := openai.NewClient(o.opts...)

	user := req.Prompt
	if len(req.Context) > 0 {
		user = user + "\n\nSource documents:\n" + strings.Join(req.Context, "\n\n")
	}
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write sections of company profiles grounded strictly in the supplied source documents."),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("openai generate request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("openai returned empty choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return GenerateResponse{}, info, fmt.Errorf("openai returned malformed choice with no text")
	}
	return GenerateResponse{Text: text}, info, nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("PROFILEMEISTER_OPENAI_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}
