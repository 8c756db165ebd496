// Package chatmodel adapts eino chat models (Claude, Gemini) to llm.Completer.
package chatmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"grc-backend/internal/llm"
	"grc-backend/internal/shared/telemetry"
)

const maxTokens = 3000

// Options configures New.
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
}

// Completer sends prompts through an eino chat model.
type Completer struct {
	provider    string
	modelName   string
	temperature float32
	chat        model.BaseChatModel
}

// New builds the chat model for opts.Provider ("claude" or "gemini").
func New(ctx context.Context, opts Options) (*Completer, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for %s", opts.Provider)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for %s", opts.Provider)
	}

	var (
		chat model.BaseChatModel
		err  error
	)
	switch opts.Provider {
	case "claude":
		var baseURL *string
		if opts.BaseURL != "" {
			baseURL = &opts.BaseURL
		}
		chat, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    opts.APIKey,
			Model:     opts.Model,
			BaseURL:   baseURL,
			MaxTokens: maxTokens,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: opts.APIKey})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		chat, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  opts.Model,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s chat model: %w", opts.Provider, err)
	}
	return newWithModel(opts, chat), nil
}

func newWithModel(opts Options, chat model.BaseChatModel) *Completer {
	return &Completer{
		provider:    opts.Provider,
		modelName:   opts.Model,
		temperature: float32(opts.Temperature),
		chat:        chat,
	}
}

// Complete sends the system prompt and prompt as one exchange.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: llm.SystemPrompt},
		{Role: schema.User, Content: prompt},
	}
	resp, err := c.chat.Generate(ctx, messages, model.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", c.provider, err)
	}
	if resp == nil {
		return "", errors.New(c.provider + " response empty content")
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", errors.New(c.provider + " response empty content")
	}

	fields := map[string]any{"provider": c.provider, "model": c.modelName}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		fields["prompt_tokens"] = resp.ResponseMeta.Usage.PromptTokens
		fields["completion_tokens"] = resp.ResponseMeta.Usage.CompletionTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

var _ llm.Completer = (*Completer)(nil)
