// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mnemo-dev/mnemo/internal/engine"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Compile-time interface check.
var _ engine.Engine = (*Engine)(nil)

const defaultMaxTokens = 2048

// Config holds Anthropic engine configuration.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string // optional, useful for testing against a mock server
	MaxTokens int64
}

// Engine implements engine.Engine using the Anthropic Messages API,
// non-streaming: both capabilities are single short completions.
type Engine struct {
	client anthropicsdk.Client
	config Config
}

// New creates an Anthropic engine. Returns an error if the API key or
// model is missing.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, mnemoerr.New(mnemoerr.CodeConfigValidateInvalidValue, "anthropic: missing api_key")
	}
	if cfg.Model == "" {
		return nil, mnemoerr.New(mnemoerr.CodeConfigValidateInvalidValue, "anthropic: missing model")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Engine{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

// Summarize implements engine.Engine.
func (e *Engine) Summarize(ctx context.Context, text string, c engine.Constraints) (string, error) {
	out, err := e.complete(ctx, engine.SummarizeSystemPrompt(c), text)
	if err != nil {
		return "", mnemoerr.Wrap(err, mnemoerr.CodeEngineSummarizeFailure, "anthropic summarize")
	}
	return out, nil
}

// Classify implements engine.Engine.
func (e *Engine) Classify(ctx context.Context, text string, labels []string, multiLabel bool) (map[string]float64, error) {
	out, err := e.complete(ctx, engine.ClassifySystemPrompt(labels, multiLabel), text)
	if err != nil {
		return nil, mnemoerr.Wrap(err, mnemoerr.CodeEngineClassifyFailure, "anthropic classify")
	}
	return engine.ParseScores(out, labels)
}

func (e *Engine) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(e.config.Model),
		MaxTokens: e.config.MaxTokens,
		System: []anthropicsdk.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
