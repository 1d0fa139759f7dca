// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package openai

import (
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/mnemo-dev/mnemo/internal/engine"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Compile-time interface check.
var _ engine.Engine = (*Engine)(nil)

const defaultMaxTokens = 2048

// Config holds OpenAI engine configuration.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string // optional, useful for testing against a mock server
	MaxTokens int64
}

// Engine implements engine.Engine using the OpenAI Chat Completions API.
type Engine struct {
	client openaisdk.Client
	config Config
}

// New creates an OpenAI engine. Returns an error if the API key or model
// is missing.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, mnemoerr.New(mnemoerr.CodeConfigValidateInvalidValue, "openai: missing api_key")
	}
	if cfg.Model == "" {
		return nil, mnemoerr.New(mnemoerr.CodeConfigValidateInvalidValue, "openai: missing model")
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

	return &Engine{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

// Summarize implements engine.Engine.
func (e *Engine) Summarize(ctx context.Context, text string, c engine.Constraints) (string, error) {
	out, err := e.complete(ctx, engine.SummarizeSystemPrompt(c), text)
	if err != nil {
		return "", mnemoerr.Wrap(err, mnemoerr.CodeEngineSummarizeFailure, "openai summarize")
	}
	return out, nil
}

// Classify implements engine.Engine.
func (e *Engine) Classify(ctx context.Context, text string, labels []string, multiLabel bool) (map[string]float64, error) {
	out, err := e.complete(ctx, engine.ClassifySystemPrompt(labels, multiLabel), text)
	if err != nil {
		return nil, mnemoerr.Wrap(err, mnemoerr.CodeEngineClassifyFailure, "openai classify")
	}
	return engine.ParseScores(out, labels)
}

func (e *Engine) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(e.config.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		MaxCompletionTokens: param.NewOpt(e.config.MaxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
