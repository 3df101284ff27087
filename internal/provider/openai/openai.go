// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package openai implements the generation capability on the OpenAI Chat
// Completions API. It is the alternate backend; Gemini is the default.
package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/curadocs-dev/curadocs/internal/provider"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Compile-time interface check.
var _ provider.Generator = (*Generator)(nil)

// Generator implements provider.Generator using the OpenAI API.
type Generator struct {
	client openaisdk.Client
	config provider.Config
}

// New creates an OpenAI generator. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, curaerr.New(curaerr.CodeProviderRequestInvalid, "openai: missing api_key in config", curaerr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Generator{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Close() error { return nil }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	resp, err := g.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return "", curaerr.Wrap(err, curaerr.CodeProviderUpstreamFailure, "openai: creating chat completion", curaerr.FieldProvider("openai"))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", curaerr.New(curaerr.CodeProviderResponseInvalid, "openai: response contained no text", curaerr.FieldProvider("openai"))
	}
	return resp.Choices[0].Message.Content, nil
}

// buildParams converts a provider.Request into OpenAI SDK params. The system
// policy is prepended as a system message; TopK has no Chat Completions
// equivalent and is ignored.
func buildParams(req provider.Request) openaisdk.ChatCompletionNewParams {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Window)+2)
	if req.SystemPolicy != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.SystemPolicy))
	}
	for _, msg := range req.Window {
		switch msg.Role {
		case provider.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(msg.Content))
		}
	}
	msgs = append(msgs, openaisdk.UserMessage(req.Message))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}

	if req.Options.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.Options.MaxOutputTokens))
	}
	if req.Options.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Options.Temperature))
	}
	if req.Options.TopP > 0 {
		params.TopP = param.NewOpt(float64(req.Options.TopP))
	}

	return params
}
