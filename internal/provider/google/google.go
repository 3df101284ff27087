// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

// Package google implements the generation capability on the Google Gemini API.
package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/curadocs-dev/curadocs/internal/provider"
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

// Compile-time interface check.
var _ provider.Generator = (*Generator)(nil)

// Generator implements provider.Generator using the Google Gemini API.
type Generator struct {
	client *genai.Client
	config provider.Config
}

// New creates a Gemini generator. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, curaerr.New(curaerr.CodeProviderRequestInvalid, "google: missing api_key in config", curaerr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, curaerr.Wrapf(err, curaerr.CodeProviderUpstreamFailure, "google: creating client")
	}

	return &Generator{client: client, config: cfg}, nil
}

func (g *Generator) Name() string { return "google" }

func (g *Generator) Close() error { return nil }

func (g *Generator) Generate(ctx context.Context, req provider.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	contents := buildContents(req)
	config := buildConfig(req)

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", curaerr.Wrap(err, curaerr.CodeProviderUpstreamFailure, "google: generating content", curaerr.FieldProvider("google"))
	}

	text := extractText(resp)
	if text == "" {
		return "", curaerr.New(curaerr.CodeProviderResponseInvalid, "google: response contained no text", curaerr.FieldProvider("google"))
	}
	return text, nil
}

// buildContents maps the window plus the new message into genai.Content
// values. The Gemini API names the assistant role "model"; the system policy
// goes through SystemInstruction, not the content list.
func buildContents(req provider.Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Window)+1)
	for _, msg := range req.Window {
		role := "user"
		if msg.Role == provider.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Message}},
	})
	return contents
}

func buildConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Options.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxOutputTokens)
	}
	if req.Options.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Options.Temperature)
	}
	if req.Options.TopP > 0 {
		cfg.TopP = genai.Ptr(req.Options.TopP)
	}
	if req.Options.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(req.Options.TopK))
	}
	if req.SystemPolicy != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPolicy}},
		}
	}

	return cfg
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		// One candidate is requested; ignore any extras.
		break
	}
	return strings.TrimSpace(sb.String())
}
