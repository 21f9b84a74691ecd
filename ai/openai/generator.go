// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/adsight/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	model       string
	temperature float64
	tokens      *tokenCounter
	logger      *slog.Logger
}

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newClient(config, openai.WithModel(config.ChatModel))
	if err != nil {
		return nil, err
	}
	return generatorFromClient(client, config), nil
}

func generatorFromClient(client llms.Model, config *ai.Config) *Generator {
	return &Generator{
		client:      client,
		model:       config.ChatModel,
		temperature: config.Temperature,
		tokens:      newTokenCounter(config.ChatModel),
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator returns a generator for config.ChatModel at config.Temperature.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends the prompt as a single user message and returns the
// model's reply unmodified.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.checkPromptSize(prompt)

	answer, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate answer", "model", g.model, "err", err)
		return "", err
	}

	g.logger.Debug("generated answer", "model", g.model, "length", len(answer))
	return answer, nil
}

// checkPromptSize logs the prompt's token count. Prompts are never
// truncated; an oversized prompt is left for the API to reject.
func (g *Generator) checkPromptSize(prompt string) {
	count, err := g.tokens.Count(prompt)
	if err != nil {
		g.logger.Debug("token count unavailable", "model", g.model, "err", err)
		return
	}

	limit := contextWindow(g.model)
	g.logger.Debug("prompt size", "model", g.model, "tokens", count, "limit", limit)
	if limit > 0 && count > limit {
		g.logger.Warn("prompt exceeds model context window", "model", g.model, "tokens", count, "limit", limit)
	}
}
