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
	"log/slog"

	"github.com/poiesic/adsight/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider over a single langchaingo client that
// serves both the embedding and the chat model.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider validates config and connects both services to config.Host.
// No request is made until the first embedding or generation.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newClient(config,
		openai.WithModel(config.ChatModel),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embedderFromClient(client)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready", "host", config.Host,
		"embedding_model", config.EmbeddingModel, "chat_model", config.ChatModel)

	return &Provider{
		embedder:  embedder,
		generator: generatorFromClient(client, config),
		logger:    logger,
	}, nil
}

// Embedder returns the query and document embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the chat model.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP client holds no resources of its own.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
