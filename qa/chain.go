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


package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/adsight/ai"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/prompt"
	"github.com/poiesic/adsight/retrieval"
	"github.com/poiesic/adsight/storage"
)

var (
	// ErrRetrieval wraps retrieval failures returned under retrieval.PolicyFail.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration wraps failures of the hosted chat model.
	ErrGeneration = errors.New("generation failed")
)

// Answer is the outcome of one question.
type Answer struct {
	Question string
	Text     string       // Model output, verbatim
	Context  string       // Joined chunk contents placed into the prompt
	Prompt   string       // Fully rendered prompt sent to the model
	Chunks   []core.Chunk // Retrieved chunks in retrieval order
	Degraded bool         // Retrieval failed and the answer had no context
}

// Chain runs retrieve, render and generate for each question.
type Chain struct {
	retriever retrieval.Retriever
	generator ai.Generator
	template  *prompt.Template
	policy    retrieval.Policy
	journal   storage.ExchangeRepository
	pipeline  core.Pipeline
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger used by the chain.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithTemplate replaces the Meta ads prompt template.
func WithTemplate(t *prompt.Template) Option {
	return func(c *Chain) {
		c.template = t
	}
}

// WithPolicy sets how retrieval failures are handled. Default: retrieval.PolicyDegrade.
func WithPolicy(p retrieval.Policy) Option {
	return func(c *Chain) {
		c.policy = p
	}
}

// WithJournal records each answered question in repo, tagged with pipeline.
func WithJournal(repo storage.ExchangeRepository, pipeline core.Pipeline) Option {
	return func(c *Chain) {
		c.journal = repo
		c.pipeline = pipeline
	}
}

// NewChain creates a chain over retriever and generator.
func NewChain(retriever retrieval.Retriever, generator ai.Generator, opts ...Option) *Chain {
	c := &Chain{
		retriever: retriever,
		generator: generator,
		template:  prompt.Default(),
		policy:    retrieval.PolicyDegrade,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default().With("component", "qa-chain"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask answers question from retrieved context. The question is passed to
// the retriever and the template unchanged.
func (c *Chain) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrEmptyQuestion
	}
	askedAt := c.now()

	answer := &Answer{Question: question}

	chunks, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		if c.policy == retrieval.PolicyFail {
			return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
		c.logger.Error("error in retriever, answering without context", "err", err)
		chunks = []core.Chunk{}
		answer.Degraded = true
	}
	answer.Chunks = chunks
	c.logger.Debug("retrieved chunks", "count", len(chunks))

	answer.Context = prompt.JoinContext(chunks)
	answer.Prompt, err = c.template.Render(answer.Context, question)
	if err != nil {
		return nil, err
	}

	answer.Text, err = c.generator.Generate(ctx, answer.Prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	c.record(ctx, answer, askedAt)
	return answer, nil
}

// record appends the exchange to the journal. Failures are logged only.
func (c *Chain) record(ctx context.Context, answer *Answer, askedAt time.Time) {
	if c.journal == nil {
		return
	}

	ids := make([]string, len(answer.Chunks))
	for i, chunk := range answer.Chunks {
		ids[i] = chunk.ID
	}

	exchange := &core.Exchange{
		Pipeline: c.pipeline,
		Question: answer.Question,
		Answer:   answer.Text,
		ChunkIDs: ids,
		Degraded: answer.Degraded,
		AskedAt:  askedAt,
	}
	if _, err := c.journal.AddExchange(ctx, exchange); err != nil {
		c.logger.Warn("failed to record exchange", "err", err)
	}
}
