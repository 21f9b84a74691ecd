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


package adsight

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/adsight/ai"
	"github.com/poiesic/adsight/ai/openai"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/index"
	"github.com/poiesic/adsight/prompt"
	"github.com/poiesic/adsight/qa"
	"github.com/poiesic/adsight/retrieval"
	"github.com/poiesic/adsight/retrieval/supabase"
	"github.com/poiesic/adsight/storage"
	"github.com/poiesic/adsight/storage/badger"
)

// Assistant answers questions about Meta ads performance using one
// retrieval pipeline.
type Assistant struct {
	provider ai.AIProvider
	chain    *qa.Chain
	pipeline core.Pipeline
	journal  storage.ExchangeRepository
	closers  []func() error
	logger   *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	pipeline   core.Pipeline
	policy     *retrieval.Policy
	template   *prompt.Template
	journal    storage.ExchangeRepository
	journalDir string
}

// WithPipeline tags answers and journal entries with p. Default: core.PipelineRemote.
func WithPipeline(p core.Pipeline) AssistantOption {
	return func(o *assistantOptions) {
		o.pipeline = p
	}
}

// WithPolicy overrides the retrieval failure policy. By default the remote
// pipeline degrades and the local pipeline fails.
func WithPolicy(p retrieval.Policy) AssistantOption {
	return func(o *assistantOptions) {
		o.policy = &p
	}
}

// WithTemplate replaces the Meta ads prompt template.
func WithTemplate(t *prompt.Template) AssistantOption {
	return func(o *assistantOptions) {
		o.template = t
	}
}

// WithJournal records answered questions in repo. The caller keeps
// ownership of repo.
func WithJournal(repo storage.ExchangeRepository) AssistantOption {
	return func(o *assistantOptions) {
		o.journal = repo
	}
}

// WithJournalDir opens a BadgerDB journal in dir. The Assistant closes it.
func WithJournalDir(dir string) AssistantOption {
	return func(o *assistantOptions) {
		o.journalDir = dir
	}
}

// DefaultPolicy returns the retrieval failure policy a pipeline uses unless
// overridden: the remote pipeline answers without context, the local
// pipeline reports the error.
func DefaultPolicy(p core.Pipeline) retrieval.Policy {
	if p == core.PipelineLocal {
		return retrieval.PolicyFail
	}
	return retrieval.PolicyDegrade
}

// NewAssistant wires provider's generator to retriever. The Assistant owns
// provider and closes it.
func NewAssistant(provider ai.AIProvider, retriever retrieval.Retriever, opts ...AssistantOption) (*Assistant, error) {
	return newAssistant(provider, retriever, nil, opts...)
}

func newAssistant(provider ai.AIProvider, retriever retrieval.Retriever, closers []func() error, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{pipeline: core.PipelineRemote}
	for _, opt := range opts {
		opt(options)
	}
	if err := core.ValidatePipeline(options.pipeline); err != nil {
		return nil, err
	}

	a := &Assistant{
		provider: provider,
		pipeline: options.pipeline,
		journal:  options.journal,
		closers:  closers,
		logger:   slog.Default().With("component", "assistant", "pipeline", options.pipeline),
	}

	if options.journalDir != "" {
		backend, err := badger.OpenBackend(options.journalDir, false)
		if err != nil {
			return nil, err
		}
		repo, err := badger.NewExchangeRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		a.journal = repo
		a.closers = append(a.closers, backend.Close, repo.Close)
	}

	policy := DefaultPolicy(options.pipeline)
	if options.policy != nil {
		policy = *options.policy
	}

	chainOpts := []qa.Option{qa.WithPolicy(policy)}
	if options.template != nil {
		chainOpts = append(chainOpts, qa.WithTemplate(options.template))
	}
	if a.journal != nil {
		chainOpts = append(chainOpts, qa.WithJournal(a.journal, options.pipeline))
	}
	a.chain = qa.NewChain(retriever, provider.Generator(), chainOpts...)

	a.logger.Debug("assistant ready", "policy", policy, "journal", a.journal != nil)
	return a, nil
}

// NewRemoteAssistant answers from the Supabase similarity-search procedure.
func NewRemoteAssistant(ctx context.Context, aiConfig *ai.Config, sbConfig *supabase.Config, opts ...AssistantOption) (*Assistant, error) {
	if err := sbConfig.Validate(); err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, err
	}

	matcher, err := supabase.NewPostgresMatcher(ctx, sbConfig.DSN, sbConfig.Function)
	if err != nil {
		provider.Close()
		return nil, err
	}
	closeMatcher := func() error {
		matcher.Close()
		return nil
	}

	retriever, err := supabase.NewRetriever(provider.Embedder(), matcher, sbConfig)
	if err != nil {
		matcher.Close()
		provider.Close()
		return nil, err
	}

	a, err := newAssistant(provider, retriever, []func() error{closeMatcher}, append(opts, WithPipeline(core.PipelineRemote))...)
	if err != nil {
		matcher.Close()
		provider.Close()
		return nil, err
	}
	return a, nil
}

// NewLocalAssistant ingests the JSON export at jsonPath into an in-memory
// index and answers from it.
func NewLocalAssistant(ctx context.Context, aiConfig *ai.Config, indexConfig *index.Config, jsonPath string, opts ...AssistantOption) (*Assistant, error) {
	if err := indexConfig.Validate(); err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, err
	}

	a, err := newLocalAssistant(ctx, provider, indexConfig, jsonPath, opts...)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return a, nil
}

func newLocalAssistant(ctx context.Context, provider ai.AIProvider, indexConfig *index.Config, jsonPath string, opts ...AssistantOption) (*Assistant, error) {
	idx, err := index.Ingest(ctx, jsonPath, provider.Embedder(), indexConfig)
	if err != nil {
		return nil, err
	}
	return newAssistant(provider, idx.Retriever(), nil, append(opts, WithPipeline(core.PipelineLocal))...)
}

// Ask answers question.
func (a *Assistant) Ask(ctx context.Context, question string) (*qa.Answer, error) {
	return a.chain.Ask(ctx, question)
}

// Pipeline reports which retrieval pipeline the Assistant uses.
func (a *Assistant) Pipeline() core.Pipeline {
	return a.pipeline
}

// Journal returns the exchange journal, or nil when none is configured.
func (a *Assistant) Journal() storage.ExchangeRepository {
	return a.journal
}

// Close releases the provider and everything the Assistant opened, in
// reverse order of opening.
func (a *Assistant) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("error closing resource", "err", err)
			errs = append(errs, err)
		}
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
