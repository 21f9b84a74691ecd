package qa_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/adsight/ai/mock"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/index"
	"github.com/poiesic/adsight/prompt"
	"github.com/poiesic/adsight/qa"
	"github.com/poiesic/adsight/retrieval"
	"github.com/poiesic/adsight/retrieval/supabase"
	"github.com/poiesic/adsight/storage"
	"github.com/poiesic/adsight/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const question = "Ad with the highest impressions"

var threeAds = []supabase.Record{
	{ID: "101", Content: "Ad: Summer Sale | Impressions: 12000 | Clicks: 340", Similarity: 0.88},
	{ID: "102", Content: "Ad: Winter Promo | Impressions: 8000 | Clicks: 120", Similarity: 0.81},
	{ID: "103", Content: "Ad: Spring Launch | Impressions: 500 | Clicks: 12", Similarity: 0.64},
}

type stubMatcher struct {
	records []supabase.Record
	err     error
}

func (s stubMatcher) Match(ctx context.Context, embedding []float32, count int, threshold float64) ([]supabase.Record, error) {
	return s.records, s.err
}

func constantEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
		return out, nil
	}
	return m
}

func remoteRetriever(t *testing.T, matcher supabase.Matcher) *supabase.Retriever {
	t.Helper()
	cfg := supabase.DefaultConfig()
	cfg.DSN = "postgres://stub"
	r, err := supabase.NewRetriever(constantEmbedder(), matcher, cfg)
	require.NoError(t, err)
	return r
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestAsk_PromptHasQuestionAndOrderedContext(t *testing.T) {
	chunks := []core.Chunk{{ID: "1", Content: "first"}, {ID: "2", Content: "second"}, {ID: "3", Content: "third"}}
	retriever := retrieval.Func(func(ctx context.Context, query string) ([]core.Chunk, error) {
		assert.Equal(t, question, query)
		return chunks, nil
	})
	generator := mock.NewMockGenerator()

	answer, err := qa.NewChain(retriever, generator).Ask(context.Background(), question)
	require.NoError(t, err)

	assert.Equal(t, mock.DefaultAnswer, answer.Text)
	assert.Equal(t, "first\n\nsecond\n\nthird", answer.Context)
	assert.Equal(t, answer.Prompt, generator.LastPrompt())
	assert.Contains(t, answer.Prompt, "question: "+question+"\n")
	assert.Contains(t, answer.Prompt, "context: first\n\nsecond\n\nthird\n")
	assert.False(t, answer.Degraded)
	assert.Equal(t, chunks, answer.Chunks)
}

func TestAsk_EndToEndRemote(t *testing.T) {
	generator := mock.NewMockGenerator()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds}), generator)

	answer, err := chain.Ask(context.Background(), question)
	require.NoError(t, err)

	want := threeAds[0].Content + "\n\n" + threeAds[1].Content + "\n\n" + threeAds[2].Content
	assert.Equal(t, want, answer.Context)

	expected, err := prompt.Render(want, question)
	require.NoError(t, err)
	assert.Equal(t, []string{expected}, generator.Prompts())
	require.Len(t, answer.Chunks, 3)
	assert.Equal(t, "101", answer.Chunks[0].ID)
}

func TestAsk_EndToEndLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"ad_name": "Summer Sale", "impressions": 12000},
		{"ad_name": "Winter Promo", "impressions": 8000},
		{"ad_name": "Spring Launch", "impressions": 500}
	]`), 0o600))

	idx, err := index.Ingest(context.Background(), path, constantEmbedder(), &index.Config{ChunkSize: 40, ChunkOverlap: 10, TopK: 20})
	require.NoError(t, err)

	generator := mock.NewMockGenerator()
	answer, err := qa.NewChain(idx.Retriever(), generator, qa.WithPolicy(retrieval.PolicyFail)).Ask(context.Background(), question)
	require.NoError(t, err)

	// Every chunk ties under a constant embedder, so all come back in order
	require.Len(t, answer.Chunks, idx.Len())
	for i, doc := range idx.Documents() {
		assert.Equal(t, doc.PageContent, answer.Chunks[i].Content)
	}
	assert.Contains(t, generator.LastPrompt(), "question: "+question)
	assert.Contains(t, answer.Context, `"ad_name":"Summer Sale"`)
}

func TestAsk_EmptyDataSet(t *testing.T) {
	generator := mock.NewMockGenerator()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: []supabase.Record{}}), generator)

	answer, err := chain.Ask(context.Background(), question)
	require.NoError(t, err)

	assert.Empty(t, answer.Chunks)
	assert.Equal(t, "", answer.Context)
	assert.False(t, answer.Degraded)
	assert.Equal(t, 1, generator.CallCount())
}

func TestAsk_RetrievalFailureDegrades(t *testing.T) {
	for name, matcher := range map[string]stubMatcher{
		"store error": {err: errors.New("connection refused")},
		"no data":     {},
	} {
		t.Run(name, func(t *testing.T) {
			logger, logs := bufferLogger()
			generator := mock.NewMockGenerator()
			chain := qa.NewChain(remoteRetriever(t, matcher), generator, qa.WithLogger(logger))

			answer, err := chain.Ask(context.Background(), question)
			require.NoError(t, err)

			assert.True(t, answer.Degraded)
			assert.NotNil(t, answer.Chunks)
			assert.Empty(t, answer.Chunks)
			assert.Equal(t, 1, generator.CallCount())
			assert.Contains(t, generator.LastPrompt(), "context: \nquestion: "+question)
			assert.Contains(t, logs.String(), "error in retriever")
		})
	}
}

func TestAsk_RetrievalFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")
	generator := mock.NewMockGenerator()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{err: boom}), generator, qa.WithPolicy(retrieval.PolicyFail))

	_, err := chain.Ask(context.Background(), question)
	assert.ErrorIs(t, err, qa.ErrRetrieval)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, generator.CallCount())
}

func TestAsk_GenerationFailure(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("context length exceeded")
	}
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds}), generator)

	_, err := chain.Ask(context.Background(), question)
	assert.ErrorIs(t, err, qa.ErrGeneration)
	assert.ErrorContains(t, err, "context length exceeded")
}

func TestAsk_EmptyQuestion(t *testing.T) {
	generator := mock.NewMockGenerator()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds}), generator)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := chain.Ask(context.Background(), q)
		assert.ErrorIs(t, err, core.ErrEmptyQuestion)
	}
	assert.Equal(t, 0, generator.CallCount())
}

func TestAsk_CustomTemplate(t *testing.T) {
	tmpl, err := prompt.New("Q: {question}\nC: {context}")
	require.NoError(t, err)
	generator := mock.NewMockGenerator()

	_, err = qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds[:1]}), generator, qa.WithTemplate(tmpl)).
		Ask(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "Q: "+question+"\nC: "+threeAds[0].Content, generator.LastPrompt())
}

func TestAsk_Journal(t *testing.T) {
	ctx := context.Background()
	journal, backend, err := badger.NewMemoryJournal()
	require.NoError(t, err)
	defer func() {
		journal.Close()
		backend.Close()
	}()

	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds}), mock.NewMockGenerator(),
		qa.WithJournal(journal, core.PipelineRemote))

	_, err = chain.Ask(ctx, question)
	require.NoError(t, err)

	recent, err := journal.RecentExchanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, question, recent[0].Question)
	assert.Equal(t, mock.DefaultAnswer, recent[0].Answer)
	assert.Equal(t, core.PipelineRemote, recent[0].Pipeline)
	assert.Equal(t, []string{"101", "102", "103"}, recent[0].ChunkIDs)
	assert.False(t, recent[0].Degraded)
}

type failingJournal struct {
	storage.ExchangeRepository
}

func (failingJournal) AddExchange(ctx context.Context, exchange *core.Exchange) (*core.Exchange, error) {
	return nil, storage.ErrStorageClosed
}

func TestAsk_JournalFailureIsNotFatal(t *testing.T) {
	logger, logs := bufferLogger()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{records: threeAds}), mock.NewMockGenerator(),
		qa.WithJournal(failingJournal{}, core.PipelineRemote), qa.WithLogger(logger))

	answer, err := chain.Ask(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, mock.DefaultAnswer, answer.Text)
	assert.True(t, strings.Contains(logs.String(), "failed to record exchange"))
}

func TestAsk_JournalRecordsDegraded(t *testing.T) {
	ctx := context.Background()
	journal, backend, err := badger.NewMemoryJournal()
	require.NoError(t, err)
	defer func() {
		journal.Close()
		backend.Close()
	}()

	logger, _ := bufferLogger()
	chain := qa.NewChain(remoteRetriever(t, stubMatcher{}), mock.NewMockGenerator(),
		qa.WithJournal(journal, core.PipelineRemote), qa.WithLogger(logger))

	before := time.Now().UTC().Add(-time.Second)
	_, err = chain.Ask(ctx, question)
	require.NoError(t, err)

	recent, err := journal.RecentExchanges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Degraded)
	assert.Empty(t, recent[0].ChunkIDs)
	assert.True(t, recent[0].AskedAt.After(before))
}
