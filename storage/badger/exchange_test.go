package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) storage.ExchangeRepository {
	t.Helper()
	repo, backend, err := NewMemoryJournal()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func exchangeAt(question string, askedAt time.Time) *core.Exchange {
	return &core.Exchange{
		Pipeline: core.PipelineRemote,
		Question: question,
		Answer:   "answer to " + question,
		ChunkIDs: []string{"1", "2"},
		AskedAt:  askedAt,
	}
}

func TestAddExchange(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)

	t.Run("assigns sequential ids", func(t *testing.T) {
		now := time.Now().UTC().Add(-time.Minute)
		first, err := repo.AddExchange(ctx, exchangeAt("a", now))
		require.NoError(t, err)
		second, err := repo.AddExchange(ctx, exchangeAt("b", now))
		require.NoError(t, err)

		assert.NotZero(t, first.Id)
		assert.Greater(t, second.Id, first.Id)
	})

	t.Run("sets asked at when zero", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		ex, err := repo.AddExchange(ctx, &core.Exchange{Pipeline: core.PipelineLocal, Question: "q"})
		require.NoError(t, err)
		assert.True(t, ex.AskedAt.After(before))
	})

	t.Run("round trips through storage", func(t *testing.T) {
		ex := exchangeAt("Ad with the highest impressions", time.Now().Add(-time.Hour))
		ex.Degraded = true
		added, err := repo.AddExchange(ctx, ex)
		require.NoError(t, err)

		got, err := repo.GetExchange(ctx, added.Id)
		require.NoError(t, err)
		assert.Equal(t, added, got)
	})

	t.Run("rejects invalid exchanges", func(t *testing.T) {
		_, err := repo.AddExchange(ctx, &core.Exchange{Pipeline: core.PipelineRemote})
		assert.ErrorIs(t, err, core.ErrEmptyQuestion)

		_, err = repo.AddExchange(ctx, &core.Exchange{Pipeline: "carrier-pigeon", Question: "q"})
		assert.ErrorIs(t, err, core.ErrInvalidPipeline)

		_, err = repo.AddExchange(ctx, exchangeAt("q", time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, core.ErrInvalidTimestamp)

		_, err = repo.AddExchange(ctx, nil)
		assert.ErrorIs(t, err, core.ErrInvalidExchange)
	})
}

func TestGetExchange_NotFound(t *testing.T) {
	repo := newTestJournal(t)

	_, err := repo.GetExchange(context.Background(), core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecentExchanges(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)
	base := time.Now().UTC().Add(-time.Hour)

	// Inserted out of chronological order
	for _, offset := range []int{2, 0, 4, 1, 3} {
		_, err := repo.AddExchange(ctx, exchangeAt(string(rune('a'+offset)), base.Add(time.Duration(offset)*time.Minute)))
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		recent, err := repo.RecentExchanges(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "e", recent[0].Question)
		assert.Equal(t, "d", recent[1].Question)
		assert.Equal(t, "c", recent[2].Question)
	})

	t.Run("limit larger than journal", func(t *testing.T) {
		recent, err := repo.RecentExchanges(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, recent, 5)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := repo.RecentExchanges(ctx, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("empty journal", func(t *testing.T) {
		recent, err := newTestJournal(t).RecentExchanges(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestExchangesByDateRange(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	for i := 0; i < 5; i++ {
		_, err := repo.AddExchange(ctx, exchangeAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	got, err := repo.ExchangesByDateRange(ctx, base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Question)
	assert.Equal(t, "c", got[1].Question)

	_, err = repo.ExchangesByDateRange(ctx, base, base.Add(-time.Minute))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDeleteExchanges(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)

	ex, err := repo.AddExchange(ctx, exchangeAt("q", time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteExchanges(ctx, ex.Id))

	_, err = repo.GetExchange(ctx, ex.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := repo.RecentExchanges(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	assert.ErrorIs(t, repo.DeleteExchanges(ctx, ex.Id), storage.ErrNotFound)
}
