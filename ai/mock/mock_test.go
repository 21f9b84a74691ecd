package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashVector(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, HashVector("Ad A impressions", 32), HashVector("Ad A impressions", 32))
	})

	t.Run("case and punctuation insensitive", func(t *testing.T) {
		assert.Equal(t, HashVector("Ad A, impressions!", 32), HashVector("ad a impressions", 32))
	})

	t.Run("unit length", func(t *testing.T) {
		v := HashVector("the quick brown fox", DefaultDimensions)
		assert.Len(t, v, DefaultDimensions)
		assert.InDelta(t, 1.0, norm(v), 1e-6)
	})

	t.Run("no words gives zero vector", func(t *testing.T) {
		v := HashVector("  ...  ", 8)
		assert.Equal(t, make([]float32, 8), v)
	})
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	v, err := m.EmbedText(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)

	vs, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vs, 2)
	assert.Equal(t, 2, m.CallCount())

	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("boom")
	}
	_, err = m.EmbedText(ctx, "hello")
	assert.Error(t, err)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Nil(t, m.EmbedTextFunc)
}

func TestMockGenerator(t *testing.T) {
	ctx := context.Background()
	m := NewMockGenerator()

	assert.Equal(t, "", m.LastPrompt())

	answer, err := m.Generate(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, DefaultAnswer, answer)

	m.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	}
	answer, err = m.Generate(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "echo: second", answer)

	assert.Equal(t, []string{"first", "second"}, m.Prompts())
	assert.Equal(t, "second", m.LastPrompt())
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator())

	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockGenerator(), p.Generator())

	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
