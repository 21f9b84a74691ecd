package prompt

import (
	"strings"
	"testing"

	"github.com/poiesic/adsight/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinContext(t *testing.T) {
	t.Run("ordered with blank line separator", func(t *testing.T) {
		chunks := []core.Chunk{
			{ID: "1", Content: "Ad A: 100 impressions"},
			{ID: "2", Content: "Ad B: 50 impressions"},
			{ID: "3", Content: "Ad C: 10 impressions"},
		}

		assert.Equal(t,
			"Ad A: 100 impressions\n\nAd B: 50 impressions\n\nAd C: 10 impressions",
			JoinContext(chunks))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", JoinContext(nil))
		assert.Equal(t, "", JoinContext([]core.Chunk{}))
	})

	t.Run("content is not altered", func(t *testing.T) {
		chunks := []core.Chunk{{Content: "  {\"spend\": 12.5}\n"}}
		assert.Equal(t, "  {\"spend\": 12.5}\n", JoinContext(chunks))
	})
}

func TestRender(t *testing.T) {
	t.Run("substitutes both placeholders", func(t *testing.T) {
		out, err := Render("Ad A: 100 impressions", "Ad with the highest impressions")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, "Serve as an intelligent, data-driven assistant for Meta ads"))
		assert.Contains(t, out, "context: Ad A: 100 impressions\nquestion: Ad with the highest impressions\n")
		assert.True(t, strings.HasSuffix(out, "answer:"))
		assert.NotContains(t, out, "{context}")
		assert.NotContains(t, out, "{question}")
	})

	t.Run("braces in values are kept verbatim", func(t *testing.T) {
		ctx := `[{"ad_name": "Summer", "impressions": 1200}]`
		out, err := Render(ctx, "which {ad}?")
		require.NoError(t, err)

		assert.Contains(t, out, "context: "+ctx+"\n")
		assert.Contains(t, out, "question: which {ad}?\n")
	})

	t.Run("empty context still renders", func(t *testing.T) {
		out, err := Render("", "q")
		require.NoError(t, err)
		assert.Contains(t, out, "context: \nquestion: q\n")
	})
}

func TestNew(t *testing.T) {
	t.Run("custom template", func(t *testing.T) {
		tmpl, err := New("Q={question} C={context}")
		require.NoError(t, err)

		out, err := tmpl.Render("ctx", "why")
		require.NoError(t, err)
		assert.Equal(t, "Q=why C=ctx", out)
	})

	t.Run("missing context placeholder", func(t *testing.T) {
		_, err := New("Q={question}")
		assert.ErrorIs(t, err, ErrMissingPlaceholder)
		assert.ErrorContains(t, err, "{context}")
	})

	t.Run("missing question placeholder", func(t *testing.T) {
		_, err := New("C={context}")
		assert.ErrorIs(t, err, ErrMissingPlaceholder)
	})
}
