package openai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not recognize,
// which is common for OpenAI-compatible servers.
const fallbackEncoding = "cl100k_base"

// contextWindows maps model name prefixes to their context size in tokens.
// Longer prefixes are listed before the shorter prefixes they extend.
var contextWindows = []struct {
	prefix string
	tokens int
}{
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4-32k", 32768},
	{"gpt-4", 8192},
	{"gpt-3.5-turbo-16k", 16385},
	{"gpt-3.5-turbo", 16385},
}

// contextWindow returns the context size for model, or 0 if unknown.
func contextWindow(model string) int {
	for _, w := range contextWindows {
		if strings.HasPrefix(model, w.prefix) {
			return w.tokens
		}
	}
	return 0
}

// encoder is the part of *tiktoken.Tiktoken the counter needs.
type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// tokenCounter lazily loads a tiktoken encoding for a model.
type tokenCounter struct {
	model string
	once  sync.Once
	enc   encoder
	err   error
}

func newTokenCounter(model string) *tokenCounter {
	return &tokenCounter{model: model}
}

// Count returns the number of tokens text encodes to.
func (c *tokenCounter) Count(text string) (int, error) {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err != nil {
			c.err = err
			return
		}
		c.enc = enc
	})
	if c.err != nil {
		return 0, c.err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}
