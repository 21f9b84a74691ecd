package index

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

var _ textsplitter.TextSplitter = (*Splitter)(nil)

// Window is a chunk's half-open rune range [Start, End) within its source text.
type Window struct {
	Start int
	End   int
}

// Splitter cuts text into fixed-size rune windows. Consecutive windows
// share exactly overlap runes and the final window ends at the end of the
// text, so every rune lands in at least one window.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter returns a splitter for windows of size runes sharing overlap runes.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", ErrInvalidConfig, size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Windows returns the window boundaries for text. Window i starts at
// i*(size-overlap). Empty text has no windows.
func (s *Splitter) Windows(text string) []Window {
	n := len([]rune(text))
	if n == 0 {
		return nil
	}

	step := s.size - s.overlap
	var windows []Window
	for start := 0; ; start += step {
		end := min(start+s.size, n)
		windows = append(windows, Window{Start: start, End: end})
		if end == n {
			break
		}
	}
	return windows
}

// SplitText implements textsplitter.TextSplitter.
func (s *Splitter) SplitText(text string) ([]string, error) {
	runes := []rune(text)
	windows := s.Windows(text)
	chunks := make([]string, len(windows))
	for i, w := range windows {
		chunks[i] = string(runes[w.Start:w.End])
	}
	return chunks, nil
}
