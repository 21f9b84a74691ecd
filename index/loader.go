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


package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/adsight/core"
	"github.com/tmc/langchaingo/schema"
)

var (
	// ErrInvalidJSON is returned when the input file is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON document")
)

// Chunk metadata keys.
const (
	MetaID     = "id"
	MetaSource = "source"
	MetaChunk  = "chunk"
	MetaStart  = "start"
	MetaEnd    = "end"
)

// LoadJSON reads path once and returns its content re-serialized as compact
// JSON. Object keys come out sorted and numbers keep their original
// spelling, so the same file always yields the same text.
func LoadJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidJSON, path, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: trailing data after top-level value", ErrInvalidJSON, path)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Split loads path and cuts it into documents, one per window. Each
// document carries its content-hash id, the source path, its position
// and its rune range.
func Split(path string, cfg *Config) ([]schema.Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	text, err := LoadJSON(path)
	if err != nil {
		return nil, err
	}

	splitter, err := NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	windows := splitter.Windows(text)
	docs := make([]schema.Document, len(windows))
	for i, w := range windows {
		content := string(runes[w.Start:w.End])
		docs[i] = schema.Document{
			PageContent: content,
			Metadata: map[string]any{
				MetaID:     core.IDFromContent(content).Hex(),
				MetaSource: path,
				MetaChunk:  i,
				MetaStart:  w.Start,
				MetaEnd:    w.End,
			},
		}
	}
	return docs, nil
}
