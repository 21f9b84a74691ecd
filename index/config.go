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
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 20
)

var (
	// ErrInvalidConfig is returned when Config fails validation.
	ErrInvalidConfig = errors.New("invalid index config")

	validate = validator.New()
)

// Config controls how a JSON export is chunked and how many chunks a
// query returns.
type Config struct {
	ChunkSize    int `validate:"gt=0"`
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`
	TopK         int `validate:"gt=0"`
}

// DefaultConfig returns 1000-rune chunks overlapping by 200, returning 20 per query.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		TopK:         DefaultTopK,
	}
}

// Validate checks the struct tags and reports every failing field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed on '%s' tag", e.Field(), e.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
	}
	return nil
}
