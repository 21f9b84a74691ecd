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


package supabase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultFunction is the similarity-search procedure called by PostgresMatcher.
	DefaultFunction = "match_documents_v2"
	// DefaultMatchCount is the maximum number of records requested per query.
	DefaultMatchCount = 20
	// DefaultMatchThreshold is the minimum similarity a record must reach.
	DefaultMatchThreshold = 0.6
)

var (
	// ErrInvalidConfig is returned when Config fails validation.
	ErrInvalidConfig = errors.New("invalid supabase config")

	validate = validator.New()
)

// Config holds connection and search parameters for the remote vector store.
type Config struct {
	// DSN is the Postgres connection string of the Supabase database.
	DSN string `validate:"required"`

	// Function is the name of the similarity-search procedure, optionally
	// schema-qualified.
	Function string `validate:"required"`

	MatchCount     int     `validate:"gt=0"`
	MatchThreshold float64 `validate:"gte=-1,lte=1"`
}

// DefaultConfig returns a Config with the default search parameters and no DSN.
func DefaultConfig() *Config {
	return &Config{
		Function:       DefaultFunction,
		MatchCount:     DefaultMatchCount,
		MatchThreshold: DefaultMatchThreshold,
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
