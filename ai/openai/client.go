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


package openai

import (
	"github.com/poiesic/adsight/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// newClient builds a langchaingo OpenAI client for the configured host.
// When no API key is configured the client falls back to OPENAI_API_KEY.
func newClient(config *ai.Config, opts ...openai.Option) (*openai.LLM, error) {
	base := []openai.Option{openai.WithBaseURL(config.Host)}
	if config.APIKey != "" {
		base = append(base, openai.WithToken(config.APIKey))
	}
	return openai.New(append(base, opts...)...)
}
