package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.ChatModel)
	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithChatModel("gpt-4o-mini"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithAPIKey("sk-test"),
			WithEmbeddingModel("custom-embed"),
			WithChatModel("custom-chat"),
			WithTemperature(0.7),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-chat", cfg.ChatModel)
		assert.Equal(t, 0.7, cfg.Temperature)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Host:           "http://localhost:11434",
			EmbeddingModel: "text-embedding-ada-002",
			ChatModel:      "gpt-3.5-turbo",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := valid()
		cfg.Host = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Host")
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingModel = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("missing chat model", func(t *testing.T) {
		cfg := valid()
		cfg.ChatModel = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ChatModel")
	})

	t.Run("temperature out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Temperature = -0.1
		assert.ErrorContains(t, cfg.Validate(), "Temperature")

		cfg.Temperature = 2.1
		assert.ErrorContains(t, cfg.Validate(), "Temperature")
	})

	t.Run("temperature at boundaries", func(t *testing.T) {
		cfg := valid()
		cfg.Temperature = 0
		assert.NoError(t, cfg.Validate())

		cfg.Temperature = 2
		assert.NoError(t, cfg.Validate())
	})

	t.Run("api key is optional", func(t *testing.T) {
		cfg := valid()
		cfg.APIKey = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	// Test that NewConfig produces a valid configuration
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	// Test that DefaultConfig produces a valid configuration
	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
