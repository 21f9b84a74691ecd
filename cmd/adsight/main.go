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


package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/adsight"
	"github.com/poiesic/adsight/ai"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/index"
	"github.com/poiesic/adsight/retrieval"
	"github.com/poiesic/adsight/retrieval/supabase"
	"github.com/poiesic/adsight/storage"
	"github.com/poiesic/adsight/storage/badger"
	"github.com/urfave/cli/v2"
)

const defaultQuestion = "Ad with the highest impressions"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "adsight",
		Usage:  "Answer questions about Meta ads performance from retrieved campaign data",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file; a missing default file is ignored",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadEnv(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "ask",
				Usage:  "Answer a question using the remote or local retrieval pipeline",
				Action: askCommand,
				Flags:  askFlags(),
			},
			{
				Name:   "split",
				Usage:  "Show how a JSON export is chunked for the local pipeline",
				Action: splitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Usage:    "Path to the JSON export",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in characters",
						Value: index.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared by consecutive chunks",
						Value: index.DefaultChunkOverlap,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recently answered questions from the journal",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "journal",
						Aliases:  []string{"j"},
						Usage:    "Path to the journal directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to show",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "since",
						Usage: "Only show questions asked within this long (e.g. 24h)",
					},
				},
			},
			{
				Name:   "forget",
				Usage:  "Delete journal entries older than a given age",
				Action: forgetCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "journal",
						Aliases:  []string{"j"},
						Usage:    "Path to the journal directory",
						Required: true,
					},
					&cli.DurationFlag{
						Name:     "older-than",
						Usage:    "Delete questions asked longer ago than this (e.g. 720h)",
						Required: true,
					},
				},
			},
		},
	}
}

func askFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "pipeline",
			Aliases: []string{"p"},
			Usage:   "Retrieval pipeline (remote, local)",
			Value:   string(core.PipelineRemote),
		},
		&cli.StringFlag{
			Name:    "question",
			Aliases: []string{"q"},
			Usage:   "Question to ask",
			Value:   defaultQuestion,
		},
		&cli.StringFlag{
			Name:  "on-retrieval-error",
			Usage: "What to do when retrieval fails (degrade, fail); defaults to degrade for remote and fail for local",
		},
		&cli.StringFlag{
			Name:    "journal",
			Aliases: []string{"j"},
			Usage:   "Record the exchange in the journal at this directory",
		},

		// Hosted models
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "OpenAI API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible API base URL",
			EnvVars: []string{"OPENAI_BASE_URL"},
			Value:   ai.DefaultConfig().Host,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: ai.DefaultConfig().EmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name",
			Value: ai.DefaultConfig().ChatModel,
		},

		// Remote pipeline
		&cli.StringFlag{
			Name:    "dsn",
			Usage:   "Supabase Postgres connection string",
			EnvVars: []string{"SUPABASE_DB_URL"},
		},
		&cli.StringFlag{
			Name:  "match-function",
			Usage: "Similarity-search procedure name",
			Value: supabase.DefaultFunction,
		},
		&cli.IntFlag{
			Name:  "match-count",
			Usage: "Maximum number of documents to retrieve",
			Value: supabase.DefaultMatchCount,
		},
		&cli.Float64Flag{
			Name:  "match-threshold",
			Usage: "Minimum similarity of retrieved documents",
			Value: supabase.DefaultMatchThreshold,
		},

		// Local pipeline
		&cli.StringFlag{
			Name:  "data",
			Usage: "Path to the JSON export (local pipeline)",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Chunk size in characters",
			Value: index.DefaultChunkSize,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Characters shared by consecutive chunks",
			Value: index.DefaultChunkOverlap,
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of chunks placed into the prompt",
			Value: index.DefaultTopK,
		},
	}
}

func askCommand(c *cli.Context) error {
	ctx := c.Context
	question := c.String("question")

	pipeline := core.Pipeline(strings.ToLower(c.String("pipeline")))
	if err := core.ValidatePipeline(pipeline); err != nil {
		return err
	}

	var opts []adsight.AssistantOption
	if s := c.String("on-retrieval-error"); s != "" {
		policy, err := retrieval.ParsePolicy(s)
		if err != nil {
			return err
		}
		opts = append(opts, adsight.WithPolicy(policy))
	}
	if dir := c.String("journal"); dir != "" {
		opts = append(opts, adsight.WithJournalDir(dir))
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)

	var (
		assistant *adsight.Assistant
		err       error
	)
	switch pipeline {
	case core.PipelineRemote:
		sbConfig := supabase.DefaultConfig()
		sbConfig.DSN = c.String("dsn")
		sbConfig.Function = c.String("match-function")
		sbConfig.MatchCount = c.Int("match-count")
		sbConfig.MatchThreshold = c.Float64("match-threshold")
		assistant, err = adsight.NewRemoteAssistant(ctx, aiConfig, sbConfig, opts...)
	case core.PipelineLocal:
		if c.String("data") == "" {
			return errors.New("--data is required for the local pipeline")
		}
		indexConfig := &index.Config{
			ChunkSize:    c.Int("chunk-size"),
			ChunkOverlap: c.Int("chunk-overlap"),
			TopK:         c.Int("top-k"),
		}
		assistant, err = adsight.NewLocalAssistant(ctx, aiConfig, indexConfig, c.String("data"), opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to start %s pipeline: %w", pipeline, err)
	}
	defer assistant.Close()

	answer, err := assistant.Ask(ctx, question)
	if err != nil {
		return err
	}
	if answer.Degraded {
		slog.Warn("answer generated without retrieved context")
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Question: %s\n", answer.Question)
	fmt.Fprintf(out, "Answer: %s\n", answer.Text)
	fmt.Fprint(out, "\n\n")
	return nil
}

func splitCommand(c *cli.Context) error {
	cfg := index.DefaultConfig()
	cfg.ChunkSize = c.Int("chunk-size")
	cfg.ChunkOverlap = c.Int("chunk-overlap")

	docs, err := index.Split(c.String("data"), cfg)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "chunks: %d\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(out, "%d\t%d\t%d\t%s\n",
			d.Metadata[index.MetaChunk], d.Metadata[index.MetaStart], d.Metadata[index.MetaEnd], d.Metadata[index.MetaID])
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	ctx := c.Context

	repo, closeJournal, err := openJournal(c.String("journal"))
	if err != nil {
		return err
	}
	defer closeJournal()

	limit := c.Int("limit")
	var exchanges []*core.Exchange
	if since := c.Duration("since"); since > 0 {
		now := time.Now()
		exchanges, err = repo.ExchangesByDateRange(ctx, now.Add(-since), now.Add(time.Microsecond))
		slices.Reverse(exchanges)
		if limit > 0 && len(exchanges) > limit {
			exchanges = exchanges[:limit]
		}
	} else {
		exchanges, err = repo.RecentExchanges(ctx, limit)
	}
	if err != nil {
		return err
	}

	out := c.App.Writer
	for _, ex := range exchanges {
		flag := ""
		if ex.Degraded {
			flag = " (no context)"
		}
		fmt.Fprintf(out, "%s [%s] %s%s\n", ex.AskedAt.Local().Format(time.DateTime), ex.Pipeline, ex.Question, flag)
	}
	return nil
}

func forgetCommand(c *cli.Context) error {
	ctx := c.Context

	olderThan := c.Duration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", olderThan)
	}

	repo, closeJournal, err := openJournal(c.String("journal"))
	if err != nil {
		return err
	}
	defer closeJournal()

	cutoff := time.Now().Add(-olderThan)
	exchanges, err := repo.ExchangesByDateRange(ctx, time.UnixMicro(0), cutoff)
	if err != nil {
		return err
	}

	ids := make([]core.ID, len(exchanges))
	for i, ex := range exchanges {
		ids[i] = ex.Id
	}
	if err := repo.DeleteExchanges(ctx, ids...); err != nil {
		return fmt.Errorf("failed to delete exchanges: %w", err)
	}

	slog.Info("journal pruned", "deleted", len(ids), "cutoff", cutoff)
	fmt.Fprintf(c.App.Writer, "forgot %d exchanges\n", len(ids))
	return nil
}

// openJournal opens an existing journal directory. The returned func closes
// the repository and then the backend.
func openJournal(dir string) (storage.ExchangeRepository, func(), error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}

	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}

	repo, err := badger.NewExchangeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return repo, func() {
		repo.Close()
		backend.Close()
	}, nil
}

// loadEnv loads the --env-file. A missing file is only an error when the
// flag was given explicitly.
func loadEnv(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("env-file") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
