// Copyright 2026 Quarry Systems
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/quarrydocs/quarry"
	"github.com/quarrydocs/quarry/ai"
	"github.com/quarrydocs/quarry/chunk"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/ingest"
	"github.com/quarrydocs/quarry/retrieve"
	"github.com/quarrydocs/quarry/storage"
	"github.com/quarrydocs/quarry/storage/badger"
	"github.com/quarrydocs/quarry/storage/postgres"
)

func main() {
	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "PostgreSQL connection string (overrides --db)",
		},
	}
	aiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.IntFlag{
			Name:  "embedding-dimensions",
			Usage: "Embedding model output dimensionality",
			Value: 768,
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name for answer synthesis",
			Value: "qwen2.5:3b",
		},
	}

	app := &cli.App{
		Name:   "quarry",
		Usage:  "Tenant-scoped document ingestion and retrieval",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest PDF documents for a tenant",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant id owning the documents",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Chunking strategy (sentence, paragraph, fixed_size, semantic)",
						Value: "paragraph",
					},
					&cli.IntFlag{
						Name:  "max-chunk-size",
						Usage: "Maximum chunk size in characters",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Chunk overlap budget in characters",
					},
				}, storeFlags...), aiFlags...),
			},
			{
				Name:      "query",
				Usage:     "Retrieve chunks and synthesize an answer",
				ArgsUsage: "QUERY",
				Action:    queryCommand,
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant id to query",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of chunks to retrieve",
						Value: retrieve.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
						Value: retrieve.DefaultThreshold,
					},
					&cli.StringFlag{
						Name:  "style",
						Usage: "Response style (balanced, concise, detailed)",
						Value: "balanced",
					},
					&cli.BoolFlag{
						Name:  "citations",
						Usage: "Ask the answer to cite its passages",
					},
					&cli.StringSliceFlag{
						Name:  "document",
						Usage: "Restrict retrieval to the given document ids",
					},
					&cli.BoolFlag{
						Name:  "chunks-only",
						Usage: "Skip answer synthesis, print ranked chunks only",
					},
				}, storeFlags...), aiFlags...),
			},
			{
				Name:   "status",
				Usage:  "List a tenant's documents and their pipeline status",
				Action: statusCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant id to list",
						Required: true,
					},
				}, storeFlags...),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant id owning the document",
						Required: true,
					},
				}, storeFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
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

// openStore picks the backend from flags: --dsn wins, --db is the default.
func openStore(ctx context.Context, c *cli.Context) (storage.Store, error) {
	if dsn := c.String("dsn"); dsn != "" {
		return postgres.NewStore(ctx, dsn, postgres.WithDimensions(c.Int("embedding-dimensions")))
	}

	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("either --db or --dsn is required")
	}
	return badger.OpenStore(dbPath)
}

func aiConfig(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model"), c.Int("embedding-dimensions")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
}

func openQuarry(ctx context.Context, c *cli.Context) (*quarry.Quarry, storage.Store, error) {
	store, err := openStore(ctx, c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	config := aiConfig(c)
	if err := config.Validate(); err != nil {
		store.Close()
		return nil, nil, err
	}

	q, err := quarry.New(store, quarry.WithAIConfig(config))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return q, store, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	strategy, err := chunk.ParseStrategy(c.String("strategy"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	q, store, err := openQuarry(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()
	defer q.Close()

	tenant := core.TenantID(c.String("tenant"))
	uploads := make([]*ingest.Upload, c.NArg())
	for i, path := range c.Args().Slice() {
		uploads[i] = &ingest.Upload{
			TenantID: tenant,
			FilePath: path,
			Strategy: strategy,
			Chunking: chunk.Options{
				MaxChunkSize: c.Int("max-chunk-size"),
				Overlap:      c.Int("overlap"),
			},
		}
	}

	results := q.IngestAll(ctx, uploads)

	failures := 0
	for i, result := range results {
		if result.Success {
			fmt.Printf("%s: %s (document %s)\n", uploads[i].FilePath, result.Summary, result.DocumentID)
			continue
		}
		failures++
		fmt.Printf("%s: FAILED: %v\n", uploads[i].FilePath, result.Err)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(results))
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}

	style, err := retrieve.ParseResponseStyle(c.String("style"))
	if err != nil {
		return err
	}

	var documentIDs []uuid.UUID
	for _, raw := range c.StringSlice("document") {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", raw, err)
		}
		documentIDs = append(documentIDs, id)
	}

	ctx := context.Background()
	q, store, err := openQuarry(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()
	defer q.Close()

	req := &retrieve.Request{
		TenantID:         core.TenantID(c.String("tenant")),
		Query:            c.Args().First(),
		DocumentIDs:      documentIDs,
		Limit:            c.Int("limit"),
		Threshold:        float32(c.Float64("threshold")),
		Style:            style,
		IncludeCitations: c.Bool("citations"),
		SkipSynthesis:    c.Bool("chunks-only"),
	}

	result, err := q.Retrieve(ctx, req)
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Fprintf(os.Stderr, "note: %s\n", result.Message)
	}

	for i, hit := range result.Chunks {
		fmt.Printf("[%d] %.3f %s\n%s\n\n", i+1, hit.Score, hit.Filename, hit.Chunk.Content)
	}

	if result.Response != "" {
		fmt.Println("Answer:")
		fmt.Println(result.Response)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	docs, err := store.ListDocuments(ctx, core.TenantID(c.String("tenant")))
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("no documents")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %-10s  chunks=%-4d pages=%-3d %s\n",
			doc.Id, doc.Status, doc.ChunkCount, doc.PageCount, doc.Filename)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document id argument is required")
	}

	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if err := store.DeleteDocument(ctx, core.TenantID(c.String("tenant")), id); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", id)
	return nil
}
