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


// Package quarry wires a tenant-scoped document store, a PDF extractor,
// and an AI provider into an ingestion pipeline and a retrieval engine.
package quarry

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/ai"
	"github.com/quarrydocs/quarry/ai/openai"
	"github.com/quarrydocs/quarry/core"
	"github.com/quarrydocs/quarry/embed"
	"github.com/quarrydocs/quarry/extract"
	"github.com/quarrydocs/quarry/ingest"
	"github.com/quarrydocs/quarry/retrieve"
	"github.com/quarrydocs/quarry/storage"
	"github.com/quarrydocs/quarry/storage/badger"
)

// Quarry is the top-level handle over one document store and one AI
// provider. It owns their lifecycles; Close releases both.
type Quarry struct {
	store    storage.Store
	provider ai.Provider
	service  *ingest.Service
	engine   *retrieve.Engine
	logger   *slog.Logger

	ownsStore bool
}

// Option configures a Quarry.
type Option func(*options)

type options struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	extractor ingest.TextExtractor
	logger    *slog.Logger
}

// WithAIConfig sets the OpenAI-compatible provider configuration.
// Ignored when WithProvider is used.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// one from configuration. The Quarry takes ownership and closes it.
func WithProvider(provider ai.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithExtractor replaces the default PDF text extractor.
func WithExtractor(extractor ingest.TextExtractor) Option {
	return func(o *options) {
		o.extractor = extractor
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates a Quarry backed by a badger store at filePath.
func Open(filePath string, opts ...Option) (*Quarry, error) {
	store, err := badger.OpenStore(filePath)
	if err != nil {
		return nil, err
	}

	q, err := New(store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	q.ownsStore = true
	return q, nil
}

// New creates a Quarry over an existing store. The caller keeps
// ownership of the store; Close leaves it open.
func New(store storage.Store, opts ...Option) (*Quarry, error) {
	if store == nil {
		return nil, ingest.ErrStoreRequired
	}

	o := &options{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	provider := o.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	batcher, err := embed.NewBatcher(provider.Embedder(), embed.WithLogger(o.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	extractor := o.extractor
	if extractor == nil {
		extractor = extract.New(extract.WithLogger(o.logger))
	}

	coordinator, err := ingest.NewCoordinator(store, batcher, extractor, ingest.WithLogger(o.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	service, err := ingest.NewService(coordinator, ingest.WithServiceLogger(o.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	synthesizer, err := retrieve.NewSynthesizer(provider.Generator(), retrieve.WithSynthesizerLogger(o.logger))
	if err != nil {
		service.Release()
		provider.Close()
		return nil, err
	}

	engine, err := retrieve.NewEngine(store, provider.Embedder(),
		retrieve.WithSynthesizer(synthesizer),
		retrieve.WithLogger(o.logger))
	if err != nil {
		service.Release()
		provider.Close()
		return nil, err
	}

	return &Quarry{
		store:    store,
		provider: provider,
		service:  service,
		engine:   engine,
		logger:   o.logger,
	}, nil
}

// Ingest runs one upload through the pipeline.
func (q *Quarry) Ingest(ctx context.Context, upload *ingest.Upload) (*ingest.Result, error) {
	return q.service.Ingest(ctx, upload)
}

// IngestAll runs the uploads concurrently, returning results in input order.
func (q *Quarry) IngestAll(ctx context.Context, uploads []*ingest.Upload) []*ingest.Result {
	return q.service.IngestAll(ctx, uploads)
}

// Retrieve answers a query over the tenant's stored chunks.
func (q *Quarry) Retrieve(ctx context.Context, req *retrieve.Request) (*retrieve.Result, error) {
	return q.engine.Retrieve(ctx, req)
}

// Documents lists the tenant's documents in creation order.
func (q *Quarry) Documents(ctx context.Context, tenant core.TenantID) ([]*core.Document, error) {
	return q.store.ListDocuments(ctx, tenant)
}

// Document returns one document within the tenant scope.
func (q *Quarry) Document(ctx context.Context, tenant core.TenantID, id uuid.UUID) (*core.Document, error) {
	return q.store.GetDocument(ctx, tenant, id)
}

// DeleteDocument removes a document and its chunks within the tenant scope.
func (q *Quarry) DeleteDocument(ctx context.Context, tenant core.TenantID, id uuid.UUID) error {
	return q.store.DeleteDocument(ctx, tenant, id)
}

// Store exposes the underlying store for advanced use.
func (q *Quarry) Store() storage.Store {
	return q.store
}

// Close releases the worker pool, the AI provider, and, when owned, the
// backing store.
func (q *Quarry) Close() error {
	q.service.Release()

	if err := q.provider.Close(); err != nil {
		q.logger.Error("error closing AI provider", "err", err)
	}

	if q.ownsStore {
		if err := q.store.Close(); err != nil {
			q.logger.Error("error closing store", "err", err)
			return err
		}
	}
	return nil
}
