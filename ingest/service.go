package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Service runs document ingestions concurrently over a worker pool.
// Each document still moves through its own pipeline stages strictly
// sequentially; only documents run in parallel.
type Service struct {
	coordinator *Coordinator
	pool        *ants.Pool
	logger      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithServicePoolSize sets the worker pool size for concurrent documents.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithServicePoolSize(size int) ServiceOption {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}

		if s.pool != nil {
			s.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithServiceLogger sets a custom logger.
// Default is slog.Default().
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an ingestion service around a coordinator.
func NewService(coordinator *Coordinator, opts ...ServiceOption) (*Service, error) {
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		coordinator: coordinator,
		pool:        pool,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Ingest runs one upload through the pipeline on the calling goroutine.
func (s *Service) Ingest(ctx context.Context, upload *Upload) (*Result, error) {
	return s.coordinator.Run(ctx, upload)
}

// IngestAll runs the uploads concurrently and returns results in input
// order. A document that fails does not affect its siblings; inspect each
// Result's Success flag and Err.
func (s *Service) IngestAll(ctx context.Context, uploads []*Upload) []*Result {
	results := make([]*Result, len(uploads))

	var wg sync.WaitGroup
	for i, upload := range uploads {
		wg.Add(1)
		i, upload := i, upload
		err := s.pool.Submit(func() {
			defer wg.Done()
			result, err := s.coordinator.Run(ctx, upload)
			if err != nil {
				s.logger.Error("ingestion failed", "filename", upload.Filename, "err", err)
			}
			results[i] = result
		})
		if err != nil {
			wg.Done()
			results[i] = fail(nil, err)
		}
	}
	wg.Wait()

	return results
}

// Release shuts down the worker pool. The service must not be used after.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
