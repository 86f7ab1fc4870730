package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/bi-tools/insighthub/pkg/ingest"
	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/schema"
	"github.com/rs/zerolog"
)

// Store holds the dataset a department pipeline is currently analyzing.
// Every mutation goes through the mutex; aggregation code receives the
// dataset as an explicit parameter and never reaches back in here.
type Store struct {
	mu    sync.RWMutex
	dept  domain.Department
	ds    *domain.Dataset
	onSet func(ctx context.Context, ds *domain.Dataset)
}

// New creates a store for one department pipeline. onSet, when non-nil,
// runs after every successful load. The sales pipeline uses it to retrain
// its prediction model.
func New(dept domain.Department, onSet func(ctx context.Context, ds *domain.Dataset)) *Store {
	return &Store{dept: dept, onSet: onSet}
}

func (s *Store) Department() domain.Department {
	return s.dept
}

// Set normalizes the dataset for this pipeline and makes it current.
func (s *Store) Set(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	normalized, err := s.normalize(ds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ds = normalized
	s.mu.Unlock()

	logger.Info().
		Str("department", string(s.dept)).
		Int("rows", normalized.RowCount()).
		Int("columns", normalized.ColumnCount()).
		Msg("dataset loaded")

	if s.onSet != nil {
		s.onSet(ctx, normalized)
	}
	return normalized, nil
}

// LoadFiles ingests the given files, concatenates them on the first file's
// schema, and makes the result current.
func (s *Store) LoadFiles(ctx context.Context, paths []string) (*domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	var combined *domain.Dataset
	for _, path := range paths {
		ds, err := ingest.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			continue
		}
		if combined == nil {
			combined = ds
		} else {
			combined.Append(ds)
		}
	}
	if combined == nil {
		return nil, fmt.Errorf("%w: none of %d files could be read", domain.ErrNoData, len(paths))
	}
	return s.Set(ctx, combined)
}

// Current returns the loaded dataset, or ErrNoData.
func (s *Store) Current() (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil || s.ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: department %s", domain.ErrNoData, s.dept)
	}
	return s.ds, nil
}

// Clear drops the current dataset.
func (s *Store) Clear() {
	s.mu.Lock()
	s.ds = nil
	s.mu.Unlock()
}

func (s *Store) normalize(ds *domain.Dataset) (*domain.Dataset, error) {
	switch s.dept {
	case domain.DepartmentReviews:
		return schema.NormalizeReviews(ds)
	case domain.DepartmentSales:
		return schema.NormalizeSales(ds)
	default:
		return ds.Copy(), nil
	}
}
