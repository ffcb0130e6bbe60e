// Package timeseries holds the persistence backends for the daily inventory
// series consumed by the accumulate node.
package timeseries

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/pipeline/inventory"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// Backend names accepted by TIMESERIES_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

var (
	_ inventory.SeriesStore = (*FileStore)(nil)
	_ inventory.SeriesStore = (*SheetsStore)(nil)
	_ inventory.SeriesStore = (*DBStore)(nil)
)

// FileStore keeps the series in a local CSV file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the series. A missing file is an empty history.
func (s *FileStore) Load(ctx context.Context) ([]domain.Snapshot, error) {
	t, err := dataset.ReadCSV(s.path)
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			log.Info().Str("path", s.path).Msg("no time series file yet, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("load time series: %w", err)
	}
	return fromTable(t, s.path), nil
}

func (s *FileStore) Save(ctx context.Context, series []domain.Snapshot) error {
	if err := dataset.WriteCSV(s.path, inventory.SeriesTable(series)); err != nil {
		return fmt.Errorf("save time series: %w", err)
	}
	return nil
}

// RangeClient is the part of the Sheets client the store needs.
type RangeClient interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) (dataset.Table, error)
	WriteRange(ctx context.Context, spreadsheetID, rng string, t dataset.Table) error
}

// SheetsStore keeps the series on one worksheet of a spreadsheet.
type SheetsStore struct {
	client        RangeClient
	spreadsheetID string
	sheet         string
}

func NewSheetsStore(client RangeClient, spreadsheetID, sheet string) *SheetsStore {
	return &SheetsStore{client: client, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (s *SheetsStore) Load(ctx context.Context) ([]domain.Snapshot, error) {
	t, err := s.client.ReadRange(ctx, s.spreadsheetID, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("load time series: %w", err)
	}
	return fromTable(t, s.sheet), nil
}

func (s *SheetsStore) Save(ctx context.Context, series []domain.Snapshot) error {
	if err := s.client.WriteRange(ctx, s.spreadsheetID, s.sheet, inventory.SeriesTable(series)); err != nil {
		return fmt.Errorf("save time series: %w", err)
	}
	return nil
}

// DBStore keeps the series in Postgres.
type DBStore struct {
	repo repository.TimeSeriesRepository
}

func NewDBStore(repo repository.TimeSeriesRepository) *DBStore {
	return &DBStore{repo: repo}
}

func (s *DBStore) Load(ctx context.Context) ([]domain.Snapshot, error) {
	return s.repo.LoadSeries(ctx)
}

func (s *DBStore) Save(ctx context.Context, series []domain.Snapshot) error {
	return s.repo.SaveSeries(ctx, series)
}

func fromTable(t dataset.Table, origin string) []domain.Snapshot {
	series, rejected := inventory.SeriesFromTable(t)
	if len(rejected) > 0 {
		log.Warn().Str("origin", origin).Int("rejected", len(rejected)).Err(rejected[0]).Msg("time series rows rejected")
	}
	return series
}
