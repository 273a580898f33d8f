// Package data loads the eligible-accounts and ineligible/reasons
// tables into in-memory indexes keyed by account number.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/audit"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// DataLoadError is a fatal startup failure: a data source is missing,
// unreadable, or lacks its configured key column.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("data load error in %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Store indexes both data sources by account number. Loaded once at
// construction, read-only thereafter; safe for concurrent reads.
type Store struct {
	cfg domain.DataConfig

	eligible map[string]domain.Record
	reasons  map[string]domain.Record
}

// NewStore loads both sources using the configured driver. Rows missing
// the key column are skipped; duplicate keys are counted and logged as
// a warning, first occurrence wins.
func NewStore(cfg domain.DataConfig, logger domain.AuditLogger) (*Store, error) {
	start := time.Now()
	ctx := context.Background()
	requestID := audit.NewRequestID()

	loader, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	s := &Store{cfg: cfg}

	s.eligible, err = loadSource(ctx, loader, sourceEligible, cfg.EligibleKeyColumn, logger, requestID)
	if err != nil {
		logLoadFailure(ctx, logger, requestID, err)
		return nil, err
	}

	s.reasons, err = loadSource(ctx, loader, sourceReasons, cfg.ReasonsKeyColumn, logger, requestID)
	if err != nil {
		logLoadFailure(ctx, logger, requestID, err)
		return nil, err
	}

	logger.Log(ctx, requestID, "eligibility_data_load_success", domain.SeverityInfo,
		"Eligibility data sources loaded successfully",
		map[string]any{
			"driver":                  cfg.Driver,
			"eligible_accounts_rows":  len(s.eligible),
			"reasons_rows":            len(s.reasons),
			"latency_ms":              time.Since(start).Milliseconds(),
		})

	return s, nil
}

// Source identifiers used in logs and errors.
const (
	sourceEligible = "eligible_accounts"
	sourceReasons  = "reasons"
)

// loader reads all rows of one source. Implementations exist for CSV
// files and SQL tables (SQLite, PostgreSQL).
type loader interface {
	// Rows returns the header columns and all data rows of a source.
	Rows(source string) (columns []string, rows []domain.Record, err error)
	Close() error
}

func newLoader(cfg domain.DataConfig) (loader, error) {
	switch cfg.Driver {
	case "csv":
		return newCSVLoader(cfg), nil
	case "sqlite", "postgres":
		return newSQLLoader(cfg)
	default:
		return nil, &DataLoadError{Source: cfg.Driver, Err: fmt.Errorf("unsupported driver")}
	}
}

func loadSource(ctx context.Context, l loader, source, keyColumn string, logger domain.AuditLogger, requestID string) (map[string]domain.Record, error) {
	columns, rows, err := l.Rows(source)
	if err != nil {
		return nil, err
	}

	hasKey := false
	for _, col := range columns {
		if col == keyColumn {
			hasKey = true
			break
		}
	}
	if !hasKey {
		return nil, &DataLoadError{
			Source: source,
			Err:    fmt.Errorf("key column %q not found (available: %v)", keyColumn, columns),
		}
	}

	index := make(map[string]domain.Record, len(rows))
	duplicates := 0
	skipped := 0

	for _, row := range rows {
		key := row[keyColumn]
		if key == "" {
			skipped++
			continue
		}
		if _, exists := index[key]; exists {
			// First occurrence wins.
			duplicates++
			continue
		}
		index[key] = row
	}

	if duplicates > 0 {
		logger.Log(ctx, requestID, "data_source_duplicates_found", domain.SeverityWarning,
			"Duplicate key values found in data source",
			map[string]any{
				"source":          source,
				"duplicate_count": duplicates,
				"key_column":      keyColumn,
			})
	}

	logger.Log(ctx, requestID, "data_source_loaded", domain.SeverityDebug,
		"Data source loaded",
		map[string]any{
			"source":       source,
			"rows_loaded":  len(index),
			"rows_skipped": skipped,
			"duplicates":   duplicates,
		})

	return index, nil
}

// IsEligible reports whether the account is in the eligible index.
func (s *Store) IsEligible(accountNumber string) bool {
	_, ok := s.eligible[accountNumber]
	return ok
}

// HasIneligibilityReasons reports whether the account is in the reasons index.
func (s *Store) HasIneligibilityReasons(accountNumber string) bool {
	_, ok := s.reasons[accountNumber]
	return ok
}

// ReasonsRecord returns the raw reasons row for an account, or nil.
func (s *Store) ReasonsRecord(accountNumber string) domain.Record {
	return s.reasons[accountNumber]
}

// CustomerNameColumn returns the configured customer-name column of the
// reasons source.
func (s *Store) CustomerNameColumn() string {
	return s.cfg.CustomerNameColumn
}

// Summary returns counts of the loaded data.
func (s *Store) Summary() map[string]any {
	return map[string]any{
		"eligible_accounts_count": len(s.eligible),
		"reasons_count":           len(s.reasons),
		"total_accounts":          len(s.eligible) + len(s.reasons),
	}
}

func logLoadFailure(ctx context.Context, logger domain.AuditLogger, requestID string, err error) {
	logger.Log(ctx, requestID, "eligibility_data_load_failure", domain.SeverityCritical,
		"Failed to load eligibility data sources",
		map[string]any{"error": err.Error()})
}
