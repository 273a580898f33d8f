package data

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// sqlLoader reads the two sources from database tables. Works with both
// the SQLite and PostgreSQL drivers.
type sqlLoader struct {
	db  *sql.DB
	cfg domain.DataConfig
}

func newSQLLoader(cfg domain.DataConfig) (*sqlLoader, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, &DataLoadError{Source: cfg.Driver, Err: fmt.Errorf("unsupported SQL driver")}
	}
	if err != nil {
		return nil, &DataLoadError{Source: cfg.Driver, Err: err}
	}

	return &sqlLoader{db: db, cfg: cfg}, nil
}

func openSQLite(cfg domain.DataConfig) (*sql.DB, error) {
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	// Startup load is the only consumer; one connection is enough and
	// avoids SQLite write-lock contention.
	db.SetMaxOpenConns(1)

	return db, nil
}

func openPostgres(cfg domain.DataConfig) (*sql.DB, error) {
	sslMode := cfg.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser,
		cfg.PostgresPassword, cfg.PostgresDB, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

func (l *sqlLoader) Rows(source string) ([]string, []domain.Record, error) {
	var table string
	switch source {
	case sourceEligible:
		table = l.cfg.EligibleTable
	case sourceReasons:
		table = l.cfg.ReasonsTable
	default:
		return nil, nil, &DataLoadError{Source: source, Err: fmt.Errorf("unknown source")}
	}
	if table == "" {
		return nil, nil, &DataLoadError{Source: source, Err: fmt.Errorf("table name not configured")}
	}

	rows, err := l.db.Query("SELECT * FROM " + quoteIdent(table))
	if err != nil {
		return nil, nil, &DataLoadError{Source: source, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, &DataLoadError{Source: source, Err: err}
	}

	var records []domain.Record
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, nil, &DataLoadError{Source: source, Err: err}
		}

		record := make(domain.Record, len(columns))
		for i, col := range columns {
			record[col] = values[i].String
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, &DataLoadError{Source: source, Err: err}
	}

	return columns, records, nil
}

func (l *sqlLoader) Close() error {
	return l.db.Close()
}

// quoteIdent quotes a table name; table names come from trusted config,
// this only guards against accidental keywords.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
