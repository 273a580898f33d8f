package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// csvLoader reads the two sources from flat CSV files. The first row
// of each file is the header.
type csvLoader struct {
	cfg domain.DataConfig
}

func newCSVLoader(cfg domain.DataConfig) *csvLoader {
	return &csvLoader{cfg: cfg}
}

func (l *csvLoader) Rows(source string) ([]string, []domain.Record, error) {
	var path string
	switch source {
	case sourceEligible:
		path = l.cfg.EligiblePath
	case sourceReasons:
		path = l.cfg.ReasonsPath
	default:
		return nil, nil, &DataLoadError{Source: source, Err: fmt.Errorf("unknown source")}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &DataLoadError{Source: source, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, short rows pad empty

	header, err := reader.Read()
	if err != nil {
		return nil, nil, &DataLoadError{Source: source, Err: fmt.Errorf("reading header: %w", err)}
	}

	var rows []domain.Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &DataLoadError{Source: source, Err: err}
		}

		row := make(domain.Record, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

func (l *csvLoader) Close() error { return nil }
