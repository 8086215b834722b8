package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"esales-dashboard/internal/models"
)

// Source yields canonical records from some tabular input.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]models.Record, error)
}

// CSVFile reads a CSV file from disk.
type CSVFile struct {
	Path string
}

func (s CSVFile) Name() string { return s.Path }

func (s CSVFile) Read(ctx context.Context) ([]models.Record, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, &DataLoadError{Source: s.Path, Err: fmt.Errorf("open file: %w", err)}
	}
	defer file.Close()

	return ReadCSV(ctx, s.Path, file)
}

// CSVReader reads CSV text from an in-memory or streamed reader. It can be
// read once.
type CSVReader struct {
	Label string
	R     io.Reader
}

func (s CSVReader) Name() string {
	if s.Label == "" {
		return "reader"
	}
	return s.Label
}

func (s CSVReader) Read(ctx context.Context) ([]models.Record, error) {
	return ReadCSV(ctx, s.Name(), s.R)
}

// ReadCSV parses CSV text with a header row. A UTF-8 BOM is tolerated.
func ReadCSV(ctx context.Context, source string, r io.Reader) ([]models.Record, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Source: source, Err: ErrEmptySource}
		}
		return nil, &DataLoadError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, &DataLoadError{Source: source, Err: err}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataLoadError{Source: source, Row: len(rows) + 1, Err: err}
		}
		rows = append(rows, row)
	}

	return Parse(ctx, source, header, rows)
}
