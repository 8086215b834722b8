package loader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn   = errors.New("required column missing")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrEmptySource     = errors.New("source has no header row")
	ErrRaggedRow       = errors.New("row has fewer fields than header")
)

// DataLoadError reports why a source could not be turned into a typed table.
// It is terminal for the load: no partial table accompanies it.
type DataLoadError struct {
	Source string
	Row    int // 1-based data row; 0 when the failure is not row specific
	Column string
	Err    error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString("data load")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// asLoadError attaches source context, wrapping foreign errors.
func asLoadError(source string, err error) error {
	if err == nil {
		return nil
	}
	var le *DataLoadError
	if errors.As(err, &le) {
		if le.Source == "" {
			le.Source = source
		}
		return le
	}
	return &DataLoadError{Source: source, Err: err}
}
