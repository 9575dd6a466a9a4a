package settings

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Issue is one row- or field-level problem found during normalization.
type Issue struct {
	Row     int    `json:"row" yaml:"row"`
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d, %s: %s", i.Row, i.Field, i.Message)
}

// Report accumulates per-row errors and warnings from a normalize pass.
// A pass succeeds when Errors is empty; warnings never block success.
type Report struct {
	Errors       []Issue `json:"errors" yaml:"errors"`
	Warnings     []Issue `json:"warnings" yaml:"warnings"`
	ImportedRows int     `json:"imported_rows" yaml:"imported_rows"`
}

// OK reports whether the pass completed without errors.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) addError(row int, field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Row: row, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addWarning(row int, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Row: row, Field: field, Message: fmt.Sprintf(format, args...)})
}

// WriteYAML serializes the report for operator review.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close() //nolint:errcheck
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "settings: encode report")
	}
	return nil
}
