// Package ingest maps free-form sheet headers onto the enumerated
// record schema. Display labels are matched case-insensitively; unknown
// columns are kept as extras rather than rejected.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/scorer"
)

// Field is one column of the enumerated record schema.
type Field string

const (
	FieldID          Field = "id"
	FieldCompany     Field = "company"
	FieldIndustry    Field = "industry"
	FieldContact     Field = "contact"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldZipCode     Field = "zip_code"
	FieldStage       Field = "stage"
	FieldNotes       Field = "notes"
	FieldOutcome     Field = "outcome"
	FieldContactDate Field = "contact_date"
)

// fieldAliases maps normalized display labels to schema fields. Labels
// are compared lower-cased and trimmed.
var fieldAliases = map[string]Field{
	"id":                FieldID,
	"company":           FieldCompany,
	"company name":      FieldCompany,
	"account":           FieldCompany,
	"industry":          FieldIndustry,
	"contact":           FieldContact,
	"contact name":      FieldContact,
	"email":             FieldEmail,
	"email address":     FieldEmail,
	"phone":             FieldPhone,
	"phone number":      FieldPhone,
	"zip":               FieldZipCode,
	"zip code":          FieldZipCode,
	"zipcode":           FieldZipCode,
	"postal code":       FieldZipCode,
	"stage":             FieldStage,
	"notes":             FieldNotes,
	"outcome":           FieldOutcome,
	"last outcome":      FieldOutcome,
	"call outcome":      FieldOutcome,
	"contact date":      FieldContactDate,
	"last contact date": FieldContactDate,
	"date":              FieldContactDate,
}

// RowAdapter resolves schema fields to column positions for one header
// row.
type RowAdapter struct {
	index  map[Field]int
	extras map[string]int
}

// NewRowAdapter builds an adapter from a header row. When two headers
// alias the same field, the first one wins.
func NewRowAdapter(headers []string) *RowAdapter {
	a := &RowAdapter{
		index:  make(map[Field]int),
		extras: make(map[string]int),
	}
	for i, h := range headers {
		label := strings.ToLower(strings.TrimSpace(h))
		if f, ok := fieldAliases[label]; ok {
			if _, taken := a.index[f]; !taken {
				a.index[f] = i
			}
			continue
		}
		if label != "" {
			a.extras[label] = i
		}
	}
	return a
}

// Has reports whether the header row carried the given field.
func (a *RowAdapter) Has(f Field) bool {
	_, ok := a.index[f]
	return ok
}

// Value extracts a field from a data row, or "" when the field or cell
// is absent.
func (a *RowAdapter) Value(row []string, f Field) string {
	i, ok := a.index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Extra extracts an unmapped column by its display label.
func (a *RowAdapter) Extra(row []string, label string) string {
	i, ok := a.extras[strings.ToLower(strings.TrimSpace(label))]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Prospect builds a prospect record from a data row.
func (a *RowAdapter) Prospect(row []string) model.Prospect {
	return model.Prospect{
		ID:       a.Value(row, FieldID),
		Company:  a.Value(row, FieldCompany),
		Industry: a.Value(row, FieldIndustry),
		Contact:  a.Value(row, FieldContact),
		Email:    a.Value(row, FieldEmail),
		Phone:    a.Value(row, FieldPhone),
		ZipCode:  a.Value(row, FieldZipCode),
		Stage:    a.Value(row, FieldStage),
		Notes:    a.Value(row, FieldNotes),
	}
}

// Outreach builds an outreach record from a data row. The contact date
// must parse as a real calendar date.
func (a *RowAdapter) Outreach(row []string) (model.Outreach, error) {
	o := model.Outreach{
		ID:      a.Value(row, FieldID),
		Company: a.Value(row, FieldCompany),
		Outcome: a.Value(row, FieldOutcome),
		Notes:   a.Value(row, FieldNotes),
	}

	raw := a.Value(row, FieldContactDate)
	if raw == "" {
		return o, eris.New("ingest: outreach row missing contact date")
	}
	t, fe := scorer.ValidateDate(string(FieldContactDate), raw)
	if fe != nil {
		return o, eris.Errorf("ingest: %s", fe.Reason)
	}
	o.ContactDate = t
	return o, nil
}
