package settings

import (
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedTable is returned when the settings table is structurally
// unusable (no rows, bad header, undecodable encoding). Per-row problems
// never produce this; they accumulate in the Report instead.
var ErrMalformedTable = errors.New("settings: malformed table")

// Normalize builds a settings snapshot from raw rows. Malformed rows are
// recorded in the report and skipped; the remaining rows still import.
// The error is non-nil only for structural failures, in which case the
// snapshot is nil.
func Normalize(rows []Row) (*Normalized, *Report, error) {
	if len(rows) == 0 {
		return nil, nil, ErrMalformedTable
	}

	n := newNormalized()
	report := &Report{}

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		category := strings.ToLower(strings.TrimSpace(row.Category))
		key := strings.TrimSpace(row.Key)

		if category == "" {
			report.addError(line, "category", "missing category")
			continue
		}
		if key == "" {
			report.addError(line, "key", "missing key")
			continue
		}

		if !isKnownCategory(category) {
			if near := nearestCategory(row.Category); near != "" {
				report.addWarning(line, "category", "unknown category %q, did you mean %q", row.Category, near)
			} else {
				report.addWarning(line, "category", "unknown category %q", row.Category)
			}
			continue
		}

		switch category {
		case CategoryIndustryScore:
			importIndustryScore(n, report, line, key, row)
		case CategoryUrgencyBand:
			importUrgencyBand(n, report, line, key, row)
		case CategoryWorkflowRule:
			importWorkflowRule(n, report, line, key, row)
		case CategoryValidationList:
			importValidationList(n, report, line, key, row)
		case CategoryGlobalConst:
			importGlobalConst(n, report, line, key, row)
		case CategoryFollowUpTemplate:
			importFollowUpTemplate(n, report, line, key, row)
		}
	}

	zap.L().Debug("settings normalized",
		zap.Int("imported", report.ImportedRows),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return n, report, nil
}

func isKnownCategory(c string) bool {
	for _, k := range knownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// nearestCategory suggests a known category for an unrecognized one.
// Case folding only; no edit-distance matching.
func nearestCategory(raw string) string {
	t := strings.TrimSpace(raw)
	for _, k := range knownCategories {
		if strings.EqualFold(t, k) {
			return k
		}
	}
	return ""
}

// parseNumeric is the permissive numeric check for value slots:
// surrounding whitespace is tolerated, anything else non-numeric fails.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// splitList splits a comma-separated cell into trimmed, non-empty values.
func splitList(cells ...string) []string {
	var out []string
	for _, cell := range cells {
		for _, v := range strings.Split(cell, ",") {
			v = strings.TrimSpace(strings.Trim(strings.TrimSpace(v), `"`))
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func importIndustryScore(n *Normalized, report *Report, line int, key string, row Row) {
	base, ok := parseNumeric(row.Values[0])
	if !ok {
		report.addWarning(line, "value_1", "industry %q: base score %q is not numeric, row skipped", key, row.Values[0])
		return
	}

	mapKey := strings.ToLower(key)
	if _, dup := n.IndustryScores[mapKey]; dup {
		report.addWarning(line, "key", "duplicate industry %q, last value wins", key)
	}
	n.IndustryScores[mapKey] = IndustryScore{
		Base:     base,
		Keywords: splitList(row.Values[1]),
	}
	report.ImportedRows++
}

func importUrgencyBand(n *Normalized, report *Report, line int, key string, row Row) {
	low, okLow := parseNumeric(row.Values[0])
	high, okHigh := parseNumeric(row.Values[1])
	if !okLow || !okHigh {
		report.addWarning(line, "value_1", "band %q: bounds %q..%q are not numeric, row skipped", key, row.Values[0], row.Values[1])
		return
	}

	score, okScore := parseNumeric(row.Values[2])
	if !okScore {
		report.addWarning(line, "value_3", "band %q: score %q is not numeric, using fallback %g", key, row.Values[2], FallbackUrgencyScore)
		score = FallbackUrgencyScore
	}

	band := UrgencyBand{
		Label: key,
		Low:   int(low),
		High:  int(high),
		Score: score,
		Color: strings.TrimSpace(row.Values[3]),
	}

	// Duplicate labels replace the earlier band in place so the table's
	// evaluation order is preserved.
	for i, b := range n.UrgencyBands {
		if strings.EqualFold(b.Label, key) {
			report.addWarning(line, "key", "duplicate band %q, last value wins", key)
			n.UrgencyBands[i] = band
			report.ImportedRows++
			return
		}
	}
	n.UrgencyBands = append(n.UrgencyBands, band)
	report.ImportedRows++
}

func importWorkflowRule(n *Normalized, report *Report, line int, key string, row Row) {
	days := DefaultNextStepDays
	if v, ok := parseNumeric(row.Values[2]); ok {
		days = int(v)
	} else if strings.TrimSpace(row.Values[2]) != "" {
		report.addWarning(line, "value_3", "rule %q: days %q is not numeric, using default %d", key, row.Values[2], DefaultNextStepDays)
	}

	mapKey := strings.ToLower(key)
	if _, dup := n.WorkflowRules[mapKey]; dup {
		report.addWarning(line, "key", "duplicate workflow rule %q, last value wins", key)
	}
	n.WorkflowRules[mapKey] = WorkflowRule{
		Stage:             strings.TrimSpace(row.Values[0]),
		Status:            strings.TrimSpace(row.Values[1]),
		DaysUntilNextStep: days,
	}
	report.ImportedRows++
}

func importValidationList(n *Normalized, report *Report, line int, key string, row Row) {
	values := splitList(row.Values[0], row.Values[1], row.Values[2], row.Values[3])
	if len(values) == 0 {
		report.addWarning(line, "value_1", "validation list %q has no values, row skipped", key)
		return
	}

	mapKey := strings.ToLower(key)
	if _, dup := n.ValidationLists[mapKey]; dup {
		report.addWarning(line, "key", "duplicate validation list %q, last value wins", key)
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	n.ValidationLists[mapKey] = set
	report.ImportedRows++
}

func importGlobalConst(n *Normalized, report *Report, line int, key string, row Row) {
	mapKey := strings.ToLower(key)
	if _, dup := n.GlobalConsts[mapKey]; dup {
		report.addWarning(line, "key", "duplicate constant %q, last value wins", key)
	}
	n.GlobalConsts[mapKey] = strings.TrimSpace(row.Values[0])
	report.ImportedRows++
}

func importFollowUpTemplate(n *Normalized, report *Report, line int, key string, row Row) {
	interval := DefaultNextStepDays
	if v, ok := parseNumeric(row.Values[0]); ok {
		interval = int(v)
	} else if strings.TrimSpace(row.Values[0]) != "" {
		report.addWarning(line, "value_1", "template %q: interval %q is not numeric, using default %d", key, row.Values[0], DefaultNextStepDays)
	}

	mapKey := strings.ToLower(key)
	if _, dup := n.FollowUpTemplates[mapKey]; dup {
		report.addWarning(line, "key", "duplicate template %q, last value wins", key)
	}
	n.FollowUpTemplates[mapKey] = FollowUpTemplate{
		IntervalDays: interval,
		Action:       strings.TrimSpace(row.Values[1]),
	}
	report.ImportedRows++
}
