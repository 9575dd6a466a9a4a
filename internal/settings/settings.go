// Package settings parses the pipeline settings table into a typed,
// read-only rules snapshot consumed by the scorer. A snapshot is built
// once per import or refresh and replaced wholesale; it is never
// mutated in place.
package settings

import (
	"strconv"
	"strings"
)

// Category names recognized in the settings table, after lower-casing
// and trimming.
const (
	CategoryIndustryScore    = "industry_score"
	CategoryUrgencyBand      = "urgency_band"
	CategoryWorkflowRule     = "workflow_rule"
	CategoryValidationList   = "validation_list"
	CategoryGlobalConst      = "global_const"
	CategoryFollowUpTemplate = "followup_template"
)

// knownCategories is the fixed enumeration a row's category must match.
var knownCategories = []string{
	CategoryIndustryScore,
	CategoryUrgencyBand,
	CategoryWorkflowRule,
	CategoryValidationList,
	CategoryGlobalConst,
	CategoryFollowUpTemplate,
}

// Defaults applied when a lookup misses. Lookup misses are not errors.
const (
	DefaultIndustryBase  = 50.0
	DefaultNextStepDays  = 14
	DefaultStaleDays     = 60
	DefaultStatus        = "Prospect"
	FallbackUrgencyBand  = "Low"
	FallbackUrgencyScore = 25.0
)

// Row is one raw row of the settings table. Values carries up to four
// value slots whose meaning depends on the category. Line is the
// 1-based source row for report entries (0 when unknown).
type Row struct {
	Category    string
	Key         string
	Values      [4]string
	Description string
	Line        int
}

// IndustryScore is the priority base score for one industry, plus
// keyword fragments used for substring fallback matching.
type IndustryScore struct {
	Base     float64  `json:"base"`
	Keywords []string `json:"keywords,omitempty"`
}

// UrgencyBand is one bucket of the ordered countdown banding table.
// Bounds are inclusive.
type UrgencyBand struct {
	Label string  `json:"label"`
	Low   int     `json:"low"`
	High  int     `json:"high"`
	Score float64 `json:"score"`
	Color string  `json:"color,omitempty"`
}

// WorkflowRule maps an outreach outcome to its resulting stage, status,
// and follow-up interval.
type WorkflowRule struct {
	Stage             string `json:"stage"`
	Status            string `json:"status"`
	DaysUntilNextStep int    `json:"days_until_next_step"`
}

// FollowUpTemplate is the default follow-up interval (and optional
// action text) for an outcome transition.
type FollowUpTemplate struct {
	IntervalDays int    `json:"interval_days"`
	Action       string `json:"action,omitempty"`
}

// Normalized is the typed settings snapshot. Map keys for industries,
// workflow rules, and templates are lower-cased; validation list values
// keep their original case because membership checks are case-sensitive.
type Normalized struct {
	IndustryScores    map[string]IndustryScore       `json:"industry_scores"`
	UrgencyBands      []UrgencyBand                  `json:"urgency_bands"`
	WorkflowRules     map[string]WorkflowRule        `json:"workflow_rules"`
	ValidationLists   map[string]map[string]struct{} `json:"validation_lists"`
	GlobalConsts      map[string]string              `json:"global_consts"`
	FollowUpTemplates map[string]FollowUpTemplate    `json:"followup_templates"`
}

// IndustryBase returns the priority base score for an industry: exact
// match first, then a case-insensitive contains match against keyword
// fragments, then DefaultIndustryBase.
func (n *Normalized) IndustryBase(industry string) float64 {
	needle := strings.ToLower(strings.TrimSpace(industry))
	if needle == "" {
		return DefaultIndustryBase
	}

	if s, ok := n.IndustryScores[needle]; ok {
		return s.Base
	}

	// Keyword fallback: any fragment contained in the industry string,
	// or the industry string contained in a fragment.
	for _, s := range n.IndustryScores {
		for _, kw := range s.Keywords {
			frag := strings.ToLower(kw)
			if frag == "" {
				continue
			}
			if strings.Contains(needle, frag) || strings.Contains(frag, needle) {
				return s.Base
			}
		}
	}

	return DefaultIndustryBase
}

// BandFor returns the first urgency band whose inclusive bounds contain
// countdown, or the Low fallback band when nothing matches.
func (n *Normalized) BandFor(countdown int) UrgencyBand {
	for _, b := range n.UrgencyBands {
		if countdown >= b.Low && countdown <= b.High {
			return b
		}
	}
	return UrgencyBand{Label: FallbackUrgencyBand, Score: FallbackUrgencyScore}
}

// RuleFor looks up the workflow rule for an outcome, case-insensitively.
func (n *Normalized) RuleFor(outcome string) (WorkflowRule, bool) {
	r, ok := n.WorkflowRules[strings.ToLower(strings.TrimSpace(outcome))]
	return r, ok
}

// TemplateFor looks up the follow-up template for an outcome transition,
// case-insensitively.
func (n *Normalized) TemplateFor(transition string) (FollowUpTemplate, bool) {
	t, ok := n.FollowUpTemplates[strings.ToLower(strings.TrimSpace(transition))]
	return t, ok
}

// AllowedValues returns the validation list with the given name, or nil.
func (n *Normalized) AllowedValues(list string) map[string]struct{} {
	return n.ValidationLists[strings.ToLower(strings.TrimSpace(list))]
}

// StaleDays returns the stale_days global constant, or DefaultStaleDays
// when the constant is absent or non-numeric.
func (n *Normalized) StaleDays() int {
	return n.ConstInt("stale_days", DefaultStaleDays)
}

// ConstInt returns a global constant parsed as an integer, or def.
func (n *Normalized) ConstInt(name string, def int) int {
	raw, ok := n.GlobalConsts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

// Const returns a global constant as a string, or def when absent.
func (n *Normalized) Const(name string, def string) string {
	raw, ok := n.GlobalConsts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return def
	}
	return raw
}

func newNormalized() *Normalized {
	return &Normalized{
		IndustryScores:    make(map[string]IndustryScore),
		WorkflowRules:     make(map[string]WorkflowRule),
		ValidationLists:   make(map[string]map[string]struct{}),
		GlobalConsts:      make(map[string]string),
		FollowUpTemplates: make(map[string]FollowUpTemplate),
	}
}
