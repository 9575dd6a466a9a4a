package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/crm-cli/internal/settings"
)

// FallbackAction is returned when no follow-up rule matches.
const FallbackAction = "See Notes"

// followUpRule is one predicate→action pair of the ordered fallback
// table evaluated after the settings templates.
type followUpRule struct {
	match  func(outcome string) bool
	action string
}

// followUpRules is evaluated top to bottom, first match wins. Templates
// from the settings table take precedence (exact outcome match), so a
// table that defines e.g. a "Not Interested" template short-circuits
// the substring rules below.
var followUpRules = []followUpRule{
	{
		// Substring match for an interested prospect.
		match:  func(o string) bool { return strings.Contains(o, "interested") && !strings.Contains(o, "not interested") },
		action: "Send information and schedule follow-up call",
	},
	{
		// Initial contact grouping.
		match: func(o string) bool {
			return o == "" || o == "new" || strings.Contains(o, "initial")
		},
		action: "Make initial contact call",
	},
	{
		match:  func(o string) bool { return strings.Contains(o, "follow") },
		action: "Place follow-up call",
	},
	{
		match: func(o string) bool {
			return strings.Contains(o, "no answer") || strings.Contains(o, "voicemail") || strings.Contains(o, "left message")
		},
		action: "Try again next cycle",
	},
	{
		match: func(o string) bool {
			return strings.Contains(o, "not interested") || strings.Contains(o, "declined")
		},
		action: "Close out and archive",
	},
}

// FollowUpAction resolves the next-action text for an outcome: exact
// template match first, then the ordered fallback table, then
// FallbackAction.
func FollowUpAction(outcome string, s *settings.Normalized) string {
	if tpl, ok := s.TemplateFor(outcome); ok {
		if tpl.Action != "" {
			return tpl.Action
		}
		return fmt.Sprintf("Follow up in %d days", tpl.IntervalDays)
	}

	lower := strings.ToLower(strings.TrimSpace(outcome))
	for _, rule := range followUpRules {
		if rule.match(lower) {
			return rule.action
		}
	}
	return FallbackAction
}
