package scorer

import (
	"strings"

	"github.com/sells-group/crm-cli/internal/model"
)

// LatestOutreach returns the most recent outreach entry for a company,
// matching the identity key case-insensitively. Entries sharing the
// same date are resolved by input order: the last one wins. Returns
// false when the company has no outreach history.
func LatestOutreach(history []model.Outreach, company string) (model.Outreach, bool) {
	var best model.Outreach
	found := false
	for _, o := range history {
		if !strings.EqualFold(strings.TrimSpace(o.Company), strings.TrimSpace(company)) {
			continue
		}
		if o.ContactDate.IsZero() {
			continue
		}
		if !found || !o.ContactDate.Before(best.ContactDate) {
			best = o
			found = true
		}
	}
	return best, found
}
