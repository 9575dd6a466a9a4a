package scorer

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/settings"
)

// StaleMultiplier is applied to the priority base score once a prospect
// has gone without contact past the stale_days threshold.
const StaleMultiplier = 0.3

// Weights for the combined total score.
const (
	priorityWeight = 0.6
	urgencyWeight  = 0.4
)

// ScoreAndValidate validates a record and computes its derived fields
// from the outreach history and the settings snapshot. On validation
// failure it returns the per-field errors and no scored record. The
// snapshot is read-only here; concurrent calls against the same
// snapshot are safe.
func ScoreAndValidate(p model.Prospect, kind model.RecordKind, history []model.Outreach, s *settings.Normalized, today time.Time) (*model.ScoredRecord, FieldErrors) {
	if errs := validateRecord(p, kind, history, s); len(errs) > 0 {
		return nil, errs
	}

	derived := Derive(p, history, s, today)

	rec := &model.ScoredRecord{
		Prospect: p,
		Derived:  derived,
		ScoredAt: today,
	}
	rec.Prospect.Company = SanitizeString(rec.Prospect.Company)
	rec.Prospect.Contact = SanitizeString(rec.Prospect.Contact)
	rec.Prospect.Notes = SanitizeString(rec.Prospect.Notes)

	zap.L().Debug("record scored",
		zap.String("company", rec.Prospect.Company),
		zap.Int("priority", derived.PriorityScore),
		zap.String("band", derived.UrgencyBand),
		zap.Float64("total", derived.TotalScore),
	)
	return rec, nil
}

// validateRecord applies field-shape checks before any scoring.
func validateRecord(p model.Prospect, kind model.RecordKind, history []model.Outreach, s *settings.Normalized) FieldErrors {
	var errs FieldErrors

	if p.Company == "" {
		errs = append(errs, FieldError{Field: "company", Reason: "required"})
	}
	if p.Email != "" {
		if fe := ValidateEmail(p.Email); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if p.Phone != "" {
		if fe := ValidatePhoneNumber(p.Phone); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if p.ZipCode != "" {
		if fe := ValidateZipCode(p.ZipCode); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if p.Stage != "" {
		if allowed := s.AllowedValues("stages"); allowed != nil {
			if fe := ValidateAllowedValues(p.Stage, allowed, "stage"); fe != nil {
				errs = append(errs, *fe)
			}
		}
	}

	// Outreach records must carry an outcome from the allowed set.
	if kind == model.KindOutreach {
		last, ok := LatestOutreach(history, p.Company)
		if !ok {
			errs = append(errs, FieldError{Field: "outcome", Reason: "outreach record has no contact history"})
		} else if allowed := s.AllowedValues("outcomes"); allowed != nil {
			if fe := ValidateAllowedValues(last.Outcome, allowed, "outcome"); fe != nil {
				errs = append(errs, *fe)
			}
		}
	}

	return errs
}

// Derive computes every derived field in dependency order. It never
// fails: lookup misses degrade to the documented defaults.
func Derive(p model.Prospect, history []model.Outreach, s *settings.Normalized, today time.Time) model.Derived {
	var d model.Derived
	today = dateOnly(today)

	// 1. Last outcome and contact date from the outreach history.
	if last, ok := LatestOutreach(history, p.Company); ok {
		d.LastOutcome = last.Outcome
		contact := dateOnly(last.ContactDate)
		d.LastContactDate = &contact

		// 2. Whole days since last contact.
		days := daysBetween(contact, today)
		d.DaysSinceContact = &days
	}

	// 3. Next step date from the workflow rule interval.
	rule, hasRule := s.RuleFor(d.LastOutcome)
	if d.LastContactDate == nil {
		d.NextStepDate = today.AddDate(0, 0, settings.DefaultNextStepDays)
	} else {
		interval := settings.DefaultNextStepDays
		if hasRule {
			interval = rule.DaysUntilNextStep
		}
		d.NextStepDate = d.LastContactDate.AddDate(0, 0, interval)
	}

	// 4. Countdown; negative means overdue.
	d.Countdown = daysBetween(today, d.NextStepDate)

	// 5. Status.
	d.Status = settings.DefaultStatus
	if hasRule && rule.Status != "" {
		d.Status = rule.Status
	}

	// 6. Priority score with staleness penalty.
	base := s.IndustryBase(p.Industry)
	multiplier := 1.0
	if d.DaysSinceContact != nil && *d.DaysSinceContact > s.StaleDays() {
		multiplier = StaleMultiplier
	}
	d.PriorityScore = int(math.Round(base * multiplier))

	// 7. Urgency band, first match over the ordered table.
	band := s.BandFor(d.Countdown)
	d.UrgencyBand = band.Label
	d.UrgencyScore = band.Score

	// 8. Weighted total.
	d.TotalScore = float64(d.PriorityScore)*priorityWeight + d.UrgencyScore*urgencyWeight

	// 9. Next-action text.
	d.FollowUpAction = FollowUpAction(d.LastOutcome, s)

	return d
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole days from a to b (negative when b is
// earlier).
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}
