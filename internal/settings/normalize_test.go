package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(category, key string, values ...string) Row {
	r := Row{Category: category, Key: key}
	for i, v := range values {
		if i >= len(r.Values) {
			break
		}
		r.Values[i] = v
	}
	return r
}

func TestNormalize_CategoryCaseInsensitive(t *testing.T) {
	variants := []string{"INDUSTRY_SCORE", "industry_score", "Industry_Score", "  industry_score  "}

	for _, v := range variants {
		n, report, err := Normalize([]Row{row(v, "Recycling", "95")})
		require.NoError(t, err, v)
		require.True(t, report.OK(), v)
		assert.Contains(t, n.IndustryScores, "recycling", v)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	n, report, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrMalformedTable)
	assert.Nil(t, n)
	assert.Nil(t, report)
}

func TestNormalize_MissingCategoryOrKey(t *testing.T) {
	rows := []Row{
		row("", "Recycling", "95"),
		row("industry_score", "", "95"),
		row("industry_score", "Manufacturing", "80"),
	}

	n, report, err := Normalize(rows)
	require.NoError(t, err)

	// One error per malformed row, valid rows still import.
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "category", report.Errors[0].Field)
	assert.Equal(t, "key", report.Errors[1].Field)
	assert.Equal(t, 1, report.ImportedRows)
	assert.Contains(t, n.IndustryScores, "manufacturing")
	assert.False(t, report.OK())
}

func TestNormalize_UnknownCategoryWarns(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("industry_points", "Recycling", "95"),
		row("global_const", "stale_days", "45"),
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "industry_points")
	assert.Empty(t, n.IndustryScores)
	assert.Equal(t, 45, n.StaleDays())
	// Unknown categories are warnings, not errors.
	assert.True(t, report.OK())
}

func TestNormalize_DuplicateKeyLastWriteWins(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("industry_score", "Recycling", "95"),
		row("industry_score", "recycling", "40"),
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "duplicate")
	assert.InDelta(t, 40, n.IndustryScores["recycling"].Base, 0.001)
}

func TestNormalize_NonNumericSlotIsWarning(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("industry_score", "Recycling", "high"),
		row("industry_score", "Manufacturing", " 80 "),
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.NotContains(t, n.IndustryScores, "recycling")
	// Leading/trailing whitespace is tolerated.
	assert.InDelta(t, 80, n.IndustryScores["manufacturing"].Base, 0.001)
	assert.True(t, report.OK())
}

func TestNormalize_UrgencyBands(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("urgency_band", "Overdue", "-9999", "-1", "150", "red"),
		row("urgency_band", "High", "0", "7", "115", "orange"),
		row("urgency_band", "Medium", "8", "30", "75", "yellow"),
		row("urgency_band", "Low", "31", "9999", "25", "green"),
	})
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, n.UrgencyBands, 4)

	assert.Equal(t, "Overdue", n.BandFor(-1).Label)
	assert.InDelta(t, 150, n.BandFor(-1).Score, 0.001)
	assert.Equal(t, "High", n.BandFor(7).Label)
	assert.InDelta(t, 115, n.BandFor(7).Score, 0.001)
	assert.Equal(t, "Medium", n.BandFor(30).Label)
	assert.InDelta(t, 75, n.BandFor(30).Score, 0.001)
	assert.Equal(t, "Low", n.BandFor(31).Label)
	assert.InDelta(t, 25, n.BandFor(31).Score, 0.001)
}

func TestNormalize_BandFallback(t *testing.T) {
	n, _, err := Normalize([]Row{row("global_const", "stale_days", "60")})
	require.NoError(t, err)

	band := n.BandFor(12345)
	assert.Equal(t, FallbackUrgencyBand, band.Label)
	assert.InDelta(t, FallbackUrgencyScore, band.Score, 0.001)
}

func TestNormalize_WorkflowRules(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("workflow_rule", "Interested", "Qualifying", "Active", "3"),
		row("workflow_rule", "No Answer", "Outreach", "Prospect", "oops"),
	})
	require.NoError(t, err)

	rule, ok := n.RuleFor("interested")
	require.True(t, ok)
	assert.Equal(t, "Qualifying", rule.Stage)
	assert.Equal(t, "Active", rule.Status)
	assert.Equal(t, 3, rule.DaysUntilNextStep)

	// Non-numeric interval falls back to the default with a warning.
	rule, ok = n.RuleFor("No Answer")
	require.True(t, ok)
	assert.Equal(t, DefaultNextStepDays, rule.DaysUntilNextStep)
	require.Len(t, report.Warnings, 1)
}

func TestNormalize_ValidationListSplitsCells(t *testing.T) {
	n, report, err := Normalize([]Row{
		row("validation_list", "Outcomes", "Interested, No Answer", `"Not Interested",Callback`),
	})
	require.NoError(t, err)
	require.True(t, report.OK())

	allowed := n.AllowedValues("outcomes")
	require.NotNil(t, allowed)
	assert.Len(t, allowed, 4)
	assert.Contains(t, allowed, "Interested")
	assert.Contains(t, allowed, "Not Interested")
	assert.Contains(t, allowed, "Callback")
}

func TestNormalize_FollowUpTemplates(t *testing.T) {
	n, _, err := Normalize([]Row{
		row("followup_template", "Interested", "3", "Send info packet"),
	})
	require.NoError(t, err)

	tpl, ok := n.TemplateFor("INTERESTED")
	require.True(t, ok)
	assert.Equal(t, 3, tpl.IntervalDays)
	assert.Equal(t, "Send info packet", tpl.Action)
}

func TestIndustryBase_KeywordFallback(t *testing.T) {
	n, _, err := Normalize([]Row{
		row("industry_score", "Recycling", "95", "scrap, salvage"),
	})
	require.NoError(t, err)

	assert.InDelta(t, 95, n.IndustryBase("Recycling"), 0.001)
	assert.InDelta(t, 95, n.IndustryBase("Scrap Metal Hauling"), 0.001)
	assert.InDelta(t, DefaultIndustryBase, n.IndustryBase("Software"), 0.001)
	assert.InDelta(t, DefaultIndustryBase, n.IndustryBase(""), 0.001)
}

func TestConstHelpers(t *testing.T) {
	n, _, err := Normalize([]Row{
		row("global_const", "stale_days", " 45 "),
		row("global_const", "region", "midwest"),
		row("global_const", "bad_number", "soon"),
	})
	require.NoError(t, err)

	assert.Equal(t, 45, n.StaleDays())
	assert.Equal(t, "midwest", n.Const("region", "none"))
	assert.Equal(t, "none", n.Const("missing", "none"))
	assert.Equal(t, 7, n.ConstInt("bad_number", 7))
}
