package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/settings"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testNormalized(t *testing.T, staleDays string) *settings.Normalized {
	t.Helper()

	n, report, err := settings.Normalize([]settings.Row{
		{Category: "industry_score", Key: "Recycling", Values: [4]string{"95"}},
		{Category: "global_const", Key: "stale_days", Values: [4]string{staleDays}},
	})
	require.NoError(t, err)
	require.True(t, report.OK())
	return n
}

func TestSQLite_SettingsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	got, err := st.LatestSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.SaveSettings(ctx, testNormalized(t, "45")))
	require.NoError(t, st.SaveSettings(ctx, testNormalized(t, "90")))

	got, err = st.LatestSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	// The newest snapshot wins wholesale.
	assert.Equal(t, 90, got.StaleDays())
	assert.InDelta(t, 95, got.IndustryBase("Recycling"), 0.001)
}

func TestSQLite_UpsertProspect(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertProspect(ctx, model.Prospect{Company: "K&L Recycling", Stage: "New"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Same id updates in place.
	_, err = st.UpsertProspect(ctx, model.Prospect{ID: id, Company: "K&L Recycling", Stage: "Qualifying"})
	require.NoError(t, err)

	list, err := st.ListProspects(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Qualifying", list[0].Stage)
}

func TestSQLite_ListProspectsLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{"A Co", "B Co", "C Co"} {
		_, err := st.UpsertProspect(ctx, model.Prospect{Company: c})
		require.NoError(t, err)
	}

	list, err := st.ListProspects(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSQLite_OutreachInsertionOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)
	for _, outcome := range []string{"No Answer", "Interested"} {
		_, err := st.AddOutreach(ctx, model.Outreach{
			Company:     "K&L Recycling",
			Outcome:     outcome,
			ContactDate: day,
		})
		require.NoError(t, err)
	}
	_, err := st.AddOutreach(ctx, model.Outreach{
		Company:     "Other Co",
		Outcome:     "Declined",
		ContactDate: day,
	})
	require.NoError(t, err)

	// Company filter is case-insensitive; insertion order is preserved.
	list, err := st.ListOutreach(ctx, "k&l recycling")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "No Answer", list[0].Outcome)
	assert.Equal(t, "Interested", list[1].Outcome)

	all, err := st.ListOutreach(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_ScoreRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.UpsertProspect(ctx, model.Prospect{Company: "K&L Recycling"})
	require.NoError(t, err)

	got, err := st.GetScore(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := &model.ScoredRecord{
		Prospect: model.Prospect{ID: id, Company: "K&L Recycling"},
		Derived: model.Derived{
			Status:        "Active",
			PriorityScore: 95,
			UrgencyBand:   "High",
			UrgencyScore:  115,
			TotalScore:    103,
		},
		ScoredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.SaveScore(ctx, rec))

	// A rescore overwrites the previous row.
	rec.Derived.PriorityScore = 29
	require.NoError(t, st.SaveScore(ctx, rec))

	got, err = st.GetScore(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 29, got.Derived.PriorityScore)
	assert.Equal(t, "High", got.Derived.UrgencyBand)
}

func TestSQLite_RecordImportRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.RecordImportRun(ctx, ImportRun{
		Kind:         "settings",
		Source:       "settings.csv",
		ImportedRows: 12,
		WarningCount: 1,
	})
	require.NoError(t, err)
}
