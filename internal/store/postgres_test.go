package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresWithPool(mock), mock
}

func TestPostgres_UpsertProspect(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO prospects").
		WithArgs(pgxmock.AnyArg(), "K&L Recycling", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := st.UpsertProspect(context.Background(), model.Prospect{Company: "K&L Recycling"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListProspects(t *testing.T) {
	st, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"p1","company":"K&L Recycling"}`)).
		AddRow([]byte(`{"id":"p2","company":"Old Iron Co"}`))
	mock.ExpectQuery("SELECT data FROM prospects").
		WithArgs(100).
		WillReturnRows(rows)

	list, err := st.ListProspects(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "Old Iron Co", list[1].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListOutreachFilter(t *testing.T) {
	st, mock := newMockStore(t)

	day := time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "company", "outcome", "contact_date", "notes"}).
		AddRow("o1", "K&L Recycling", "Interested", day, (*string)(nil))
	mock.ExpectQuery("SELECT id, company, outcome, contact_date, notes FROM outreach").
		WithArgs("K&L Recycling").
		WillReturnRows(rows)

	list, err := st.ListOutreach(context.Background(), "K&L Recycling")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Interested", list[0].Outcome)
	assert.Equal(t, day, list[0].ContactDate)
	assert.Empty(t, list[0].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetScoreMissing(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT data FROM scores").
		WithArgs("p1").
		WillReturnError(pgx.ErrNoRows)

	rec, err := st.GetScore(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveScore(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO scores").
		WithArgs("p1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := &model.ScoredRecord{
		Prospect: model.Prospect{ID: "p1", Company: "K&L Recycling"},
		Derived:  model.Derived{PriorityScore: 95},
		ScoredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.SaveScore(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecordImportRun(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO import_runs").
		WithArgs(pgxmock.AnyArg(), "settings", "settings.csv", 12, 0, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.RecordImportRun(context.Background(), ImportRun{
		Kind:         "settings",
		Source:       "settings.csv",
		ImportedRows: 12,
		WarningCount: 1,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
