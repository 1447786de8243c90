package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/models"
)

func newWorkshopRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestWorkshopRepositoryLocationConflicts(t *testing.T) {
	db, mock, cleanup := newWorkshopRepoMock(t)
	defer cleanup()
	repo := NewWorkshopRepository(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"location_id", "start_date", "count"}).
		AddRow("loc-utr", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), 2).
		AddRow("loc-ams", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), 3)
	mock.ExpectQuery("SELECT location_id, start_date, COUNT\\(id\\) AS count").
		WithArgs(from, to).
		WillReturnRows(rows)

	conflicts, err := repo.LocationConflicts(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "loc-utr", conflicts[0].LocationID)
	assert.Equal(t, 2, conflicts[0].Count)
	assert.Equal(t, 3, conflicts[1].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkshopRepositoryExistsAt(t *testing.T) {
	db, mock, cleanup := newWorkshopRepoMock(t)
	defer cleanup()
	repo := NewWorkshopRepository(db)

	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM workshops WHERE location_id = $1 AND start_date = $2 AND status <> 'CANCELLED' AND id <> $3")).
		WithArgs("loc-utr", date, "ws-self").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	occupied, err := repo.ExistsAt(context.Background(), "loc-utr", date, "ws-self")
	require.NoError(t, err)
	assert.True(t, occupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkshopRepositoryOccupiedDates(t *testing.T) {
	db, mock, cleanup := newWorkshopRepoMock(t)
	defer cleanup()
	repo := NewWorkshopRepository(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT location_id, start_date FROM workshops WHERE status <> 'CANCELLED' AND start_date >= $1 AND start_date <= $2")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"location_id", "start_date"}).
			AddRow("loc-utr", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)))

	dates, err := repo.OccupiedDates(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "loc-utr", dates[0].LocationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkshopRepositoryCountByTypeAndYear(t *testing.T) {
	db, mock, cleanup := newWorkshopRepoMock(t)
	defer cleanup()
	repo := NewWorkshopRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM workshops WHERE type_id = $1 AND status <> 'CANCELLED' AND EXTRACT(YEAR FROM start_date) = $2")).
		WithArgs("type-iws", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByTypeAndYear(context.Background(), "type-iws", 2025)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkshopRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newWorkshopRepoMock(t)
	defer cleanup()
	repo := NewWorkshopRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE workshops SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.WorkshopCancelled, sqlmock.AnyArg(), "ws-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "ws-1", models.WorkshopCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}
