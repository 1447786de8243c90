package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/models"
)

func newWorkshopTypeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func workshopTypeColumnList() []string {
	return []string{"id", "code", "name", "description", "duration_type", "default_start_time", "default_end_time", "session_count", "min_participants", "max_participants", "price", "requires_technician", "active", "sort_order", "created_at", "updated_at"}
}

func TestWorkshopTypeRepositoryListFiltersByDurationType(t *testing.T) {
	db, mock, cleanup := newWorkshopTypeRepoMock(t)
	defer cleanup()
	repo := NewWorkshopTypeRepository(db)

	created := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(workshopTypeColumnList()).
		AddRow("type-1", "IWS", "Intro Workshop", nil, "SINGLE_DAY", nil, nil, 1, 6, 12, "1195.00", false, true, 1, created, created)
	mock.ExpectQuery(`FROM workshop_types WHERE 1=1 AND duration_type = \$1 ORDER BY code ASC`).
		WithArgs(models.DurationSingleDay).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workshop_types WHERE 1=1 AND duration_type = \$1`).
		WithArgs(models.DurationSingleDay).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	types, total, err := repo.List(context.Background(), models.WorkshopTypeFilter{DurationType: models.DurationSingleDay})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, models.DurationSingleDay, types[0].DurationType)
	assert.Equal(t, "1195", types[0].Price.String())
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkshopTypeRepositoryListActiveOnly(t *testing.T) {
	db, mock, cleanup := newWorkshopTypeRepoMock(t)
	defer cleanup()
	repo := NewWorkshopTypeRepository(db)

	created := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(workshopTypeColumnList()).
		AddRow("type-1", "IWS", "Intro Workshop", nil, "SINGLE_DAY", nil, nil, 1, 6, 12, "1195.00", false, true, 1, created, created).
		AddRow("type-2", "PWS", "Portfolio Workshop", nil, "EVENING_SERIES", nil, nil, 4, 4, 10, "495.00", false, true, 2, created, created)
	mock.ExpectQuery(`FROM workshop_types WHERE 1=1 AND active = \$1 ORDER BY code ASC`).
		WithArgs(true).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM workshop_types WHERE 1=1 AND active = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	active := true
	types, total, err := repo.List(context.Background(), models.WorkshopTypeFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, types, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
