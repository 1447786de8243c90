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

func newPersonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func personColumnList() []string {
	return []string{"id", "name", "email", "phone", "type", "max_days_per_week", "preferred_location_id", "active", "notes", "created_at", "updated_at"}
}

func TestPersonRepositoryListFiltersByType(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	created := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(personColumnList()).
		AddRow("p-1", "Jesse Vos", nil, nil, "TECHNICIAN", nil, nil, true, nil, created, created)
	mock.ExpectQuery(`FROM people WHERE 1=1 AND type = \$1 ORDER BY name ASC`).
		WithArgs(models.PersonTechnician).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM people WHERE 1=1 AND type = \$1`).
		WithArgs(models.PersonTechnician).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	wanted := models.PersonTechnician
	people, total, err := repo.List(context.Background(), models.PersonFilter{Type: &wanted})
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, models.PersonTechnician, people[0].Type)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryListWithoutTypeFilter(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	created := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(personColumnList()).
		AddRow("p-1", "Jesse Vos", nil, nil, "TECHNICIAN", nil, nil, true, nil, created, created).
		AddRow("p-2", "Sam de Boer", nil, nil, "INSTRUCTOR", nil, nil, true, nil, created, created)
	mock.ExpectQuery(`FROM people WHERE 1=1 ORDER BY name ASC`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM people WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	people, total, err := repo.List(context.Background(), models.PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, people, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
