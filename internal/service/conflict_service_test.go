package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type fakeConflictWorkshops struct {
	rows  []models.LocationConflictRow
	calls int
}

func (f *fakeConflictWorkshops) LocationConflicts(context.Context, time.Time, time.Time) ([]models.LocationConflictRow, error) {
	f.calls++
	return f.rows, nil
}

type fakeConflictAssignments struct {
	rows []models.PersonConflictRow
}

func (f *fakeConflictAssignments) PersonConflicts(context.Context, time.Time, time.Time) ([]models.PersonConflictRow, error) {
	return f.rows, nil
}

// stubCache is an in-memory advisory cache shared by the advisory tests.
type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string][]byte{}}
}

func (c *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *stubCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	c.entries = map[string][]byte{}
	return nil
}

func TestFindConflictsAggregatesBothKinds(t *testing.T) {
	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	workshops := &fakeConflictWorkshops{rows: []models.LocationConflictRow{
		{LocationID: "loc-utr", StartDate: date, Count: 2},
	}}
	assignments := &fakeConflictAssignments{rows: []models.PersonConflictRow{
		{PersonID: "person-1", StartDate: date, Count: 2},
	}}

	svc := NewConflictService(workshops, assignments, nil, time.Minute, nil)
	conflicts, err := svc.FindConflicts(context.Background(), date, date.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, conflicts, 2)

	assert.Equal(t, models.ConflictLocation, conflicts[0].Type)
	assert.Equal(t, "loc-utr", conflicts[0].LocationID)
	assert.Equal(t, 2, conflicts[0].Count)
	assert.Contains(t, conflicts[0].Message, "same location")

	assert.Equal(t, models.ConflictPerson, conflicts[1].Type)
	assert.Equal(t, "person-1", conflicts[1].PersonID)
}

func TestFindConflictsEmptyPeriod(t *testing.T) {
	svc := NewConflictService(&fakeConflictWorkshops{}, &fakeConflictAssignments{}, nil, time.Minute, nil)

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	conflicts, err := svc.FindConflicts(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestFindConflictsServedFromCache(t *testing.T) {
	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	workshops := &fakeConflictWorkshops{rows: []models.LocationConflictRow{
		{LocationID: "loc-utr", StartDate: date, Count: 2},
	}}
	cache := newStubCache()

	svc := NewConflictService(workshops, &fakeConflictAssignments{}, cache, time.Minute, nil)

	first, err := svc.FindConflicts(context.Background(), date, date.AddDate(0, 0, 7))
	require.NoError(t, err)
	second, err := svc.FindConflicts(context.Background(), date, date.AddDate(0, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, workshops.calls)
}

func TestInvalidateAdvisoryCachesDropsBothPrefixes(t *testing.T) {
	cache := newStubCache()
	InvalidateAdvisoryCaches(context.Background(), cache, nil)
	require.Len(t, cache.deleted, 2)
	assert.Equal(t, "planner:conflicts:*", cache.deleted[0])
	assert.Equal(t, "planner:slots:*", cache.deleted[1])
}
