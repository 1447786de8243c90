package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type fakeWorkshopRepo struct {
	workshops map[string]*models.Workshop
	sessions  map[string][]models.WorkshopSession
	created   *models.Workshop
	updated   *models.Workshop
	statuses  map[string]models.WorkshopStatus
}

func newFakeWorkshopRepo() *fakeWorkshopRepo {
	return &fakeWorkshopRepo{
		workshops: map[string]*models.Workshop{},
		sessions:  map[string][]models.WorkshopSession{},
		statuses:  map[string]models.WorkshopStatus{},
	}
}

func (f *fakeWorkshopRepo) List(_ context.Context, _ models.WorkshopFilter) ([]models.Workshop, int, error) {
	out := make([]models.Workshop, 0, len(f.workshops))
	for _, w := range f.workshops {
		out = append(out, *w)
	}
	return out, len(out), nil
}

func (f *fakeWorkshopRepo) FindByID(_ context.Context, id string) (*models.Workshop, error) {
	w, ok := f.workshops[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *w
	return &clone, nil
}

func (f *fakeWorkshopRepo) FindDetailByID(_ context.Context, id string) (*models.WorkshopDetail, error) {
	w, ok := f.workshops[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.WorkshopDetail{Workshop: *w, Sessions: f.sessions[id]}, nil
}

func (f *fakeWorkshopRepo) Sessions(_ context.Context, workshopID string) ([]models.WorkshopSession, error) {
	return f.sessions[workshopID], nil
}

func (f *fakeWorkshopRepo) Create(_ context.Context, w *models.Workshop, sessions []models.WorkshopSession) error {
	w.ID = "ws-new"
	f.created = w
	f.workshops[w.ID] = w
	f.sessions[w.ID] = sessions
	return nil
}

func (f *fakeWorkshopRepo) Update(_ context.Context, w *models.Workshop, sessions []models.WorkshopSession) error {
	f.updated = w
	f.workshops[w.ID] = w
	if sessions != nil {
		f.sessions[w.ID] = sessions
	}
	return nil
}

func (f *fakeWorkshopRepo) UpdateStatus(_ context.Context, id string, status models.WorkshopStatus) error {
	f.statuses[id] = status
	if w, ok := f.workshops[id]; ok {
		w.Status = status
	}
	return nil
}

type stubPlanValidator struct {
	result   *models.ValidationResult
	lastReq  dto.ValidateWorkshopRequest
	failWith error
}

func (s *stubPlanValidator) ValidateWorkshop(_ context.Context, req dto.ValidateWorkshopRequest) (*models.ValidationResult, error) {
	s.lastReq = req
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.result, nil
}

type fakeWorkshopTypeLookup struct {
	wt *models.WorkshopType
}

func (f *fakeWorkshopTypeLookup) FindByID(context.Context, string) (*models.WorkshopType, error) {
	return f.wt, nil
}

func cleanValidation() *models.ValidationResult {
	r := models.NewValidationResult(nil, nil)
	return &r
}

func warningValidation() *models.ValidationResult {
	r := models.NewValidationResult(nil, []models.ValidationError{
		{Field: "start_date", Message: "below the ideal publication lead time", Severity: models.SeverityWarning},
	})
	return &r
}

func blockedValidation() *models.ValidationResult {
	r := models.NewValidationResult([]models.ValidationError{
		{Field: "location_id", Message: "venue already occupied on 2025-06-03", Severity: models.SeverityError},
	}, nil)
	return &r
}

func newWorkshopFixture(result *models.ValidationResult) (*WorkshopService, *fakeWorkshopRepo, *stubPlanValidator, *stubCache) {
	repo := newFakeWorkshopRepo()
	planCheck := &stubPlanValidator{result: result}
	types := &fakeWorkshopTypeLookup{wt: &models.WorkshopType{
		ID:           "type-iws",
		Code:         "IWS",
		DurationType: models.DurationEveningSeries,
		SessionCount: 4,
	}}
	cache := newStubCache()
	svc := NewWorkshopService(repo, types, planCheck, cache, nil, nil)
	return svc, repo, planCheck, cache
}

func TestCreateWorkshopDerivesWeeklySessions(t *testing.T) {
	svc, repo, _, cache := newWorkshopFixture(cleanValidation())

	detail, result, err := svc.Create(context.Background(), dto.CreateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  "2025-06-03",
	}, false)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.True(t, result.IsValid)
	assert.Equal(t, models.WorkshopDraft, repo.created.Status)

	// An evening series with four sessions meets weekly.
	sessions := repo.sessions["ws-new"]
	require.Len(t, sessions, 4)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), sessions[0].Date)
	assert.Equal(t, time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC), sessions[3].Date)
	assert.Equal(t, "19:00", sessions[0].StartTime)

	assert.Contains(t, cache.deleted, "planner:conflicts:*")
	assert.Contains(t, cache.deleted, "planner:slots:*")
}

func TestCreateWorkshopBlockedByErrors(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(blockedValidation())

	// Force never overrides blocking errors.
	detail, result, err := svc.Create(context.Background(), dto.CreateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  "2025-06-03",
	}, true)
	require.Error(t, err)
	assert.Nil(t, detail)
	require.NotNil(t, result)
	assert.False(t, result.IsValid)
	assert.Equal(t, appErrors.ErrRuleViolation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCreateWorkshopWarningsBlockWithoutForce(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(warningValidation())

	_, result, err := svc.Create(context.Background(), dto.CreateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  "2025-06-03",
	}, false)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsValid, "warnings leave the result valid")
	assert.Nil(t, repo.created)
}

func TestCreateWorkshopWarningsAcceptedWithForce(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(warningValidation())

	detail, _, err := svc.Create(context.Background(), dto.CreateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  "2025-06-03",
	}, true)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.NotNil(t, repo.created)
}

func TestCreateWorkshopUsesExplicitSessions(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(cleanValidation())

	_, _, err := svc.Create(context.Background(), dto.CreateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  "2025-06-03",
		Sessions: []dto.SessionInput{
			{SessionNumber: 1, Date: "2025-06-03", StartTime: "09:30", EndTime: "16:30", RequiresTechnician: true},
		},
	}, false)
	require.NoError(t, err)
	sessions := repo.sessions["ws-new"]
	require.Len(t, sessions, 1)
	assert.Equal(t, "09:30", sessions[0].StartTime)
	assert.True(t, sessions[0].RequiresTechnician)
}

func TestUpdateWorkshopRevalidatesExcludingSelf(t *testing.T) {
	svc, repo, planCheck, _ := newWorkshopFixture(cleanValidation())
	repo.workshops["ws-1"] = &models.Workshop{
		ID:         "ws-1",
		TypeID:     "type-iws",
		LocationID: "loc-utr",
		StartDate:  time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:     models.WorkshopPublished,
	}

	newLocation := "loc-ams"
	_, _, err := svc.Update(context.Background(), "ws-1", dto.UpdateWorkshopRequest{LocationID: &newLocation}, false)
	require.NoError(t, err)

	assert.Equal(t, "ws-1", planCheck.lastReq.ExcludeWorkshopID)
	assert.True(t, planCheck.lastReq.SkipLeadTimeChecks, "lead time only gates initial planning")
	assert.Equal(t, "loc-ams", repo.updated.LocationID)
}

func TestUpdateWorkshopTerminalStatusConflict(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(cleanValidation())
	repo.workshops["ws-done"] = &models.Workshop{ID: "ws-done", Status: models.WorkshopCompleted}

	notes := "late edit"
	_, _, err := svc.Update(context.Background(), "ws-done", dto.UpdateWorkshopRequest{Notes: &notes}, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCancelWorkshop(t *testing.T) {
	svc, repo, _, cache := newWorkshopFixture(cleanValidation())
	repo.workshops["ws-1"] = &models.Workshop{ID: "ws-1", Status: models.WorkshopPublished}

	require.NoError(t, svc.Cancel(context.Background(), "ws-1"))
	assert.Equal(t, models.WorkshopCancelled, repo.statuses["ws-1"])
	assert.Contains(t, cache.deleted, "planner:slots:*")

	// Cancelling twice is a no-op.
	require.NoError(t, svc.Cancel(context.Background(), "ws-1"))
}

func TestCancelCompletedWorkshopRejected(t *testing.T) {
	svc, repo, _, _ := newWorkshopFixture(cleanValidation())
	repo.workshops["ws-done"] = &models.Workshop{ID: "ws-done", Status: models.WorkshopCompleted}

	err := svc.Cancel(context.Background(), "ws-done")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGetWorkshopNotFound(t *testing.T) {
	svc, _, _, _ := newWorkshopFixture(cleanValidation())

	_, err := svc.Get(context.Background(), "ws-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
