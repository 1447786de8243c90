package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/repository"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
	"github.com/atelierhq/planner-api/pkg/jobs"
)

type fakeReportJobStore struct {
	jobs    map[string]*models.ReportJob
	updates []repository.UpdateReportJobParams
}

func newFakeReportJobStore() *fakeReportJobStore {
	return &fakeReportJobStore{jobs: map[string]*models.ReportJob{}}
}

func (f *fakeReportJobStore) Create(_ context.Context, job *models.ReportJob) error {
	job.ID = "job-new"
	job.CreatedAt = time.Now().UTC()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeReportJobStore) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (f *fakeReportJobStore) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
	f.updates = append(f.updates, params)
	job, ok := f.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (f *fakeReportJobStore) ListQueued(_ context.Context, _ int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range f.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeReportJobStore) ListFinishedBefore(context.Context, time.Time, int) ([]models.ReportJob, error) {
	return nil, nil
}

type fakeDispatcher struct {
	enqueued []jobs.Job
	fail     bool
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) error {
	if f.fail {
		return errors.New("queue full")
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type stubExportGenerator struct {
	result *ExportResult
	err    error
}

func (s *stubExportGenerator) Generate(context.Context, *models.ReportJob) (*ExportResult, error) {
	return s.result, s.err
}

func newReportFixture() (*ReportService, *fakeReportJobStore, *fakeDispatcher) {
	repo := newFakeReportJobStore()
	queue := &fakeDispatcher{}
	svc := NewReportService(repo, queue, nil, nil, ReportServiceConfig{ResultTTL: time.Hour, MaxRetries: 3})
	return svc, repo, queue
}

func TestCreateJobEnqueues(t *testing.T) {
	svc, repo, queue := newReportFixture()

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypePeriodPlan,
		From:   "2025-06-01",
		To:     "2025-06-30",
		Format: models.ReportFormatCSV,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Equal(t, "user-1", repo.jobs["job-new"].CreatedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-new", queue.enqueued[0].ID)
}

func TestCreateJobRejectsBadRequest(t *testing.T) {
	svc, _, queue := newReportFixture()

	cases := []dto.ReportRequest{
		{Type: "bogus", From: "2025-06-01", To: "2025-06-30", Format: models.ReportFormatCSV},
		{Type: models.ReportTypeRevenue, From: "2025-06-01", To: "2025-06-30", Format: "xlsx"},
		{Type: models.ReportTypeRevenue, From: "2025-06-30", To: "2025-06-01", Format: models.ReportFormatCSV},
		{Type: models.ReportTypeRevenue, From: "June first", To: "2025-06-30", Format: models.ReportFormatCSV},
	}
	for _, req := range cases {
		_, err := svc.CreateJob(context.Background(), req, "user-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, queue.enqueued)
}

func TestCreateJobEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, repo, queue := newReportFixture()
	queue.fail = true

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeCapacity,
		From:   "2025-06-01",
		To:     "2025-06-30",
		Format: models.ReportFormatPDF,
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, repo.jobs["job-new"].Status)
}

func TestGetStatusHidesForeignJobsFromPlanners(t *testing.T) {
	svc, repo, _ := newReportFixture()
	repo.jobs["job-1"] = &models.ReportJob{ID: "job-1", Status: models.ReportStatusFinished, CreatedBy: "someone-else"}

	_, err := svc.GetStatus(context.Background(), "job-1", "user-1", models.RolePlanner)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resp, err := svc.GetStatus(context.Background(), "job-1", "user-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, resp.Status)
}

func TestReportWorkerMarksFinished(t *testing.T) {
	repo := newFakeReportJobStore()
	repo.jobs["job-1"] = &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeRevenue,
		Status: models.ReportStatusQueued,
		Params: models.ReportJobParams{From: "2025-06-01", To: "2025-06-30", Format: models.ReportFormatCSV},
	}
	worker := NewReportWorker(repo, &stubExportGenerator{result: &ExportResult{
		RelativePath: "revenue.csv",
		Token:        "tok",
		URL:          "/api/v1/export/tok",
		Format:       models.ReportFormatCSV,
	}}, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	job := repo.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/export/tok", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestReportWorkerRequeuesUntilRetriesExhausted(t *testing.T) {
	repo := newFakeReportJobStore()
	repo.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeRevenue, Status: models.ReportStatusQueued}
	worker := NewReportWorker(repo, &stubExportGenerator{err: errors.New("render failed")}, 3, nil)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	assert.Equal(t, models.ReportStatusQueued, repo.jobs["job-1"].Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3}))
	job := repo.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render failed", *job.ErrorMessage)
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	svc, repo, queue := newReportFixture()
	repo.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeCapacity, Status: models.ReportStatusQueued}
	repo.jobs["job-2"] = &models.ReportJob{ID: "job-2", Type: models.ReportTypeRevenue, Status: models.ReportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}
