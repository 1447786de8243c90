package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/pkg/storage"
)

type fakeExportWorkshops struct {
	details []models.WorkshopDetail
}

func (f *fakeExportWorkshops) ListDetailsByRange(context.Context, time.Time, time.Time) ([]models.WorkshopDetail, error) {
	return f.details, nil
}

type fakeExportAnalytics struct {
	capacity []models.CapacityEntry
	revenue  *models.RevenueReport
}

func (f *fakeExportAnalytics) AnalyzeCapacity(context.Context, dto.PeriodQuery) ([]models.CapacityEntry, error) {
	return f.capacity, nil
}

func (f *fakeExportAnalytics) ForecastRevenue(context.Context, dto.PeriodQuery) (*models.RevenueReport, error) {
	return f.revenue, nil
}

func newExportFixture(t *testing.T) (*ExportService, *fakeExportWorkshops, *fakeExportAnalytics) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-test-secret", time.Hour)

	workshops := &fakeExportWorkshops{}
	analytics := &fakeExportAnalytics{}
	svc := NewExportService(workshops, analytics, store, signer, ExportConfig{
		APIPrefix: "/api/v1",
		ResultTTL: time.Hour,
	}, nil, nil, nil)
	return svc, workshops, analytics
}

func reportJob(reportType models.ReportType, format models.ReportFormat) *models.ReportJob {
	return &models.ReportJob{
		ID:   "job-1",
		Type: reportType,
		Params: models.ReportJobParams{
			From:   "2025-06-01",
			To:     "2025-06-30",
			Format: format,
		},
	}
}

func TestGeneratePeriodPlanCSV(t *testing.T) {
	svc, workshops, _ := newExportFixture(t)
	workshops.details = []models.WorkshopDetail{
		{
			Workshop: models.Workshop{
				DisplayID:           192,
				StartDate:           time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
				Status:              models.WorkshopPublished,
				CurrentParticipants: 8,
			},
			Type:     models.WorkshopType{Code: "IWS", Name: "Intro Workshop", MaxParticipants: 12},
			Location: models.Location{Code: "UTR", Name: "Utrecht"},
		},
	}

	result, err := svc.Generate(context.Background(), reportJob(models.ReportTypePeriodPlan, models.ReportFormatCSV))
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"), "url %s", result.URL)

	f, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	payload, err := io.ReadAll(f)
	require.NoError(t, err)

	content := string(payload)
	assert.Contains(t, content, "Code,Workshop,Location,Date,Status,Participants")
	assert.Contains(t, content, "IWS_192_U")
	assert.Contains(t, content, "8 / 12")
}

func TestGenerateRevenuePDF(t *testing.T) {
	svc, _, analytics := newExportFixture(t)
	analytics.revenue = &models.RevenueReport{
		Period:       "2025-06-01 to 2025-06-30",
		TotalRevenue: decimal.RequireFromString("19205.00"),
		ByWorkshopType: map[string]decimal.Decimal{
			"IWS": decimal.RequireFromString("16730.00"),
		},
		ByLocation: map[string]decimal.Decimal{
			"UTR": decimal.RequireFromString("16730.00"),
		},
	}

	result, err := svc.Generate(context.Background(), reportJob(models.ReportTypeRevenue, models.ReportFormatPDF))
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatPDF, result.Format)

	f, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	header := make([]byte, 4)
	_, err = io.ReadFull(f, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestGenerateCapacityCSV(t *testing.T) {
	svc, _, analytics := newExportFixture(t)
	analytics.capacity = []models.CapacityEntry{
		{
			Person:             models.PersonRef{ID: "p-1", Name: "Eva Jansen"},
			PersonType:         "INSTRUCTOR",
			CurrentAssignments: 4,
			MaxCapacity:        6,
			RemainingCapacity:  2,
			Utilization:        66.67,
		},
	}

	result, err := svc.Generate(context.Background(), reportJob(models.ReportTypeCapacity, models.ReportFormatCSV))
	require.NoError(t, err)

	f, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer f.Close()
	payload, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Eva Jansen")
	assert.Contains(t, string(payload), "66.67%")
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	svc, _, _ := newExportFixture(t)
	_, err := svc.Generate(context.Background(), reportJob(models.ReportType("unknown"), models.ReportFormatCSV))
	require.Error(t, err)
}

func TestGenerateTokenRoundTrips(t *testing.T) {
	svc, workshops, _ := newExportFixture(t)
	workshops.details = nil

	result, err := svc.Generate(context.Background(), reportJob(models.ReportTypePeriodPlan, models.ReportFormatCSV))
	require.NoError(t, err)

	jobID, relPath, expiresAt, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
	assert.True(t, expiresAt.After(time.Now()))
}
