package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/pkg/export"
	"github.com/atelierhq/planner-api/pkg/storage"
)

type exportWorkshopReader interface {
	ListDetailsByRange(ctx context.Context, from, to time.Time) ([]models.WorkshopDetail, error)
}

type exportAnalytics interface {
	AnalyzeCapacity(ctx context.Context, query dto.PeriodQuery) ([]models.CapacityEntry, error)
	ForecastRevenue(ctx context.Context, query dto.PeriodQuery) (*models.RevenueReport, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds planning datasets and persists rendered files.
type ExportService struct {
	workshops exportWorkshopReader
	analytics exportAnalytics
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(workshops exportWorkshopReader, analytics exportAnalytics, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		workshops: workshops,
		analytics: analytics,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	subtitle := fmt.Sprintf("%s to %s", job.Params.From, job.Params.To)

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title, subtitle)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s", strings.ToLower(string(job.Type)), job.Params.From, job.Params.To, timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypePeriodPlan:
		return s.buildPeriodPlanDataset(ctx, job.Params)
	case models.ReportTypeCapacity:
		return s.buildCapacityDataset(ctx, job.Params)
	case models.ReportTypeRevenue:
		return s.buildRevenueDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildPeriodPlanDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	from, to, err := parseJobPeriod(params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	details, err := s.workshops.ListDetailsByRange(ctx, from, to)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load period plan: %w", err)
	}

	headers := []string{"Code", "Workshop", "Location", "Date", "Status", "Participants"}
	rows := make([]map[string]string, 0, len(details))
	for i := range details {
		d := &details[i]
		rows = append(rows, map[string]string{
			"Code":         models.DisplayCode(d.Type.Code, d.DisplayID, d.Location.Code),
			"Workshop":     d.Type.Name,
			"Location":     d.Location.Name,
			"Date":         d.StartDate.Format(dateLayout),
			"Status":       string(d.Status),
			"Participants": fmt.Sprintf("%d / %d", d.CurrentParticipants, d.Type.MaxParticipants),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Period Plan", nil
}

func (s *ExportService) buildCapacityDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	entries, err := s.analytics.AnalyzeCapacity(ctx, dto.PeriodQuery{From: params.From, To: params.To})
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load capacity: %w", err)
	}

	headers := []string{"Instructor", "Type", "Assigned", "Capacity", "Remaining", "Utilization"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Instructor":  e.Person.Name,
			"Type":        e.PersonType,
			"Assigned":    fmt.Sprintf("%d", e.CurrentAssignments),
			"Capacity":    fmt.Sprintf("%d", e.MaxCapacity),
			"Remaining":   fmt.Sprintf("%d", e.RemainingCapacity),
			"Utilization": fmt.Sprintf("%.2f%%", e.Utilization),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Instructor Capacity", nil
}

func (s *ExportService) buildRevenueDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	report, err := s.analytics.ForecastRevenue(ctx, dto.PeriodQuery{From: params.From, To: params.To})
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load revenue forecast: %w", err)
	}

	headers := []string{"Segment", "Code", "Revenue"}
	rows := make([]map[string]string, 0, len(report.ByWorkshopType)+len(report.ByLocation)+1)
	for _, code := range sortedKeys(report.ByWorkshopType) {
		rows = append(rows, map[string]string{"Segment": "workshop type", "Code": code, "Revenue": report.ByWorkshopType[code].StringFixed(2)})
	}
	for _, code := range sortedKeys(report.ByLocation) {
		rows = append(rows, map[string]string{"Segment": "location", "Code": code, "Revenue": report.ByLocation[code].StringFixed(2)})
	}
	rows = append(rows, map[string]string{"Segment": "total", "Code": "", "Revenue": report.TotalRevenue.StringFixed(2)})
	return export.Dataset{Headers: headers, Rows: rows}, "Revenue Forecast", nil
}

func parseJobPeriod(params models.ReportJobParams) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, params.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", params.From)
	}
	to, err := time.Parse(dateLayout, params.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", params.To)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to precedes from")
	}
	return from, to, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
