package dto

import "github.com/atelierhq/planner-api/internal/models"

// ReportRequest captures POST /exports payload.
type ReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required"`
	From   string              `json:"from" validate:"required,datetime=2006-01-02"`
	To     string              `json:"to" validate:"required,datetime=2006-01-02"`
	Format models.ReportFormat `json:"format" validate:"required"`
}

// ReportJobResponse is returned after enqueueing an export.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
