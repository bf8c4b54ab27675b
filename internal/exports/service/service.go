// Package service builds operator exports: CSV snapshots of the full
// assignment history, uploaded to object storage.
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"leadmarket_backend/internal/marketplace/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

// AssignmentSource provides the rows of the export.
type AssignmentSource interface {
	AllForExport(ctx context.Context) ([]repository.ExportRow, error)
}

// Uploader stores the rendered file.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Service renders and stores assignment exports.
type Service struct {
	source   AssignmentSource
	uploader Uploader
	log      *logger.Logger
	now      func() time.Time
}

// New creates an export service. uploader may be nil when object storage is
// not configured; exports are then unavailable.
func New(source AssignmentSource, uploader Uploader, log *logger.Logger) *Service {
	return &Service{source: source, uploader: uploader, log: log, now: time.Now}
}

// Result describes a finished export.
type Result struct {
	ObjectName  string `json:"object_name"`
	Rows        int    `json:"rows"`
	DownloadURL string `json:"download_url"`
}

var csvHeader = []string{
	"assignment_id", "case_id", "professional_license", "status",
	"attempt", "area", "city", "probability_tier", "estimated_value",
	"offered_at", "expires_at", "decided_at", "rejection_reason",
}

// ExportAssignments renders the full assignment history as CSV and uploads
// it, returning the object name and a 24h download link.
func (s *Service) ExportAssignments(ctx context.Context) (Result, error) {
	if s.uploader == nil {
		return Result{}, apperr.New(apperr.KindUnavailable, "export storage is not configured")
	}

	rows, err := s.source.AllForExport(ctx)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to load assignments", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to render export", err)
	}
	for _, row := range rows {
		if err := w.Write(renderRow(row)); err != nil {
			return Result{}, apperr.Wrap(apperr.KindInternal, "failed to render export", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to render export", err)
	}

	objectName := fmt.Sprintf("assignments-%s.csv", s.now().UTC().Format("20060102-150405"))
	name, err := s.uploader.Upload(ctx, objectName, "text/csv", buf.Bytes())
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnavailable, "failed to upload export", err)
	}

	url, err := s.uploader.PresignedURL(ctx, name, 24*time.Hour)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindUnavailable, "failed to sign download link", err)
	}

	s.log.Info("assignment export created", "object", name, "rows", len(rows))
	return Result{ObjectName: name, Rows: len(rows), DownloadURL: url}, nil
}

func renderRow(row repository.ExportRow) []string {
	a := row.Assignment
	professionalRef := row.ProfessionalRef

	return []string{
		a.ID.String(),
		a.CaseID.String(),
		professionalRef,
		string(a.Status),
		strconv.Itoa(a.AttemptNumber),
		row.Area,
		row.City,
		row.Tier,
		strconv.FormatFloat(row.Value, 'f', 2, 64),
		formatTime(a.OfferedAt),
		formatTime(a.ExpiresAt),
		formatTime(a.DecidedAt),
		deref(a.RejectionReason),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
