package lead

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/pkg/id"
)

const (
	sheetName       = "Leads"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []interface{}{"Lead ID", "Name", "Email", "Location", "Category", "Invite Code", "Created At"}

type Service interface {
	// Record appends a lead row. The caller supplies the invite code.
	Record(ctx context.Context, l *domain.LeadSubmission) error
	ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error)
	// Export writes every lead to an XLSX workbook in the object store.
	Export(ctx context.Context) (*domain.LeadExport, error)
}

type leadStore interface {
	Put(ctx context.Context, l *domain.LeadSubmission) error
	ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error)
	ScanAll(ctx context.Context) ([]domain.LeadSubmission, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	repo  leadStore
	store objectStore
	now   func() time.Time
}

func NewService(repo leadStore, store objectStore) Service {
	return &service{repo: repo, store: store, now: time.Now}
}

func (s *service) Record(ctx context.Context, l *domain.LeadSubmission) error {
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.Name = strings.TrimSpace(l.Name)
	l.Location = strings.TrimSpace(l.Location)
	if l.Email == "" || l.InviteCode == "" {
		return fmt.Errorf("lead needs email and invite code: %w", domain.ErrBadRequest)
	}
	if l.LeadID == "" {
		l.LeadID = id.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Put(ctx, l); err != nil {
		return fmt.Errorf("store lead: %w", err)
	}
	slog.Info("lead recorded", "lead_id", l.LeadID, "email", l.Email, "category", l.Category)
	return nil
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error) {
	return s.repo.ListByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *service) Export(ctx context.Context) (*domain.LeadExport, error) {
	if s.store == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	leads, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].CreatedAt.Before(leads[j].CreatedAt) })

	f, err := buildWorkbook(leads)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	key := fmt.Sprintf("exports/leads-%s.xlsx", s.now().UTC().Format("20060102T150405Z"))
	if _, err := s.store.Upload(ctx, key, buf, xlsxContentType); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	slog.Info("leads exported", "key", key, "rows", len(leads))
	return &domain.LeadExport{Key: key, Rows: len(leads)}, nil
}

func buildWorkbook(leads []domain.LeadSubmission) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, l := range leads {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{l.LeadID, l.Name, l.Email, l.Location, l.Category, l.InviteCode, l.CreatedAt.UTC().Format(time.RFC3339)}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheetName, "A", "G", 22)
	return f, nil
}
