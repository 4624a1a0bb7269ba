package audit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jethotel/internal/models"

	"github.com/rs/zerolog"
)

// TableExporter provides access to database tables for export.
type TableExporter interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, tableName string) ([]map[string]any, []string, error)
}

// Summary is the figures written to the report's summary sheet.
type Summary struct {
	Rooms            int
	Reservations     int
	RevenueCents     int64
	PendingApprovals int
	GeneratedAt      time.Time
}

// SummarySource computes the report summary.
type SummarySource interface {
	ReportSummary(ctx context.Context) (Summary, error)
}

// DocumentSender delivers the finished report.
type DocumentSender interface {
	SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error
}

// DataCleaner removes data past its retention period.
type DataCleaner interface {
	DeleteReadNotifications(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds configuration for the audit service.
type Config struct {
	RetentionDays int
	ExportOnStart bool
	AppName       string

	// OutputDir keeps a copy of every monthly report when set.
	OutputDir string
}

// Service builds spreadsheet reports of the hotel data and sends them out
// on the first day of every month.
type Service struct {
	config   Config
	exporter TableExporter
	summary  SummarySource
	writer   func() ExcelWriter
	sender   DocumentSender
	cleaner  DataCleaner
	logger   *zerolog.Logger
	now      func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewService(
	cfg Config,
	exporter TableExporter,
	summary SummarySource,
	writerFactory func() ExcelWriter,
	sender DocumentSender,
	cleaner DataCleaner,
	logger *zerolog.Logger,
) *Service {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 31
	}
	if cfg.AppName == "" {
		cfg.AppName = "jethotel"
	}
	if writerFactory == nil {
		writerFactory = NewExcelizeWriter
	}
	l := logger.With().Str("component", "audit").Logger()
	return &Service{
		config:   cfg,
		exporter: exporter,
		summary:  summary,
		writer:   writerFactory,
		sender:   sender,
		cleaner:  cleaner,
		logger:   &l,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the monthly scheduler.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.config.ExportOnStart {
		go s.RunExportAndCleanup()
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().Int("retention_days", s.config.RetentionDays).Msg("Audit service started")
}

// Stop gracefully stops the audit service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("Audit service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	nextRun := NextFirstOfMonth(s.now())
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()
	s.logger.Info().Time("time", nextRun).Msg("Next audit scheduled")

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.RunExportAndCleanup()

			nextRun = NextFirstOfMonth(s.now())
			timer.Reset(time.Until(nextRun))
			s.logger.Info().Time("time", nextRun).Msg("Next audit scheduled")
		}
	}
}

// NextFirstOfMonth returns 00:01 on the first day of the month after now.
func NextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

// Filename names the report covering the month of t, e.g. "jethotel_2024-01.xlsx".
func (s *Service) Filename(t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", s.config.AppName, t.Format("2006-01"))
}

// RunExportAndCleanup exports last month's report and then removes expired data.
func (s *Service) RunExportAndCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := s.ExportAndSend(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to export audit data")
	}

	if err := s.Cleanup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to cleanup old data")
	}
}

// ExportAndSend builds the report and hands it to the document sender.
func (s *Service) ExportAndSend(ctx context.Context) error {
	var buf bytes.Buffer
	if err := s.WriteReport(ctx, &buf); err != nil {
		return err
	}
	filename := s.Filename(s.now().AddDate(0, -1, 0))

	if s.config.OutputDir != "" {
		if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.config.OutputDir, filename), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}
	if s.sender == nil {
		return nil
	}

	caption := fmt.Sprintf("Monthly report %s", s.config.AppName)
	if err := s.sender.SendDocument(ctx, filename, &buf, caption); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	s.logger.Info().Str("filename", filename).Msg("Audit report sent")
	return nil
}

// WriteReport writes an xlsx workbook with one sheet per table followed by
// a summary sheet.
func (s *Service) WriteReport(ctx context.Context, w io.Writer) error {
	if s.exporter == nil {
		return fmt.Errorf("exporter not configured")
	}

	tables, err := s.exporter.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("get table names: %w", err)
	}

	excel := s.writer()
	defer excel.Close()

	for _, tableName := range tables {
		data, columns, err := s.exporter.GetTableData(ctx, tableName)
		if err != nil {
			return fmt.Errorf("get table %s: %w", tableName, err)
		}
		if err := excel.AddSheet(tableName); err != nil {
			return err
		}
		if err := excel.WriteHeader(columns); err != nil {
			return fmt.Errorf("write header %s: %w", tableName, err)
		}
		for _, row := range data {
			rowData := make([]any, len(columns))
			for i, col := range columns {
				rowData[i] = row[col]
			}
			if err := excel.WriteRow(rowData); err != nil {
				return fmt.Errorf("write row %s: %w", tableName, err)
			}
		}
		s.logger.Debug().Str("table", tableName).Int("rows", len(data)).Msg("Exported table")
	}

	if s.summary != nil {
		sum, err := s.summary.ReportSummary(ctx)
		if err != nil {
			return fmt.Errorf("report summary: %w", err)
		}
		if err := writeSummary(excel, sum); err != nil {
			return err
		}
	}

	if err := excel.Save(w); err != nil {
		return fmt.Errorf("save excel: %w", err)
	}
	return nil
}

func writeSummary(excel ExcelWriter, sum Summary) error {
	if err := excel.AddSheet("summary"); err != nil {
		return err
	}
	if err := excel.WriteHeader([]string{"metric", "value"}); err != nil {
		return err
	}
	rows := [][]any{
		{"generated_at", sum.GeneratedAt.UTC().Format(time.RFC3339)},
		{"rooms", sum.Rooms},
		{"reservations", sum.Reservations},
		{"pending_approvals", sum.PendingApprovals},
		{"revenue", models.FormatCents(sum.RevenueCents)},
	}
	for _, r := range rows {
		if err := excel.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup deletes read notifications older than the retention period.
func (s *Service) Cleanup(ctx context.Context) error {
	if s.cleaner == nil {
		return nil
	}

	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	deleted, err := s.cleaner.DeleteReadNotifications(ctx, retention)
	if err != nil {
		return fmt.Errorf("delete read notifications: %w", err)
	}

	s.logger.Info().Int64("deleted_count", deleted).Int("retention_days", s.config.RetentionDays).Msg("Cleaned up old data")
	return nil
}
