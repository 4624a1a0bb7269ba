package audit

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeExporter struct {
	tables map[string][]map[string]any
	cols   map[string][]string
	order  []string
}

func (f *fakeExporter) GetTableNames(ctx context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeExporter) GetTableData(ctx context.Context, name string) ([]map[string]any, []string, error) {
	return f.tables[name], f.cols[name], nil
}

type fakeSummary struct{ sum Summary }

func (f fakeSummary) ReportSummary(ctx context.Context) (Summary, error) { return f.sum, nil }

type captureSender struct {
	filename string
	caption  string
	data     []byte
}

func (c *captureSender) SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error {
	c.filename, c.caption = filename, caption
	var err error
	c.data, err = io.ReadAll(data)
	return err
}

type fakeCleaner struct{ olderThan time.Duration }

func (f *fakeCleaner) DeleteReadNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 3, nil
}

func newTestService(sender DocumentSender, cleaner DataCleaner) *Service {
	logger := zerolog.New(io.Discard)
	exp := &fakeExporter{
		order: []string{"rooms", "transactions"},
		cols: map[string][]string{
			"rooms":        {"id", "name", "price_cents"},
			"transactions": {"id", "amount_cents", "status"},
		},
		tables: map[string][]map[string]any{
			"rooms": {
				{"id": int64(1), "name": "Deluxe Room", "price_cents": int64(15000)},
				{"id": int64(2), "name": "Suite", "price_cents": int64(25000)},
			},
			"transactions": {
				{"id": int64(1), "amount_cents": int64(30000), "status": "Paid"},
			},
		},
	}
	sum := fakeSummary{Summary{Rooms: 2, Reservations: 1, RevenueCents: 30000, GeneratedAt: time.Date(2024, 2, 1, 0, 1, 0, 0, time.UTC)}}
	s := NewService(Config{AppName: "jethotel", RetentionDays: 10}, exp, sum, nil, sender, cleaner, &logger)
	s.now = func() time.Time { return time.Date(2024, 2, 1, 0, 1, 0, 0, time.UTC) }
	return s
}

func TestWriteReportHasSheetPerTableAndSummary(t *testing.T) {
	s := newTestService(nil, nil)

	var buf bytes.Buffer
	require.NoError(t, s.WriteReport(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"rooms", "transactions", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("rooms")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "name", "price_cents"}, rows[0])
	assert.Equal(t, "Suite", rows[2][1])

	revenue, err := f.GetCellValue("summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "300.00", revenue)
}

func TestExportAndSendUsesPreviousMonth(t *testing.T) {
	sender := &captureSender{}
	s := newTestService(sender, nil)

	require.NoError(t, s.ExportAndSend(context.Background()))
	assert.Equal(t, "jethotel_2024-01.xlsx", sender.filename)
	assert.NotEmpty(t, sender.data)
}

func TestExportAndSendKeepsCopy(t *testing.T) {
	s := newTestService(nil, nil)
	s.config.OutputDir = t.TempDir()

	require.NoError(t, s.ExportAndSend(context.Background()))
	_, err := os.Stat(filepath.Join(s.config.OutputDir, "jethotel_2024-01.xlsx"))
	assert.NoError(t, err)
}

func TestCleanupUsesRetention(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := newTestService(nil, cleaner)

	require.NoError(t, s.Cleanup(context.Background()))
	assert.Equal(t, 10*24*time.Hour, cleaner.olderThan)
}

func TestNextFirstOfMonth(t *testing.T) {
	got := NextFirstOfMonth(time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC), got)
}
