package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"jethotel/internal/events"
	"jethotel/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// LedgerHeader is the column layout of the ledger sheet.
var LedgerHeader = []any{"Timestamp", "Event", "Transaction ID", "Reservation ID", "User ID", "Room ID", "Amount", "Status"}

type valuesAppender interface {
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type sheetsAppender struct {
	service *sheets.Service
}

func (a *sheetsAppender) Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := a.service.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// LedgerSync appends a row to a Google Sheet for every payment event.
// Events are buffered and written by Run so publishers never wait on the API.
type LedgerSync struct {
	appender      valuesAppender
	spreadsheetID string
	sheetName     string
	queue         chan []any
	logger        *zerolog.Logger
}

// NewLedgerSync authenticates with a service account credentials file.
func NewLedgerSync(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*LedgerSync, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newLedgerSync(&sheetsAppender{service: srv}, spreadsheetID, sheetName, logger), nil
}

func newLedgerSync(appender valuesAppender, spreadsheetID, sheetName string, logger *zerolog.Logger) *LedgerSync {
	l := logger.With().Str("component", "ledger_sync").Logger()
	return &LedgerSync{
		appender:      appender,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		queue:         make(chan []any, 128),
		logger:        &l,
	}
}

// Handle is an events.EventHandler that queues a ledger row.
func (s *LedgerSync) Handle(e events.Event) error {
	select {
	case s.queue <- ledgerRow(e):
		return nil
	default:
		return fmt.Errorf("ledger queue full, dropping %s for transaction %d", e.Type, e.TransactionID)
	}
}

// Run writes queued rows until ctx is done. Rows that arrive together are
// appended in one call.
func (s *LedgerSync) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case row := <-s.queue:
			rows := [][]any{row}
		drain:
			for len(rows) < 50 {
				select {
				case r := <-s.queue:
					rows = append(rows, r)
				default:
					break drain
				}
			}
			if err := s.appender.Append(ctx, s.spreadsheetID, s.sheetName+"!A:H", rows); err != nil {
				s.logger.Error().Err(err).Int("rows", len(rows)).Msg("failed to append ledger rows")
				continue
			}
			s.logger.Debug().Int("rows", len(rows)).Msg("ledger rows appended")
		}
	}
}

func ledgerRow(e events.Event) []any {
	var reservationID any = ""
	if e.ReservationID != 0 {
		reservationID = e.ReservationID
	}
	return []any{
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.Type,
		e.TransactionID,
		reservationID,
		e.UserID,
		e.RoomID,
		models.FormatCents(e.AmountCents),
		e.Status,
	}
}
