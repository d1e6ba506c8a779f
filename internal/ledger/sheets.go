package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// SheetsConfig identifies the spreadsheet and the service account allowed to edit it.
type SheetsConfig struct {
	SpreadsheetID       string
	SheetName           string // empty selects the first sheet
	ServiceAccountEmail string
	PrivateKey          string // PEM
}

// SheetsTable appends rows to a Google Sheets tab.
type SheetsTable struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *slog.Logger

	mu            sync.Mutex
	title         string // configured or resolved tab name
	headerChecked bool
}

// NewSheetsTable authenticates with a service-account JWT.
func NewSheetsTable(ctx context.Context, cfg SheetsConfig, logger *slog.Logger) (*SheetsTable, error) {
	conf := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsTableWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewSheetsTableWithService wraps an existing client, e.g. one pointed at a test endpoint.
func NewSheetsTableWithService(svc *sheets.Service, spreadsheetID, sheetName string, logger *slog.Logger) *SheetsTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsTable{svc: svc, spreadsheetID: spreadsheetID, title: sheetName, logger: logger}
}

func (t *SheetsTable) Append(ctx context.Context, row entity.LedgerRow) error {
	title, err := t.resolve(ctx)
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err = t.svc.Spreadsheets.Values.Append(t.spreadsheetID, a1(title, "A:D"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

// resolve finds the target tab and writes the header row into an empty sheet.
// A failed lookup is retried on the next append.
func (t *SheetsTable) resolve(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.title != "" && t.headerChecked {
		return t.title, nil
	}

	title := t.title
	if title == "" {
		ss, err := t.svc.Spreadsheets.Get(t.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("sheets get spreadsheet: %w", err)
		}
		if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
			return "", fmt.Errorf("spreadsheet %s has no sheets", t.spreadsheetID)
		}
		title = ss.Sheets[0].Properties.Title
	}

	head, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, a1(title, "A1:D1")).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets read header: %w", err)
	}
	if len(head.Values) == 0 {
		header := make([]interface{}, len(constants.LedgerHeaders))
		for i, h := range constants.LedgerHeaders {
			header[i] = h
		}
		_, err := t.svc.Spreadsheets.Values.Update(t.spreadsheetID, a1(title, "A1:D1"), &sheets.ValueRange{Values: [][]interface{}{header}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("sheets write header: %w", err)
		}
		t.logger.Info("ledger.sheets.header_written", "sheet", title)
	}

	t.title = title
	t.headerChecked = true
	t.logger.Info("ledger.sheets.resolved", "spreadsheet_id", t.spreadsheetID, "sheet", title)
	return title, nil
}

// a1 builds a quoted A1 range such as 'Sheet 1'!A:D.
func a1(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}
