// Package google mirrors the ledger into a Google spreadsheet through a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"lapkeu/internal/core"
	"lapkeu/internal/sheets"
)

type Config struct {
	SpreadsheetID     string
	CredentialsJSON   string
	CredentialsFile   string
	TransactionsSheet string
	MonthlySheet      string
}

// valuesAPI is the part of the Sheets API the mirror calls.
type valuesAPI interface {
	EnsureSheets(ctx context.Context, spreadsheetID string, titles []string) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

type Client struct {
	api               valuesAPI
	spreadsheetID     string
	transactionsSheet string
	monthlySheet      string
}

var _ sheets.Mirror = (*Client)(nil)

// New authenticates with the service account in cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceAPI{svc: svc}, cfg), nil
}

func newClient(api valuesAPI, cfg Config) *Client {
	c := &Client{
		api:               api,
		spreadsheetID:     strings.TrimSpace(cfg.SpreadsheetID),
		transactionsSheet: strings.TrimSpace(cfg.TransactionsSheet),
		monthlySheet:      strings.TrimSpace(cfg.MonthlySheet),
	}
	if c.transactionsSheet == "" {
		c.transactionsSheet = "Transactions"
	}
	if c.monthlySheet == "" {
		c.monthlySheet = "Monthly"
	}
	return c
}

// Mirror replaces both sheets with the current ledger. The transactions
// sheet is written first; a failure there leaves the monthly sheet as it
// was.
func (c *Client) Mirror(ctx context.Context, list []core.Transaction) (int, error) {
	if err := c.api.EnsureSheets(ctx, c.spreadsheetID, []string{c.transactionsSheet, c.monthlySheet}); err != nil {
		return 0, fmt.Errorf("ensure sheets: %w", err)
	}

	writes := []struct {
		sheet string
		grid  sheets.Grid
	}{
		{c.transactionsSheet, sheets.TransactionsGrid(list)},
		{c.monthlySheet, sheets.MonthlyGrid(list)},
	}
	for _, w := range writes {
		if err := c.api.Clear(ctx, c.spreadsheetID, sheets.A1(w.sheet, "")); err != nil {
			return 0, fmt.Errorf("clear %s: %w", w.sheet, err)
		}
		if err := c.api.Update(ctx, c.spreadsheetID, sheets.A1(w.sheet, "A1"), w.grid); err != nil {
			return 0, fmt.Errorf("write %s: %w", w.sheet, err)
		}
	}

	slog.DebugContext(ctx, "Spreadsheet mirrored",
		"spreadsheet_id", c.spreadsheetID,
		"rows", len(list))
	return len(list), nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline JSON first and then the file.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

type serviceAPI struct {
	svc *gsheet.Service
}

// EnsureSheets adds the titles the spreadsheet does not have yet.
func (a *serviceAPI) EnsureSheets(ctx context.Context, spreadsheetID string, titles []string) error {
	ss, err := a.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, title := range titles {
		if !existing[title] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = a.svc.Spreadsheets.BatchUpdate(spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	return err
}

func (a *serviceAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := a.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (a *serviceAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := a.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
