package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSnapshotSheet = "Finanzas"

// Client keeps the ledger snapshot in a dedicated sheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	now           func() time.Time

	mu          sync.Mutex
	sheetExists bool
}

var _ ports.SnapshotStore = (*Client)(nil)

// New creates a client for spreadsheetID using service account
// credentials from the environment. An empty sheet name selects
// DefaultSnapshotSheet.
func New(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = DefaultSnapshotSheet
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, now: time.Now}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and GOOGLE_SNAPSHOT_SHEET.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), os.Getenv("GOOGLE_SNAPSHOT_SHEET"))
}

// newSheetsService initializes a Sheets service from a service account.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func serviceAccountCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) Name() string { return "sheets" }

func (c *Client) documentRange() string {
	return fmt.Sprintf("'%s'!A:E", c.sheet)
}

func (c *Client) Load(ctx context.Context) (core.Snapshot, bool, error) {
	if c.svc == nil {
		return core.Snapshot{}, false, errors.New("sheets service not initialized")
	}
	exists, err := c.ensureSheet(ctx, false)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	if !exists {
		return core.Snapshot{}, false, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.documentRange()).Context(ctx).Do()
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read %s: %w", c.sheet, err)
	}
	return decodeDocument(resp.Values)
}

// Save clears the sheet and writes the snapshot document.
func (c *Client) Save(ctx context.Context, snap core.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = c.now().UTC()
	}
	rows, err := encodeDocument(snap)
	if err != nil {
		return err
	}
	if _, err := c.ensureSheet(ctx, true); err != nil {
		return err
	}
	if err := c.Clear(ctx); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A1", c.sheet)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", c.sheet, err)
	}

	slog.InfoContext(ctx, "Snapshot written to Google Sheets",
		"sheet", c.sheet,
		"chunks", len(rows)-1,
		"transactions", len(snap.Transactions))
	return nil
}

func (c *Client) Clear(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.documentRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.sheet, err)
	}
	return nil
}

// ensureSheet reports whether the snapshot sheet exists, adding it when
// create is set.
func (c *Client) ensureSheet(ctx context.Context, create bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetExists {
		return true, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			c.sheetExists = true
			return true, nil
		}
	}
	if !create {
		return false, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: c.sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add sheet %s: %w", c.sheet, err)
	}
	slog.InfoContext(ctx, "Created snapshot sheet", "sheet", c.sheet)
	c.sheetExists = true
	return true, nil
}
