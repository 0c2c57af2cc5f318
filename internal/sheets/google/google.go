package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"timetracker/internal/core"
	applog "timetracker/internal/log"
	ports "timetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName = "Time Entries"

	defaultIndexTTL = 2 * time.Minute
)

// Options configures a spreadsheet mirror.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// valuesAPI is the subset of the Sheets API the mirror uses.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Append(ctx context.Context, rng string, rows [][]any) error
	DeleteRow(ctx context.Context, sheet string, row int) error
}

type Client struct {
	api       valuesAPI
	sheetName string
	logger    *applog.Logger

	// id -> 1-based row number, refreshed from column A after expiry or any
	// write that shifts rows.
	mu                 sync.Mutex
	rowIndex           map[string]int
	rowCount           int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.EntryMirror = (*Client)(nil)

// New creates a Sheets mirror authenticated with service account credentials.
func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceAPI{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts.SheetName, logger), nil
}

func newClient(api valuesAPI, sheetName string, logger *applog.Logger) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Client{
		api:                api,
		sheetName:          sheetName,
		logger:             logger,
		cacheValidDuration: defaultIndexTTL,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last fallback.
func newSheetsService(ctx context.Context, opts Options, logger *applog.Logger) (*gsheet.Service, error) {
	credentialsFile := strings.TrimSpace(opts.CredentialsFile)
	if opts.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read credentials from file", "path", credentialsFile, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Upsert rewrites the entry's row in place or appends a new one.
func (c *Client) Upsert(ctx context.Context, e core.TimeEntry) (string, error) {
	if c.api == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.ID == "" {
		return "", errors.New("entry has no id")
	}

	index, rows, err := c.index(ctx)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		if err := c.api.Update(ctx, c.rowRange(1), [][]any{ports.Header}); err != nil {
			return "", fmt.Errorf("write header in sheet %s: %w", c.sheetName, err)
		}
		c.invalidateIndex()
	}

	values := [][]any{ports.EncodeRow(e)}
	if row, ok := index[e.ID]; ok {
		ref := c.rowRange(row)
		if err := c.api.Update(ctx, ref, values); err != nil {
			return "", fmt.Errorf("update row %d in sheet %s: %w", row, c.sheetName, err)
		}
		return ref, nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.quotedSheet(), ports.LastColumn())
	if err := c.api.Append(ctx, rng, values); err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	c.invalidateIndex()
	next := rows + 1
	if rows == 0 {
		next = 2
	}
	return c.rowRange(next), nil
}

// Remove deletes the entry's row, shifting later rows up.
func (c *Client) Remove(ctx context.Context, id string) (bool, error) {
	if c.api == nil {
		return false, errors.New("sheets service not initialized")
	}
	index, _, err := c.index(ctx)
	if err != nil {
		return false, err
	}
	row, ok := index[id]
	if !ok {
		return false, nil
	}
	if err := c.api.DeleteRow(ctx, c.sheetName, row); err != nil {
		return false, fmt.Errorf("delete row %d in sheet %s: %w", row, c.sheetName, err)
	}
	c.invalidateIndex()
	return true, nil
}

func (c *Client) ListIDs(ctx context.Context) ([]string, error) {
	if c.api == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.api.Get(ctx, c.idColumn())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.idColumn(), err)
	}
	ids := make([]string, 0, len(values))
	for _, row := range values {
		if id := ports.RowID(row); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// index returns the id -> row mapping and the number of used rows,
// reading column A when the cached copy has expired.
func (c *Client) index(ctx context.Context) (map[string]int, int, error) {
	c.mu.Lock()
	if c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt) {
		index, rows := c.rowIndex, c.rowCount
		c.mu.Unlock()
		return index, rows, nil
	}
	c.mu.Unlock()

	values, err := c.api.Get(ctx, c.idColumn())
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", c.idColumn(), err)
	}
	index := buildIndex(values)

	c.mu.Lock()
	c.rowIndex = index
	c.rowCount = len(values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Refreshed sheet row index", applog.FieldCount, len(index), "rows", len(values))
	return index, len(values), nil
}

func (c *Client) invalidateIndex() {
	c.mu.Lock()
	c.rowIndex = nil
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

// buildIndex maps ids in column A to their 1-based row number. The first
// occurrence of a duplicated id wins.
func buildIndex(values [][]any) map[string]int {
	index := make(map[string]int, len(values))
	for i, row := range values {
		id := ports.RowID(row)
		if id == "" {
			continue
		}
		if _, seen := index[id]; !seen {
			index[id] = i + 1
		}
	}
	return index
}

func (c *Client) quotedSheet() string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'"
}

func (c *Client) idColumn() string {
	return c.quotedSheet() + "!A:A"
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.quotedSheet(), row, ports.LastColumn(), row)
}

// serviceAPI adapts *gsheet.Service to valuesAPI.
type serviceAPI struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func (s *serviceAPI) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceAPI) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *serviceAPI) Append(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *serviceAPI) DeleteRow(ctx context.Context, sheet string, row int) error {
	sheetID, err := s.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *serviceAPI) sheetID(ctx context.Context, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sheetIDs[title]; ok {
		return id, nil
	}
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	s.sheetIDs = make(map[string]int64, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := s.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}
