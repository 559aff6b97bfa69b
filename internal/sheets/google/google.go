// Package google exports report rows to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"backoffice/internal/log"
	"backoffice/internal/sheets"
)

var _ sheets.Exporter = (*Client)(nil)

// Credentials names where the service account key comes from. The first
// non-empty source wins.
type Credentials struct {
	JSON            string
	File            string
	ApplicationPath string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}
}

func newSheetsService(ctx context.Context, creds Credentials, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(creds)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with service account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	// the token source and the API calls share the pooled transport
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	gcreds, err := oauthgoogle.CredentialsFromJSON(authCtx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	client := oauth2.NewClient(authCtx, gcreds.TokenSource)
	client.Timeout = 60 * time.Second

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(creds Credentials) ([]byte, error) {
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		return []byte(strings.TrimSpace(creds.JSON)), nil
	case strings.TrimSpace(creds.File) != "":
		return readCredentialsFile(creds.File)
	case strings.TrimSpace(creds.ApplicationPath) != "":
		return readCredentialsFile(creds.ApplicationPath)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func readCredentialsFile(path string) ([]byte, error) {
	b, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Replace clears the sheet and writes rows starting at A1. Rows may be
// ragged; empty rows are kept as spacers.
func (c *Client) Replace(ctx context.Context, sheet string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	ref := quoteSheet(sheet)

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, ref, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	vr := &gsheet.ValueRange{Values: toValues(rows)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", sheet, err)
	}

	c.logger.DebugContext(ctx, "Sheet replaced",
		"sheet", sheet,
		"rows", len(rows),
		"updated_cells", resp.UpdatedCells)
	return nil
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
