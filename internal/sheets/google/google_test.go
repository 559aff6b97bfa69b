package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type sheetsCall struct {
	method string
	path   string
	query  string
	body   string
}

func newFakeSheets(t *testing.T, status int) (*Client, *[]sheetsCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []sheetsCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, sheetsCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			io.WriteString(w, `{"error":{"code":400,"message":"bad range"}}`)
			return
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-id","updatedCells":4}`)
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id", nil), &calls
}

func TestClient_Replace(t *testing.T) {
	c, calls := newFakeSheets(t, http.StatusOK)

	err := c.Replace(context.Background(), "Summary", [][]string{{"Period", "2026-03"}, {}, {"Profit", "3.00"}})
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	clear, update := (*calls)[0], (*calls)[1]

	assert.Equal(t, http.MethodPost, clear.method)
	assert.True(t, strings.HasSuffix(clear.path, "/values/'Summary':clear"), clear.path)
	assert.Contains(t, clear.path, "/v4/spreadsheets/sheet-id/")

	assert.Equal(t, http.MethodPut, update.method)
	assert.True(t, strings.HasSuffix(update.path, "/values/'Summary'!A1"), update.path)
	assert.Contains(t, update.query, "valueInputOption=RAW")

	var vr struct {
		Values [][]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(update.body), &vr))
	assert.Equal(t, [][]string{{"Period", "2026-03"}, {}, {"Profit", "3.00"}}, vr.Values)
}

func TestClient_Replace_APIError(t *testing.T) {
	c, calls := newFakeSheets(t, http.StatusBadRequest)

	err := c.Replace(context.Background(), "Documents", [][]string{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear Documents")
	// the update is never attempted after a failed clear
	for _, call := range *calls {
		assert.NotEqual(t, http.MethodPut, call.method)
	}
}

func TestClient_Replace_NoService(t *testing.T) {
	c := &Client{}
	err := c.Replace(context.Background(), "Summary", nil)
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Summary'", quoteSheet("Summary"))
	assert.Equal(t, "'Bob''s docs'", quoteSheet("Bob's docs"))
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600))

	got, err := loadCredentials(Credentials{JSON: ` {"inline":true} `, File: file})
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, string(got))

	got, err = loadCredentials(Credentials{File: file})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(got))

	got, err = loadCredentials(Credentials{ApplicationPath: file})
	require.NoError(t, err)
	assert.Contains(t, string(got), "service_account")

	_, err = loadCredentials(Credentials{File: filepath.Join(dir, "missing.json")})
	assert.ErrorContains(t, err, "read service account file")

	_, err = loadCredentials(Credentials{})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), "  ", Credentials{JSON: "{}"}, nil)
	assert.EqualError(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), "sheet-id", Credentials{}, nil)
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = New(context.Background(), "sheet-id", Credentials{JSON: "not json"}, nil)
	assert.ErrorContains(t, err, "parse service account credentials")
}
