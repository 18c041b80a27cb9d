package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-devis/internal/config"
	"github.com/diewo77/go-devis/internal/db"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/diewo77/go-devis/internal/preview"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *preview.Previewer) {
	t.Helper()
	log := logger.NewNop()
	cfg := config.StorageConfig{Driver: "sqlite", SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared"}
	conn, err := db.ConnectAndMigrate(cfg, log)
	require.NoError(t, err)

	store := services.NewStore(storage.NewGormKV(conn), services.DefaultStateKey, log)
	gen := pdf.NewGenerator()
	previewer := preview.NewPreviewer(gen, 10*time.Millisecond, log)
	t.Cleanup(previewer.Close)
	previewer.Attach(context.Background(), store)
	store.Init(context.Background(), store.Defaults())

	srv := httptest.NewServer(withLogging(log, NewApp(store, previewer, gen, log)))
	t.Cleanup(srv.Close)
	return srv, previewer
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestApp_EditingFlow(t *testing.T) {
	srv, previewer := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/document", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc models.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, models.TypeQuote, doc.Type)
	lineID := doc.Lines[0].ID

	resp, _ = do(t, srv, http.MethodPost, "/document", `{"number":3,"client":{"name":"ACME"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/document/lines/"+lineID, `{"title":"Audit","quantity":2,"unitPrice":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, 240.0, doc.Total)

	resp, _ = do(t, srv, http.MethodPost, "/document/lines/"+lineID+"/delete", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/document/export.pdf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="quote_3.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(string(body), "%PDF-"))

	require.NoError(t, previewer.Flush(context.Background()))
	resp, body = do(t, srv, http.MethodGet, "/preview", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "%PDF-"))

	resp, _ = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, srv, http.MethodDelete, "/document", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
