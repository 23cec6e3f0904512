package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"degiro-returns/internal/aggregate"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return &Server{
		Log:            zap.NewNop(),
		JWTSecret:      []byte("test-secret"),
		UploadMaxBytes: 1 << 20,
	}
}

func multipartUpload(t *testing.T, csv string, start, end string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	url := "/api/public/returns"
	if start != "" || end != "" {
		url += "?start_date=" + start + "&end_date=" + end
	}
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestHandleComputeSync_ReturnsSummary(t *testing.T) {
	sample, err := os.ReadFile("../pipeline/testdata/sample.csv")
	require.NoError(t, err)

	s := testServer(t)
	req := multipartUpload(t, string(sample), "", "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var summary aggregate.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.ISINs, 1)
	assert.Equal(t, "US0000000001", summary.ISINs[0].ISIN)
	assert.True(t, summary.GlobalReturn.Equal(decimal.RequireFromString("58")))
}

func TestHandleComputeSync_RendersHTMLWhenAccepted(t *testing.T) {
	sample, err := os.ReadFile("../pipeline/testdata/sample.csv")
	require.NoError(t, err)

	s := testServer(t)
	req := multipartUpload(t, string(sample), "", "")
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "US0000000001")
}

func TestHandleComputeSync_RejectsGetMethod(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/public/returns", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleComputeAsync_RequiresAuth(t *testing.T) {
	s := testServer(t)
	req := multipartUpload(t, "whatever", "", "")
	req.URL.Path = "/api/private/returns/async"
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlePollJob_UnknownIDIs404(t *testing.T) {
	t.Skip("requires a live jobstore backed by redis; covered by jobstore's own integration test")
}
