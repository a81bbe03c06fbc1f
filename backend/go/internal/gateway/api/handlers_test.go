package api

import (
	"MultiAI_Assistant/backend/go/internal/career"
	"MultiAI_Assistant/backend/go/internal/chat"
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/internal/fallback"
	"MultiAI_Assistant/backend/go/internal/pdfqa"
	"MultiAI_Assistant/backend/go/internal/pdfqa/pdfqatest"
	"MultiAI_Assistant/backend/go/pkg/cache"
	httpclient "MultiAI_Assistant/backend/go/pkg/http"
	"MultiAI_Assistant/backend/go/pkg/httpmiddleware"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, backend http.Handler, checks ...HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.Retry = config.RetryConfig{MaxAttempts: 1}
	cfg.Backend.UploadRetry = config.RetryConfig{MaxAttempts: 2, BaseDelay: "1ms", Multiplier: 1}
	cfg.Middleware.CircuitBreaker.Enabled = false

	transport, err := httpclient.NewClient(cfg, logger.Discard())
	require.NoError(t, err)
	orch := orchestrator.New(transport, orchestrator.WithLogger(logger.Discard()))
	mem, err := cache.NewMemoryCache(32, time.Hour)
	require.NoError(t, err)

	pdf := pdfqa.New(orch, cfg.Backend,
		pdfqa.WithSessionStore(pdfqa.NewSessionStore(mem, 0)),
		pdfqa.WithLogger(logger.Discard()))
	chatClient := chat.New(orch, cfg.Backend, fallback.Default(), logger.Discard())
	careerClient := career.New(orch, cfg.Backend, mem, time.Hour, logger.Discard())

	router := gin.New()
	router.Use(httpmiddleware.RequestLogger(logger.Discard()))
	RegisterRoutes(router, NewAPI(pdf, chatClient, careerClient, logger.Discard(), checks...))
	return router
}

func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile(name, name+".pdf")
		require.NoError(t, err)
		_, _ = part.Write(content)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(router *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestUpload_MissingFiles(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())
	body, ct := multipartBody(t, map[string][]byte{"document": pdfqatest.MinimalPDF(1)}, nil)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No files found in request", decode(t, rec)["message"])
}

func TestUpload_NotAPDF(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())
	body, ct := multipartBody(t, map[string][]byte{"files": []byte("hello there")}, nil)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_SuccessThenSessionLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload-qa", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"indexed","session_info":{"session_token":"tok-9"}}`)
	})
	router := newTestRouter(t, mux)
	body, ct := multipartBody(t, map[string][]byte{"files": pdfqatest.MinimalPDF(2)}, nil)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "tok-9", out["extractedSessionId"])
	assert.Equal(t, "indexed", out["message"])
	assert.EqualValues(t, 2, out["pages"])
	assert.NotEmpty(t, rec.Header().Get(httpmiddleware.TraceHeader))

	rec = do(router, http.MethodGet, "/api/pdf-proxy/sessions/tok-9", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "files.pdf", decode(t, rec)["document_name"])

	rec = do(router, http.MethodDelete, "/api/pdf-proxy/sessions/tok-9", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(router, http.MethodGet, "/api/pdf-proxy/sessions/tok-9", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsk_Validation(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())

	rec := do(router, http.MethodPost, "/api/pdf-proxy/ask", strings.NewReader(`{"session_id":"s"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Question is required", decode(t, rec)["message"])

	rec = do(router, http.MethodPost, "/api/pdf-proxy/ask", strings.NewReader(`{"question":"q"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Session ID is required", decode(t, rec)["message"])
}

func TestAsk_AddsSessionIDForCompatibility(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ask-qa", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"Page 3","session_info":{"session_token":"tok-1"}}`)
	})
	router := newTestRouter(t, mux)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/ask", strings.NewReader(`{"question":"where?","session_id":"tok-1"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Page 3", out["answer"])
	assert.Equal(t, "tok-1", out["session_id"])
}

func TestAsk_ReplacesNullSessionID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ask-qa", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"Page 3","session_id":null,"session_info":{"session_token":"tok-1"}}`)
	})
	router := newTestRouter(t, mux)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/ask", strings.NewReader(`{"question":"where?","session_id":"tok-1"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-1", decode(t, rec)["session_id"])
}

func TestAsk_AllFormatsFail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ask-qa", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	})
	router := newTestRouter(t, mux)

	rec := do(router, http.MethodPost, "/api/pdf-proxy/ask", strings.NewReader(`{"question":"q","session_id":"gone"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, false, out["has_documents"])
	assert.Contains(t, out["message"], "AllStrategiesFailed")
}

func TestChat_FallsBackToSimulation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ghana/query", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	router := newTestRouter(t, mux)

	rec := do(router, http.MethodPost, "/api/ghana-chat", strings.NewReader(`{"message":"best food in Kumasi?"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Ghanaian Cuisine", out["source"])
	assert.Equal(t, true, out["simulated"])
}

func TestChat_EmptyMessage(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())
	rec := do(router, http.MethodPost, "/api/ghana-chat", strings.NewReader(`{"message":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoverLetter_MissingRole(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())
	body, ct := multipartBody(t, map[string][]byte{"cv_file": []byte("cv")}, map[string]string{"company_name": "MTN"})

	rec := do(router, http.MethodPost, "/api/cover-letter", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeCV_ReportsCacheSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze-cv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"cv_data":{},"recommendations":{},"matching_jobs":[]}`)
	})
	router := newTestRouter(t, mux)

	for _, want := range []string{"fetched", "cached"} {
		body, ct := multipartBody(t, map[string][]byte{"file": []byte("my cv")}, map[string]string{"top_n": "2"})
		rec := do(router, http.MethodPost, "/api/analyze-cv", body, ct)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, rec.Header().Get("X-Cache"))
	}
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }}
	router := newTestRouter(t, http.NotFoundHandler(), ok)
	rec := do(router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	bad := HealthCheck{Name: "kafka", Check: func(context.Context) error { return errors.New("no brokers") }}
	router = newTestRouter(t, http.NotFoundHandler(), ok, bad)
	rec = do(router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, "no brokers", out["checks"].(map[string]any)["kafka"])
}

func TestFailureStatus(t *testing.T) {
	cases := []struct {
		name string
		res  orchestrator.Result
		want int
	}{
		{"no error", orchestrator.Result{}, http.StatusBadGateway},
		{"cancelled", orchestrator.Result{Err: &orchestrator.Error{Kind: orchestrator.Cancelled}}, http.StatusGatewayTimeout},
		{"last 4xx", orchestrator.Result{Err: &orchestrator.Error{Kind: orchestrator.AllStrategiesFailed, Details: []orchestrator.StrategyFailure{{StatusCode: 500}, {StatusCode: 422}}}}, http.StatusUnprocessableEntity},
		{"last 5xx", orchestrator.Result{Err: &orchestrator.Error{Kind: orchestrator.AllStrategiesFailed, Details: []orchestrator.StrategyFailure{{StatusCode: 503}}}}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, failureStatus(tc.res))
		})
	}
}
