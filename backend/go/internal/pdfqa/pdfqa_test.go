package pdfqa

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/internal/pdfqa/pdfqatest"
	"MultiAI_Assistant/backend/go/pkg/cache"
	httpclient "MultiAI_Assistant/backend/go/pkg/http"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*config.AppConfig), opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.UploadRetry = config.RetryConfig{MaxAttempts: 3, BaseDelay: "10ms", Multiplier: 2}
	cfg.Middleware.CircuitBreaker.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	transport, err := httpclient.NewClient(cfg, logger.Discard())
	require.NoError(t, err)
	orch := orchestrator.New(transport, orchestrator.WithLogger(logger.Discard()))
	return New(orch, cfg.Backend, append([]Option{WithLogger(logger.Discard())}, opts...)...)
}

func newSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	mem, err := cache.NewMemoryCache(16, time.Hour)
	require.NoError(t, err)
	return NewSessionStore(mem, 0)
}

func TestInspectPDF(t *testing.T) {
	info, err := InspectPDF(pdfqatest.MinimalPDF(3))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, 3, info.Pages)

	_, err = InspectPDF(nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = InspectPDF([]byte("just some notes about the meeting"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = InspectPDF([]byte("%PDF-1.4\n" + strings.Repeat("garbage ", 20)))
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestUploadDocument_SendsBothFileFieldsAndRemembersSession(t *testing.T) {
	store := newSessionStore(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-qa", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Len(t, r.MultipartForm.File["files"], 1)
		assert.Len(t, r.MultipartForm.File["file"], 1)
		assert.Equal(t, "report.pdf", r.MultipartForm.File["files"][0].Filename)
		_, _ = io.WriteString(w, `{"message":"ok","session_info":{"session_token":"tok-1"}}`)
	}, nil, WithSessionStore(store))

	res, err := client.UploadDocument(context.Background(), Document{Name: "report.pdf", Content: pdfqatest.MinimalPDF(2)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "tok-1", res.SessionID)
	assert.False(t, res.GeneratedFallback)
	assert.Equal(t, 2, res.Info.Pages)

	sess, ok, err := store.Lookup(context.Background(), "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", sess.DocumentName)
	assert.Equal(t, 2, sess.Pages)
}

func TestUploadDocument_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"session_id":"s-3"}`)
	}, nil)

	res, err := client.UploadDocument(context.Background(), Document{Name: "a.pdf", Content: pdfqatest.MinimalPDF(1)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "s-3", res.SessionID)
}

func TestUploadDocument_GeneratesSessionWhenMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "upload complete")
	}, nil)

	res, err := client.UploadDocument(context.Background(), Document{Name: "a.pdf", Content: pdfqatest.MinimalPDF(1)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.GeneratedFallback)
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.Warning)
}

func TestUploadDocument_RejectsNonPDFWithoutSending(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, nil)

	_, err := client.UploadDocument(context.Background(), Document{Name: "notes.txt", Content: []byte("plain text")})
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Zero(t, calls.Load())
}

func TestUploadDocument_BackendFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
	}, nil)

	res, err := client.UploadDocument(context.Background(), Document{Name: "a.pdf", Content: pdfqatest.MinimalPDF(1)})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, orchestrator.AllStrategiesFailed, res.Err.Kind)
	require.Len(t, res.Err.Details, 1)
	assert.Equal(t, 1, res.Err.Details[0].Attempts, "4xx is not retried")
}

func TestAskQuestion_FallsThroughToJSON(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		mu.Lock()
		seen = append(seen, ct)
		mu.Unlock()
		if ct != "application/json" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is the total?", body["question"])
		for _, name := range []string{"session_id", "sessionId", "session_token", "sessionToken", "token"} {
			assert.Equal(t, "tok-1", body[name], name)
		}
		_, _ = io.WriteString(w, `{"answer":"42","session_info":{"session_token":"tok-1"}}`)
	}, nil)

	res, err := client.AskQuestion(context.Background(), "What is the total?", "tok-1")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "json", res.Strategy)
	assert.Equal(t, "42", res.Fields["answer"])
	assert.Equal(t, "tok-1", res.Fields["session_id"])
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"application/x-www-form-urlencoded", "application/json"}, seen)
}

func TestAskQuestion_FormCarriesSessionAliases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "s", r.PostForm.Get("sessionId"))
		assert.Equal(t, "s", r.PostForm.Get("session_token"))
		assert.Empty(t, r.PostForm.Get("token"))
		_, _ = io.WriteString(w, `{"answer":"yes"}`)
	}, nil)

	res, err := client.AskQuestion(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.Equal(t, "form", res.Strategy)
}

func TestAskQuestion_AllFormatsFail(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no documents", http.StatusNotFound)
	}, nil)

	res, err := client.AskQuestion(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, false, res.Fields["has_documents"])
	require.NotNil(t, res.Err)
	assert.Len(t, res.Err.Details, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAskQuestion_CompatibilityOffUsesJSONOnly(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, func(cfg *config.AppConfig) {
		cfg.Backend.CompatibilityMode = false
	})

	res, err := client.AskQuestion(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAskQuestion_WarnsOnGeneratedSession(t *testing.T) {
	store := newSessionStore(t)
	require.NoError(t, store.Remember(context.Background(), Session{ID: "local-1", DocumentName: "a.pdf", Generated: true}))

	var buf bytes.Buffer
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"ok"}`)
	}, nil, WithSessionStore(store), WithLogger(logger.NewWithWriter("pdfqa", &buf, logrus.DebugLevel)))

	res, err := client.AskQuestion(context.Background(), "q", "local-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, buf.String(), "asking with a locally generated session id")
	assert.Contains(t, buf.String(), `"session_generated":true`)
}

func TestAskQuestion_Validation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil)

	_, err := client.AskQuestion(context.Background(), "  ", "s")
	assert.ErrorIs(t, err, ErrQuestionRequired)
	_, err = client.AskQuestion(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestCompatFields(t *testing.T) {
	in := map[string]any{"session_info": map[string]any{"session_token": "t"}}
	out := CompatFields(in)
	assert.Equal(t, "t", out["session_id"])
	_, mutated := in["session_id"]
	assert.False(t, mutated)

	existing := map[string]any{"session_id": "a", "session_info": map[string]any{"session_token": "b"}}
	assert.Equal(t, "a", CompatFields(existing)["session_id"])

	assert.Nil(t, CompatFields(nil))
	assert.NotContains(t, CompatFields(map[string]any{"answer": "x"}), "session_id")

	for name, blank := range map[string]any{"null": nil, "empty": ""} {
		t.Run(name, func(t *testing.T) {
			in := map[string]any{"session_id": blank, "session_info": map[string]any{"session_token": "tok-1"}}
			assert.Equal(t, "tok-1", CompatFields(in)["session_id"])
			assert.Equal(t, blank, in["session_id"])
		})
	}
}

func TestSessionStore_Forget(t *testing.T) {
	ctx := context.Background()
	store := newSessionStore(t)
	require.NoError(t, store.Remember(ctx, Session{ID: "abc", DocumentName: "a.pdf"}))
	assert.ErrorIs(t, store.Remember(ctx, Session{}), ErrSessionRequired)

	require.NoError(t, store.Forget(ctx, "abc"))
	_, ok, err := store.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}
