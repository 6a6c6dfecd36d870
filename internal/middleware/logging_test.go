package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/pkg/api"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingInterceptor_LogsRequestSummary(t *testing.T) {
	buf := captureLogs(t)
	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&api.AllocateResponse{}), nil
	}

	req := connect.NewRequest(&api.AllocateRequest{FormData: models.FormData{
		Items:        []models.Item{{Name: "Burger", Price: 1200}, {Name: "Fries", Price: 500}},
		Assignments:  [][]string{{"a"}, {"a"}},
		Participants: []models.Participant{{ID: "a", Name: "Alice"}},
	}})
	_, err := LoggingInterceptor()(ok)(context.Background(), req)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "RPC ok")
	assert.Contains(t, out, "items=2")
	assert.Contains(t, out, "participants=1")
	assert.NotContains(t, out, "Burger", "item contents stay out of logs")
}

func TestLoggingInterceptor_LogsErrorCode(t *testing.T) {
	buf := captureLogs(t)
	fail := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("bill not found"))
	}

	_, err := LoggingInterceptor()(fail)(context.Background(), connect.NewRequest(&api.GetBillRequest{ID: "b-1"}))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "bill_id=b-1")
	assert.Contains(t, out, "code=not_found")
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/receiptsplit.v1.BillService/Allocate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called, "preflight must not reach the handler")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/receiptsplit.v1.BillService/Allocate", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, called)
}

func TestLogging_RecordsStatus(t *testing.T) {
	var seen *statusRecorder
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = w.(*statusRecorder)
		http.NotFound(w, r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, http.StatusNotFound, seen.status)
	}
}
