package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

// fakeChat serves a single canned chat completion and records the request.
func fakeChat(t *testing.T, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	reply := `{"business_name":" Corner Diner ","date":"2026-10-01",
		"items":[{"name":"Burger","price":12.5},{"name":"","price":1},{"name":"Fries","price":4.999}],
		"tax":1.1,"tip":0,"discount":2}`
	srv, captured := fakeChat(t, reply)

	e := NewOpenAIExtractor("test-key", "gpt-4o-mini", srv.URL+"/v1")
	receipt, err := e.Extract(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Corner Diner", receipt.BusinessName)
	assert.Equal(t, "2026-10-01", receipt.Date)
	assert.Equal(t, []models.Item{
		{Name: "Burger", Price: 1250},
		{Name: "Fries", Price: 500},
	}, receipt.Items)
	assert.Equal(t, money.Cents(110), receipt.Tax)
	assert.Equal(t, money.Cents(0), receipt.Tip)
	assert.Equal(t, money.Cents(200), receipt.Discount)

	req := *captured
	assert.Equal(t, "gpt-4o-mini", req["model"])
	raw, _ := json.Marshal(req["messages"])
	assert.Contains(t, string(raw), "data:image/jpeg;base64,")
}

func TestOpenAIExtractor_RejectsNonImage(t *testing.T) {
	e := NewOpenAIExtractor("test-key", "gpt-4o-mini", "http://127.0.0.1:0")
	_, err := e.Extract(context.Background(), []byte("%PDF"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestOpenAIExtractor_EmptyReply(t *testing.T) {
	srv, _ := fakeChat(t, `{"items":[]}`)
	e := NewOpenAIExtractor("test-key", "gpt-4o-mini", srv.URL+"/v1")
	_, err := e.Extract(context.Background(), []byte{1}, "image/png")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		items   int
	}{
		{"malformed", "not json", true, 0},
		{"negative price dropped", `{"business_name":"X","items":[{"name":"Refund","price":-3}]}`, false, 0},
		{"business only", `{"business_name":"Cafe"}`, false, 0},
		{"items only", `{"items":[{"name":"Tea","price":3}]}`, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got.Items, tt.items)
		})
	}
}
