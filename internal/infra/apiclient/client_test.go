package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etuition/config"
	internalerrors "etuition/internal/errors"
	"etuition/internal/infra/metrics"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.Timeout = 5 * time.Second

	client, err := NewClient(cfg, metrics.New(), discardLogger())
	require.NoError(t, err)

	return client
}

func TestClient_GetDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/a%40example.com/role", r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"role":"Student"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api/")

	var out struct {
		Role string `json:"role"`
	}
	require.NoError(t, client.Get(context.Background(), "/users/a%40example.com/role", &out))
	assert.Equal(t, "Student", out.Role)
}

func TestClient_PostSendsJSONAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/create-checkout-session", r.URL.Path)
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1", body["tuitionId"])

		_, _ = w.Write([]byte(`{"url":"https://checkout.example.com/s/1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	var out map[string]string
	err := client.Post(context.Background(), "create-checkout-session?q=x", map[string]string{"tuitionId": "t1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/s/1", out["url"])
}

func TestClient_ResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	var rejected []error
	client.Responses.Use(ResponseInterceptor{
		Rejected: func(req *http.Request, err error) error {
			rejected = append(rejected, err)

			return err
		},
	})

	err := client.Get(context.Background(), "/missing", nil)

	respErr, ok := internalerrors.AsTarget[*ResponseError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, respErr.StatusCode)
	assert.JSONEq(t, `{"message":"not found"}`, string(respErr.Body))
	assert.Len(t, rejected, 1)
}

func TestClient_RequestInterceptors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v2", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Requests.Use(func(req *http.Request) error {
		req.Header.Set("X-Test", "v1")

		return nil
	})
	client.Requests.Use(func(req *http.Request) error {
		req.Header.Set("X-Test", "v2")

		return nil
	})

	require.NoError(t, client.Post(context.Background(), "/item/1", map[string]string{"k": "v"}, nil))

	abort := errors.New("aborted")
	client.Requests.Use(func(*http.Request) error { return abort })
	assert.ErrorIs(t, client.Get(context.Background(), "/item/1", nil), abort)
}

func TestClient_NetworkErrorPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(t, server.URL)
	server.Close()

	err := client.Get(context.Background(), "/users/all", nil)
	require.Error(t, err)

	_, isResponseErr := internalerrors.AsTarget[*ResponseError](err)
	assert.False(t, isResponseErr)
}
