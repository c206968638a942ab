package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livebets/livematch/cmd/config"
)

const payload = `{
  "upcomingMatches": [
    {"id": "p-1", "homeTeam": {"name": "Arsenal"}, "awayTeam": {"name": "Chelsea"}}
  ],
  "metadata": {"total": "1", "date": "2026-10-15"}
}`

func gzipped(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestGetPredictions(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "plain",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(payload))
			},
		},
		{
			name: "gzip",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write(gzipped(t, payload))
			},
		},
		{
			name: "quoted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strconv.Quote(payload)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var token string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				token = r.Header.Get("token")
				tt.handler(w, r)
			}))
			defer server.Close()

			api := New(config.PredictionConfig{Url: server.URL, Token: "t0k", Timeout: time.Second})
			result, err := api.GetPredictions(context.Background())
			require.NoError(t, err)

			assert.Equal(t, "t0k", token)
			require.Len(t, result.UpcomingMatches, 1)
			assert.Equal(t, "p-1", result.UpcomingMatches[0].ID.Value)
			assert.Equal(t, "Arsenal", result.UpcomingMatches[0].HomeTeam.Name)
			assert.Equal(t, 1.0, result.Metadata.Total.Value)
			assert.Equal(t, "2026-10-15", result.Metadata.Date)
		})
	}
}

func TestGetPredictions_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := New(config.PredictionConfig{Url: server.URL}).GetPredictions(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.False(t, errors.Is(err, ErrMalformedPayload))
	})

	t.Run("malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"upcomingMatches": "nope"`))
		}))
		defer server.Close()

		_, err := New(config.PredictionConfig{Url: server.URL}).GetPredictions(context.Background())
		assert.True(t, errors.Is(err, ErrMalformedPayload))
	})

	t.Run("empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		_, err := New(config.PredictionConfig{Url: server.URL}).GetPredictions(context.Background())
		assert.True(t, errors.Is(err, ErrMalformedPayload))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(config.PredictionConfig{Url: "http://127.0.0.1:1"}).GetPredictions(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrMalformedPayload))
	})
}
