//go:build !integration

package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipartes/quote-cli/internal/config"
)

// fakeOpenAI serves /chat/completions with a fixed reply and counts calls.
func fakeOpenAI(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// useTestConfig points the global cfg at a temp SQLite database and the
// given OpenAI-compatible base URL.
func useTestConfig(t *testing.T, openAIURL string) {
	t.Helper()
	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })

	cfg = &config.Config{
		Server: config.ServerConfig{
			Port:            3000,
			Service:         "Sistema de Cotação IPARTES",
			Version:         "2.0.0",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: time.Second,
		},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "quote.db"),
		},
		LLM: config.LLMConfig{
			Provider:      "openai",
			RetryAttempts: 1,
		},
		OpenAI: config.OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: openAIURL,
			Model:   "gpt-4",
		},
		Discovery: config.DiscoveryConfig{Concurrency: 2},
		Quote:     config.QuoteConfig{ShippingAddress: "SERVER X SYSTEMS"},
		Log:       config.LogConfig{Level: "info", Format: "console"},
	}
}

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}
