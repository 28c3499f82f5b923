package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/types"
	"github.com/neurelo-connect/neurelo-connect-mcp/pkg/version"
)

func TestGetTargets(t *testing.T) {
	t.Parallel()

	t.Run("successful listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("Expected GET method, got %s", r.Method)
			}
			if r.URL.Path != "/api/targets" {
				t.Errorf("Expected path /api/targets, got %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Expected bearer authorization, got %q", got)
			}
			if got := r.Header.Get("User-Agent"); got != version.UserAgent() {
				t.Errorf("Expected User-Agent %q, got %q", version.UserAgent(), got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"slug":"db1","engineType":"postgres","allowsRawReadonlyQuery":true,"allowsRawReadWriteQuery":false}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL+"/api/", "test-key", &http.Client{})
		targets, err := c.GetTargets(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(targets) != 1 {
			t.Fatalf("Expected 1 target, got %d", len(targets))
		}
		want := types.Target{Slug: "db1", EngineType: "postgres", AllowsRawReadonlyQuery: true}
		if targets[0] != want {
			t.Errorf("Expected %+v, got %+v", want, targets[0])
		}
	})

	t.Run("server error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-Id", "req-1")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "bad-key", nil)
		_, err := c.GetTargets(context.Background())
		var callErr *EngineCallError
		if !errors.As(err, &callErr) {
			t.Fatalf("Expected *EngineCallError, got %T: %v", err, err)
		}
		if callErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", callErr.StatusCode)
		}
		if callErr.Method != http.MethodGet {
			t.Errorf("Expected method GET, got %s", callErr.Method)
		}
		if callErr.URL != server.URL+"/targets" {
			t.Errorf("Expected url %s/targets, got %s", server.URL, callErr.URL)
		}
		if callErr.Header.Get("X-Request-Id") != "req-1" {
			t.Errorf("Expected response headers to be kept, got %v", callErr.Header)
		}
		body, ok := callErr.Body.(map[string]any)
		if !ok || body["error"] != "invalid api key" {
			t.Errorf("Expected parsed body, got %#v", callErr.Body)
		}
		if !strings.Contains(err.Error(), "invalid api key") {
			t.Errorf("Expected error message to contain the body, got %q", err.Error())
		}
	})

	t.Run("unstructured error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream unavailable"))
		}))
		defer server.Close()

		c := NewClient(server.URL, "k", nil)
		_, err := c.GetTargets(context.Background())
		var callErr *EngineCallError
		if !errors.As(err, &callErr) {
			t.Fatalf("Expected *EngineCallError, got %T", err)
		}
		body, ok := callErr.Body.(map[string]any)
		if !ok || len(body) != 0 {
			t.Errorf("Expected empty object body, got %#v", callErr.Body)
		}
		if !strings.Contains(err.Error(), "upstream unavailable") {
			t.Errorf("Expected raw body in error message, got %q", err.Error())
		}
		if StatusCode(err) != http.StatusBadGateway {
			t.Errorf("Expected StatusCode 502, got %d", StatusCode(err))
		}
	})
}

func TestNetworkErrorKeepsIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := server.URL
	server.Close()

	c := NewClient(u, "k", nil)
	_, err := c.GetStatus(context.Background())
	if err == nil {
		t.Fatal("Expected an error for a closed server")
	}
	var callErr *EngineCallError
	if errors.As(err, &callErr) {
		t.Errorf("Network failures must not become EngineCallError")
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("Expected the *net.OpError to survive wrapping, got %T: %v", err, err)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, "k", nil)
	_, err := c.GetStatus(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"up", `{"ok":true}`, true},
		{"down is not an error", `{"ok":false}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/status" {
					t.Errorf("Expected path /status, got %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			status, err := NewClient(server.URL, "k", nil).GetStatus(context.Background())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if status.OK != tt.want {
				t.Errorf("Expected ok=%v, got %v", tt.want, status.OK)
			}
		})
	}
}

func TestTargetRoutes(t *testing.T) {
	type call func(c *Client) (any, error)
	tests := []struct {
		name       string
		call       call
		wantMethod string
		wantPath   string
		wantBody   string
		wantCT     string
	}{
		{
			name:       "db status",
			call:       func(c *Client) (any, error) { return c.GetTargetDBStatus(context.Background(), "db1") },
			wantMethod: http.MethodGet,
			wantPath:   "/targets/db1/db-status",
		},
		{
			name:       "schema",
			call:       func(c *Client) (any, error) { return c.GetSchema(context.Background(), "db1") },
			wantMethod: http.MethodGet,
			wantPath:   "/targets/db1/schema",
		},
		{
			name: "readonly query",
			call: func(c *Client) (any, error) {
				return c.ExecuteReadonlyQuery(context.Background(), "db1", "SELECT 1")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/targets/db1/readonly-query",
			wantBody:   "SELECT 1",
			wantCT:     "text/plain",
		},
		{
			name: "read-write query",
			call: func(c *Client) (any, error) {
				return c.ExecuteReadWriteQuery(context.Background(), "db1", "DELETE FROM users")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/targets/db1/read-write-query",
			wantBody:   "DELETE FROM users",
			wantCT:     "text/plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod {
					t.Errorf("Expected %s, got %s", tt.wantMethod, r.Method)
				}
				if r.URL.Path != tt.wantPath {
					t.Errorf("Expected path %s, got %s", tt.wantPath, r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != tt.wantBody {
					t.Errorf("Expected body %q, got %q", tt.wantBody, string(body))
				}
				if tt.wantCT != "" && r.Header.Get("Content-Type") != tt.wantCT {
					t.Errorf("Expected Content-Type %s, got %s", tt.wantCT, r.Header.Get("Content-Type"))
				}
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			if _, err := tt.call(NewClient(server.URL, "k", nil)); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
		})
	}
}

func TestGetSchemaMethodNotAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"not supported"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", nil).GetSchema(context.Background(), "mongo")
	if StatusCode(err) != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %v", err)
	}
}

func TestEmptyBodyIsNull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	raw, err := NewClient(server.URL, "k", nil).ExecuteReadWriteQuery(context.Background(), "db1", "TRUNCATE t")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("Expected null, got %s", raw)
	}
}

func TestNoAuthorizationWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("Expected no Authorization header")
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, "", nil).GetStatus(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestEngineCallErrorDetails(t *testing.T) {
	err := &EngineCallError{Method: "GET", URL: "http://x/targets", StatusCode: 404, Body: map[string]any{"error": "nope"}}
	d := err.Details()
	if d["statusCode"] != 404 || d["method"] != "GET" {
		t.Errorf("Unexpected details %v", d)
	}
	if !IsNotFound(err) {
		t.Error("Expected IsNotFound to be true")
	}
	raw, jerr := json.Marshal(d)
	if jerr != nil {
		t.Fatalf("Details must be JSON serializable: %v", jerr)
	}
	if !strings.Contains(string(raw), `"nope"`) {
		t.Errorf("Expected body in details, got %s", raw)
	}
}
