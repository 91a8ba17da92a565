package stockintel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassifyFetchError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"deadline", context.DeadlineExceeded, FailTimeout},
		{"wrapped failure", newFailure(FailNotFound, "gone"), FailNotFound},
		{"plain", errors.New("connection refused"), FailTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyFetchError(tt.err)
			if got.Reason != tt.want {
				t.Fatalf("classifyFetchError(%v) = %s, want %s", tt.err, got.Reason, tt.want)
			}
		})
	}
}

func TestHTTPGetJSONStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   FailureReason
	}{
		{http.StatusTooManyRequests, FailRateLimited},
		{http.StatusNotFound, FailNotFound},
		{http.StatusInternalServerError, FailTransport},
		{http.StatusBadGateway, FailTransport},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		var out map[string]any
		err := httpGetJSON(context.Background(), server.Client(), "test", server.URL, nil, &out)
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		var pf *ProviderFailure
		if !errors.As(err, &pf) || pf.Reason != tt.want {
			t.Fatalf("status %d: got %v, want reason %s", tt.status, err, tt.want)
		}
	}
}

func TestHTTPGetJSONInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	var out map[string]any
	err := httpGetJSON(context.Background(), server.Client(), "test", server.URL, nil, &out)
	var pf *ProviderFailure
	if !errors.As(err, &pf) || pf.Reason != FailInvalidResponse {
		t.Fatalf("expected invalid_response, got %v", err)
	}
}

func TestHTTPGetJSONTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]any
	err := httpGetJSON(ctx, server.Client(), "test", server.URL, nil, &out)
	var pf *ProviderFailure
	if !errors.As(err, &pf) || pf.Reason != FailTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestHTTPGetJSONSendsHeaders(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Finnhub-Token")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	var out map[string]any
	headers := map[string]string{"X-Finnhub-Token": "secret"}
	if err := httpGetJSON(context.Background(), server.Client(), "test", server.URL, headers, &out); err != nil {
		t.Fatalf("httpGetJSON: %v", err)
	}
	if gotToken != "secret" {
		t.Fatalf("expected header to be forwarded, got %q", gotToken)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := normalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("normalizeSymbol = %q", got)
	}
}

func TestParseOptionalFloat(t *testing.T) {
	if v := parseOptionalFloat("3.14"); v == nil || *v != 3.14 {
		t.Fatalf("unexpected %v", v)
	}
	for _, s := range []string{"", "None", "-", "abc"} {
		if v := parseOptionalFloat(s); v != nil {
			t.Fatalf("parseOptionalFloat(%q) = %v, want nil", s, v)
		}
	}
}
