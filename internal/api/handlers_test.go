package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockintel/pkg/stockintel"
)

// stubModel returns a fixed report for every completion.
type stubModel struct {
	output string
	err    error
}

func (m *stubModel) Name() string { return "stub/test" }

func (m *stubModel) Complete(ctx context.Context, system, user string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

const stubReportHTML = `<section data-section="summary"><h2>Summary</h2><p>Solid quarter.</p></section>
<section data-section="recommendation" data-verdict="hold"><h2>Recommendation</h2><p>Hold.</p></section>`

// setupTestRouter builds a router backed by fake upstreams and a stub model.
func setupTestRouter(t *testing.T, model stockintel.ModelClient, upstreamStatus int) http.Handler {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if upstreamStatus != 0 {
			w.WriteHeader(upstreamStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Query().Get("function") == "GLOBAL_QUOTE":
			_, _ = w.Write([]byte(`{"Global Quote":{"05. price":"231.59","06. volume":"1000","09. change":"2.41","10. change percent":"1.05%"}}`))
		case r.URL.Query().Get("function") == "SYMBOL_SEARCH":
			_, _ = w.Write([]byte(`{"bestMatches":[{"1. symbol":"AAPL","2. name":"Apple Inc."}]}`))
		case r.URL.Query().Get("function") == "OVERVIEW":
			_, _ = w.Write([]byte(`{"Name":"Apple Inc."}`))
		case r.URL.Path == "/stock/profile2":
			_, _ = w.Write([]byte(`{"name":"Apple Inc"}`))
		case r.URL.Path == "/everything":
			_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(upstream.Close)

	core, err := stockintel.New(stockintel.Options{
		AlphaVantageKey: "test",
		FinnhubKey:      "test",
		NewsAPIKey:      "test",
		Endpoints: stockintel.ProviderEndpoints{
			AlphaVantage: upstream.URL,
			Finnhub:      upstream.URL,
			NewsAPI:      upstream.URL,
		},
		ModelClient: model,
	})
	if err != nil {
		t.Fatalf("failed to build core: %v", err)
	}
	return NewRouter(core)
}

// doRequest performs a request and returns the response.
func doRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return result
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := parseJSON(t, rr)
	if body["status"] != "success" {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodPost, "/api/analyze", map[string]string{"symbol": "aapl"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := parseJSON(t, rr)
	if body["status"] != "success" {
		t.Fatalf("unexpected envelope %v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data in %v", body)
	}
	if data["symbol"] != "AAPL" {
		t.Fatalf("expected normalized symbol, got %v", data["symbol"])
	}
	if data["timestamp"] == "" {
		t.Fatal("expected timestamp")
	}
	report, ok := data["report"].(map[string]any)
	if !ok {
		t.Fatalf("missing report in %v", data)
	}
	if report["verdict"] != "hold" {
		t.Fatalf("expected hold verdict, got %v", report["verdict"])
	}
	if report["html_content"] == "" {
		t.Fatal("expected html content")
	}
}

func TestAnalyzeEndpointBadBody(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyzeEndpointEmptySymbol(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodPost, "/api/analyze", map[string]string{"symbol": "  "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := parseJSON(t, rr)
	if body["status"] != "error" || body["message"] == "" {
		t.Fatalf("unexpected error envelope %v", body)
	}
}

func TestAnalyzeEndpointInsufficientData(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, http.StatusInternalServerError)
	rr := doRequest(router, http.MethodPost, "/api/analyze", map[string]string{"symbol": "AAPL"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAnalyzeEndpointUpstreamsThrottled(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, http.StatusTooManyRequests)
	rr := doRequest(router, http.MethodPost, "/api/analyze", map[string]string{"symbol": "AAPL"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rr.Code, rr.Body.String())
	}
	body := parseJSON(t, rr)
	if body["status"] != "error" || body["message"] == "" {
		t.Fatalf("unexpected error envelope %v", body)
	}
}

func TestAnalyzeEndpointMalformedModelOutput(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: "no sections here"}, 0)
	rr := doRequest(router, http.MethodPost, "/api/analyze", map[string]string{"symbol": "AAPL"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodGet, "/api/search?q=apple", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := parseJSON(t, rr)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("unexpected search data %v", body)
	}
}

func TestSearchEndpointShortQuery(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodGet, "/api/search?q=a", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := parseJSON(t, rr)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 0 {
		t.Fatalf("expected empty list, got %v", body)
	}
}

func TestInvalidateEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubModel{output: stubReportHTML}, 0)
	rr := doRequest(router, http.MethodDelete, "/api/reports/AAPL", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
