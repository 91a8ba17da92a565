package stockintel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeUpstreams serves canned Alpha Vantage, Finnhub and NewsAPI
// responses. Setting a fail status on a field forces that upstream to
// answer with the given HTTP status instead.
type fakeUpstreams struct {
	mu          sync.Mutex
	alphaFail   int
	finnhubFail int
	newsFail    int

	alpha   *httptest.Server
	finnhub *httptest.Server
	news    *httptest.Server
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{}
	f.alpha = httptest.NewServer(http.HandlerFunc(f.alphaHandler))
	f.finnhub = httptest.NewServer(http.HandlerFunc(f.finnhubHandler))
	f.news = httptest.NewServer(http.HandlerFunc(f.newsHandler))
	t.Cleanup(f.close)
	return f
}

func (f *fakeUpstreams) close() {
	f.alpha.Close()
	f.finnhub.Close()
	f.news.Close()
}

func (f *fakeUpstreams) endpoints() ProviderEndpoints {
	return ProviderEndpoints{
		AlphaVantage: f.alpha.URL,
		Finnhub:      f.finnhub.URL,
		NewsAPI:      f.news.URL,
	}
}

func (f *fakeUpstreams) setFail(alpha, finnhub, news int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alphaFail = alpha
	f.finnhubFail = finnhub
	f.newsFail = news
}

func writeTestJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *fakeUpstreams) alphaHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail := f.alphaFail
	f.mu.Unlock()
	if fail != 0 {
		w.WriteHeader(fail)
		return
	}

	switch r.URL.Query().Get("function") {
	case "GLOBAL_QUOTE":
		writeTestJSON(w, map[string]any{
			"Global Quote": map[string]string{
				"01. symbol":             "AAPL",
				"05. price":              "231.59",
				"06. volume":             "43234567",
				"07. latest trading day": "2026-08-28",
				"09. change":             "2.41",
				"10. change percent":     "1.05%",
			},
		})
	case "SMA":
		writeTestJSON(w, map[string]any{
			"Technical Analysis: SMA": map[string]map[string]string{
				"2026-08-28": {"SMA": "215.2100"},
				"2026-08-27": {"SMA": "214.8000"},
			},
		})
	case "RSI":
		writeTestJSON(w, map[string]any{
			"Technical Analysis: RSI": map[string]map[string]string{
				"2026-08-28": {"RSI": "61.4400"},
			},
		})
	case "SYMBOL_SEARCH":
		writeTestJSON(w, map[string]any{
			"bestMatches": []map[string]string{
				{"1. symbol": "AAPL", "2. name": "Apple Inc.", "3. type": "Equity", "4. region": "United States", "8. currency": "USD"},
				{"1. symbol": "APLE", "2. name": "Apple Hospitality REIT Inc.", "3. type": "Equity", "4. region": "United States", "8. currency": "USD"},
			},
		})
	case "OVERVIEW":
		writeTestJSON(w, map[string]string{"Name": "Apple Inc."})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeUpstreams) finnhubHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail := f.finnhubFail
	f.mu.Unlock()
	if fail != 0 {
		w.WriteHeader(fail)
		return
	}

	switch r.URL.Path {
	case "/stock/profile2":
		writeTestJSON(w, map[string]any{
			"name":                 "Apple Inc",
			"exchange":             "NASDAQ NMS - GLOBAL MARKET",
			"finnhubIndustry":      "Technology",
			"currency":             "USD",
			"marketCapitalization": 3456789.0,
			"ipo":                  "1980-12-12",
			"weburl":               "https://www.apple.com/",
		})
	case "/stock/metric":
		writeTestJSON(w, map[string]any{
			"metric": map[string]float64{
				"peTTM":                          31.2,
				"pbQuarterly":                    48.1,
				"roeTTM":                         147.3,
				"currentRatioQuarterly":          0.95,
				"totalDebt/totalEquityQuarterly": 1.87,
			},
		})
	case "/stock/earnings":
		writeTestJSON(w, []map[string]any{
			{"period": "2026-06-30", "actual": 1.42, "estimate": 1.39, "surprise": 0.03, "surprisePercent": 2.16},
			{"period": "2026-03-31", "actual": 1.65, "estimate": 1.60, "surprise": 0.05, "surprisePercent": 3.13},
		})
	case "/stock/recommendation":
		writeTestJSON(w, []map[string]any{
			{"period": "2026-08-01", "strongBuy": 14, "buy": 21, "hold": 9, "sell": 2, "strongSell": 1},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeUpstreams) newsHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail := f.newsFail
	f.mu.Unlock()
	if fail != 0 {
		w.WriteHeader(fail)
		return
	}

	writeTestJSON(w, map[string]any{
		"status": "ok",
		"articles": []map[string]any{
			{
				"source":      map[string]string{"name": "Reuters"},
				"title":       "Apple unveils new product line",
				"description": "The company announced updates across its hardware lineup.",
				"url":         "https://example.com/apple-1",
				"publishedAt": "2026-08-27T14:30:00Z",
			},
			{
				"source":      map[string]string{"name": "Bloomberg"},
				"title":       "Apple supplier ramps production",
				"description": "Supply chain checks point to strong demand.",
				"url":         "https://example.com/apple-2",
				"publishedAt": "2026-08-26T09:00:00Z",
			},
		},
	})
}

const validReportHTML = `<section data-section="summary"><h2>Executive Summary</h2><p>Apple remains a cash generative franchise.</p></section>
<section data-section="financial"><h2>Financial Health</h2><p>Margins are stable and leverage is manageable.</p></section>
<section data-section="technical"><h2>Technical Picture</h2><p>Price trades above the 50 day average.</p></section>
<section data-section="recommendation" data-verdict="buy"><h2>Recommendation</h2><p>Accumulate on weakness.</p></section>
<section data-section="risk"><h2>Key Risks</h2><ul><li>Hardware cycle fatigue</li></ul></section>`

// fakeModel is a scriptable ModelClient.
type fakeModel struct {
	mu     sync.Mutex
	calls  int
	output string
	errs   []error
}

func (m *fakeModel) Name() string { return "fake/test" }

func (m *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.output, nil
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// newTestCore wires a Core against the fake upstreams and model.
func newTestCore(t *testing.T, f *fakeUpstreams, model ModelClient) *Core {
	t.Helper()
	core, err := New(Options{
		AlphaVantageKey: "test-av",
		FinnhubKey:      "test-fh",
		NewsAPIKey:      "test-news",
		Endpoints:       f.endpoints(),
		ModelClient:     model,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return core
}
