package stockintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FetchKind identifies one category of market data collected for a symbol.
type FetchKind string

// Collected data categories.
const (
	KindQuote        FetchKind = "quote"
	KindFundamentals FetchKind = "fundamentals"
	KindNews         FetchKind = "news"
)

// FailureReason classifies why a provider call failed.
type FailureReason string

// Provider failure reasons.
const (
	FailTimeout         FailureReason = "timeout"
	FailRateLimited     FailureReason = "rate_limited"
	FailNotFound        FailureReason = "not_found"
	FailTransport       FailureReason = "transport_error"
	FailInvalidResponse FailureReason = "invalid_response"
)

// ProviderFailure describes a single failed provider call.
type ProviderFailure struct {
	Reason  FailureReason
	Message string
}

// Error implements the error interface.
func (f *ProviderFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

func newFailure(reason FailureReason, format string, args ...any) *ProviderFailure {
	return &ProviderFailure{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Quote holds the latest trading snapshot for a symbol, with optional
// technical indicators attached when the upstream can supply them.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent string          `json:"change_percent"`
	Volume        int64           `json:"volume"`
	LatestDay     string          `json:"latest_trading_day,omitempty"`
	SMA50         *float64        `json:"sma_50,omitempty"`
	RSI14         *float64        `json:"rsi_14,omitempty"`
}

// EarningsQuarter is one reported quarter of EPS results.
type EarningsQuarter struct {
	Period          string   `json:"period"`
	ActualEPS       *float64 `json:"actual_eps"`
	EstimateEPS     *float64 `json:"estimate_eps"`
	Surprise        *float64 `json:"surprise,omitempty"`
	SurprisePercent *float64 `json:"surprise_percent,omitempty"`
}

// AnalystRatings is the most recent analyst recommendation breakdown.
type AnalystRatings struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
}

// Fundamentals holds company profile, valuation metrics and recent earnings.
type Fundamentals struct {
	Name          string            `json:"name"`
	Exchange      string            `json:"exchange,omitempty"`
	Industry      string            `json:"industry,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	MarketCap     *float64          `json:"market_cap,omitempty"`
	IPODate       string            `json:"ipo_date,omitempty"`
	WebURL        string            `json:"web_url,omitempty"`
	PERatio       *float64          `json:"pe_ratio,omitempty"`
	PBRatio       *float64          `json:"pb_ratio,omitempty"`
	PSRatio       *float64          `json:"ps_ratio,omitempty"`
	DividendYield *float64          `json:"dividend_yield,omitempty"`
	ROE           *float64          `json:"roe,omitempty"`
	NetMargin     *float64          `json:"net_margin,omitempty"`
	EPSGrowth5Y   *float64          `json:"eps_growth_5y,omitempty"`
	RevenueGrowth *float64          `json:"revenue_growth_3y,omitempty"`
	DebtToEquity  *float64          `json:"debt_to_equity,omitempty"`
	CurrentRatio  *float64          `json:"current_ratio,omitempty"`
	Beta          *float64          `json:"beta,omitempty"`
	High52Week    *float64          `json:"high_52_week,omitempty"`
	Low52Week     *float64          `json:"low_52_week,omitempty"`
	Earnings      []EarningsQuarter `json:"earnings,omitempty"`
	Ratings       *AnalystRatings   `json:"ratings,omitempty"`
}

// NewsItem is one headline relevant to the analyzed symbol.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Snippet     string    `json:"snippet,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// ProviderResult is the outcome of fetching one data kind for a symbol.
// Exactly one of the payload fields matching Kind is set on success;
// Failure is set instead when the call failed.
type ProviderResult struct {
	Kind         FetchKind        `json:"kind"`
	Provider     string           `json:"provider"`
	Quote        *Quote           `json:"quote,omitempty"`
	Fundamentals *Fundamentals    `json:"fundamentals,omitempty"`
	News         []NewsItem       `json:"news,omitempty"`
	Failure      *ProviderFailure `json:"-"`
}

// OK reports whether the fetch succeeded.
func (r ProviderResult) OK() bool {
	return r.Failure == nil
}

const maxProviderBody = 1 << 20 // 1MB

// classifyFetchError maps an arbitrary fetch error to a ProviderFailure.
// Errors that already carry a reason pass through unchanged.
func classifyFetchError(err error) *ProviderFailure {
	var pf *ProviderFailure
	if errors.As(err, &pf) {
		return pf
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newFailure(FailTimeout, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newFailure(FailTimeout, "request timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return newFailure(FailTimeout, "request timed out")
	}
	return newFailure(FailTransport, "%v", err)
}

// httpGetJSON performs an upstream GET and decodes the JSON response body
// into out. Non-2xx statuses are translated into classified failures.
func httpGetJSON(ctx context.Context, client *http.Client, provider, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return newFailure(FailTransport, "%s: build request: %v", provider, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return classifyFetchError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return classifyFetchError(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return newFailure(FailRateLimited, "%s: rate limited", provider)
	case resp.StatusCode == http.StatusNotFound:
		return newFailure(FailNotFound, "%s: not found", provider)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return newFailure(FailTransport, "%s: status %d: %s", provider, resp.StatusCode, truncateBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newFailure(FailInvalidResponse, "%s: decode response: %v", provider, err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func floatPtr(value float64) *float64 {
	return &value
}
