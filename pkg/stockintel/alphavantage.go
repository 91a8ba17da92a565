package stockintel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co/query"

// alphaVantageClient talks to the Alpha Vantage HTTP API for quotes,
// technical indicators, symbol search and company overviews.
type alphaVantageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newAlphaVantageClient(httpClient *http.Client, baseURL, apiKey string) *alphaVantageClient {
	if baseURL == "" {
		baseURL = defaultAlphaVantageBaseURL
	}
	return &alphaVantageClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

func (c *alphaVantageClient) endpoint(params url.Values) string {
	params.Set("apikey", c.apiKey)
	return c.baseURL + "?" + params.Encode()
}

// avEnvelope catches the throttling and error shapes Alpha Vantage returns
// with a 200 status instead of an HTTP error code.
type avEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (e avEnvelope) check() error {
	if e.Note != "" || e.Information != "" {
		return newFailure(FailRateLimited, "alphavantage: API call frequency limit reached")
	}
	if e.ErrorMessage != "" {
		return newFailure(FailNotFound, "alphavantage: %s", e.ErrorMessage)
	}
	return nil
}

type avGlobalQuoteResponse struct {
	avEnvelope
	GlobalQuote map[string]string `json:"Global Quote"`
}

type avIndicatorResponse struct {
	avEnvelope
	SMA map[string]map[string]string `json:"Technical Analysis: SMA"`
	RSI map[string]map[string]string `json:"Technical Analysis: RSI"`
}

type avSearchResponse struct {
	avEnvelope
	BestMatches []map[string]string `json:"bestMatches"`
}

type avOverviewResponse struct {
	avEnvelope
	Name string `json:"Name"`
}

// Quote fetches the latest trading snapshot and attaches SMA(50) and
// RSI(14) when the indicator endpoints respond in time. Indicator
// failures are tolerated; the quote itself is required.
func (c *alphaVantageClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)

	var resp avGlobalQuoteResponse
	if err := httpGetJSON(ctx, c.httpClient, "alphavantage", c.endpoint(params), nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(); err != nil {
		return nil, err
	}
	if len(resp.GlobalQuote) == 0 || resp.GlobalQuote["05. price"] == "" {
		return nil, newFailure(FailNotFound, "alphavantage: no quote for %s", symbol)
	}

	price, err := decimal.NewFromString(resp.GlobalQuote["05. price"])
	if err != nil {
		return nil, newFailure(FailInvalidResponse, "alphavantage: bad price %q", resp.GlobalQuote["05. price"])
	}
	change, err := decimal.NewFromString(resp.GlobalQuote["09. change"])
	if err != nil {
		change = decimal.Zero
	}
	volume, _ := strconv.ParseInt(resp.GlobalQuote["06. volume"], 10, 64)

	quote := &Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: resp.GlobalQuote["10. change percent"],
		Volume:        volume,
		LatestDay:     resp.GlobalQuote["07. latest trading day"],
	}
	quote.SMA50 = c.latestIndicator(ctx, symbol, "SMA", 50)
	quote.RSI14 = c.latestIndicator(ctx, symbol, "RSI", 14)
	return quote, nil
}

// latestIndicator returns the most recent value of a daily indicator
// series, or nil when the endpoint fails or has no data.
func (c *alphaVantageClient) latestIndicator(ctx context.Context, symbol, function string, period int) *float64 {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("interval", "daily")
	params.Set("time_period", fmt.Sprint(period))
	params.Set("series_type", "close")

	var resp avIndicatorResponse
	if err := httpGetJSON(ctx, c.httpClient, "alphavantage", c.endpoint(params), nil, &resp); err != nil {
		return nil
	}
	series := resp.SMA
	if function == "RSI" {
		series = resp.RSI
	}
	if len(series) == 0 {
		return nil
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return parseOptionalFloat(series[dates[0]][function])
}

// SymbolMatch is one search result from the symbol directory.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Search runs a keyword symbol search and returns up to limit matches.
func (c *alphaVantageClient) Search(ctx context.Context, query string, limit int) ([]SymbolMatch, error) {
	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", query)

	var resp avSearchResponse
	if err := httpGetJSON(ctx, c.httpClient, "alphavantage", c.endpoint(params), nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	matches := make([]SymbolMatch, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		if len(matches) >= limit {
			break
		}
		if m["1. symbol"] == "" {
			continue
		}
		matches = append(matches, SymbolMatch{
			Symbol:   m["1. symbol"],
			Name:     m["2. name"],
			Type:     m["3. type"],
			Region:   m["4. region"],
			Currency: m["8. currency"],
		})
	}
	return matches, nil
}

// CompanyName resolves the official company name for a symbol, returning
// an empty string when the overview endpoint has nothing.
func (c *alphaVantageClient) CompanyName(ctx context.Context, symbol string) (string, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)

	var resp avOverviewResponse
	if err := httpGetJSON(ctx, c.httpClient, "alphavantage", c.endpoint(params), nil, &resp); err != nil {
		return "", err
	}
	if err := resp.check(); err != nil {
		return "", err
	}
	return resp.Name, nil
}
