package stockintel

import (
	"context"
	"net/http"
	"net/url"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// finnhubClient talks to the Finnhub HTTP API for company profiles,
// valuation metrics, earnings history and analyst recommendations.
type finnhubClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newFinnhubClient(httpClient *http.Client, baseURL, apiKey string) *finnhubClient {
	if baseURL == "" {
		baseURL = defaultFinnhubBaseURL
	}
	return &finnhubClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

func (c *finnhubClient) endpoint(path, symbol string) string {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", c.apiKey)
	return c.baseURL + path + "?" + params.Encode()
}

type fhProfile struct {
	Name                 string  `json:"name"`
	Exchange             string  `json:"exchange"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	Currency             string  `json:"currency"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	IPO                  string  `json:"ipo"`
	WebURL               string  `json:"weburl"`
}

type fhMetrics struct {
	Metric map[string]*float64 `json:"metric"`
}

type fhEarnings []struct {
	Period          string   `json:"period"`
	Actual          *float64 `json:"actual"`
	Estimate        *float64 `json:"estimate"`
	Surprise        *float64 `json:"surprise"`
	SurprisePercent *float64 `json:"surprisePercent"`
}

type fhRecommendations []struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// Fundamentals assembles profile, metrics, recent earnings and the latest
// analyst recommendation trend for a symbol. The profile is required;
// the remaining endpoints degrade to missing fields when they fail.
func (c *finnhubClient) Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	var profile fhProfile
	if err := httpGetJSON(ctx, c.httpClient, "finnhub", c.endpoint("/stock/profile2", symbol), nil, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, newFailure(FailNotFound, "finnhub: unknown symbol %s", symbol)
	}

	f := &Fundamentals{
		Name:     profile.Name,
		Exchange: profile.Exchange,
		Industry: profile.FinnhubIndustry,
		Currency: profile.Currency,
		IPODate:  profile.IPO,
		WebURL:   profile.WebURL,
	}
	if profile.MarketCapitalization > 0 {
		f.MarketCap = floatPtr(profile.MarketCapitalization)
	}

	var metrics fhMetrics
	if err := httpGetJSON(ctx, c.httpClient, "finnhub", c.endpoint("/stock/metric", symbol)+"&metric=all", nil, &metrics); err == nil {
		applyFinnhubMetrics(f, metrics.Metric)
	}

	var earnings fhEarnings
	if err := httpGetJSON(ctx, c.httpClient, "finnhub", c.endpoint("/stock/earnings", symbol), nil, &earnings); err == nil {
		for i, e := range earnings {
			if i >= 4 {
				break
			}
			f.Earnings = append(f.Earnings, EarningsQuarter{
				Period:          e.Period,
				ActualEPS:       e.Actual,
				EstimateEPS:     e.Estimate,
				Surprise:        e.Surprise,
				SurprisePercent: e.SurprisePercent,
			})
		}
	}

	var recs fhRecommendations
	if err := httpGetJSON(ctx, c.httpClient, "finnhub", c.endpoint("/stock/recommendation", symbol), nil, &recs); err == nil && len(recs) > 0 {
		f.Ratings = &AnalystRatings{
			Period:     recs[0].Period,
			StrongBuy:  recs[0].StrongBuy,
			Buy:        recs[0].Buy,
			Hold:       recs[0].Hold,
			Sell:       recs[0].Sell,
			StrongSell: recs[0].StrongSell,
		}
	}
	return f, nil
}

func applyFinnhubMetrics(f *Fundamentals, m map[string]*float64) {
	if m == nil {
		return
	}
	f.PERatio = m["peTTM"]
	f.PBRatio = m["pbQuarterly"]
	f.PSRatio = m["psTTM"]
	f.DividendYield = m["dividendYieldIndicatedAnnual"]
	f.ROE = m["roeTTM"]
	f.NetMargin = m["netProfitMarginTTM"]
	f.EPSGrowth5Y = m["epsGrowth5Y"]
	f.RevenueGrowth = m["revenueGrowth3Y"]
	f.DebtToEquity = m["totalDebt/totalEquityQuarterly"]
	f.CurrentRatio = m["currentRatioQuarterly"]
	f.Beta = m["beta"]
	f.High52Week = m["52WeekHigh"]
	f.Low52Week = m["52WeekLow"]
}
