package stockintel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultNewsAPIBaseURL = "https://newsapi.org/v2"

// newsAPIClient talks to the NewsAPI "everything" endpoint for recent
// headlines about a symbol.
type newsAPIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	lookback   time.Duration
	now        func() time.Time
}

func newNewsAPIClient(httpClient *http.Client, baseURL, apiKey string) *newsAPIClient {
	if baseURL == "" {
		baseURL = defaultNewsAPIBaseURL
	}
	return &newsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   10,
		lookback:   7 * 24 * time.Hour,
		now:        time.Now,
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// News fetches recent English-language articles mentioning the symbol or
// company name, sorted by relevancy. An empty result is not a failure.
func (c *newsAPIClient) News(ctx context.Context, symbol, companyName string) ([]NewsItem, error) {
	query := fmt.Sprintf("%q", symbol)
	if companyName != "" && companyName != symbol {
		query = fmt.Sprintf("%q OR %q", symbol, companyName)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", c.now().Add(-c.lookback).Format("2006-01-02"))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprint(c.pageSize))
	params.Set("apiKey", c.apiKey)

	var resp newsAPIResponse
	if err := httpGetJSON(ctx, c.httpClient, "newsapi", c.baseURL+"/everything?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		if resp.Code == "rateLimited" {
			return nil, newFailure(FailRateLimited, "newsapi: %s", resp.Message)
		}
		return nil, newFailure(FailInvalidResponse, "newsapi: %s: %s", resp.Code, resp.Message)
	}

	items := make([]NewsItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		items = append(items, NewsItem{
			Headline:    a.Title,
			Source:      a.Source.Name,
			PublishedAt: published,
			Snippet:     a.Description,
			URL:         a.URL,
		})
	}
	return items, nil
}
