package stockintel

import (
	"context"
	"strings"
)

// fallbackDirectory is a static list of widely traded US symbols used
// when the search upstream is unavailable.
var fallbackDirectory = []SymbolMatch{
	{Symbol: "AAPL", Name: "Apple Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "META", Name: "Meta Platforms Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "TSLA", Name: "Tesla Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "BRK.B", Name: "Berkshire Hathaway Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "V", Name: "Visa Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "WMT", Name: "Walmart Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "PG", Name: "Procter & Gamble Co.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "UNH", Name: "UnitedHealth Group Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "HD", Name: "The Home Depot Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "MA", Name: "Mastercard Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "DIS", Name: "The Walt Disney Company", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "NFLX", Name: "Netflix Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "AMD", Name: "Advanced Micro Devices Inc.", Type: "Equity", Region: "United States", Currency: "USD"},
	{Symbol: "INTC", Name: "Intel Corporation", Type: "Equity", Region: "United States", Currency: "USD"},
}

// symbolResolver resolves free-text queries to tradable symbols, falling
// back to a static directory when the upstream search is unavailable.
type symbolResolver struct {
	search     func(ctx context.Context, query string, limit int) ([]SymbolMatch, error)
	maxResults int
}

// MinSearchQueryLen is the shortest query the resolver will act on.
// Transport layers gate on it as well to skip the call entirely.
const MinSearchQueryLen = 2

// Resolve returns up to maxResults matches for the query. Queries shorter
// than two characters resolve to an empty list without an upstream call.
func (r *symbolResolver) Resolve(ctx context.Context, query string) []SymbolMatch {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchQueryLen {
		return []SymbolMatch{}
	}

	matches, err := r.search(ctx, query, r.maxResults)
	if err == nil && len(matches) > 0 {
		return matches
	}
	return filterDirectory(query, r.maxResults)
}

// filterDirectory matches the query against the static fallback list by
// symbol prefix or case-insensitive name substring.
func filterDirectory(query string, limit int) []SymbolMatch {
	upper := strings.ToUpper(query)
	lower := strings.ToLower(query)

	matches := make([]SymbolMatch, 0, limit)
	for _, entry := range fallbackDirectory {
		if len(matches) >= limit {
			break
		}
		if strings.HasPrefix(entry.Symbol, upper) || strings.Contains(strings.ToLower(entry.Name), lower) {
			matches = append(matches, entry)
		}
	}
	return matches
}
