package stockintel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// providerSet bundles the configured upstream clients behind a single
// kind-dispatched fetch entry point.
type providerSet struct {
	quotes       *alphaVantageClient
	fundamentals *finnhubClient
	news         *newsAPIClient
}

// fetch retrieves one data kind for a symbol, mapping any error into a
// classified ProviderFailure on the result.
func (p *providerSet) fetch(ctx context.Context, kind FetchKind, symbol, companyName string) ProviderResult {
	switch kind {
	case KindQuote:
		result := ProviderResult{Kind: kind, Provider: "alphavantage"}
		quote, err := p.quotes.Quote(ctx, symbol)
		if err != nil {
			result.Failure = classifyFetchError(err)
			return result
		}
		result.Quote = quote
		return result
	case KindFundamentals:
		result := ProviderResult{Kind: kind, Provider: "finnhub"}
		fundamentals, err := p.fundamentals.Fundamentals(ctx, symbol)
		if err != nil {
			result.Failure = classifyFetchError(err)
			return result
		}
		result.Fundamentals = fundamentals
		return result
	case KindNews:
		result := ProviderResult{Kind: kind, Provider: "newsapi"}
		items, err := p.news.News(ctx, symbol, companyName)
		if err != nil {
			result.Failure = classifyFetchError(err)
			return result
		}
		result.News = items
		return result
	default:
		return ProviderResult{
			Kind:    kind,
			Failure: newFailure(FailInvalidResponse, "unknown fetch kind %q", kind),
		}
	}
}

// DataBundle is everything collected for one symbol in a single pass.
// Partial is set when at least one kind failed but the bundle is still
// usable for synthesis.
type DataBundle struct {
	Symbol      string                       `json:"symbol"`
	CompanyName string                       `json:"company_name"`
	CollectedAt time.Time                    `json:"collected_at"`
	Results     map[FetchKind]ProviderResult `json:"results"`
	Partial     bool                         `json:"partial"`
}

// Quote returns the collected quote, or nil when that fetch failed.
func (b *DataBundle) Quote() *Quote {
	return b.Results[KindQuote].Quote
}

// Fundamentals returns the collected fundamentals, or nil when that fetch failed.
func (b *DataBundle) Fundamentals() *Fundamentals {
	return b.Results[KindFundamentals].Fundamentals
}

// News returns the collected headlines, empty when that fetch failed.
func (b *DataBundle) News() []NewsItem {
	return b.Results[KindNews].News
}

// FailedKinds lists the kinds whose fetch failed, in configured order.
func (b *DataBundle) FailedKinds() []FetchKind {
	var failed []FetchKind
	for _, kind := range collectKinds {
		if r, ok := b.Results[kind]; ok && !r.OK() {
			failed = append(failed, kind)
		}
	}
	return failed
}

var collectKinds = []FetchKind{KindQuote, KindFundamentals, KindNews}

// aggregator fans out one fetch per data kind and merges the results.
type aggregator struct {
	providers *providerSet
	kinds     []FetchKind
	timeout   time.Duration
	logger    *slog.Logger
}

// Collect gathers all configured data kinds for a symbol concurrently.
// Individual fetch failures degrade to a partial bundle; only when every
// kind fails does Collect return an error.
func (a *aggregator) Collect(ctx context.Context, symbol string) (*DataBundle, error) {
	companyName := a.resolveCompanyName(ctx, symbol)

	type kindResult struct {
		kind   FetchKind
		result ProviderResult
	}
	resultCh := make(chan kindResult, len(a.kinds))

	var wg sync.WaitGroup
	for _, kind := range a.kinds {
		wg.Add(1)
		go func(kind FetchKind) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			resultCh <- kindResult{kind: kind, result: a.providers.fetch(fetchCtx, kind, symbol, companyName)}
		}(kind)
	}
	wg.Wait()
	close(resultCh)

	bundle := &DataBundle{
		Symbol:      symbol,
		CompanyName: companyName,
		CollectedAt: time.Now().UTC(),
		Results:     make(map[FetchKind]ProviderResult, len(a.kinds)),
	}
	succeeded := 0
	for kr := range resultCh {
		bundle.Results[kr.kind] = kr.result
		if kr.result.OK() {
			succeeded++
		} else {
			bundle.Partial = true
			a.logger.Warn("provider fetch failed",
				"symbol", symbol,
				"kind", string(kr.kind),
				"provider", kr.result.Provider,
				"reason", string(kr.result.Failure.Reason),
				"error", kr.result.Failure.Message)
		}
	}

	if succeeded == 0 {
		// Throttling is worth reporting distinctly: the caller can retry
		// later, which is pointless for unknown symbols or dead upstreams.
		for _, result := range bundle.Results {
			if result.Failure != nil && result.Failure.Reason == FailRateLimited {
				return nil, NewError(ErrCodeRateLimited,
					fmt.Sprintf("market data providers are rate limiting requests for %s", symbol))
			}
		}
		return nil, NewError(ErrCodeInsufficientData,
			fmt.Sprintf("no market data available for %s", symbol))
	}
	if bundle.CompanyName == "" {
		if f := bundle.Fundamentals(); f != nil {
			bundle.CompanyName = f.Name
		}
	}
	if bundle.CompanyName == "" {
		bundle.CompanyName = symbol
	}
	return bundle, nil
}

// resolveCompanyName looks up the official name ahead of the fan-out so
// the news query can use it. Lookup failures fall back to the symbol.
func (a *aggregator) resolveCompanyName(ctx context.Context, symbol string) string {
	nameCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name, err := a.providers.quotes.CompanyName(nameCtx, symbol)
	if err != nil {
		a.logger.Debug("company name lookup failed", "symbol", symbol, "error", err)
		return ""
	}
	return name
}
