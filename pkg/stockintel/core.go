// Package stockintel implements the analysis engine behind the Stock
// Intel service: it collects quotes, fundamentals and news for a symbol,
// synthesizes a structured research report through a model backend, and
// caches finished reports per symbol.
package stockintel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ProviderEndpoints overrides the upstream base URLs, mainly for tests.
type ProviderEndpoints struct {
	AlphaVantage string
	Finnhub      string
	NewsAPI      string
}

// Options controls Core initialization.
type Options struct {
	Logger     *slog.Logger
	HTTPClient *http.Client

	AlphaVantageKey string
	FinnhubKey      string
	NewsAPIKey      string
	Endpoints       ProviderEndpoints

	// Model configures the synthesis backend. ModelClient, when set,
	// takes precedence over Model.
	Model       ModelOptions
	ModelClient ModelClient

	ProviderTimeout time.Duration
	ModelTimeout    time.Duration
	// ModelRetries is the retry count after a transient model failure.
	// Zero selects the default of 1; a negative value disables retries.
	ModelRetries int
	RetryBackoff time.Duration

	CacheTTL         time.Duration
	SearchMaxResults int
	MaxNewsInPrompt  int
	MaxPromptChars   int
}

const defaultModelRetries = 1

// Core provides access to the Stock Intel analysis engine.
type Core struct {
	logger          *slog.Logger
	agg             *aggregator
	synth           *synthesizer
	resolver        *symbolResolver
	cache           *reportCache
	analysisTimeout time.Duration
}

// New initializes a Core using the provided options.
func New(opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AlphaVantageKey == "" {
		return nil, errors.New("alpha vantage API key is required")
	}
	if opts.FinnhubKey == "" {
		return nil, errors.New("finnhub API key is required")
	}

	model := opts.ModelClient
	if model == nil {
		var err error
		model, err = newModelClient(opts.Model)
		if err != nil {
			return nil, err
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	providerTimeout := defaultDuration(opts.ProviderTimeout, 10*time.Second)
	modelTimeout := defaultDuration(opts.ModelTimeout, 5*time.Minute)
	retries := opts.ModelRetries
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = defaultModelRetries
	}
	retryBackoff := defaultDuration(opts.RetryBackoff, 2*time.Second)

	providers := &providerSet{
		quotes:       newAlphaVantageClient(httpClient, opts.Endpoints.AlphaVantage, opts.AlphaVantageKey),
		fundamentals: newFinnhubClient(httpClient, opts.Endpoints.Finnhub, opts.FinnhubKey),
		news:         newNewsAPIClient(httpClient, opts.Endpoints.NewsAPI, opts.NewsAPIKey),
	}

	agg := &aggregator{
		providers: providers,
		kinds:     collectKinds,
		timeout:   providerTimeout,
		logger:    logger,
	}
	synth := &synthesizer{
		model:          model,
		timeout:        modelTimeout,
		retries:        retries,
		retryBackoff:   retryBackoff,
		maxNews:        defaultInt(opts.MaxNewsInPrompt, 10),
		maxPromptChars: defaultInt(opts.MaxPromptChars, 12000),
		logger:         logger,
	}
	resolver := &symbolResolver{
		search:     providers.quotes.Search,
		maxResults: defaultInt(opts.SearchMaxResults, 10),
	}

	// Company name lookup, fan-out and a full retry cycle must all fit
	// inside one analysis run.
	analysisTimeout := 2*providerTimeout + time.Duration(retries+1)*(modelTimeout+retryBackoff)

	return &Core{
		logger:          logger,
		agg:             agg,
		synth:           synth,
		resolver:        resolver,
		cache:           newReportCache(defaultDuration(opts.CacheTTL, 3*time.Hour)),
		analysisTimeout: analysisTimeout,
	}, nil
}

// Analyze returns the research report for a symbol, serving from cache
// when a fresh report exists. Concurrent requests for the same symbol
// share one collection and one model invocation. The analysis itself
// runs detached from the request context, so a report in flight still
// completes and lands in the cache if the requester disconnects.
func (c *Core) Analyze(ctx context.Context, symbol string) (*Report, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, NewError(ErrCodeInvalidInput, "symbol is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapError(ErrCodeInternal, "request aborted", err)
	}

	return c.cache.GetOrCompute(symbol, func() (*Report, error) {
		runCtx, cancel := context.WithTimeout(context.Background(), c.analysisTimeout)
		defer cancel()

		started := time.Now()
		bundle, err := c.agg.Collect(runCtx, symbol)
		if err != nil {
			return nil, err
		}
		report, err := c.synth.Synthesize(runCtx, bundle)
		if err != nil {
			return nil, err
		}
		c.logger.Info("report synthesized",
			"symbol", symbol,
			"partial", report.Partial,
			"verdict", string(report.Verdict),
			"elapsed", time.Since(started).Round(time.Millisecond).String())
		return report, nil
	})
}

// SearchSymbols resolves a free-text query to candidate symbols.
func (c *Core) SearchSymbols(ctx context.Context, query string) []SymbolMatch {
	return c.resolver.Resolve(ctx, query)
}

// InvalidateReport drops the cached report for a symbol, if any.
func (c *Core) InvalidateReport(symbol string) {
	c.cache.Invalidate(normalizeSymbol(symbol))
}

// PurgeExpiredReports removes expired cache entries and returns the count.
func (c *Core) PurgeExpiredReports() int {
	return c.cache.Purge()
}

// Logger exposes the configured logger for transport layers.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

func defaultDuration(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

func defaultInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
