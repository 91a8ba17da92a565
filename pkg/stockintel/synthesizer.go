package stockintel

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// synthesizer turns a collected data bundle into a validated report by
// prompting the configured model.
type synthesizer struct {
	model          ModelClient
	timeout        time.Duration
	retries        int
	retryBackoff   time.Duration
	maxNews        int
	maxPromptChars int
	logger         *slog.Logger
}

// Synthesize prompts the model with the bundle and validates the output.
// Transport and timeout errors are retried with backoff; output that
// parses but has no report sections is rejected without retry.
func (s *synthesizer) Synthesize(ctx context.Context, bundle *DataBundle) (*Report, error) {
	prompt := buildReportPrompt(bundle, s.maxNews, s.maxPromptChars)

	var raw string
	var err error
	for attempt := 0; ; attempt++ {
		raw, err = s.complete(ctx, prompt)
		if err == nil {
			break
		}
		if attempt >= s.retries || !isRetryableModelError(err) {
			return nil, WrapError(ErrCodeSynthesisUnavailable, "model request failed", err)
		}
		s.logger.Warn("model request failed, retrying",
			"model", s.model.Name(),
			"attempt", attempt+1,
			"error", err)
		select {
		case <-time.After(s.retryBackoff):
		case <-ctx.Done():
			return nil, WrapError(ErrCodeSynthesisUnavailable, "model request canceled", ctx.Err())
		}
	}

	cleaned := stripModelFences(raw)
	sections, verdict, err := parseReport(cleaned)
	if err != nil {
		s.logger.Error("model returned unusable report",
			"model", s.model.Name(),
			"symbol", bundle.Symbol,
			"output_len", len(raw))
		return nil, err
	}

	return &Report{
		Symbol:      bundle.Symbol,
		CompanyName: bundle.CompanyName,
		GeneratedAt: time.Now().UTC(),
		Verdict:     verdict,
		Sections:    sections,
		HTMLContent: cleaned,
		Partial:     bundle.Partial,
	}, nil
}

func (s *synthesizer) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.model.Complete(callCtx, reportSystemPrompt, prompt)
}

// isRetryableModelError reports whether the failure is transient. Parent
// cancellation and API rejections are not retried.
func isRetryableModelError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
