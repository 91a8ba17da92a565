package stockintel

import (
	"fmt"
	"sort"
	"strings"
)

const reportSystemPrompt = `You are a senior equity research analyst. Write a professional research report for the requested stock based strictly on the data provided.

Output requirements:
- Respond with a single HTML fragment only. No markdown, no code fences, no text outside the HTML.
- Structure the fragment as five <section> elements, in this order, each carrying a data-section attribute:
  <section data-section="summary"> executive summary of the company and current setup
  <section data-section="financial"> financial health, valuation and earnings quality
  <section data-section="technical"> price action and technical indicators
  <section data-section="recommendation"> investment stance with rationale
  <section data-section="risk"> key risks to the thesis
- Each section starts with an <h2> heading.
- The recommendation section must also carry data-verdict="buy", data-verdict="hold" or data-verdict="sell".
- Use <p>, <ul>, <li> and <table> for content. Do not invent numbers that are not in the data.
- If a data category is marked unavailable, say so in the relevant section instead of guessing.`

// buildReportPrompt renders the collected data into a deterministic text
// block for the model. Identical bundles always produce identical prompts.
func buildReportPrompt(bundle *DataBundle, maxNews, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s (%s).\n", bundle.CompanyName, bundle.Symbol)
	fmt.Fprintf(&b, "Data collected at %s.\n\n", bundle.CollectedAt.Format("2006-01-02 15:04 UTC"))

	writeQuoteBlock(&b, bundle)
	writeFundamentalsBlock(&b, bundle)
	base := b.String()

	newsBlock := buildNewsBlock(bundle, maxNews)
	if maxChars > 0 {
		for len(base)+len(newsBlock) > maxChars && maxNews > 0 {
			maxNews--
			newsBlock = buildNewsBlock(bundle, maxNews)
		}
	}
	return base + newsBlock
}

func writeQuoteBlock(b *strings.Builder, bundle *DataBundle) {
	b.WriteString("## QUOTE\n")
	quote := bundle.Quote()
	if quote == nil {
		b.WriteString("unavailable\n\n")
		return
	}
	fmt.Fprintf(b, "price: %s\n", quote.Price.String())
	fmt.Fprintf(b, "change: %s (%s)\n", quote.Change.String(), quote.ChangePercent)
	fmt.Fprintf(b, "volume: %d\n", quote.Volume)
	if quote.LatestDay != "" {
		fmt.Fprintf(b, "latest trading day: %s\n", quote.LatestDay)
	}
	if quote.SMA50 != nil {
		fmt.Fprintf(b, "SMA(50): %.2f\n", *quote.SMA50)
	}
	if quote.RSI14 != nil {
		fmt.Fprintf(b, "RSI(14): %.2f\n", *quote.RSI14)
	}
	b.WriteString("\n")
}

func writeFundamentalsBlock(b *strings.Builder, bundle *DataBundle) {
	b.WriteString("## FUNDAMENTALS\n")
	f := bundle.Fundamentals()
	if f == nil {
		b.WriteString("unavailable\n\n")
		return
	}
	if f.Exchange != "" {
		fmt.Fprintf(b, "exchange: %s\n", f.Exchange)
	}
	if f.Industry != "" {
		fmt.Fprintf(b, "industry: %s\n", f.Industry)
	}
	if f.MarketCap != nil {
		fmt.Fprintf(b, "market cap: %.0fM %s\n", *f.MarketCap, f.Currency)
	}
	writeMetricLines(b, f)

	if len(f.Earnings) > 0 {
		b.WriteString("recent quarterly EPS (actual vs estimate):\n")
		for _, e := range f.Earnings {
			fmt.Fprintf(b, "  %s: %s vs %s\n", e.Period, formatMetric(e.ActualEPS), formatMetric(e.EstimateEPS))
		}
	}
	if f.Ratings != nil {
		fmt.Fprintf(b, "analyst ratings (%s): strong buy %d, buy %d, hold %d, sell %d, strong sell %d\n",
			f.Ratings.Period, f.Ratings.StrongBuy, f.Ratings.Buy, f.Ratings.Hold, f.Ratings.Sell, f.Ratings.StrongSell)
	}
	b.WriteString("\n")
}

// writeMetricLines emits the valuation metrics in a fixed label order.
func writeMetricLines(b *strings.Builder, f *Fundamentals) {
	metrics := []struct {
		label string
		value *float64
	}{
		{"P/E (TTM)", f.PERatio},
		{"P/B", f.PBRatio},
		{"P/S (TTM)", f.PSRatio},
		{"dividend yield", f.DividendYield},
		{"ROE (TTM)", f.ROE},
		{"net margin (TTM)", f.NetMargin},
		{"EPS growth 5Y", f.EPSGrowth5Y},
		{"revenue growth 3Y", f.RevenueGrowth},
		{"debt/equity", f.DebtToEquity},
		{"current ratio", f.CurrentRatio},
		{"beta", f.Beta},
		{"52 week high", f.High52Week},
		{"52 week low", f.Low52Week},
	}
	for _, m := range metrics {
		if m.value != nil {
			fmt.Fprintf(b, "%s: %.2f\n", m.label, *m.value)
		}
	}
}

// buildNewsBlock renders up to maxNews headlines, newest first.
func buildNewsBlock(bundle *DataBundle, maxNews int) string {
	var b strings.Builder
	b.WriteString("## NEWS\n")
	if result, ok := bundle.Results[KindNews]; !ok || !result.OK() {
		b.WriteString("unavailable\n")
		return b.String()
	}

	items := append([]NewsItem(nil), bundle.News()...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > maxNews {
		items = items[:maxNews]
	}
	if len(items) == 0 {
		b.WriteString("no recent headlines\n")
		return b.String()
	}
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", item.PublishedAt.Format("2006-01-02"), item.Headline, item.Source)
		if item.Snippet != "" {
			fmt.Fprintf(&b, "  %s\n", item.Snippet)
		}
	}
	return b.String()
}

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
