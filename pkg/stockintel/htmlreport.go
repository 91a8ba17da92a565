package stockintel

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Verdict is the investment stance extracted from a report.
type Verdict string

// Report verdicts.
const (
	VerdictBuy  Verdict = "buy"
	VerdictHold Verdict = "hold"
	VerdictSell Verdict = "sell"
)

// ReportSection is one named section of a synthesized report.
type ReportSection struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	HTML  string `json:"html"`
}

// Report is a validated research report for one symbol.
type Report struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	GeneratedAt time.Time       `json:"timestamp"`
	Verdict     Verdict         `json:"verdict,omitempty"`
	Sections    []ReportSection `json:"sections"`
	HTMLContent string          `json:"html_content"`
	Partial     bool            `json:"partial,omitempty"`
}

// stripModelFences removes a markdown code fence wrapper from model
// output, along with any prose outside the fence. Input without a fence
// is returned trimmed, so the function is idempotent.
func stripModelFences(raw string) string {
	lines := strings.Split(raw, "\n")

	open := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			open = i
			break
		}
	}
	if open == -1 {
		return strings.TrimSpace(raw)
	}

	closing := -1
	for i := len(lines) - 1; i > open; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			closing = i
			break
		}
	}
	if closing == -1 {
		closing = len(lines)
	}
	return strings.TrimSpace(strings.Join(lines[open+1:closing], "\n"))
}

// parseReport validates cleaned model output and extracts the named
// sections and verdict. Output with no recognizable sections is rejected.
func parseReport(html string) ([]ReportSection, Verdict, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", WrapError(ErrCodeMalformedReport, "unparseable report HTML", err)
	}

	var sections []ReportSection
	verdict := Verdict("")
	doc.Find("section[data-section]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("data-section")
		if name == "" {
			return
		}
		fragment, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		sections = append(sections, ReportSection{
			Name:  name,
			Title: strings.TrimSpace(s.Find("h1,h2,h3").First().Text()),
			HTML:  fragment,
		})
		if v, ok := s.Attr("data-verdict"); ok {
			verdict = normalizeVerdict(v)
		}
	})

	if len(sections) == 0 {
		return nil, "", NewError(ErrCodeMalformedReport, "model output contains no report sections")
	}
	return sections, verdict, nil
}

func normalizeVerdict(v string) Verdict {
	switch Verdict(strings.ToLower(strings.TrimSpace(v))) {
	case VerdictBuy:
		return VerdictBuy
	case VerdictHold:
		return VerdictHold
	case VerdictSell:
		return VerdictSell
	default:
		return ""
	}
}
