package api

import "stockintel/pkg/stockintel"

type analyzeRequest struct {
	Symbol string `json:"symbol"`
}

type reportPayload struct {
	HTMLContent string                     `json:"html_content"`
	Verdict     stockintel.Verdict         `json:"verdict,omitempty"`
	Sections    []stockintel.ReportSection `json:"sections"`
	Partial     bool                       `json:"partial,omitempty"`
}

type analyzeResponse struct {
	Symbol      string        `json:"symbol"`
	CompanyName string        `json:"company_name"`
	Timestamp   string        `json:"timestamp"`
	Report      reportPayload `json:"report"`
}
