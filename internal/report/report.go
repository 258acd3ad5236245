// Package report stores analyzed invoices and serves them over HTTP.
package report

import "time"

// Report represents an analyzed invoice with the customer context that
// came with the upload
type Report struct {
	ID         string    `json:"id"`
	Company    string    `json:"company"`
	Name       string    `json:"name"`
	Tone       string    `json:"tone"`
	Vendor     string    `json:"vendor"`
	Currency   string    `json:"currency"`
	Total      float64   `json:"total"`
	Savings    float64   `json:"savings"`
	VATRate    float64   `json:"vat_rate"`
	VATAmount  float64   `json:"vat_amount"`
	Recurrence string    `json:"recurrence"`
	Category   string    `json:"category"`
	Filename   string    `json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullReport is the unlocked view of a report: the stored fields plus the
// negotiation kit that payment gives access to
type FullReport struct {
	Report
	AnnualSavings  float64  `json:"annual_savings"`
	AnnualNote     string   `json:"annual_note"`
	EmailSubject   string   `json:"email_subject"`
	EmailBody      string   `json:"email_body"`
	EmailText      string   `json:"email_text"`
	Checklist      []string `json:"checklist"`
	TotalDisplay   string   `json:"total_display"`
	SavingsDisplay string   `json:"savings_display"`
}
