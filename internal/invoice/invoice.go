// Package invoice interprets free-form invoice text. The heuristics
// tolerate French and English layouts and both European and US number
// formats; nothing here errors on malformed input, every detector degrades
// to an UNKNOWN or zero sentinel instead.
package invoice

// Result is the flat outcome of analyzing one document's text.
type Result struct {
	Vendor     string     `json:"vendor"`
	Currency   Currency   `json:"currency"`
	Total      float64    `json:"total"`
	Savings    float64    `json:"savings"`
	VAT        VAT        `json:"vat"`
	Recurrence Recurrence `json:"recurrence"`
	Category   Category   `json:"category"`
}

// Analyze runs every detector over the text and assembles the result. The
// detectors are independent and read only their input plus fixed keyword
// tables, so Analyze is safe for concurrent use.
func Analyze(text string) Result {
	vendor := NormalizeVendor(DetectVendor(text))
	total := ExtractTotal(text)
	return Result{
		Vendor:     vendor,
		Currency:   DetectCurrency(text),
		Total:      total,
		Savings:    EstimateSavings(total),
		VAT:        ExtractVAT(text),
		Recurrence: DetectRecurrence(text),
		Category:   ClassifyVendor(vendor, text),
	}
}
