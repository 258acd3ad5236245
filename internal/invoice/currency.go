package invoice

import "strings"

// Currency identifies the currency referenced by an invoice.
type Currency string

const (
	CurrencyEUR     Currency = "EUR"
	CurrencyUSD     Currency = "USD"
	CurrencyGBP     Currency = "GBP"
	CurrencyUnknown Currency = "UNKNOWN"
)

// DetectCurrency returns the currency referenced by the text. Symbols are
// checked before written codes, so a symbol wins even when a code for a
// different currency appears in the same document. The written codes are
// matched with a leading space to avoid hitting the inside of unrelated
// words.
func DetectCurrency(text string) Currency {
	if strings.Contains(text, "€") {
		return CurrencyEUR
	}
	if strings.Contains(text, "$") {
		return CurrencyUSD
	}
	if strings.Contains(text, "£") {
		return CurrencyGBP
	}
	low := strings.ToLower(text)
	if strings.Contains(low, " eur") || strings.Contains(low, " euro") {
		return CurrencyEUR
	}
	if strings.Contains(low, " usd") {
		return CurrencyUSD
	}
	if strings.Contains(low, " gbp") {
		return CurrencyGBP
	}
	return CurrencyUnknown
}
