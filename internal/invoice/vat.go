package invoice

import (
	"regexp"
	"strings"
)

// VAT is the tax breakdown detected on an invoice. Zero fields mean the
// corresponding figure was not found.
type VAT struct {
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

var vatRatePattern = regexp.MustCompile(`([0-9]{1,2}(?:[.,][0-9]{1,2})?)\s*%`)

// ExtractVAT scans lines mentioning TVA or VAT and pulls the rate from the
// first one carrying a percentage and the amount from the first one
// carrying a grouped number with cents. The amount is the last such number
// on its line, so a fractional rate earlier on the line is not mistaken
// for it.
func ExtractVAT(raw string) VAT {
	text := strings.ReplaceAll(raw, " ", " ")
	var out VAT
	for _, line := range splitLines(text) {
		ll := strings.ToLower(line)
		if !strings.Contains(ll, "tva") && !strings.Contains(ll, "vat") {
			continue
		}
		if out.Rate == 0 {
			if m := vatRatePattern.FindStringSubmatch(line); m != nil {
				out.Rate = ParseNumber(m[1])
			}
		}
		if out.Amount == 0 {
			if matches := groupedCentsPattern.FindAllString(line, -1); len(matches) > 0 {
				out.Amount = ParseNumber(matches[len(matches)-1])
			}
		}
		if out.Rate != 0 && out.Amount != 0 {
			break
		}
	}
	return out
}
