package invoice

import (
	"regexp"
	"strings"
)

// priorityKeys marks lines that carry a payable total. The first line
// containing any of them wins, regardless of which key matched.
var priorityKeys = []string{
	"total ttc",
	"montant ttc",
	"total à payer",
	"net à payer",
	"amount due",
	"total due",
	"grand total",
	"total",
}

var (
	// 1-3 leading digits, optional 3-digit groups split by space or dot,
	// optional 2-digit cents after dot or comma.
	numberPattern           = regexp.MustCompile(`[0-9]{1,3}(?:[ .][0-9]{3})*(?:[.,][0-9]{2})?`)
	currencyAdjacentPattern = regexp.MustCompile(`([0-9]{1,3}(?:[ .][0-9]{3})*(?:[.,][0-9]{2})?)\s*(€|eur|usd|\$|gbp|£)`)
	groupedCentsPattern     = regexp.MustCompile(`[0-9]{1,3}(?:[ .][0-9]{3})*(?:[.,][0-9]{2})`)
)

// ExtractTotal pulls the most plausible total out of invoice text. Lines
// carrying a total keyword are scanned top to bottom and the first positive
// number on such a line is final, even when a later line would be more
// accurate. Failing that, the last currency-adjacent number wins, then the
// last grouped number with cents, then 0.0.
func ExtractTotal(raw string) float64 {
	text := strings.ReplaceAll(raw, " ", " ")
	low := strings.ToLower(text)

	for _, line := range splitLines(text) {
		if !containsAny(strings.ToLower(line), priorityKeys) {
			continue
		}
		if m := numberPattern.FindString(line); m != "" {
			if val := ParseNumber(m); val > 0 {
				return val
			}
		}
	}

	if matches := currencyAdjacentPattern.FindAllStringSubmatch(low, -1); len(matches) > 0 {
		if val := ParseNumber(matches[len(matches)-1][1]); val > 0 {
			return val
		}
	}

	if matches := groupedCentsPattern.FindAllString(low, -1); len(matches) > 0 {
		if val := ParseNumber(matches[len(matches)-1]); val > 0 {
			return val
		}
	}

	return 0.0
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
