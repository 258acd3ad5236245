package invoice

import "strings"

// Recurrence is the billing cadence hinted at by the invoice text.
type Recurrence string

const (
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceAnnual  Recurrence = "annual"
	RecurrenceUnknown Recurrence = "unknown"
)

var (
	monthlyMarkers = []string{"/mois", "mensuel", "monthly", "per month", "/mo"}
	annualMarkers  = []string{"/an", "annuel", "annual", "yearly", "per year"}
)

// DetectRecurrence reports whether the invoice reads like a monthly or an
// annual bill. Monthly markers are checked first, so a document mentioning
// both cadences counts as monthly.
func DetectRecurrence(raw string) Recurrence {
	low := strings.ToLower(raw)
	if containsAny(low, monthlyMarkers) {
		return RecurrenceMonthly
	}
	if containsAny(low, annualMarkers) {
		return RecurrenceAnnual
	}
	return RecurrenceUnknown
}
