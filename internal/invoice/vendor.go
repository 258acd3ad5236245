package invoice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// UnknownVendor is returned when no heuristic produces a vendor name.
const UnknownVendor = "UNKNOWN"

type brand struct {
	keyword string
	name    string
}

// brands is ordered: specific multi-word keywords come before their generic
// prefixes ("google workspace" before "google") and the first match in this
// order wins, so reordering changes behavior.
var brands = []brand{
	{"google workspace", "Google Workspace"},
	{"google", "Google"},
	{"notion", "Notion"},
	{"microsoft 365", "Microsoft 365"},
	{"office 365", "Microsoft 365"},
	{"microsoft", "Microsoft"},
	{"azure", "Microsoft Azure"},
	{"adobe", "Adobe"},
	{"slack", "Slack"},
	{"stripe", "Stripe"},
	{"amazon web services", "AWS"},
	{"aws", "AWS"},
	{"ovh", "OVHcloud"},
	{"github", "GitHub"},
	{"canva", "Canva"},
	{"dropbox", "Dropbox"},
	{"zoom", "Zoom"},
	{"hubspot", "HubSpot"},
	{"shopify", "Shopify"},
	{"openai", "OpenAI"},
}

var brandMatcher = func() *ahocorasick.Matcher {
	keywords := make([]string, len(brands))
	for i, b := range brands {
		keywords[i] = b.keyword
	}
	return ahocorasick.NewStringMatcher(keywords)
}()

var vendorFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(factur[eé]\s*par|fournisseur|vendor|seller|issued by)\s*[:\-]\s*(.+)`),
	regexp.MustCompile(`(?i)(soci[eé]t[eé]|company)\s*[:\-]\s*(.+)`),
}

var vendorNoiseWords = []string{
	"facture", "invoice", "date", "total", "tva", "vat", "adresse", "address",
}

// DetectVendor guesses the vendor behind an invoice. Known brand keywords
// are tried first, then labeled fields ("Fournisseur: ..."), then the
// leading lines of the document; UnknownVendor is the final fallback.
func DetectVendor(raw string) string {
	text := strings.TrimSpace(raw)
	low := strings.ToLower(text)

	// The matcher reports pattern indices; the smallest index is the
	// earliest-declared brand, which is the one that must win.
	if hits := brandMatcher.MatchThreadSafe([]byte(low)); len(hits) > 0 {
		best := hits[0]
		for _, h := range hits[1:] {
			if h < best {
				best = h
			}
		}
		return brands[best].name
	}

	for _, p := range vendorFieldPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cand := strings.TrimSpace(m[len(m)-1])
		cand = strings.TrimSpace(strings.SplitN(cand, "\n", 2)[0])
		if n := utf8.RuneCountInString(cand); n >= 3 && n <= 80 {
			return NormalizeVendor(titleCase(cand))
		}
	}

	lines := splitLines(text)
	if len(lines) > 12 {
		lines = lines[:12]
	}
	for _, l := range lines {
		ll := strings.ToLower(l)
		if utf8.RuneCountInString(l) < 4 || containsAny(ll, vendorNoiseWords) {
			continue
		}
		letters, digits := 0, 0
		for _, r := range l {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.IsDigit(r):
				digits++
			}
		}
		if letters >= 6 && digits <= 2 && utf8.RuneCountInString(l) <= 60 {
			return NormalizeVendor(l)
		}
	}

	return UnknownVendor
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// vendorFixups patches title-casing artifacts of known acronyms. The pairs
// apply in order as full passes, each scanning the previous pass's output,
// so a substitution can feed the next one ("Iaws" becomes "IAws" and then
// "IAWS" within a single call).
var vendorFixups = [][2]string{
	{"Ia", "IA"},
	{"Aws", "AWS"},
	{"Hubspot", "HubSpot"},
}

// NormalizeVendor cleans a detected vendor name: empty input becomes
// UnknownVendor, title-casing artifacts of known acronyms are patched and
// runs of spaces collapse to one. The function is idempotent, so applying
// it to already-normalized input is safe.
func NormalizeVendor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		v = UnknownVendor
	}
	for _, f := range vendorFixups {
		v = strings.ReplaceAll(v, f[0], f[1])
	}
	return multiSpace.ReplaceAllString(v, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
