package invoice

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Category is a coarse spend classification for a detected vendor.
type Category string

const (
	CategoryCloud         Category = "cloud"
	CategorySoftware      Category = "software"
	CategoryCommunication Category = "communication"
	CategoryDesign        Category = "design"
	CategoryCommerce      Category = "commerce"
	CategoryAI            Category = "ai"
	CategoryUnknown       Category = "unknown"
)

type categorySeed struct {
	vendor   string
	category Category
}

// Ordered so earlier seeds win when the fuzzy pass ties.
var categorySeeds = []categorySeed{
	{"aws", CategoryCloud},
	{"microsoft azure", CategoryCloud},
	{"ovhcloud", CategoryCloud},
	{"google workspace", CategorySoftware},
	{"microsoft 365", CategorySoftware},
	{"notion", CategorySoftware},
	{"github", CategorySoftware},
	{"dropbox", CategorySoftware},
	{"hubspot", CategorySoftware},
	{"slack", CategoryCommunication},
	{"zoom", CategoryCommunication},
	{"adobe", CategoryDesign},
	{"canva", CategoryDesign},
	{"stripe", CategoryCommerce},
	{"shopify", CategoryCommerce},
	{"openai", CategoryAI},
}

// ClassifyVendor maps a vendor name onto a spend category. Seeds are
// matched exactly (case-folded) first, then by substring containment in
// either direction, then by fuzzy rank over the seed names. An unknown
// vendor falls back to scanning the document text for seed names.
func ClassifyVendor(vendor, text string) Category {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if v == "" || strings.EqualFold(vendor, UnknownVendor) {
		low := strings.ToLower(text)
		for _, s := range categorySeeds {
			if strings.Contains(low, s.vendor) {
				return s.category
			}
		}
		return CategoryUnknown
	}

	for _, s := range categorySeeds {
		if v == s.vendor {
			return s.category
		}
	}
	for _, s := range categorySeeds {
		if strings.Contains(v, s.vendor) || strings.Contains(s.vendor, v) {
			return s.category
		}
	}

	best := CategoryUnknown
	bestRank := -1
	for _, s := range categorySeeds {
		rank := fuzzy.RankMatchNormalizedFold(v, s.vendor)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = s.category
		}
	}
	return best
}
