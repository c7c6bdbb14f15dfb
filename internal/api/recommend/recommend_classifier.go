package recommend

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// CategoryClassifier maps a free-text category string to one canonical category.
// Matching is a case-insensitive substring test and the first category in
// vocabulary order wins.
type CategoryClassifier struct {
	categories []types.Category
}

// NewCategoryClassifier uses types.DefaultCategories when categories is empty.
func NewCategoryClassifier(categories []types.Category) *CategoryClassifier {
	if len(categories) == 0 {
		categories = types.DefaultCategories
	}
	normalized := make([]types.Category, 0, len(categories))
	for _, c := range categories {
		if c = types.Category(lower(string(c))); c != types.CategoryUnclassified {
			normalized = append(normalized, c)
		}
	}
	return &CategoryClassifier{categories: normalized}
}

// Classify returns types.CategoryUnclassified when nothing matches.
func (c *CategoryClassifier) Classify(raw string) types.Category {
	text := lower(raw)
	for _, category := range c.categories {
		if strings.Contains(text, string(category)) {
			return category
		}
	}
	return types.CategoryUnclassified
}

// Categories returns the vocabulary in priority order.
func (c *CategoryClassifier) Categories() []types.Category {
	return c.categories
}

// A Caser keeps state between calls, so each call gets its own.
func lower(s string) string {
	return cases.Lower(language.Spanish).String(s)
}
