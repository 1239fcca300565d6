package domain

import (
	"fmt"
	"strings"
)

// Category identifies the producing source/class of an occurrence.
type Category string

const (
	CategoryFed        Category = "fed"
	CategoryECB        Category = "ecb"
	CategoryBoE        Category = "boe"
	CategoryCPI        Category = "cpi"
	CategoryNFP        Category = "nfp"
	CategoryFOMC       Category = "fomc"
	CategoryNews       Category = "news"
	CategoryNewsFed    Category = "news-fed"
	CategoryNewsCPI    Category = "news-cpi"
	CategoryNewsCrypto Category = "news-crypto"
)

// CategoryAll is the subscription shorthand for every subscribable category.
const CategoryAll = "all"

// SubscribableCategories returns the categories "all" expands to.
func SubscribableCategories() []Category {
	return []Category{CategoryFed, CategoryECB, CategoryBoE, CategoryNews, CategoryCPI, CategoryNFP, CategoryFOMC}
}

// NewsFamily returns every tag produced by the news source.
func NewsFamily() []Category {
	return []Category{CategoryNews, CategoryNewsFed, CategoryNewsCPI, CategoryNewsCrypto}
}

// IsNews reports whether c belongs to the news family.
func (c Category) IsNews() bool {
	return c == CategoryNews || strings.HasPrefix(string(c), string(CategoryNews)+"-")
}

// IDPrefix is the identifier namespace; the news family shares "news".
func (c Category) IDPrefix() string {
	if c.IsNews() {
		return string(CategoryNews)
	}
	return string(c)
}

// ParseCategory accepts any known category name, case-insensitively.
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range append(SubscribableCategories(), NewsFamily()[1:]...) {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, value)
}

// ExpandCategories widens "news" to its whole family and removes duplicates,
// keeping first-seen order.
func ExpandCategories(categories []Category) []Category {
	if len(categories) == 0 {
		return nil
	}
	out := make([]Category, 0, len(categories))
	seen := map[Category]struct{}{}
	push := func(c Category) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range categories {
		if c == CategoryNews {
			for _, n := range NewsFamily() {
				push(n)
			}
			continue
		}
		push(c)
	}
	return out
}
