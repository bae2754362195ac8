package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortOption selects the ordering of a product listing.
type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortPriceLow  SortOption = "price-low"
	SortPriceHigh SortOption = "price-high"
	SortPopular   SortOption = "popular"
)

// FilterOptions narrows a product listing. Zero values leave the
// corresponding dimension unfiltered.
type FilterOptions struct {
	PriceMin   decimal.Decimal
	PriceMax   decimal.Decimal
	Sizes      []string
	Brands     []string
	Categories []string
}

// Catalog holds the product list fetched once per session and answers
// filter, sort and category queries over it.
type Catalog struct {
	products []Product
}

// New builds a catalog over an already-fetched product list.
func New(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Products returns the full product list.
func (c *Catalog) Products() []Product {
	return c.products
}

// NewArrivals returns products flagged as new.
func (c *Catalog) NewArrivals() []Product {
	var out []Product
	for _, p := range c.products {
		if p.IsNew {
			out = append(out, p)
		}
	}
	return out
}

// ByCategory returns products of one category; "all" returns everything.
func (c *Catalog) ByCategory(category string) []Product {
	if category == "all" {
		return c.products
	}
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Filter applies price, size, brand and category filters in that order.
func Filter(products []Product, opts FilterOptions) []Product {
	var out []Product
	for _, p := range products {
		if !opts.PriceMin.IsZero() && p.RealPrice.LessThan(opts.PriceMin) {
			continue
		}
		if !opts.PriceMax.IsZero() && p.RealPrice.GreaterThan(opts.PriceMax) {
			continue
		}
		if len(opts.Sizes) > 0 && !hasAny(p.Sizes, opts.Sizes) {
			continue
		}
		if len(opts.Brands) > 0 && !contains(opts.Brands, p.Brand) {
			continue
		}
		if len(opts.Categories) > 0 && !contains(opts.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort returns a sorted copy of products; the input slice is not modified.
// Popularity data does not exist yet, so "popular" ranks new arrivals first
// and then falls back to recency.
func Sort(products []Product, by SortOption) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)

	switch by {
	case SortNewest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	case SortPriceLow:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].RealPrice.LessThan(sorted[j].RealPrice)
		})
	case SortPriceHigh:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].RealPrice.GreaterThan(sorted[j].RealPrice)
		})
	case SortPopular:
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].IsNew != sorted[j].IsNew {
				return sorted[i].IsNew
			}
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	}
	return sorted
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func hasAny(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}
