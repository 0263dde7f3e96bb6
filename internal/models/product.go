package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Product is a catalog entry as served by the storefront product API
type Product struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents" validate:"gt=0"`
	Currency    string `json:"currency" validate:"len=3"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// DisplayPrice renders the price the way the product page shows it
func (p Product) DisplayPrice() string {
	return FormatPrice(p.PriceCents, p.Currency)
}

// ProductPage is what a scraped product page exposes
type ProductPage struct {
	URL        string `json:"url" validate:"required,url"`
	Name       string `json:"name" validate:"required"`
	Price      string `json:"price" validate:"required"`
	PriceCents int64  `json:"priceCents" validate:"gt=0"`
	HasBuyNow  bool   `json:"hasBuyNow"`
}

// FormatPrice formats minor units for display, e.g. 100 USD -> "$1.00"
func FormatPrice(cents int64, currency string) string {
	major := fmt.Sprintf("%d.%02d", cents/100, abs(cents%100))
	if cents < 0 && cents > -100 {
		major = "-" + major
	}
	switch strings.ToUpper(currency) {
	case "USD", "":
		return "$" + major
	case "EUR":
		return "€" + major
	case "GBP":
		return "£" + major
	}
	return major + " " + strings.ToUpper(currency)
}

// ParsePrice parses a displayed price such as "$1.00", "€12" or "1,299.50 USD"
// into minor units
func ParsePrice(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("no price in %q", s)
	}

	whole, frac, _ := strings.Cut(cleaned, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimals in %q", s)
	}
	frac = (frac + "00")[:2]

	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return n, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
