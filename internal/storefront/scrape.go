package storefront

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/schema"
)

// Selector fallbacks, most specific first. The storefront templates use the
// class names; the others cover themes that only carry microdata or plain tags.
var (
	nameSelectors  = []string{".product-name", "[itemprop=name]", "h1"}
	priceSelectors = []string{".product-price", "[itemprop=price]", ".price"}
)

// ScrapeProductPage fetches a product page and extracts what a shopper sees
func (c *Client) ScrapeProductPage(ctx context.Context, pageURL string) (*models.ProductPage, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}

	target, err := c.resolve(pageURL)
	if err != nil {
		return nil, err
	}

	page, err := ParseProductPage(target, body)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ParseProductPage extracts product details from product page HTML
func ParseProductPage(pageURL string, html []byte) (*models.ProductPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &models.ProductPage{
		URL:   pageURL,
		Name:  firstText(doc, nameSelectors),
		Price: firstText(doc, priceSelectors),
	}

	if page.Price != "" {
		cents, err := models.ParsePrice(page.Price)
		if err != nil {
			return nil, fmt.Errorf("product page %s: %w", pageURL, err)
		}
		page.PriceCents = cents
	}

	page.HasBuyNow = doc.Find("button, a, input[type=submit]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		label := s.Text()
		if v, ok := s.Attr("value"); ok {
			label += " " + v
		}
		return strings.Contains(strings.ToLower(label), "buy now")
	}).Length() > 0

	if err := schema.Validate(page); err != nil {
		return nil, fmt.Errorf("product page %s: %w", pageURL, err)
	}
	return page, nil
}

// firstText returns the trimmed text of the first selector that matches
// a non-empty element
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		var text string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = strings.Join(strings.Fields(s.Text()), " ")
			if text == "" {
				if v, ok := s.Attr("content"); ok {
					text = strings.TrimSpace(v)
				}
			}
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}
