// Package pageobject wraps the storefront's pages for Playwright checks.
//
// Storefront markup differs between themes and Drop-in versions, so most
// elements are located through an ordered list of selectors: the first one
// that matches a visible element wins.
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adyen/shopcheck/internal/retry"
	"github.com/playwright-community/playwright-go"
)

// ErrNoVisibleElement is returned when none of the selectors match a visible element
var ErrNoVisibleElement = errors.New("no visible element")

// Scope is anything that can create locators, typically a playwright.Page
type Scope interface {
	Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator
}

// FirstVisible returns the first element, in selector order, that is visible
// right now, together with the selector that matched it.
func FirstVisible(scope Scope, selectors ...string) (playwright.Locator, string, error) {
	if len(selectors) == 0 {
		return nil, "", fmt.Errorf("%w: no selectors given", ErrNoVisibleElement)
	}

	for _, selector := range selectors {
		loc := scope.Locator(selector).First()
		visible, err := loc.IsVisible()
		if err != nil {
			continue
		}
		if visible {
			return loc, selector, nil
		}
	}
	return nil, "", fmt.Errorf("%w: tried %s", ErrNoVisibleElement, strings.Join(selectors, ", "))
}

// WaitFirstVisible retries FirstVisible under policy, for elements that
// render asynchronously.
func WaitFirstVisible(ctx context.Context, scope Scope, policy retry.Policy, selectors ...string) (playwright.Locator, error) {
	return retry.Execute(ctx, policy, func(ctx context.Context, _ retry.Attempt) (playwright.Locator, error) {
		loc, _, err := FirstVisible(scope, selectors...)
		return loc, err
	})
}

// TextOf returns the trimmed text of the first visible match
func TextOf(scope Scope, selectors ...string) (string, error) {
	loc, selector, err := FirstVisible(scope, selectors...)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", selector, err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
