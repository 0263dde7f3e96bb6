package pageobject

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/retry"
	"github.com/adyen/shopcheck/internal/testdata"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

// Selector fallbacks, most specific first
var (
	productNameSelectors   = []string{".product-name", "[itemprop=name]", "h1"}
	productPriceSelectors  = []string{".product-price", "[itemprop=price]", ".price"}
	buyNowSelectors        = []string{"button:has-text('Buy Now')", "a:has-text('Buy Now')", "input[type=submit][value*='Buy']"}
	summaryNameSelectors   = []string{".order-item-details h3", ".order-summary .product-name"}
	summaryPriceSelectors  = []string{".order-item-price", ".order-summary .product-price"}
	cardMethodSelectors    = []string{".adyen-checkout__payment-method--card", "[data-cse='card']", ".adyen-checkout__payment-method:has-text('Card')"}
	payButtonSelectors     = []string{"button[type='submit']:has-text('Pay')", "button:has-text('Pay')"}
	titleSelectors         = []string{".confirmation-title", ".failure-title", "h1"}
	referenceSelectors     = []string{".order-reference", "[data-order-reference]"}
	statusSelectors        = []string{".status-badge", ".payment-status"}
	amountSelectors        = []string{".product-amount", ".order-amount"}
	tryAgainSelectors      = []string{"a:has-text('Try Again')", "button:has-text('Try Again')"}
	cardNumberFrame        = "iframe[title*='card number'], iframe[title*='Card number']"
	cardNumberInput        = "input[aria-label='Card number'], input[data-fieldtype='encryptedCardNumber']"
	expiryFrame            = "iframe[title*='expiry'], iframe[title*='Expiry']"
	expiryInput            = "input[aria-label='Expiry date'], input[data-fieldtype='encryptedExpiryDate']"
	securityCodeFrame      = "iframe[title*='security'], iframe[title*='Security'], iframe[title*='CVC']"
	securityCodeInput      = "input[aria-label='Security code'], input[data-fieldtype='encryptedSecurityCode']"
	holderNameInput        = "input[name='holderName']"
	dropinLoadingContainer = "#loading-container"
)

// Options tunes page object waits
type Options struct {
	// Timeout bounds navigation and element waits
	Timeout time.Duration
	// PaymentTimeout bounds the redirect after submitting a payment
	PaymentTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.PaymentTimeout <= 0 {
		o.PaymentTimeout = 30 * time.Second
	}
	return o
}

// ProductPage is the storefront product detail page
type ProductPage struct {
	page    playwright.Page
	baseURL string
	opts    Options
}

// NewProductPage creates a product page object for the storefront at baseURL
func NewProductPage(page playwright.Page, baseURL string, opts Options) *ProductPage {
	return &ProductPage{page: page, baseURL: strings.TrimRight(baseURL, "/"), opts: opts.withDefaults()}
}

// Open navigates to path, e.g. "/" or "/products/widget-001"
func (p *ProductPage) Open(path string) error {
	if _, err := p.page.Goto(p.baseURL+path, playwright.PageGotoOptions{Timeout: millis(p.opts.Timeout)}); err != nil {
		return fmt.Errorf("failed to open product page %s: %w", path, err)
	}
	return nil
}

// Name returns the displayed product name
func (p *ProductPage) Name() (string, error) {
	return TextOf(p.page, productNameSelectors...)
}

// Price returns the displayed price text, e.g. "$1.00"
func (p *ProductPage) Price() (string, error) {
	return TextOf(p.page, productPriceSelectors...)
}

// Read returns the product as displayed
func (p *ProductPage) Read() (*models.ProductPage, error) {
	name, err := p.Name()
	if err != nil {
		return nil, err
	}
	price, err := p.Price()
	if err != nil {
		return nil, err
	}
	cents, err := models.ParsePrice(price)
	if err != nil {
		return nil, err
	}
	_, _, buyErr := FirstVisible(p.page, buyNowSelectors...)

	return &models.ProductPage{
		URL:        p.page.URL(),
		Name:       name,
		Price:      price,
		PriceCents: cents,
		HasBuyNow:  buyErr == nil,
	}, nil
}

// BuyNow clicks the buy button and waits for the checkout page
func (p *ProductPage) BuyNow() (*CheckoutPage, error) {
	button, _, err := FirstVisible(p.page, buyNowSelectors...)
	if err != nil {
		return nil, err
	}
	if err := button.Click(); err != nil {
		return nil, fmt.Errorf("failed to click Buy Now: %w", err)
	}
	if err := p.page.WaitForURL("**/checkout", playwright.PageWaitForURLOptions{Timeout: millis(p.opts.Timeout)}); err != nil {
		return nil, fmt.Errorf("did not reach checkout: %w", err)
	}
	return &CheckoutPage{page: p.page, opts: p.opts}, nil
}

// CheckoutPage is the order summary with the Adyen Drop-in
type CheckoutPage struct {
	page playwright.Page
	opts Options
}

// NewCheckoutPage wraps a page that is already on the checkout
func NewCheckoutPage(page playwright.Page, opts Options) *CheckoutPage {
	return &CheckoutPage{page: page, opts: opts.withDefaults()}
}

// Summary returns the product name and price from the order summary
func (c *CheckoutPage) Summary() (name, price string, err error) {
	if name, err = TextOf(c.page, summaryNameSelectors...); err != nil {
		return "", "", err
	}
	if price, err = TextOf(c.page, summaryPriceSelectors...); err != nil {
		return "", "", err
	}
	return name, price, nil
}

// WaitForDropin waits until the Drop-in has replaced its loading placeholder
// and a card payment method is shown
func (c *CheckoutPage) WaitForDropin(ctx context.Context) error {
	err := c.page.Locator(dropinLoadingContainer).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: millis(c.opts.Timeout),
	})
	if err != nil {
		return fmt.Errorf("checkout did not load: %w", err)
	}

	policy := retry.Policy{MaxAttempts: 6, BaseDelay: 250 * time.Millisecond}
	method, err := WaitFirstVisible(ctx, c.page, policy, cardMethodSelectors...)
	if err != nil {
		return fmt.Errorf("card payment method not shown: %w", err)
	}
	// A collapsed card method expands on click; an expanded one ignores it.
	if err := method.Click(); err != nil {
		log.Debug().Err(err).Msg("card payment method click ignored")
	}
	return nil
}

// FillCard types card into the Drop-in's secured field iframes
func (c *CheckoutPage) FillCard(card testdata.Card) error {
	fields := []struct {
		name  string
		frame string
		input string
		value string
	}{
		{name: "card number", frame: cardNumberFrame, input: cardNumberInput, value: card.Number},
		{name: "expiry date", frame: expiryFrame, input: expiryInput, value: card.Expiry},
		{name: "security code", frame: securityCodeFrame, input: securityCodeInput, value: card.CVC},
	}

	for _, f := range fields {
		input := c.page.FrameLocator(f.frame).Locator(f.input)
		if err := input.Fill(f.value, playwright.LocatorFillOptions{Timeout: millis(c.opts.Timeout)}); err != nil {
			return fmt.Errorf("failed to enter %s: %w", f.name, err)
		}
	}

	holder := c.page.Locator(holderNameInput)
	if visible, _ := holder.IsVisible(); visible && card.Holder != "" {
		if err := holder.Fill(card.Holder); err != nil {
			return fmt.Errorf("failed to enter cardholder name: %w", err)
		}
	}
	return nil
}

// Outcome is where the shopper lands after paying
type Outcome string

// Payment outcomes
const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "failed"
	OutcomeUnknown   Outcome = "unknown"
)

// OutcomeForURL classifies a post-payment URL
func OutcomeForURL(u string) Outcome {
	switch {
	case strings.Contains(u, "/confirmation"):
		return OutcomeConfirmed
	case strings.Contains(u, "/failed"), strings.Contains(u, "/failure"):
		return OutcomeFailed
	}
	return OutcomeUnknown
}

// Pay submits the payment and waits for the redirect to the result page
func (c *CheckoutPage) Pay() (Outcome, error) {
	button, _, err := FirstVisible(c.page, payButtonSelectors...)
	if err != nil {
		return OutcomeUnknown, err
	}
	if err := button.Click(); err != nil {
		return OutcomeUnknown, fmt.Errorf("failed to click Pay: %w", err)
	}

	err = c.page.WaitForURL(func(u string) bool {
		return OutcomeForURL(u) != OutcomeUnknown
	}, playwright.PageWaitForURLOptions{Timeout: millis(c.opts.PaymentTimeout)})
	if err != nil {
		return OutcomeUnknown, fmt.Errorf("no result page after payment: %w", err)
	}
	return OutcomeForURL(c.page.URL()), nil
}

// ResultPage reads the confirmation or failure page shown after a payment
type ResultPage struct {
	page playwright.Page
}

// ConfirmationPage is shown for an authorised payment
type ConfirmationPage struct{ ResultPage }

// FailurePage is shown for a refused or errored payment
type FailurePage struct{ ResultPage }

// NewConfirmationPage wraps a page that is on the order confirmation
func NewConfirmationPage(page playwright.Page) *ConfirmationPage {
	return &ConfirmationPage{ResultPage{page: page}}
}

// NewFailurePage wraps a page that is on the payment failure page
func NewFailurePage(page playwright.Page) *FailurePage {
	return &FailurePage{ResultPage{page: page}}
}

// Title returns the page heading
func (r *ResultPage) Title() (string, error) {
	return TextOf(r.page, titleSelectors...)
}

// Reference returns the merchant order reference
func (r *ResultPage) Reference() (string, error) {
	return TextOf(r.page, referenceSelectors...)
}

// ProductName returns the ordered product
func (r *ConfirmationPage) ProductName() (string, error) {
	return TextOf(r.page, productNameSelectors...)
}

// Amount returns the charged amount as displayed
func (r *ConfirmationPage) Amount() (string, error) {
	return TextOf(r.page, amountSelectors...)
}

// Status returns the payment status parsed from the status badge
func (r *ConfirmationPage) Status() (models.OrderStatus, error) {
	text, err := TextOf(r.page, statusSelectors...)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(text, "paid") {
		return models.OrderStatusAuthorized, nil
	}
	return models.ParseOrderStatus(text)
}

// TryAgain follows the retry link back to the product page
func (r *FailurePage) TryAgain() error {
	link, _, err := FirstVisible(r.page, tryAgainSelectors...)
	if err != nil {
		return err
	}
	return link.Click()
}
