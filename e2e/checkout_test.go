//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"testing"

	"github.com/adyen/shopcheck/internal/pageobject"
	"github.com/adyen/shopcheck/internal/scenario"
)

// TestCheckoutOrderSummary tests the checkout page
// Feature: Checkout
//
//	Scenario: Navigate to checkout
//	  Given I am viewing the "Premium Widget"
//	  When I click "Buy Now"
//	  Then I should be on the checkout page
//	  And I should see the order summary for "Premium Widget" at "$1.00"
//	  And the Adyen Drop-in should offer card payment
func TestCheckoutOrderSummary(t *testing.T) {
	requirePayments(t)
	w := newWorld(t)

	var checkout *pageobject.CheckoutPage

	scenario.Run(context.Background(), t, w,
		scenario.Given(`I am viewing the "Premium Widget"`, func(ctx context.Context, w *scenario.World) error {
			return productPage(w).Open("/")
		}),
		scenario.When(`I click "Buy Now"`, func(ctx context.Context, w *scenario.World) error {
			var err error
			checkout, err = productPage(w).BuyNow()
			return err
		}),
		scenario.Then(`I should see the order summary for "Premium Widget" at "$1.00"`, func(ctx context.Context, w *scenario.World) error {
			name, price, err := checkout.Summary()
			if err != nil {
				return err
			}
			if name != "Premium Widget" || price != "$1.00" {
				return fmt.Errorf("summary shows %q at %q", name, price)
			}
			return nil
		}),
		scenario.And("the Adyen Drop-in should offer card payment", func(ctx context.Context, w *scenario.World) error {
			return checkout.WaitForDropin(ctx)
		}),
	)
}
