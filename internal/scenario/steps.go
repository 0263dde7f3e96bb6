package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/adyen/shopcheck/internal/storefront"
	"github.com/adyen/shopcheck/internal/testdata"
)

// StorefrontClient connects the world to its configured storefront
func StorefrontClient() Step {
	return Given("a storefront API client", func(ctx context.Context, w *World) error {
		if w.Config == nil {
			return errors.New("world has no config")
		}
		client, err := storefront.NewFromConfig(w.Config)
		if err != nil {
			return err
		}
		w.Client = client
		return nil
	})
}

// AShopperWithCard generates a shopper paying with the given test card
func AShopperWithCard(kind testdata.CardKind) Step {
	return Given(fmt.Sprintf("a shopper paying with a %s card", kind), func(ctx context.Context, w *World) error {
		card, err := testdata.LookupCard(kind)
		if err != nil {
			return err
		}
		w.Shopper = w.Data.Shopper()
		w.Card = card
		w.OrderReference = w.Data.Reference("E2E")
		return nil
	})
}

// ListingProducts requests one page of the catalog. The error is kept in
// LastErr for later steps.
func ListingProducts(page, limit any) Step {
	return When(fmt.Sprintf("I list products with page %v and limit %v", page, limit), func(ctx context.Context, w *World) error {
		if w.Client == nil {
			return errors.New("world has no storefront client")
		}
		w.Products, w.LastErr = w.Client.ListProducts(ctx, pagination.Request{Page: page, Limit: limit})
		return nil
	})
}

// ProductsReturned asserts the size and paging flags of the last listing
func ProductsReturned(wantItems int, wantClamped bool) Step {
	return Then(fmt.Sprintf("I get %d products (clamped: %t)", wantItems, wantClamped), func(ctx context.Context, w *World) error {
		if w.LastErr != nil {
			return fmt.Errorf("listing failed: %w", w.LastErr)
		}
		if w.Products == nil {
			return errors.New("no products were listed")
		}
		if got := len(w.Products.Items); got != wantItems {
			return fmt.Errorf("got %d products, want %d", got, wantItems)
		}
		if w.Products.Clamped != wantClamped {
			return fmt.Errorf("clamped is %t, want %t", w.Products.Clamped, wantClamped)
		}
		return nil
	})
}

// ErrorIs asserts that the last action failed with target
func ErrorIs(target error) Step {
	return Then(fmt.Sprintf("the request fails with %q", target), func(ctx context.Context, w *World) error {
		if !errors.Is(w.LastErr, target) {
			return fmt.Errorf("got error %v, want %v", w.LastErr, target)
		}
		return nil
	})
}
