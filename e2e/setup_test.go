//go:build e2e

package e2e

import (
	"fmt"
	"os"
	"testing"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/logging"
	"github.com/adyen/shopcheck/internal/pageobject"
	"github.com/adyen/shopcheck/internal/scenario"
	"github.com/playwright-community/playwright-go"
)

var (
	pw      *playwright.Playwright
	browser playwright.Browser
	qa      *config.QAConfig
)

// TestMain sets up and tears down the Playwright browser for all tests.
// Browsers are installed with:
// go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	var err error

	qa, err = config.LoadQAConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: %v\n", err)
		return 1
	}
	logging.Setup(qa.LogLevel, true)

	pw, err = playwright.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: could not start playwright: %v\n", err)
		return 1
	}
	defer pw.Stop()

	browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(qa.Headless),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: could not launch browser: %v\n", err)
		return 1
	}
	defer browser.Close()

	return m.Run()
}

// newWorld opens a fresh browser page and returns a world bound to it
func newWorld(t *testing.T) *scenario.World {
	t.Helper()

	browserCtx, err := browser.NewContext()
	if err != nil {
		t.Fatalf("failed to create browser context: %v", err)
	}
	t.Cleanup(func() { browserCtx.Close() })

	page, err := browserCtx.NewPage()
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}

	w := scenario.NewWorld(qa)
	w.Page = page
	return w
}

// requirePayments skips tests that submit payments unless the target
// storefront is wired to an Adyen test account
func requirePayments(t *testing.T) {
	t.Helper()
	if os.Getenv("SHOPCHECK_E2E_PAYMENTS") != "true" {
		t.Skip("set SHOPCHECK_E2E_PAYMENTS=true to run payment flows")
	}
}

func productPage(w *scenario.World) *pageobject.ProductPage {
	return pageobject.NewProductPage(w.Page, w.Config.BaseURL, pageobject.Options{Timeout: w.Config.RequestTimeout})
}
