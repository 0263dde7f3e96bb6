// Package scenario runs Given/When/Then steps against a typed World.
package scenario

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/pageobject"
	"github.com/adyen/shopcheck/internal/storefront"
	"github.com/adyen/shopcheck/internal/testdata"
	"github.com/playwright-community/playwright-go"
)

// World is the state shared by the steps of one scenario. Every field is
// declared; steps never stash values under string keys.
type World struct {
	Config *config.QAConfig
	Client *storefront.Client
	Data   *testdata.Generator

	// Browser state, nil for API-only scenarios
	Page playwright.Page

	Product        *models.ProductPage
	Products       *storefront.ProductList
	Shopper        testdata.Shopper
	Card           testdata.Card
	OrderReference string
	Outcome        pageobject.Outcome

	// LastErr holds the error of the most recent action, for Then steps
	// that expect a failure
	LastErr error
}

// NewWorld creates a world for cfg with a fresh data generator
func NewWorld(cfg *config.QAConfig) *World {
	return &World{
		Config: cfg,
		Data:   testdata.NewGenerator(time.Now().UnixNano()),
	}
}

// Keyword is the Gherkin keyword a step is reported under
type Keyword string

// Step keywords
const (
	KeywordGiven Keyword = "Given"
	KeywordWhen  Keyword = "When"
	KeywordThen  Keyword = "Then"
	KeywordAnd   Keyword = "And"
)

// Step is one action of a scenario
type Step struct {
	Keyword Keyword
	Text    string
	Do      func(ctx context.Context, w *World) error
}

// Given builds a setup step
func Given(text string, do func(ctx context.Context, w *World) error) Step {
	return Step{Keyword: KeywordGiven, Text: text, Do: do}
}

// When builds an action step
func When(text string, do func(ctx context.Context, w *World) error) Step {
	return Step{Keyword: KeywordWhen, Text: text, Do: do}
}

// Then builds an assertion step
func Then(text string, do func(ctx context.Context, w *World) error) Step {
	return Step{Keyword: KeywordThen, Text: text, Do: do}
}

// And continues the previous keyword
func And(text string, do func(ctx context.Context, w *World) error) Step {
	return Step{Keyword: KeywordAnd, Text: text, Do: do}
}

// Run executes steps in order and stops at the first failing step. The
// remaining steps are logged as skipped. Every step receives ctx; once it is
// done the next step fails with its error. Run reports whether all steps passed.
func Run(ctx context.Context, t testing.TB, w *World, steps ...Step) bool {
	t.Helper()

	for i, step := range steps {
		if err := runStep(ctx, w, step); err != nil {
			t.Errorf("%s %s: %v", step.Keyword, step.Text, err)
			for _, skipped := range steps[i+1:] {
				t.Logf("skipped: %s %s", skipped.Keyword, skipped.Text)
			}
			return false
		}
		t.Logf("%s %s", step.Keyword, step.Text)
	}
	return true
}

func runStep(ctx context.Context, w *World, step Step) (err error) {
	if step.Do == nil {
		return fmt.Errorf("step is not implemented")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return step.Do(ctx, w)
}
