// Package crawler walks the storefront sitemap and scrapes every product page.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Source is the part of the storefront client the crawler needs
type Source interface {
	FetchSitemap(ctx context.Context) ([]string, error)
	ScrapeProductPage(ctx context.Context, pageURL string) (*models.ProductPage, error)
}

// Options configures a Crawler
type Options struct {
	// RequestsPerSecond limits page fetches. Zero or less means unlimited.
	RequestsPerSecond float64
	// Concurrency bounds simultaneous page fetches. Zero means 1.
	Concurrency int
	// PathPrefix selects which sitemap URLs are product pages.
	PathPrefix string
}

// Failure records a page that could not be scraped
type Failure struct {
	URL string `json:"url"`
	Err string `json:"error"`
}

// Result is the outcome of one crawl
type Result struct {
	Pages    []models.ProductPage `json:"pages"`
	Failures []Failure            `json:"failures"`
	Skipped  int                  `json:"skipped"`
	Duration time.Duration        `json:"duration"`
}

// Window returns one normalized page of the crawled product pages
func (r *Result) Window(req pagination.Request, maxLimit int) pagination.Page[models.ProductPage] {
	return pagination.Window(r.Pages, pagination.Normalize(req, maxLimit))
}

// Crawler scrapes product pages listed in the sitemap
type Crawler struct {
	source      Source
	limiter     *rate.Limiter
	concurrency int
	prefix      string
}

// New creates a crawler reading from source
func New(source Source, opts Options) *Crawler {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = "/products/"
	}

	return &Crawler{
		source:      source,
		limiter:     limiter,
		concurrency: opts.Concurrency,
		prefix:      opts.PathPrefix,
	}
}

// Crawl fetches the sitemap and scrapes every product page in it. A page
// that fails is recorded in Result.Failures and does not stop the crawl;
// only a sitemap failure or a cancelled context is returned as an error.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	start := time.Now()

	urls, err := c.source.FetchSitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}

	targets, skipped := c.filter(urls)
	log.Info().
		Int("sitemap_urls", len(urls)).
		Int("product_urls", len(targets)).
		Int("concurrency", c.concurrency).
		Msg("crawl started")

	var (
		mu     sync.Mutex
		result = &Result{Skipped: skipped}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, target := range targets {
		target := target
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}

			page, err := c.source.ScrapeProductPage(gctx, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("url", target).Msg("product page failed")
				result.Failures = append(result.Failures, Failure{URL: target, Err: err.Error()})
				return nil
			}
			result.Pages = append(result.Pages, *page)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("crawl aborted: %w", err)
	}

	sort.Slice(result.Pages, func(i, j int) bool { return result.Pages[i].URL < result.Pages[j].URL })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].URL < result.Failures[j].URL })
	result.Duration = time.Since(start)

	log.Info().
		Int("pages", len(result.Pages)).
		Int("failures", len(result.Failures)).
		Dur("duration", result.Duration).
		Msg("crawl finished")

	return result, nil
}

// filter keeps unique URLs whose path starts with the product prefix
func (c *Crawler) filter(urls []string) ([]string, int) {
	seen := make(map[string]struct{}, len(urls))
	var targets []string
	skipped := 0

	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || !strings.HasPrefix(u.Path, c.prefix) {
			skipped++
			continue
		}
		if _, dup := seen[raw]; dup {
			skipped++
			continue
		}
		seen[raw] = struct{}{}
		targets = append(targets, raw)
	}
	return targets, skipped
}
