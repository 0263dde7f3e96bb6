// Package cli holds the shopcheck commands and the mock storefront server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/crawler"
	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/orders"
	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/adyen/shopcheck/internal/retry"
	"github.com/adyen/shopcheck/internal/storefront"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// Commands returns every shopcheck subcommand. Configuration is read through getenv.
func Commands(getenv func(string) string) []*cli.Command {
	return []*cli.Command{
		MockServerCommand(getenv),
		ProductsCommand(getenv),
		CrawlCommand(getenv),
		OrdersCommand(getenv),
		WaitOrderCommand(getenv),
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "page", Usage: "page number, normalized before use"},
		&cli.StringFlag{Name: "limit", Usage: "page size, clamped to the maximum page limit"},
	}
}

// pageRequest passes the raw flag values to the normalizer; unset flags stay absent
func pageRequest(c *cli.Context) pagination.Request {
	var req pagination.Request
	if c.IsSet("page") {
		req.Page = c.String("page")
	}
	if c.IsSet("limit") {
		req.Limit = c.String("limit")
	}
	return req
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MockServerCommand returns the mock-server command
func MockServerCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "Serve an in-memory storefront for API and retry checks",
		Flags: mockServerFlags(),
		Action: func(c *cli.Context) error {
			return RunServe(NewServerDependencies(mockServerConfig(c, getenv)))
		},
	}
}

func mockServerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Usage: "listen port (default $PORT or 8080)"},
		&cli.IntFlag{Name: "fail-first", Usage: "answer the first N requests with 503 (default $MOCK_FAIL_FIRST)"},
		&cli.IntFlag{Name: "max-page-limit", Usage: "largest page size the API returns (default $SHOPCHECK_MAX_PAGE_LIMIT or 100)"},
	}
}

// mockServerConfig loads the server config from env; flags that are set win
func mockServerConfig(c *cli.Context, getenv func(string) string) config.ServerConfig {
	cfg := config.LoadServerConfig(getenv)
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("fail-first") {
		cfg.FailFirst = c.Int("fail-first")
	}
	if c.IsSet("max-page-limit") {
		cfg.MaxPageLimit = c.Int("max-page-limit")
	}
	return cfg
}

// ProductsCommand returns the products command
func ProductsCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "List one page of products through the storefront API",
		Flags: pageFlags(),
		Action: func(c *cli.Context) error {
			client, _, err := newClient(getenv)
			if err != nil {
				return err
			}

			list, err := client.ListProducts(c.Context, pageRequest(c))
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}
			return printJSON(c.App.Writer, list)
		},
	}
}

// crawlOutput is the crawl command's report
type crawlOutput struct {
	pagination.Page[models.ProductPage]
	Failures []crawler.Failure `json:"failures"`
	Skipped  int               `json:"skipped"`
	Duration string            `json:"duration"`
}

// CrawlCommand returns the crawl command
func CrawlCommand(getenv func(string) string) *cli.Command {
	flags := append([]cli.Flag{
		&cli.Float64Flag{Name: "rps", Usage: "page fetches per second (default $SHOPCHECK_CRAWL_RPS)"},
		&cli.IntFlag{Name: "concurrency", Usage: "simultaneous page fetches (default $SHOPCHECK_CRAWL_CONCURRENCY)"},
	}, pageFlags()...)

	return &cli.Command{
		Name:  "crawl",
		Usage: "Scrape every product page listed in the sitemap",
		Flags: flags,
		Action: func(c *cli.Context) error {
			client, cfg, err := newClient(getenv)
			if err != nil {
				return err
			}

			opts := crawler.Options{RequestsPerSecond: cfg.CrawlRPS, Concurrency: cfg.CrawlConcurrency}
			if c.IsSet("rps") {
				opts.RequestsPerSecond = c.Float64("rps")
			}
			if c.IsSet("concurrency") {
				opts.Concurrency = c.Int("concurrency")
			}

			result, err := crawler.New(client, opts).Crawl(c.Context)
			if err != nil {
				return err
			}

			return printJSON(c.App.Writer, crawlOutput{
				Page:     result.Window(pageRequest(c), cfg.MaxPageLimit),
				Failures: result.Failures,
				Skipped:  result.Skipped,
				Duration: result.Duration.Round(time.Millisecond).String(),
			})
		},
	}
}

// OrdersCommand returns the orders command
func OrdersCommand(getenv func(string) string) *cli.Command {
	flags := append([]cli.Flag{
		&cli.IntFlag{Name: "max-limit", Value: 100, Usage: "largest page size"},
	}, pageFlags()...)

	return &cli.Command{
		Name:  "orders",
		Usage: "List storefront orders from its database, newest first",
		Flags: flags,
		Action: func(c *cli.Context) error {
			reader, closeDB, err := openReader(c, getenv)
			if err != nil {
				return err
			}
			defer closeDB()

			page, err := reader.List(c.Context, pagination.Normalize(pageRequest(c), c.Int("max-limit")))
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, page)
		},
	}
}

// WaitOrderCommand returns the wait-order command
func WaitOrderCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "wait-order",
		Usage: "Poll an order until it reaches a status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reference", Required: true, Usage: "merchant order reference"},
			&cli.StringFlag{Name: "status", Value: string(models.OrderStatusAuthorized), Usage: "status to wait for"},
			&cli.IntFlag{Name: "attempts", Value: 10, Usage: "maximum number of lookups"},
			&cli.DurationFlag{Name: "delay", Value: 500 * time.Millisecond, Usage: "wait after the first lookup, doubling each time"},
		},
		Action: func(c *cli.Context) error {
			want, err := models.ParseOrderStatus(c.String("status"))
			if err != nil {
				return err
			}
			policy := retry.Policy{MaxAttempts: c.Int("attempts"), BaseDelay: c.Duration("delay")}
			if err := policy.Validate(); err != nil {
				return err
			}

			reader, closeDB, err := openReader(c, getenv)
			if err != nil {
				return err
			}
			defer closeDB()

			order, err := reader.WaitForStatus(c.Context, c.String("reference"), want, policy)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, order)
		},
	}
}

func newClient(getenv func(string) string) (*storefront.Client, *config.QAConfig, error) {
	cfg, err := config.LoadQAConfig(getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("missing required QA configuration: %w", err)
	}
	client, err := storefront.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func openReader(c *cli.Context, getenv func(string) string) (*orders.Reader, func(), error) {
	pgConfig, err := config.LoadPostgresConfig(getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("missing required Postgres configuration: %w", err)
	}

	db, err := orders.Open(c.Context, pgConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	return orders.NewReader(db), closeDB, nil
}
