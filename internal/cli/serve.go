package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/mockapi"
	"github.com/rs/zerolog/log"
)

// ServerDependencies holds all dependencies needed for the mock storefront
type ServerDependencies struct {
	ServerConfig config.ServerConfig
	Catalog      *mockapi.Catalog
	Options      mockapi.Options
	// Handler overrides the router built from Catalog
	Handler http.Handler
}

// NewServerDependencies wires the default catalog and fault injector for cfg
func NewServerDependencies(cfg config.ServerConfig) ServerDependencies {
	return ServerDependencies{
		ServerConfig: cfg,
		Catalog:      mockapi.DefaultCatalog(),
		Options: mockapi.Options{
			MaxPageLimit: cfg.MaxPageLimit,
			BaseURL:      cfg.PublicURL,
			Faults:       mockapi.NewFaultInjector(cfg.FailFirst),
		},
	}
}

func (d ServerDependencies) handler() http.Handler {
	if d.Handler != nil {
		return d.Handler
	}
	catalog := d.Catalog
	if catalog == nil {
		catalog = mockapi.DefaultCatalog()
	}
	return mockapi.NewRouter(catalog, d.Options)
}

// RunServe starts the mock storefront and blocks until SIGINT or SIGTERM
func RunServe(deps ServerDependencies) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdown(server, nil)
}

// StartServer creates and starts the HTTP server, returning the listener and server
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	addr := fmt.Sprintf(":%s", deps.ServerConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	server := &http.Server{
		Handler:           deps.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("mock storefront listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for a shutdown signal and gracefully shuts down the server.
// If shutdown is nil, a channel registered for SIGINT and SIGTERM is used.
func WaitForShutdown(server *http.Server, shutdown chan os.Signal) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second)
}

// WaitForShutdownWithTimeout allows specifying a custom shutdown timeout
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration) error {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)
	}

	sig := <-shutdown
	log.Info().Str("signal", sig.String()).Msg("shutting down mock storefront")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		// Outstanding requests did not finish in time
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	log.Info().Msg("mock storefront stopped")
	return nil
}
