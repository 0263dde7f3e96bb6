package mockapi

import (
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// FaultInjector answers the first N requests with 503 Service Unavailable.
// It lets clients exercise their retry path against a real server.
type FaultInjector struct {
	remaining atomic.Int64
	served    atomic.Int64
}

// NewFaultInjector creates an injector that fails the next n requests
func NewFaultInjector(n int) *FaultInjector {
	f := &FaultInjector{}
	f.Reset(n)
	return f
}

// Reset arms the injector to fail the next n requests
func (f *FaultInjector) Reset(n int) {
	if n < 0 {
		n = 0
	}
	f.remaining.Store(int64(n))
}

// Injected returns how many requests were failed so far
func (f *FaultInjector) Injected() int {
	return int(f.served.Load())
}

// Middleware wraps next with the fault injection
func (f *FaultInjector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for {
			n := f.remaining.Load()
			if n <= 0 {
				break
			}
			if f.remaining.CompareAndSwap(n, n-1) {
				f.served.Add(1)
				log.Debug().Str("path", r.URL.Path).Int64("remaining", n-1).Msg("injecting 503")
				sendErrorResponse(w, "injected failure", http.StatusServiceUnavailable)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
