package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP. rate uses the "<limit>-<period>"
// form, e.g. "60-M". An empty rate disables limiting.
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	mw := stdlib.NewMiddleware(
		limiter.New(memory.NewStore(), r),
		stdlib.WithLimitReachedHandler(limitReached),
	)
	return mw.Handler, nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	slog.Warn("rate limit exceeded",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	writeAuthError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE_LIMITED")
}
