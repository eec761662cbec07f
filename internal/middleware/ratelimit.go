package middleware

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastygo/todo/api/transport"
)

// RateLimit rejects requests with 429 once limiter runs dry. A nil limiter
// disables the check.
func RateLimit(limiter *rate.Limiter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if limiter == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			if !limiter.Allow() {
				logger.Warn("rate limit exceeded", zap.String("path", string(ctx.Path())))
				body, _ := json.Marshal(transport.NewError("RATE_LIMITED", "the API is at capacity, try again later", nil))
				ctx.Response.Header.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetBody(body)
				return
			}
			next(ctx)
		}
	}
}

// NewLimiter builds a token bucket; rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
