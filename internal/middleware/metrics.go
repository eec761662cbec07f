package middleware

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todo/internal/metrics"
)

// Metrics records status and latency for every request to route. The route
// label is the registered pattern, not the raw path.
func Metrics(m *metrics.Metrics, route string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if m == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			m.Observe(route, ctx.Response.StatusCode(), time.Since(start))
		}
	}
}
