package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/metrics"
	"github.com/fastygo/todo/internal/middleware"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// Options toggles the optional routes and middleware. Zero values disable them.
type Options struct {
	Metrics   *metrics.Metrics
	RateLimit func(fasthttp.RequestHandler) fasthttp.RequestHandler
	Debug     bool
}

func New(handlers Handlers, opts Options) *router.Router {
	r := router.New()

	wrap := func(route string, h fasthttp.RequestHandler) fasthttp.RequestHandler {
		if opts.RateLimit != nil {
			h = opts.RateLimit(h)
		}
		return middleware.Metrics(opts.Metrics, route)(h)
	}
	handle := func(method, path string, h fasthttp.RequestHandler) {
		r.Handle(method, path, wrap(method+" "+path, h))
	}

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}

	// Form routes
	handle(fasthttp.MethodGet, "/", handlers.Task.Index)
	handle(fasthttp.MethodPost, "/", handlers.Task.Submit)
	handle(fasthttp.MethodGet, "/update/{id}", handlers.Task.Edit)
	handle(fasthttp.MethodPost, "/update/{id}", handlers.Task.Amend)
	handle(fasthttp.MethodGet, "/delete/{id}", handlers.Task.Remove)
	if opts.Debug {
		handle(fasthttp.MethodGet, "/show", handlers.Task.Show)
	}

	// JSON API
	handle(fasthttp.MethodGet, "/api/v1/tasks", handlers.Task.GetTasks)
	handle(fasthttp.MethodPost, "/api/v1/tasks", handlers.Task.CreateTask)
	handle(fasthttp.MethodGet, "/api/v1/tasks/{id}", handlers.Task.GetTask)
	handle(fasthttp.MethodPut, "/api/v1/tasks/{id}", handlers.Task.UpdateTask)
	handle(fasthttp.MethodDelete, "/api/v1/tasks/{id}", handlers.Task.DeleteTask)

	return r
}
