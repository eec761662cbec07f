package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
)

// Form routes. Successful writes redirect to "/", where the rendering layer
// shows the list. A rejected submission answers 400 with the message only:
// the submitted values are not echoed back, so the form comes back blank.

// Index returns every task for the list page.
func (h *TaskHandler) Index(ctx *fasthttp.RequestCtx) {
	h.GetTasks(ctx)
}

// Submit handles the new-task form.
func (h *TaskHandler) Submit(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	title, desc := formTask(ctx)
	if _, err := h.uc.CreateTask(stdCtx, title, desc); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.redirectHome(ctx)
}

// Edit returns the task behind the edit form; unknown ids go back home.
func (h *TaskHandler) Edit(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	task, err := h.uc.GetTask(stdCtx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			h.redirectHome(ctx)
			return
		}
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// Amend handles the edit form. Unknown ids redirect home without an error.
func (h *TaskHandler) Amend(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	title, desc := formTask(ctx)
	if _, err := h.uc.UpdateTask(stdCtx, id, title, desc); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.redirectHome(ctx)
}

// Remove deletes the task and always redirects home.
func (h *TaskHandler) Remove(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	if err := h.uc.DeleteTask(stdCtx, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.redirectHome(ctx)
}

// Show dumps every task to the log. Debug only.
func (h *TaskHandler) Show(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	log := logger.WithRequestID(stdCtx, h.logger)
	for i := range tasks {
		log.Info("task", zap.Stringer("task", &tasks[i]))
	}

	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString(pluralTasks(len(tasks)))
}

func formTask(ctx *fasthttp.RequestCtx) (string, string) {
	title := string(ctx.FormValue(transport.FormTitle))
	desc := ctx.FormValue(transport.FormDescription)
	if desc == nil {
		desc = ctx.FormValue(transport.FormDescriptionLong)
	}
	return title, string(desc)
}

func pluralTasks(n int) string {
	if n == 1 {
		return "1 task"
	}
	return strconv.Itoa(n) + " tasks"
}
