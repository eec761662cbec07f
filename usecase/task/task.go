package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

// input is the normalized form of a create/update request.
type input struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=500"`
}

// UseCase is the only validated entry point to the task store. Handlers must
// not call the repository directly.
type UseCase struct {
	tasks    repository.TaskRepository
	validate *validator.Validate
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		validate: validator.New(),
		logger:   logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return uc.tasks.List(ctx)
}

func (uc *UseCase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return uc.tasks.Find(ctx, id)
}

// CreateTask trims the title, rejects invalid input with a validation error
// and stores the task otherwise. Over-long fields are rejected, not truncated.
func (uc *UseCase) CreateTask(ctx context.Context, title, description string) (*domain.Task, error) {
	in, err := uc.normalize(title, description)
	if err != nil {
		return nil, err
	}

	created, err := uc.tasks.Insert(ctx, in.Title, in.Description)
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task created", zap.Int64("task_id", created.ID))
	return created, nil
}

// UpdateTask validates like CreateTask. An unknown id yields
// domain.ErrTaskNotFound and leaves the store untouched; callers treat it as
// a soft outcome rather than a failure.
func (uc *UseCase) UpdateTask(ctx context.Context, id int64, title, description string) (*domain.Task, error) {
	in, err := uc.normalize(title, description)
	if err != nil {
		return nil, err
	}

	updated, err := uc.tasks.Update(ctx, id, in.Title, in.Description)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			logger.WithRequestID(ctx, uc.logger).Debug("update of unknown task ignored", zap.Int64("task_id", id))
		}
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task updated", zap.Int64("task_id", id))
	return updated, nil
}

// DeleteTask is idempotent: deleting an unknown id succeeds.
func (uc *UseCase) DeleteTask(ctx context.Context, id int64) error {
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			log.Debug("delete of unknown task ignored", zap.Int64("task_id", id))
			return nil
		}
		return err
	}
	log.Info("task deleted", zap.Int64("task_id", id))
	return nil
}

func (uc *UseCase) normalize(title, description string) (input, error) {
	in := input{
		Title:       strings.TrimSpace(title),
		Description: description,
	}
	if err := uc.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return in, domain.NewValidationError(message(fieldErrs[0]))
		}
		return in, domain.WrapError(domain.ErrCodeInvalid, "invalid task", err)
	}
	return in, nil
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.StructField())
	switch fe.Tag() {
	case "required":
		return field + " required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
