package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// TaskRepository is the durable task table. It performs no validation: the
// caller is trusted. Each method runs as a single transaction, and lookups on
// a missing id return domain.ErrTaskNotFound.
type TaskRepository interface {
	Insert(ctx context.Context, title, description string) (*domain.Task, error)
	Find(ctx context.Context, id int64) (*domain.Task, error)
	// List returns every task ordered by ascending id.
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, id int64, title, description string) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
