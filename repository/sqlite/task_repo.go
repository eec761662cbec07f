package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type taskRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;size:200;not null"`
	Description string    `gorm:"column:description;size:500;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (taskRecord) TableName() string {
	return "tasks"
}

func (r taskRecord) toDomain() domain.Task {
	return domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository returns a GORM/SQLite implementation of TaskRepository.
// The tasks table must already exist (see migrations.RunSQLite).
func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Insert(ctx context.Context, title, description string) (*domain.Task, error) {
	record := taskRecord{
		Title:       title,
		Description: description,
		CreatedAt:   domain.Now(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	task := record.toDomain()
	return &task, nil
}

func (r *taskRepository) Find(ctx context.Context, id int64) (*domain.Task, error) {
	var record taskRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	task := record.toDomain()
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	var records []taskRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, record.toDomain())
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id int64, title, description string) (*domain.Task, error) {
	var record taskRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTaskNotFound
			}
			return err
		}

		// a map keeps empty strings; struct updates would skip them
		if err := tx.Model(&record).Updates(map[string]interface{}{
			"title":       title,
			"description": description,
		}).Error; err != nil {
			return err
		}
		record.Title = title
		record.Description = description
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	task := record.toDomain()
	return &task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&taskRecord{}, "id = ?", id)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
