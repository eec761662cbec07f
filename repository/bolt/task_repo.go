package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

var tasksBucket = []byte("tasks")

// TaskRepository keeps tasks in a single bbolt bucket keyed by big-endian id,
// so cursor order is id order. Ids come from the bucket sequence and are
// never handed out twice.
type TaskRepository struct {
	db *bolt.DB
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

// Open initializes the bbolt file and ensures the bucket exists.
func Open(path string) (*TaskRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tasksBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &TaskRepository{db: db}, nil
}

func (r *TaskRepository) Insert(_ context.Context, title, description string) (*domain.Task, error) {
	task := domain.Task{
		Title:       title,
		Description: description,
		CreatedAt:   domain.Now(),
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tasksBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		task.ID = int64(seq)
		return put(b, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) Find(_ context.Context, id int64) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		task, err = get(tx.Bucket(tasksBucket), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) List(_ context.Context) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tasksBucket).ForEach(func(_, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(_ context.Context, id int64, title, description string) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tasksBucket)
		var err error
		task, err = get(b, id)
		if err != nil {
			return err
		}
		task.Title = title
		task.Description = description
		return put(b, *task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Delete(_ context.Context, id int64) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tasksBucket)
		k := key(id)
		if b.Get(k) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete(k)
	})
}

func (r *TaskRepository) Ping(_ context.Context) error {
	if r == nil || r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(tasksBucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

// Close closes the bbolt database.
func (r *TaskRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func get(b *bolt.Bucket, id int64) (*domain.Task, error) {
	v := b.Get(key(id))
	if v == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(v, &task); err != nil {
		return nil, fmt.Errorf("decode task %d: %w", id, err)
	}
	return &task, nil
}

func put(b *bolt.Bucket, task domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.Put(key(task.ID), payload)
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
