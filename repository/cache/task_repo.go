// Package cache puts a Redis cache-aside layer in front of another TaskRepository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const defaultPrefix = "todo:tasks:"

var errStale = errors.New("cache generation changed")

type taskRepository struct {
	next   repository.TaskRepository
	client redislib.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaskRepository wraps next with a Redis read cache. Reads fall through to
// next on any cache error; writes go to next first and then invalidate.
//
// Every write bumps a generation counter together with the invalidation. A
// reader notes the generation before it reads next and fills the cache only
// if the generation is unchanged, so a snapshot taken before a write can
// never be written back after it.
func NewTaskRepository(next repository.TaskRepository, client redislib.UniversalClient, ttl time.Duration, logger *zap.Logger) repository.TaskRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskRepository{
		next:   next,
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *taskRepository) Insert(ctx context.Context, title, description string) (*domain.Task, error) {
	task, err := r.next.Insert(ctx, title, description)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, r.listKey())
	return task, nil
}

func (r *taskRepository) Find(ctx context.Context, id int64) (*domain.Task, error) {
	var cached domain.Task
	if r.load(ctx, r.taskKey(id), &cached) {
		return &cached, nil
	}

	gen, ok := r.generation(ctx)
	task, err := r.next.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.fill(ctx, gen, r.taskKey(id), task)
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	var cached []domain.Task
	if r.load(ctx, r.listKey(), &cached) && cached != nil {
		return cached, nil
	}

	gen, ok := r.generation(ctx)
	tasks, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.fill(ctx, gen, r.listKey(), tasks)
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id int64, title, description string) (*domain.Task, error) {
	task, err := r.next.Update(ctx, id, title, description)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, r.listKey(), r.taskKey(id))
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	err := r.next.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return err
	}
	r.invalidate(ctx, r.listKey(), r.taskKey(id))
	return err
}

// Ping reports the engine health only; the cache is optional.
func (r *taskRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *taskRepository) load(ctx context.Context, key string, dest interface{}) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// generation returns the current write generation; false when Redis cannot
// answer, in which case the caller must not fill.
func (r *taskRepository) generation(ctx context.Context) (string, bool) {
	gen, err := r.client.Get(ctx, r.genKey()).Result()
	if errors.Is(err, redislib.Nil) {
		return "0", true
	}
	if err != nil {
		r.logger.Warn("cache generation read failed", zap.Error(err))
		return "", false
	}
	return gen, true
}

// fill stores value under key only while the generation still equals gen.
// WATCH aborts the transaction if a write bumps it in between.
func (r *taskRepository) fill(ctx context.Context, gen, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	err = r.client.Watch(ctx, func(tx *redislib.Tx) error {
		current, err := tx.Get(ctx, r.genKey()).Result()
		if errors.Is(err, redislib.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, r.genKey())

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redislib.TxFailedErr):
		r.logger.Debug("cache fill skipped after concurrent write", zap.String("key", key))
	default:
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate bumps the generation and drops keys in one transaction.
func (r *taskRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Incr(ctx, r.genKey())
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		r.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (r *taskRepository) listKey() string {
	return r.prefix + "list"
}

func (r *taskRepository) genKey() string {
	return r.prefix + "gen"
}

func (r *taskRepository) taskKey(id int64) string {
	return r.prefix + "id:" + strconv.FormatInt(id, 10)
}
