package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	"github.com/fastygo/todo/repository/repotest"
)

func newEngine(t *testing.T) *boltRepo.TaskRepository {
	t.Helper()
	engine, err := boltRepo.Open(filepath.Join(t.TempDir(), "tasks.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func setupRedis(t *testing.T) *redislib.Client {
	t.Helper()

	server := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

// hookedEngine runs afterRead once the wrapped engine has answered a read,
// before the decorator gets to fill the cache.
type hookedEngine struct {
	repository.TaskRepository
	afterRead func()
}

func (e *hookedEngine) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := e.TaskRepository.List(ctx)
	e.runHook()
	return tasks, err
}

func (e *hookedEngine) Find(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := e.TaskRepository.Find(ctx, id)
	e.runHook()
	return task, err
}

func (e *hookedEngine) runHook() {
	if hook := e.afterRead; hook != nil {
		e.afterRead = nil
		hook()
	}
}

func TestTaskRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.TaskRepository {
		return NewTaskRepository(newEngine(t), setupRedis(t), time.Minute, nil)
	})
}

func TestTaskRepository_ServesListFromCache(t *testing.T) {
	client := setupRedis(t)
	engine := newEngine(t)
	repo := NewTaskRepository(engine, client, time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "cached", "")
	require.NoError(t, err)

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// bypass the decorator: the cached list must not see this write
	_, err = engine.Insert(ctx, "behind the cache", "")
	require.NoError(t, err)

	tasks, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	// a write through the decorator invalidates
	_, err = repo.Update(ctx, created.ID, "renamed", "")
	require.NoError(t, err)

	tasks, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "renamed", tasks[0].Title)
}

func TestTaskRepository_DeleteInvalidatesFind(t *testing.T) {
	client := setupRedis(t)
	repo := NewTaskRepository(newEngine(t), client, time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "short lived", "")
	require.NoError(t, err)
	_, err = repo.Find(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Find(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_FallsThroughWhenRedisDown(t *testing.T) {
	client := redislib.NewClient(&redislib.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	repo := NewTaskRepository(newEngine(t), client, time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "still works", "")
	require.NoError(t, err)

	found, err := repo.Find(ctx, created.ID)
	require.NoError(t, err)
	repotest.AssertSameTask(t, *created, *found)

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.NoError(t, repo.Ping(ctx))
}

func TestTaskRepository_DeleteDuringListFillIsNotResurrected(t *testing.T) {
	engine := &hookedEngine{TaskRepository: newEngine(t)}
	repo := NewTaskRepository(engine, setupRedis(t), time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "doomed", "")
	require.NoError(t, err)

	engine.afterRead = func() {
		require.NoError(t, repo.Delete(ctx, created.ID))
	}

	// this read started before the delete and may still see the task
	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tasks, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_UpdateDuringFindFillIsNotLost(t *testing.T) {
	engine := &hookedEngine{TaskRepository: newEngine(t)}
	repo := NewTaskRepository(engine, setupRedis(t), time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "before", "")
	require.NoError(t, err)

	engine.afterRead = func() {
		_, err := repo.Update(ctx, created.ID, "after", "")
		require.NoError(t, err)
	}

	found, err := repo.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", found.Title)

	found, err = repo.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", found.Title)
}

func TestTaskRepository_FillsWhenUncontended(t *testing.T) {
	client := setupRedis(t)
	repo := NewTaskRepository(newEngine(t), client, time.Minute, nil)
	ctx := context.Background()

	created, err := repo.Insert(ctx, "warm", "")
	require.NoError(t, err)

	_, err = repo.Find(ctx, created.ID)
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.NoError(t, err)

	n, err := client.Exists(ctx, defaultPrefix+"list", defaultPrefix+"id:1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
