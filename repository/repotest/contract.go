// Package repotest holds the behavior every TaskRepository engine must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// Factory returns an empty repository. Cleanup should be registered on t.
type Factory func(t *testing.T) repository.TaskRepository

// Run exercises the full TaskRepository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("insert assigns id and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		before := time.Now().Add(-time.Millisecond)
		task, err := repo.Insert(ctx, "Buy milk", "")
		require.NoError(t, err)

		assert.Positive(t, task.ID)
		assert.Equal(t, "Buy milk", task.Title)
		assert.Equal(t, "", task.Description)
		assert.False(t, task.CreatedAt.Before(before.Truncate(time.Microsecond)))
	})

	t.Run("insert writes empty title verbatim", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		task, err := repo.Insert(ctx, "", "no title")
		require.NoError(t, err)

		found, err := repo.Find(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "", found.Title)
	})

	t.Run("timestamps are computed per insert", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Insert(ctx, "first", "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		second, err := repo.Insert(ctx, "second", "")
		require.NoError(t, err)

		assert.True(t, second.CreatedAt.After(first.CreatedAt))
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("find round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, "Round trip", "with description")
		require.NoError(t, err)

		found, err := repo.Find(ctx, created.ID)
		require.NoError(t, err)
		AssertSameTask(t, *created, *found)
	})

	t.Run("find missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Find(context.Background(), 404)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("list ordered by id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		for _, title := range []string{"c", "a", "b"} {
			_, err := repo.Insert(ctx, title, "")
			require.NoError(t, err)
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []string{"c", "a", "b"}, titles(tasks))
		for i := 1; i < len(tasks); i++ {
			assert.Less(t, tasks[i-1].ID, tasks[i].ID)
		}
	})

	t.Run("update keeps id and created_at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, "Buy milk", "")
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, "Buy bread", "2% milk")
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Buy bread", updated.Title)
		assert.Equal(t, "2% milk", updated.Description)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

		found, err := repo.Find(ctx, created.ID)
		require.NoError(t, err)
		AssertSameTask(t, *updated, *found)
	})

	t.Run("update can clear description", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Insert(ctx, "title", "details")
		require.NoError(t, err)

		_, err = repo.Update(ctx, created.ID, "title", "")
		require.NoError(t, err)

		found, err := repo.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "", found.Description)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Update(ctx, 99, "x", "y")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("delete removes exactly one", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		keep, err := repo.Insert(ctx, "keep", "")
		require.NoError(t, err)
		drop, err := repo.Insert(ctx, "drop", "")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, drop.ID))

		_, err = repo.Find(ctx, drop.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, keep.ID, tasks[0].ID)

		assert.ErrorIs(t, repo.Delete(ctx, drop.ID), domain.ErrTaskNotFound)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Insert(ctx, "first", "")
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, first.ID))

		second, err := repo.Insert(ctx, "second", "")
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Ping(context.Background()))
	})
}

// AssertSameTask compares two tasks field by field, using time.Equal for the timestamp.
func AssertSameTask(t *testing.T, want, got domain.Task) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}
