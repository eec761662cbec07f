package task

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/infrastructure/migrations"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/repository"
	sqliteRepo "github.com/fastygo/todo/repository/sqlite"
	"github.com/fastygo/todo/repository/repotest"
)

func newSQLiteRepo(t *testing.T) repository.TaskRepository {
	t.Helper()

	db, err := sqliteInfra.Open(context.Background(), config.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "todo.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteInfra.Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, migrations.RunSQLite(sqlDB, nil))

	return sqliteRepo.NewTaskRepository(db)
}

func newUseCase(t *testing.T) (*UseCase, repository.TaskRepository) {
	t.Helper()
	repo := newSQLiteRepo(t)
	return New(repo, nil), repo
}

func requireEmpty(t *testing.T, repo repository.TaskRepository) {
	t.Helper()
	tasks, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTask(t *testing.T) {
	uc, repo := newUseCase(t)
	ctx := context.Background()

	before := time.Now()
	created, err := uc.CreateTask(ctx, "Buy milk", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "", created.Description)
	assert.False(t, created.CreatedAt.Before(before))

	tasks, err := uc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	repotest.AssertSameTask(t, *created, tasks[0])

	found, err := repo.Find(ctx, created.ID)
	require.NoError(t, err)
	repotest.AssertSameTask(t, *created, *found)
}

func TestCreateTask_TrimsTitle(t *testing.T) {
	uc, _ := newUseCase(t)

	created, err := uc.CreateTask(context.Background(), "  \tBuy milk \n", "  keep spacing  ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "  keep spacing  ", created.Description)
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		wantMessage string
	}{
		{name: "empty title", title: "", description: "desc", wantMessage: "title required"},
		{name: "blank title", title: "   ", description: "", wantMessage: "title required"},
		{name: "title too long", title: strings.Repeat("a", domain.MaxTitleLength+1), wantMessage: "title must be at most 200 characters"},
		{name: "description too long", title: "ok", description: strings.Repeat("d", domain.MaxDescriptionLength+1), wantMessage: "description must be at most 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newUseCase(t)

			created, err := uc.CreateTask(context.Background(), tt.title, tt.description)
			require.Error(t, err)
			assert.Nil(t, created)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, tt.wantMessage, err.Error())

			requireEmpty(t, repo)
		})
	}
}

func TestCreateTask_LengthLimitsAreInclusive(t *testing.T) {
	uc, _ := newUseCase(t)

	// multi-byte runes count as one character each
	title := strings.Repeat("é", domain.MaxTitleLength)
	description := strings.Repeat("ü", domain.MaxDescriptionLength)

	created, err := uc.CreateTask(context.Background(), "  "+title+"  ", description)
	require.NoError(t, err)
	assert.Equal(t, title, created.Title)
	assert.Equal(t, description, created.Description)
}

func TestListTasks_OrderedByID(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	for _, title := range []string{"zeta", "alpha", "mid"} {
		_, err := uc.CreateTask(ctx, title, "")
		require.NoError(t, err)
	}
	require.NoError(t, uc.DeleteTask(ctx, 2))
	_, err := uc.CreateTask(ctx, "last", "")
	require.NoError(t, err)

	tasks, err := uc.ListTasks(ctx)
	require.NoError(t, err)

	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
}

func TestUpdateTask(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "Buy milk", "")
	require.NoError(t, err)

	updated, err := uc.UpdateTask(ctx, created.ID, " Buy bread ", "2% milk")
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Buy bread", updated.Title)
	assert.Equal(t, "2% milk", updated.Description)

	wantBytes, err := created.CreatedAt.MarshalBinary()
	require.NoError(t, err)
	gotBytes, err := updated.CreatedAt.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, wantBytes, gotBytes)

	found, err := uc.GetTask(ctx, created.ID)
	require.NoError(t, err)
	repotest.AssertSameTask(t, *updated, *found)
}

func TestUpdateTask_Validation(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "original", "details")
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, created.ID, "   ", "changed")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = uc.UpdateTask(ctx, created.ID, "ok", strings.Repeat("x", domain.MaxDescriptionLength+1))
	assert.True(t, domain.IsValidation(err))

	found, err := uc.GetTask(ctx, created.ID)
	require.NoError(t, err)
	repotest.AssertSameTask(t, *created, *found)
}

func TestUpdateTask_Missing(t *testing.T) {
	uc, repo := newUseCase(t)

	updated, err := uc.UpdateTask(context.Background(), 42, "title", "desc")
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.False(t, domain.IsValidation(err))

	requireEmpty(t, repo)
}

func TestUpdateTask_ValidationBeforeLookup(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.UpdateTask(context.Background(), 42, "", "desc")
	assert.True(t, domain.IsValidation(err))
}

func TestDeleteTask(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	first, err := uc.CreateTask(ctx, "first", "")
	require.NoError(t, err)
	second, err := uc.CreateTask(ctx, "second", "")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteTask(ctx, first.ID))

	_, err = uc.GetTask(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	tasks, err := uc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	repotest.AssertSameTask(t, *second, tasks[0])
}

func TestDeleteTask_Idempotent(t *testing.T) {
	uc, repo := newUseCase(t)
	ctx := context.Background()

	assert.NoError(t, uc.DeleteTask(ctx, 99))
	requireEmpty(t, repo)

	created, err := uc.CreateTask(ctx, "once", "")
	require.NoError(t, err)
	assert.NoError(t, uc.DeleteTask(ctx, created.ID))
	assert.NoError(t, uc.DeleteTask(ctx, created.ID))
	requireEmpty(t, repo)
}

func TestScenario(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "Buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	_, err = uc.CreateTask(ctx, "", "desc")
	assert.EqualError(t, err, "title required")

	updated, err := uc.UpdateTask(ctx, 1, "Buy bread", "2% milk")
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	require.NoError(t, uc.DeleteTask(ctx, 1))
	_, err = uc.GetTask(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.NoError(t, uc.DeleteTask(ctx, 99))
	tasks, err := uc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// failingRepository simulates an engine that is down.
type failingRepository struct {
	repository.TaskRepository
	err error
}

func (f failingRepository) Insert(context.Context, string, string) (*domain.Task, error) {
	return nil, f.err
}

func (f failingRepository) Update(context.Context, int64, string, string) (*domain.Task, error) {
	return nil, f.err
}

func (f failingRepository) Delete(context.Context, int64) error {
	return f.err
}

func TestPersistenceFailuresPropagate(t *testing.T) {
	engineErr := errors.New("database is locked")
	uc := New(failingRepository{err: engineErr}, nil)
	ctx := context.Background()

	_, err := uc.CreateTask(ctx, "title", "")
	assert.ErrorIs(t, err, engineErr)
	assert.False(t, domain.IsValidation(err))

	_, err = uc.UpdateTask(ctx, 1, "title", "")
	assert.ErrorIs(t, err, engineErr)

	assert.ErrorIs(t, uc.DeleteTask(ctx, 1), engineErr)
}
