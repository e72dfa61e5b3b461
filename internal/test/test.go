package test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"botsub/internal/db"
)

// MockTaskEnqueuer is a mock implementation of tasks.TaskEnqueuer for testing.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
	Err           error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

// NewMockStore returns a store backed by sqlmock with postgres placeholders.
func NewMockStore(t *testing.T) (*db.Store, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })

	return db.NewStore(sqlx.NewDb(mockDb, db.DriverPostgres), zerolog.Nop()), mock
}

// NewSQLiteStore returns a bootstrapped store on a private in-memory database.
func NewSQLiteStore(t *testing.T) *db.Store {
	conn, err := db.Connect(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	store := db.NewStore(conn, zerolog.Nop())
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrapping sqlite: %v", err)
	}
	return store
}

// Seed creates categories and subscribes users to them. members maps a
// category to its users.
func Seed(t *testing.T, store *db.Store, members map[string][]string, categories ...string) {
	ctx := context.Background()
	for _, category := range categories {
		if _, err := store.Create(ctx, category); err != nil {
			t.Fatalf("creating %q: %v", category, err)
		}
	}
	for category, users := range members {
		for _, user := range users {
			if err := store.Subscribe(ctx, user, category); err != nil {
				t.Fatalf("subscribing %s to %q: %v", user, category, err)
			}
		}
	}
}
