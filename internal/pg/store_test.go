package pg

import (
	"context"
	"testing"
	"time"

	"fabrika/internal/doc"
	"fabrika/internal/logger"
	"fabrika/internal/store"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func falseP() *bool { b := false; return &b }
func trueP() *bool  { b := true; return &b }

func startPostgres(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fabrika"),
		tcpostgres.WithUsername("fabrika"),
		tcpostgres.WithPassword("fabrika"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db, logger.NewNop())
	require.NoError(t, s.Init(ctx))
	return s
}

func newApp(t *testing.T, s *Store, ctx context.Context) string {
	t.Helper()
	id := store.NewID()
	now := time.Now().UTC()
	require.NoError(t, s.CreateApplication(ctx, &store.ApplicationRecord{
		ID: id, Title: "Tasks", Description: "task tracker",
		Markup: "<div></div>", CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

var tasksTable = doc.TableDefinition{
	Name: "tasks",
	Columns: []doc.ColumnDefinition{
		{Name: "title", Type: doc.TypeText, Nullable: falseP()},
		{Name: "done", Type: doc.TypeBoolean, Default: false},
		{Name: "priority", Type: doc.TypeInteger, Nullable: trueP()},
	},
}

func TestStorePostgres(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()

	t.Run("application lifecycle", func(t *testing.T) {
		id := newApp(t, s, ctx)

		app, err := s.GetApplication(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Tasks", app.Title)

		require.NoError(t, s.UpdateMarkup(ctx, id, "<main></main>"))
		app, err = s.GetApplication(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "<main></main>", app.Markup)

		_, err = s.GetApplication(ctx, "01JUNKJUNKJUNKJUNKJUNKJUNK")
		require.ErrorIs(t, err, store.ErrAppNotFound)

		all, err := s.ListApplications(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, all)
	})

	t.Run("create tables is idempotent", func(t *testing.T) {
		id := newApp(t, s, ctx)
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))
		// повторный вызов с той же таблицей ничего не ломает
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))

		schema, err := s.GetSchema(ctx, id)
		require.NoError(t, err)
		require.Len(t, schema, 1)
		require.Equal(t, "tasks", schema[0].Name)
		require.Len(t, schema[0].Columns, 3)
	})

	t.Run("add column", func(t *testing.T) {
		id := newApp(t, s, ctx)
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))

		col := doc.ColumnDefinition{Name: "notes", Type: doc.TypeText}
		require.NoError(t, s.AddColumn(ctx, id, "tasks", col))
		require.ErrorIs(t, s.AddColumn(ctx, id, "tasks", col), store.ErrColumnExists)
		require.ErrorIs(t, s.AddColumn(ctx, id, "nope", col), store.ErrTableNotFound)

		schema, err := s.GetSchema(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "notes", schema[0].Columns[3].Name)
	})

	t.Run("row crud", func(t *testing.T) {
		id := newApp(t, s, ctx)
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))

		rowID, err := s.InsertRow(ctx, id, "tasks", map[string]any{"title": "write report"})
		require.NoError(t, err)
		require.Equal(t, int64(1), rowID)

		row, err := s.GetRow(ctx, id, "tasks", rowID)
		require.NoError(t, err)
		require.Equal(t, "write report", row["title"])
		require.Equal(t, false, row["done"]) // default применился
		require.Nil(t, row["priority"])

		// not null без значения — ошибка валидации, не SQL-ошибка
		_, err = s.InsertRow(ctx, id, "tasks", map[string]any{"done": true})
		require.Error(t, err)

		row, err = s.UpdateRow(ctx, id, "tasks", rowID, map[string]any{"done": true, "priority": 2})
		require.NoError(t, err)
		require.Equal(t, true, row["done"])
		require.Equal(t, int64(2), row["priority"])

		_, err = s.UpdateRow(ctx, id, "tasks", 999, map[string]any{"done": true})
		require.ErrorIs(t, err, store.ErrRowNotFound)

		require.NoError(t, s.DeleteRow(ctx, id, "tasks", rowID))
		require.ErrorIs(t, s.DeleteRow(ctx, id, "tasks", rowID), store.ErrRowNotFound)
	})

	t.Run("delete application", func(t *testing.T) {
		id := newApp(t, s, ctx)
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))
		_, err := s.InsertRow(ctx, id, "tasks", map[string]any{"title": "x"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteApplication(ctx, id))
		require.ErrorIs(t, s.DeleteApplication(ctx, id), store.ErrAppNotFound)

		_, err = s.GetApplication(ctx, id)
		require.ErrorIs(t, err, store.ErrAppNotFound)
		_, err = s.GetSchema(ctx, id)
		require.ErrorIs(t, err, store.ErrAppNotFound)
	})

	t.Run("list rows with filters", func(t *testing.T) {
		id := newApp(t, s, ctx)
		require.NoError(t, s.CreateTables(ctx, id, []doc.TableDefinition{tasksTable}))

		for _, title := range []string{"alpha", "beta", "gamma"} {
			_, err := s.InsertRow(ctx, id, "tasks", map[string]any{"title": title})
			require.NoError(t, err)
		}
		_, err := s.InsertRow(ctx, id, "tasks", map[string]any{"title": "beta", "done": true})
		require.NoError(t, err)

		rows, err := s.ListRows(ctx, id, "tasks", store.ListParams{})
		require.NoError(t, err)
		require.Len(t, rows, 4)
		require.Equal(t, int64(1), rows[0]["id"]) // порядок по id

		rows, err = s.ListRows(ctx, id, "tasks", store.ListParams{
			Filters: map[string]string{"title": "BETA"}, // фильтр без учёта регистра
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		rows, err = s.ListRows(ctx, id, "tasks", store.ListParams{
			Filters: map[string]string{"title": "beta", "done": "true"},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)

		rows, err = s.ListRows(ctx, id, "tasks", store.ListParams{
			Filters: map[string]string{"ghost": "x"},
		})
		require.NoError(t, err)
		require.Empty(t, rows)

		rows, err = s.ListRows(ctx, id, "tasks", store.ListParams{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, int64(2), rows[0]["id"])
	})
}
