package store

import (
	"context"
	"testing"
	"time"

	"fabrika/internal/doc"

	"github.com/stretchr/testify/require"
)

func falseP() *bool { b := false; return &b }
func trueP() *bool  { b := true; return &b }

func memWithApp(t *testing.T) (*Memory, string) {
	t.Helper()
	m := NewMemory()
	id := NewID()
	now := time.Now().UTC()
	require.NoError(t, m.CreateApplication(context.Background(), &ApplicationRecord{
		ID: id, Title: "Tasks", Markup: "<p></p>", CreatedAt: now, UpdatedAt: now,
	}))
	return m, id
}

var taskTable = doc.TableDefinition{
	Name: "tasks",
	Columns: []doc.ColumnDefinition{
		{Name: "title", Type: doc.TypeText, Nullable: falseP()},
		{Name: "done", Type: doc.TypeBoolean, Default: false},
		{Name: "weight", Type: doc.TypeReal, Nullable: trueP()},
	},
}

func TestMemoryApplications(t *testing.T) {
	m, id := memWithApp(t)
	ctx := context.Background()

	app, err := m.GetApplication(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Tasks", app.Title)

	_, err = m.GetApplication(ctx, "missing")
	require.ErrorIs(t, err, ErrAppNotFound)

	require.NoError(t, m.UpdateMarkup(ctx, id, "<main></main>"))
	app, _ = m.GetApplication(ctx, id)
	require.Equal(t, "<main></main>", app.Markup)
	require.ErrorIs(t, m.UpdateMarkup(ctx, "missing", "x"), ErrAppNotFound)

	apps, err := m.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
}

func TestMemorySchema(t *testing.T) {
	m, id := memWithApp(t)
	ctx := context.Background()

	require.NoError(t, m.CreateTables(ctx, id, []doc.TableDefinition{taskTable}))
	// повторное описание той же таблицы молча пропускается
	require.NoError(t, m.CreateTables(ctx, id, []doc.TableDefinition{taskTable}))

	schema, err := m.GetSchema(ctx, id)
	require.NoError(t, err)
	require.Len(t, schema, 1)
	require.Len(t, schema[0].Columns, 3)

	col := doc.ColumnDefinition{Name: "notes", Type: doc.TypeText}
	require.NoError(t, m.AddColumn(ctx, id, "tasks", col))
	require.ErrorIs(t, m.AddColumn(ctx, id, "tasks", col), ErrColumnExists)
	require.ErrorIs(t, m.AddColumn(ctx, id, "missing", col), ErrTableNotFound)

	schema, _ = m.GetSchema(ctx, id)
	// прежний порядок колонок сохранён, новая в хвосте
	require.Equal(t, "title", schema[0].Columns[0].Name)
	require.Equal(t, "notes", schema[0].Columns[3].Name)
}

func TestMemoryRows(t *testing.T) {
	m, id := memWithApp(t)
	ctx := context.Background()
	require.NoError(t, m.CreateTables(ctx, id, []doc.TableDefinition{taskTable}))

	rowID, err := m.InsertRow(ctx, id, "tasks", map[string]any{"title": "first"})
	require.NoError(t, err)
	require.Equal(t, int64(1), rowID)

	row, err := m.GetRow(ctx, id, "tasks", rowID)
	require.NoError(t, err)
	require.Equal(t, "first", row["title"])
	require.Equal(t, false, row["done"]) // default
	require.Equal(t, int64(1), row["id"])

	// not null нарушение
	_, err = m.InsertRow(ctx, id, "tasks", map[string]any{"done": true})
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	require.Equal(t, ErrCodeRequired, rowErr.Code)

	// обновление — merge переданных колонок
	row, err = m.UpdateRow(ctx, id, "tasks", rowID, map[string]any{"done": true})
	require.NoError(t, err)
	require.Equal(t, true, row["done"])
	require.Equal(t, "first", row["title"])

	_, err = m.UpdateRow(ctx, id, "tasks", 99, map[string]any{"done": true})
	require.ErrorIs(t, err, ErrRowNotFound)

	require.NoError(t, m.DeleteRow(ctx, id, "tasks", rowID))
	require.ErrorIs(t, m.DeleteRow(ctx, id, "tasks", rowID), ErrRowNotFound)

	// счётчик identity не переиспользует удалённые id
	nextID, err := m.InsertRow(ctx, id, "tasks", map[string]any{"title": "second"})
	require.NoError(t, err)
	require.Equal(t, int64(2), nextID)
}

func TestMemoryListRows(t *testing.T) {
	m, id := memWithApp(t)
	ctx := context.Background()
	require.NoError(t, m.CreateTables(ctx, id, []doc.TableDefinition{taskTable}))

	for _, title := range []string{"Alpha", "beta", "ALPHA"} {
		_, err := m.InsertRow(ctx, id, "tasks", map[string]any{"title": title})
		require.NoError(t, err)
	}

	rows, err := m.ListRows(ctx, id, "tasks", ListParams{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, int64(1), rows[0]["id"]) // сортировка по id

	// фильтры без учёта регистра
	rows, err = m.ListRows(ctx, id, "tasks", ListParams{Filters: map[string]string{"title": "alpha"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = m.ListRows(ctx, id, "tasks", ListParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0]["id"])

	_, err = m.ListRows(ctx, id, "missing", ListParams{})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestMemoryDeleteApplication(t *testing.T) {
	m, id := memWithApp(t)
	ctx := context.Background()
	require.NoError(t, m.CreateTables(ctx, id, []doc.TableDefinition{taskTable}))
	_, err := m.InsertRow(ctx, id, "tasks", map[string]any{"title": "x"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteApplication(ctx, id))
	require.ErrorIs(t, m.DeleteApplication(ctx, id), ErrAppNotFound)

	_, err = m.GetApplication(ctx, id)
	require.ErrorIs(t, err, ErrAppNotFound)
	_, err = m.GetSchema(ctx, id)
	require.ErrorIs(t, err, ErrAppNotFound)

	// счётчики identity не переживают удаление
	m.mu.RLock()
	require.Empty(t, m.nextID)
	m.mu.RUnlock()
}

func TestNewIDMonotonic(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 26)
	require.Less(t, a, b)
}
