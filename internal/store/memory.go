package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fabrika/internal/doc"
)

// Memory — in-memory реализация Store: режим без БД и юнит-тесты.
type Memory struct {
	mu      sync.RWMutex
	apps    map[string]*ApplicationRecord
	schemas map[string][]doc.TableDefinition            // appID -> упорядоченные таблицы
	rows    map[string]map[string]map[int64]map[string]any // appID -> table -> id -> строка
	nextID  map[string]int64                            // "appID/table" -> счётчик identity
}

func NewMemory() *Memory {
	return &Memory{
		apps:    make(map[string]*ApplicationRecord),
		schemas: make(map[string][]doc.TableDefinition),
		rows:    make(map[string]map[string]map[int64]map[string]any),
		nextID:  make(map[string]int64),
	}
}

func (m *Memory) CreateApplication(_ context.Context, app *ApplicationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *app
	m.apps[app.ID] = &cp
	if m.rows[app.ID] == nil {
		m.rows[app.ID] = make(map[string]map[int64]map[string]any)
	}
	return nil
}

func (m *Memory) GetApplication(_ context.Context, appID string) (*ApplicationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[appID]
	if !ok {
		return nil, ErrAppNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *Memory) ListApplications(_ context.Context) ([]*ApplicationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ApplicationRecord, 0, len(m.apps))
	for _, app := range m.apps {
		cp := *app
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateMarkup(_ context.Context, appID, markup string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[appID]
	if !ok {
		return ErrAppNotFound
	}
	app.Markup = markup
	app.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) DeleteApplication(_ context.Context, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[appID]; !ok {
		return ErrAppNotFound
	}
	delete(m.apps, appID)
	delete(m.schemas, appID)
	delete(m.rows, appID)
	for key := range m.nextID {
		if strings.HasPrefix(key, appID+"/") {
			delete(m.nextID, key)
		}
	}
	return nil
}

func (m *Memory) CreateTables(_ context.Context, appID string, tables []doc.TableDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[appID]; !ok {
		return ErrAppNotFound
	}
	for _, t := range tables {
		if m.tableIndexLocked(appID, t.Name) >= 0 {
			// повторное описание существующей таблицы — молча пропускаем
			continue
		}
		cp := t
		cp.Columns = append([]doc.ColumnDefinition(nil), t.Columns...)
		m.schemas[appID] = append(m.schemas[appID], cp)
		if m.rows[appID] == nil {
			m.rows[appID] = make(map[string]map[int64]map[string]any)
		}
		m.rows[appID][t.Name] = make(map[int64]map[string]any)
	}
	return nil
}

func (m *Memory) AddColumn(_ context.Context, appID, table string, col doc.ColumnDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.tableIndexLocked(appID, table)
	if idx < 0 {
		return ErrTableNotFound
	}
	for _, c := range m.schemas[appID][idx].Columns {
		if c.Name == col.Name {
			return ErrColumnExists
		}
	}
	// порядок прежних колонок сохраняется, новая — в хвост
	m.schemas[appID][idx].Columns = append(m.schemas[appID][idx].Columns, col)
	return nil
}

func (m *Memory) GetSchema(_ context.Context, appID string) ([]doc.TableDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.apps[appID]; !ok {
		return nil, ErrAppNotFound
	}
	src := m.schemas[appID]
	out := make([]doc.TableDefinition, 0, len(src))
	for _, t := range src {
		cp := t
		cp.Columns = append([]doc.ColumnDefinition(nil), t.Columns...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *Memory) InsertRow(_ context.Context, appID, table string, row map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.tableIndexLocked(appID, table)
	if idx < 0 {
		return 0, ErrTableNotFound
	}
	norm, err := CoerceRow(m.schemas[appID][idx], row, true)
	if err != nil {
		return 0, err
	}
	key := appID + "/" + table
	m.nextID[key]++
	id := m.nextID[key]
	if m.rows[appID][table] == nil {
		m.rows[appID][table] = make(map[int64]map[string]any)
	}
	m.rows[appID][table][id] = norm
	return id, nil
}

func (m *Memory) ListRows(_ context.Context, appID, table string, p ListParams) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tableIndexLocked(appID, table) < 0 {
		return nil, ErrTableNotFound
	}

	ids := make([]int64, 0, len(m.rows[appID][table]))
	for id := range m.rows[appID][table] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		row := m.rows[appID][table][id]
		if !matchFilters(row, p.Filters) {
			continue
		}
		out = append(out, flattenRow(id, row))
	}

	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > len(out) {
		start = len(out)
	}
	end := start + p.PageSize()
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *Memory) GetRow(_ context.Context, appID, table string, id int64) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tableIndexLocked(appID, table) < 0 {
		return nil, ErrTableNotFound
	}
	row, ok := m.rows[appID][table][id]
	if !ok {
		return nil, ErrRowNotFound
	}
	return flattenRow(id, row), nil
}

func (m *Memory) UpdateRow(_ context.Context, appID, table string, id int64, patch map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.tableIndexLocked(appID, table)
	if idx < 0 {
		return nil, ErrTableNotFound
	}
	row, ok := m.rows[appID][table][id]
	if !ok {
		return nil, ErrRowNotFound
	}
	norm, err := CoerceRow(m.schemas[appID][idx], patch, false)
	if err != nil {
		return nil, err
	}
	for k, v := range norm {
		row[k] = v
	}
	return flattenRow(id, row), nil
}

func (m *Memory) DeleteRow(_ context.Context, appID, table string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tableIndexLocked(appID, table) < 0 {
		return ErrTableNotFound
	}
	if _, ok := m.rows[appID][table][id]; !ok {
		return ErrRowNotFound
	}
	delete(m.rows[appID][table], id)
	return nil
}

func (m *Memory) tableIndexLocked(appID, table string) int {
	for i, t := range m.schemas[appID] {
		if t.Name == table {
			return i
		}
	}
	return -1
}

func matchFilters(row map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		got, ok := row[k]
		if !ok {
			return false
		}
		if !strings.EqualFold(fmt.Sprintf("%v", got), want) {
			return false
		}
	}
	return true
}

// flattenRow — «плоский» вид строки: id рядом с пользовательскими колонками.
func flattenRow(id int64, row map[string]any) map[string]any {
	out := make(map[string]any, len(row)+1)
	out["id"] = id
	for k, v := range row {
		out[k] = v
	}
	return out
}
