package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fabrika/internal/doc"
	"fabrika/internal/logger"
	"fabrika/internal/store"
)

// Store — Postgres-реализация store.Store. Каждое приложение живёт в
// своей схеме app_<id>, реестр приложений и их таблиц — в схеме fabrika.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

func New(db *sql.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// Init накатывает служебные таблицы. Перезапускаемо.
func (s *Store) Init(ctx context.Context) error {
	return ApplyDDL(ctx, s.db, s.log, map[string]string{
		"00_schema": `create schema if not exists fabrika`,
		"10_apps": `create table if not exists fabrika.apps (
  id text primary key,
  title text not null default '',
  description text not null default '',
  markup text not null default '',
  created_at timestamptz not null,
  updated_at timestamptz not null
)`,
		"20_app_tables": `create table if not exists fabrika.app_tables (
  app_id text not null references fabrika.apps(id),
  table_name text not null,
  position int not null,
  columns jsonb not null,
  primary key (app_id, table_name)
)`,
	})
}

func (s *Store) CreateApplication(ctx context.Context, app *store.ApplicationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`insert into fabrika.apps (id, title, description, markup, created_at, updated_at)
		 values ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.Title, app.Description, app.Markup, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return execDDL(ctx, s.db, s.log, createSchemaDDL(app.ID))
}

func (s *Store) GetApplication(ctx context.Context, appID string) (*store.ApplicationRecord, error) {
	var app store.ApplicationRecord
	err := s.db.QueryRowContext(ctx,
		`select id, title, description, markup, created_at, updated_at
		 from fabrika.apps where id = $1`, appID).
		Scan(&app.ID, &app.Title, &app.Description, &app.Markup, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAppNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *Store) ListApplications(ctx context.Context) ([]*store.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, markup, created_at, updated_at
		 from fabrika.apps order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.ApplicationRecord
	for rows.Next() {
		var app store.ApplicationRecord
		if err := rows.Scan(&app.ID, &app.Title, &app.Description, &app.Markup,
			&app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &app)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMarkup(ctx context.Context, appID, markup string) error {
	res, err := s.db.ExecContext(ctx,
		`update fabrika.apps set markup = $2, updated_at = now() where id = $1`,
		appID, markup)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return store.ErrAppNotFound
	}
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, appID string) error {
	if _, err := s.db.ExecContext(ctx,
		`delete from fabrika.app_tables where app_id = $1`, appID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `delete from fabrika.apps where id = $1`, appID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return store.ErrAppNotFound
	}
	if _, err := s.db.ExecContext(ctx, dropSchemaDDL(appID)); err != nil {
		return err
	}
	return nil
}

// loadSchema читает реестр таблиц приложения в исходном порядке.
func (s *Store) loadSchema(ctx context.Context, appID string) ([]doc.TableDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`select table_name, columns from fabrika.app_tables
		 where app_id = $1 order by position`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []doc.TableDefinition
	for rows.Next() {
		var (
			t    doc.TableDefinition
			cols []byte
		)
		if err := rows.Scan(&t.Name, &cols); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cols, &t.Columns); err != nil {
			return nil, fmt.Errorf("table %s: broken column registry: %w", t.Name, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) tableDef(ctx context.Context, appID, table string) (doc.TableDefinition, error) {
	defs, err := s.loadSchema(ctx, appID)
	if err != nil {
		return doc.TableDefinition{}, err
	}
	for _, t := range defs {
		if t.Name == table {
			return t, nil
		}
	}
	return doc.TableDefinition{}, store.ErrTableNotFound
}

func (s *Store) CreateTables(ctx context.Context, appID string, tables []doc.TableDefinition) error {
	if _, err := s.GetApplication(ctx, appID); err != nil {
		return err
	}
	existing, err := s.loadSchema(ctx, appID)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		known[t.Name] = struct{}{}
	}
	pos := len(existing)

	for _, t := range tables {
		if _, ok := known[t.Name]; ok {
			// повторное описание существующей таблицы — молча пропускаем
			continue
		}
		if err := execDDL(ctx, s.db, s.log, createTableDDL(appID, t)); err != nil {
			return err
		}
		cols, err := json.Marshal(t.Columns)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`insert into fabrika.app_tables (app_id, table_name, position, columns)
			 values ($1, $2, $3, $4)
			 on conflict (app_id, table_name) do nothing`,
			appID, t.Name, pos, cols); err != nil {
			return err
		}
		known[t.Name] = struct{}{}
		pos++
	}
	return nil
}

func (s *Store) AddColumn(ctx context.Context, appID, table string, col doc.ColumnDefinition) error {
	def, err := s.tableDef(ctx, appID, table)
	if err != nil {
		return err
	}
	for _, c := range def.Columns {
		if c.Name == col.Name {
			return store.ErrColumnExists
		}
	}
	if err := execDDL(ctx, s.db, s.log, addColumnDDL(appID, table, col)); err != nil {
		return err
	}
	cols, err := json.Marshal(append(def.Columns, col))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`update fabrika.app_tables set columns = $3 where app_id = $1 and table_name = $2`,
		appID, table, cols)
	return err
}

func (s *Store) GetSchema(ctx context.Context, appID string) ([]doc.TableDefinition, error) {
	if _, err := s.GetApplication(ctx, appID); err != nil {
		return nil, err
	}
	return s.loadSchema(ctx, appID)
}

func (s *Store) InsertRow(ctx context.Context, appID, table string, row map[string]any) (int64, error) {
	def, err := s.tableDef(ctx, appID, table)
	if err != nil {
		return 0, err
	}
	norm, err := store.CoerceRow(def, row, true)
	if err != nil {
		return 0, err
	}

	var id int64
	if len(norm) == 0 {
		err = s.db.QueryRowContext(ctx, fmt.Sprintf(
			"insert into %s default values returning id",
			qualified(appSchema(appID), table))).Scan(&id)
		return id, err
	}

	// порядок колонок — по схеме, ради стабильного SQL
	names := make([]string, 0, len(norm))
	args := make([]any, 0, len(norm))
	ph := make([]string, 0, len(norm))
	for _, c := range def.Columns {
		v, ok := norm[c.Name]
		if !ok {
			continue
		}
		names = append(names, sqlIdent(c.Name))
		args = append(args, v)
		ph = append(ph, fmt.Sprintf("$%d", len(args)))
	}
	q := fmt.Sprintf("insert into %s (%s) values (%s) returning id",
		qualified(appSchema(appID), table),
		strings.Join(names, ", "), strings.Join(ph, ", "))
	err = s.db.QueryRowContext(ctx, q, args...).Scan(&id)
	return id, err
}

func (s *Store) ListRows(ctx context.Context, appID, table string, p store.ListParams) ([]map[string]any, error) {
	def, err := s.tableDef(ctx, appID, table)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for name, want := range p.Filters {
		c, ok := columnByName(def, name)
		if !ok {
			// фильтр по несуществующей колонке ничему не соответствует
			return []map[string]any{}, nil
		}
		args = append(args, want)
		where = append(where, fmt.Sprintf("lower(%s::text) = lower($%d)",
			sqlIdent(c.Name), len(args)))
	}

	q := fmt.Sprintf("select %s from %s", selectList(def), qualified(appSchema(appID), table))
	if len(where) > 0 {
		q += " where " + strings.Join(where, " and ")
	}
	args = append(args, p.PageSize(), p.Offset)
	q += fmt.Sprintf(" order by id limit $%d offset $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		row, err := scanRow(rows, def)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) GetRow(ctx context.Context, appID, table string, id int64) (map[string]any, error) {
	def, err := s.tableDef(ctx, appID, table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"select %s from %s where id = $1",
		selectList(def), qualified(appSchema(appID), table)), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, store.ErrRowNotFound
	}
	return scanRow(rows, def)
}

func (s *Store) UpdateRow(ctx context.Context, appID, table string, id int64, patch map[string]any) (map[string]any, error) {
	def, err := s.tableDef(ctx, appID, table)
	if err != nil {
		return nil, err
	}
	norm, err := store.CoerceRow(def, patch, false)
	if err != nil {
		return nil, err
	}
	if len(norm) > 0 {
		var (
			sets []string
			args []any
		)
		for _, c := range def.Columns {
			v, ok := norm[c.Name]
			if !ok {
				continue
			}
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", sqlIdent(c.Name), len(args)))
		}
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, fmt.Sprintf(
			"update %s set %s where id = $%d",
			qualified(appSchema(appID), table), strings.Join(sets, ", "), len(args)), args...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, store.ErrRowNotFound
		}
	}
	return s.GetRow(ctx, appID, table, id)
}

func (s *Store) DeleteRow(ctx context.Context, appID, table string, id int64) error {
	if _, err := s.tableDef(ctx, appID, table); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"delete from %s where id = $1", qualified(appSchema(appID), table)), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrRowNotFound
	}
	return nil
}

func columnByName(def doc.TableDefinition, name string) (doc.ColumnDefinition, bool) {
	for _, c := range def.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return doc.ColumnDefinition{}, false
}

func selectList(def doc.TableDefinition) string {
	parts := make([]string, 0, len(def.Columns)+1)
	parts = append(parts, "id")
	for _, c := range def.Columns {
		parts = append(parts, sqlIdent(c.Name))
	}
	return strings.Join(parts, ", ")
}

// scanRow сканирует текущую строку rows в map, типизируя значения
// по объявленной схеме.
func scanRow(rows *sql.Rows, def doc.TableDefinition) (map[string]any, error) {
	var id int64
	targets := make([]any, 0, len(def.Columns)+1)
	targets = append(targets, &id)
	for _, c := range def.Columns {
		switch c.Type {
		case doc.TypeInteger:
			targets = append(targets, new(sql.NullInt64))
		case doc.TypeReal:
			targets = append(targets, new(sql.NullFloat64))
		case doc.TypeBoolean:
			targets = append(targets, new(sql.NullBool))
		default:
			targets = append(targets, new(sql.NullString))
		}
	}
	if err := rows.Scan(targets...); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(def.Columns)+1)
	out["id"] = id
	for i, c := range def.Columns {
		switch v := targets[i+1].(type) {
		case *sql.NullInt64:
			if v.Valid {
				out[c.Name] = v.Int64
			} else {
				out[c.Name] = nil
			}
		case *sql.NullFloat64:
			if v.Valid {
				out[c.Name] = v.Float64
			} else {
				out[c.Name] = nil
			}
		case *sql.NullBool:
			if v.Valid {
				out[c.Name] = v.Bool
			} else {
				out[c.Name] = nil
			}
		case *sql.NullString:
			if v.Valid {
				out[c.Name] = v.String
			} else {
				out[c.Name] = nil
			}
		}
	}
	return out, nil
}
