package pg

import (
	"fmt"
	"strconv"
	"strings"

	"fabrika/internal/doc"
)

// appSchema — имя Postgres-схемы приложения: app_<id в нижнем регистре>.
func appSchema(appID string) string {
	return "app_" + strings.ToLower(appID)
}

// sqlIdent закавычивает идентификатор. Имена уже прошли проверку
// формата, кавычки нужны от резервных слов (user, order и т.п.).
func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(schema, table string) string {
	return sqlIdent(schema) + "." + sqlIdent(table)
}

func mapType(t string) string {
	switch t {
	case doc.TypeInteger:
		return "bigint"
	case doc.TypeReal:
		return "double precision"
	case doc.TypeBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// defaultLiteral рендерит default-значение как SQL-литерал.
// Значения приходят из распарсенного JSON: string/float64/bool.
func defaultLiteral(colType string, v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch colType {
	case doc.TypeInteger:
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
	case doc.TypeReal:
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
	case doc.TypeBoolean:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), true
		}
	case doc.TypeText:
		if s, ok := v.(string); ok {
			return "'" + strings.ReplaceAll(s, "'", "''") + "'", true
		}
	}
	return "", false
}

func columnDDL(c doc.ColumnDefinition) string {
	var b strings.Builder
	b.WriteString(sqlIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(mapType(c.Type))
	if lit, ok := defaultLiteral(c.Type, c.Default); ok {
		b.WriteString(" default ")
		b.WriteString(lit)
	}
	if c.Required() {
		b.WriteString(" not null")
	}
	return b.String()
}

func createSchemaDDL(appID string) string {
	return "create schema if not exists " + sqlIdent(appSchema(appID))
}

func dropSchemaDDL(appID string) string {
	return "drop schema if exists " + sqlIdent(appSchema(appID)) + " cascade"
}

func createTableDDL(appID string, t doc.TableDefinition) string {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, "id bigint generated always as identity primary key")
	for _, c := range t.Columns {
		cols = append(cols, columnDDL(c))
	}
	return fmt.Sprintf("create table if not exists %s (\n  %s\n)",
		qualified(appSchema(appID), t.Name), strings.Join(cols, ",\n  "))
}

func addColumnDDL(appID, table string, c doc.ColumnDefinition) string {
	// not null для добавляемой колонки опускаем: в таблице могут быть
	// строки, и alter с not null без default их сломает.
	col := sqlIdent(c.Name) + " " + mapType(c.Type)
	if lit, ok := defaultLiteral(c.Type, c.Default); ok {
		col += " default " + lit
	}
	return fmt.Sprintf("alter table %s add column %s",
		qualified(appSchema(appID), table), col)
}
