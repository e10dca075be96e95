package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fabrika/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE-коды «объект уже существует». Reconciliation аддитивна и
// перезапускаема, поэтому такие ошибки при DDL — штатные.
var duplicateStates = map[string]struct{}{
	"42710": {}, // duplicate_object
	"42P07": {}, // duplicate_table
	"42701": {}, // duplicate_column
	"42P06": {}, // duplicate_schema
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := duplicateStates[pgErr.Code]; ok {
			return true
		}
	}
	// подстраховка по фразе (на случай других объектов)
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "already exists") || strings.Contains(e, "duplicate")
}

// execDDL выполняет один idempotent DDL-стейтмент, терпя duplicate-ошибки.
func execDDL(ctx context.Context, db *sql.DB, log *logger.Logger, sqlText string) error {
	if _, err := db.ExecContext(ctx, sqlText); err != nil {
		if isDuplicate(err) {
			log.Debug("DDL skipped (already exists)", "error", err.Error())
			return nil
		}
		return fmt.Errorf("DDL apply failed: %w", err)
	}
	return nil
}

// ApplyDDL выполняет map[name]sql в стабильном порядке ключей.
// Ожидается idempotent DDL (create ... if not exists).
func ApplyDDL(ctx context.Context, db *sql.DB, log *logger.Logger, ddl map[string]string) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if err := execDDL(ctx, db, log, sqlText); err != nil {
			return err
		}
	}
	return nil
}
