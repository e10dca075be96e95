package gen

import (
	"context"
	"sort"

	"fabrika/internal/logger"
	"fabrika/internal/store"
)

// loadSeeds вставляет сид-строки best-effort: ошибка строки считается
// и логируется, но не останавливает остальные строки и таблицы.
// Возвращает число неудавшихся вставок.
func loadSeeds(ctx context.Context, st store.Store, log *logger.Logger, appID string, seed map[string][]map[string]any) int {
	tables := make([]string, 0, len(seed))
	for t := range seed {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	failed := 0
	for _, table := range tables {
		for i, row := range seed[table] {
			if _, err := st.InsertRow(ctx, appID, table, row); err != nil {
				failed++
				log.Warn("seed row rejected",
					"app", appID, "table", table, "row", i, "error", err.Error())
			}
		}
	}
	return failed
}
