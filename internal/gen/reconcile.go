package gen

import (
	"context"
	"errors"
	"sort"

	"fabrika/internal/doc"
	"fabrika/internal/logger"
	"fabrika/internal/store"
)

// reconcileTables создаёт только таблицы, перечисленные в newTables.
// Документ может избыточно переописывать существующие таблицы — их
// определения игнорируются.
func reconcileTables(ctx context.Context, st store.Store, log *logger.Logger, appID string, d *doc.Document) error {
	if len(d.NewTables) == 0 {
		return nil
	}
	defs := make([]doc.TableDefinition, 0, len(d.NewTables))
	for _, name := range d.NewTables {
		def, ok := d.Table(name)
		if !ok {
			log.Warn("new table has no definition in document", "app", appID, "table", name)
			continue
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil
	}
	return st.CreateTables(ctx, appID, defs)
}

// reconcileColumns дописывает колонки к существующим таблицам.
// «Колонка уже есть» — штатно: reconciliation перезапускаема.
func reconcileColumns(ctx context.Context, st store.Store, log *logger.Logger, appID string, newColumns map[string][]doc.ColumnDefinition) error {
	tables := make([]string, 0, len(newColumns))
	for t := range newColumns {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, table := range tables {
		for _, col := range newColumns[table] {
			err := st.AddColumn(ctx, appID, table, col)
			if errors.Is(err, store.ErrColumnExists) {
				log.Debug("column already exists, skipping", "app", appID, "table", table, "column", col.Name)
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
