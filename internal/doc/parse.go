package doc

import (
	"encoding/json"
	"fmt"
)

// ParseDocument прогоняет сырой ответ через extract → parse → (repair) → validate
// для create/full-edit режимов: обязательны tables и html.
// truncated — сигнал от генеративного сервиса, что вывод оборван по лимиту длины;
// только при нём допустим repair.
func ParseDocument(raw string, truncated bool) (*Document, error) {
	obj, err := parsePayload(raw, truncated)
	if err != nil {
		return nil, err
	}
	return buildDocument(obj, false)
}

// ParsePatchDocument — то же для fast-diff режима: обязателен список patches,
// tables/html не требуются.
func ParsePatchDocument(raw string, truncated bool) (*Document, error) {
	obj, err := parsePayload(raw, truncated)
	if err != nil {
		return nil, err
	}
	return buildDocument(obj, true)
}

func parsePayload(raw string, truncated bool) (map[string]any, error) {
	payload, _, err := ExtractPayload(raw)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if uErr := json.Unmarshal([]byte(payload), &obj); uErr != nil {
		if !truncated {
			// границы нашлись, но содержимое кривое и обрыва не было — фатально
			return nil, &ParseError{Err: uErr}
		}
		repaired, rErr := Repair(payload)
		if rErr != nil {
			return nil, rErr
		}
		if uErr2 := json.Unmarshal([]byte(repaired), &obj); uErr2 != nil {
			return nil, &RepairFailure{Reason: uErr2.Error()}
		}
	}
	return obj, nil
}

// buildDocument проверяет минимальную обязательную форму и собирает Document.
// Содержимое разметки дальше не проверяется — за runtime-безопасность
// отвечают потребители.
func buildDocument(obj map[string]any, patchMode bool) (*Document, error) {
	d := &Document{}

	if patchMode {
		rawPatches, ok := obj["patches"]
		if !ok {
			return nil, &ValidationError{Field: "patches", Reason: "missing"}
		}
		patches, err := asPatches(rawPatches)
		if err != nil {
			return nil, err
		}
		d.Patches = patches
	} else {
		rawTables, ok := obj["tables"]
		if !ok {
			return nil, &ValidationError{Field: "tables", Reason: "missing"}
		}
		tables, err := asTables(rawTables)
		if err != nil {
			return nil, err
		}
		d.Tables = tables

		rawMarkup, ok := obj["html"]
		if !ok {
			return nil, &ValidationError{Field: "html", Reason: "missing"}
		}
		markup, ok := rawMarkup.(string)
		if !ok {
			return nil, &ValidationError{Field: "html", Reason: "must be a string"}
		}
		d.Markup = markup
	}

	if raw, ok := obj["seedData"]; ok {
		seed, err := asSeedData(raw)
		if err != nil {
			return nil, err
		}
		d.SeedData = seed
	}
	if raw, ok := obj["newTables"]; ok {
		names, err := asStringList("newTables", raw)
		if err != nil {
			return nil, err
		}
		d.NewTables = names
	}
	if raw, ok := obj["newColumns"]; ok {
		cols, err := asNewColumns(raw)
		if err != nil {
			return nil, err
		}
		d.NewColumns = cols
	}

	return d, nil
}

func asTables(v any) ([]TableDefinition, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Field: "tables", Reason: "must be a list"}
	}
	out := make([]TableDefinition, 0, len(list))
	for i, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("tables[%d]", i), Reason: "must be an object"}
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("tables[%d].name", i), Reason: "missing or empty"}
		}
		rawCols, ok := m["columns"]
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("tables[%d].columns", i), Reason: "missing"}
		}
		cols, err := asColumns(fmt.Sprintf("tables[%d].columns", i), rawCols)
		if err != nil {
			return nil, err
		}
		out = append(out, TableDefinition{Name: name, Columns: cols})
	}
	return out, nil
}

func asColumns(field string, v any) ([]ColumnDefinition, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "must be a list"}
	}
	out := make([]ColumnDefinition, 0, len(list))
	for i, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "must be an object"}
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		if name == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d].name", field, i), Reason: "missing or empty"}
		}
		col := ColumnDefinition{Name: name, Type: typ}
		if nb, ok := m["nullable"].(bool); ok {
			col.Nullable = &nb
		}
		if def, ok := m["default"]; ok {
			col.Default = def
		}
		out = append(out, col)
	}
	return out, nil
}

func asSeedData(v any) (map[string][]map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "seedData", Reason: "must be an object keyed by table name"}
	}
	out := make(map[string][]map[string]any, len(m))
	for table, rawRows := range m {
		rows, ok := rawRows.([]any)
		if !ok {
			return nil, &ValidationError{Field: "seedData." + table, Reason: "must be a list of row objects"}
		}
		conv := make([]map[string]any, 0, len(rows))
		for i, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				return nil, &ValidationError{Field: fmt.Sprintf("seedData.%s[%d]", table, i), Reason: "must be an object"}
			}
			conv = append(conv, row)
		}
		out[table] = conv
	}
	return out, nil
}

func asNewColumns(v any) (map[string][]ColumnDefinition, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "newColumns", Reason: "must be an object keyed by table name"}
	}
	out := make(map[string][]ColumnDefinition, len(m))
	for table, rawCols := range m {
		cols, err := asColumns("newColumns."+table, rawCols)
		if err != nil {
			return nil, err
		}
		out[table] = cols
	}
	return out, nil
}

func asStringList(field string, v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "must be a list"}
	}
	out := make([]string, 0, len(list))
	for i, it := range list {
		s, ok := it.(string)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "must be a string"}
		}
		out = append(out, s)
	}
	return out, nil
}

func asPatches(v any) ([]PatchOperation, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Field: "patches", Reason: "must be a list"}
	}
	out := make([]PatchOperation, 0, len(list))
	for i, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("patches[%d]", i), Reason: "must be an object"}
		}
		search, _ := m["search"].(string)
		if search == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("patches[%d].search", i), Reason: "missing or empty"}
		}
		replace, _ := m["replace"].(string)
		out = append(out, PatchOperation{Search: search, Replace: replace})
	}
	return out, nil
}
