package doc

import "regexp"

// Типы колонок, которые генератору разрешено объявлять.
const (
	TypeText    = "TEXT"
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeBoolean = "BOOLEAN"
)

// AppIDPlaceholder — литеральный токен в разметке, подставляется
// реальным идентификатором приложения перед сохранением.
const AppIDPlaceholder = "{{APP_ID}}"

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidIdent — имена таблиц и колонок: lowercase, цифры, underscore.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

func ValidType(t string) bool {
	switch t {
	case TypeText, TypeInteger, TypeReal, TypeBoolean:
		return true
	}
	return false
}

// ColumnDefinition — объявление колонки из сгенерированного документа.
// После создания не меняется: схема только дополняется.
// Nullable == nil означает «не указано» (читается как nullable).
type ColumnDefinition struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Nullable *bool       `json:"nullable,omitempty"`
	Default  interface{} `json:"default,omitempty"`
}

// Required — колонка явно объявлена not null.
func (c ColumnDefinition) Required() bool { return c.Nullable != nil && !*c.Nullable }

type TableDefinition struct {
	Name    string             `json:"name"`
	Columns []ColumnDefinition `json:"columns"`
}

// PatchOperation — точная замена search→replace в текущей разметке.
// Пустой Replace означает удаление фрагмента.
type PatchOperation struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// Document — распарсенный ответ генеративного сервиса.
type Document struct {
	Tables     []TableDefinition             `json:"tables"`
	Markup     string                        `json:"html"`
	SeedData   map[string][]map[string]any   `json:"seedData,omitempty"`
	NewTables  []string                      `json:"newTables,omitempty"`  // только edit-ответы
	NewColumns map[string][]ColumnDefinition `json:"newColumns,omitempty"` // только edit-ответы
	Patches    []PatchOperation              `json:"patches,omitempty"`    // только fast-diff ответы
}

// Table возвращает объявление таблицы по имени.
func (d *Document) Table(name string) (TableDefinition, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDefinition{}, false
}

// CheckNames валидирует идентификаторы и типы колонок.
// Вызывается перед любым обращением к хранилищу.
func (d *Document) CheckNames() error {
	for _, t := range d.Tables {
		if err := checkTable(t); err != nil {
			return err
		}
	}
	for _, name := range d.NewTables {
		if !ValidIdent(name) {
			return &ValidationError{Field: "newTables", Reason: "invalid table name '" + name + "'"}
		}
	}
	for table, cols := range d.NewColumns {
		if !ValidIdent(table) {
			return &ValidationError{Field: "newColumns", Reason: "invalid table name '" + table + "'"}
		}
		for _, c := range cols {
			if err := checkColumn(table, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTable(t TableDefinition) error {
	if !ValidIdent(t.Name) {
		return &ValidationError{Field: "tables", Reason: "invalid table name '" + t.Name + "'"}
	}
	for _, c := range t.Columns {
		if err := checkColumn(t.Name, c); err != nil {
			return err
		}
	}
	return nil
}

func checkColumn(table string, c ColumnDefinition) error {
	if !ValidIdent(c.Name) {
		return &ValidationError{
			Field:  "tables." + table,
			Reason: "invalid column name '" + c.Name + "'",
		}
	}
	if c.Name == "id" {
		// id — неявная системная колонка, генератор её не объявляет
		return &ValidationError{
			Field:  "tables." + table,
			Reason: "column 'id' is reserved",
		}
	}
	if !ValidType(c.Type) {
		return &ValidationError{
			Field:  "tables." + table + "." + c.Name,
			Reason: "unknown column type '" + c.Type + "' (allowed: TEXT|INTEGER|REAL|BOOLEAN)",
		}
	}
	return nil
}
