package store

import (
	"strconv"
	"strings"

	"fabrika/internal/doc"
)

// Коды ошибок значений строки.
const (
	ErrCodeRequired     = "required"
	ErrCodeTypeMismatch = "type_mismatch"
	ErrCodeReadOnly     = "readonly_field"
	ErrCodeUnknownField = "unknown_field"
)

// RowError — ошибка значения конкретной колонки; API отдаёт её клиенту
// как {code, field, message}.
type RowError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *RowError) Error() string { return e.Field + ": " + e.Message }

func rerr(code, field, msg string) *RowError {
	return &RowError{Code: code, Field: field, Message: msg}
}

// CoerceRow валидирует и НОРМАЛИЗУЕТ строку под объявленные колонки таблицы.
// insert=true — подставляются default'ы и проверяются not null колонки;
// при обновлении проверяются только переданные значения.
func CoerceRow(table doc.TableDefinition, row map[string]any, insert bool) (map[string]any, error) {
	colByName := make(map[string]doc.ColumnDefinition, len(table.Columns))
	for _, c := range table.Columns {
		colByName[c.Name] = c
	}

	out := make(map[string]any, len(row))
	for name, val := range row {
		if name == "id" {
			// системная identity-колонка, клиент её не пишет
			return nil, rerr(ErrCodeReadOnly, "id", "Column 'id' is read-only")
		}
		col, ok := colByName[name]
		if !ok {
			return nil, rerr(ErrCodeUnknownField, name, "Unknown column '"+name+"'")
		}
		if val == nil {
			if col.Required() {
				return nil, rerr(ErrCodeRequired, name, "Column '"+name+"' must not be null")
			}
			out[name] = nil
			continue
		}
		norm, err := coerceValue(col.Type, val)
		if err != nil {
			return nil, rerr(ErrCodeTypeMismatch, name, "Column '"+name+"' "+err.Error())
		}
		out[name] = norm
	}

	if insert {
		for _, c := range table.Columns {
			if _, ok := out[c.Name]; ok {
				continue
			}
			if c.Default != nil {
				norm, err := coerceValue(c.Type, c.Default)
				if err == nil {
					out[c.Name] = norm
				}
				continue
			}
			if c.Required() {
				return nil, rerr(ErrCodeRequired, c.Name, "Column '"+c.Name+"' is required")
			}
		}
	}
	return out, nil
}

type typeError string

func (e typeError) Error() string { return string(e) }

func coerceValue(typ string, v any) (any, error) {
	switch typ {
	case doc.TypeText:
		return toTextStrict(v)
	case doc.TypeInteger:
		return toIntStrict(v)
	case doc.TypeReal:
		return toRealStrict(v)
	case doc.TypeBoolean:
		return toBoolStrict(v)
	default:
		// неизвестный тип в реестре — оставляем как есть
		return v, nil
	}
}

func toTextStrict(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", typeError("must be text")
}

func toIntStrict(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		// JSON-числа — float64, проверяем целостность
		if t != float64(int64(t)) {
			return 0, typeError("must be integer")
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, typeError("must be integer")
		}
		return n, nil
	default:
		return 0, typeError("must be integer")
	}
}

func toRealStrict(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, typeError("must be real")
		}
		return f, nil
	default:
		return 0, typeError("must be real")
	}
}

func toBoolStrict(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, typeError("must be boolean")
	default:
		return false, typeError("must be boolean")
	}
}
