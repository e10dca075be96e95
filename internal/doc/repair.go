package doc

import (
	"encoding/json"
	"strings"
)

// Repair — синтаксический ремонт оборванного JSON: обрезаем текст до границы
// последнего полностью закрытого значения и дописываем закрыватели всех
// оставшихся открытых структур. Строковые литералы ремонт НЕ закрывает:
// обрыв внутри строки считается неремонтопригодным. Ремонт best-effort —
// частично выданная хвостовая таблица/колонка/строка сидов законно теряется.
func Repair(payload string) (string, error) {
	boundary, _, inString := scanState(payload)
	if inString {
		return "", &RepairFailure{Reason: "response truncated inside a string literal"}
	}
	if boundary == 0 {
		return "", &RepairFailure{Reason: "no complete value to recover"}
	}

	trimmed := strings.TrimRight(payload[:boundary], " \t\r\n")
	trimmed = strings.TrimSuffix(trimmed, ",")

	// повторный скан укороченного текста: какие структуры ещё открыты
	_, open, _ := scanState(trimmed)

	var b strings.Builder
	b.WriteString(trimmed)
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteByte(open[i])
	}
	out := b.String()

	if !json.Valid([]byte(out)) {
		return "", &RepairFailure{Reason: "still unparseable after closing open structures"}
	}
	return out, nil
}

// scanState — один проход слева направо: стек ожидаемых закрывателей,
// состояние «внутри строки» и escape-последовательностей.
// boundary — позиция сразу после последнего закрытого значения.
func scanState(s string) (boundary int, open []byte, inString bool) {
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if esc {
				esc = false
				continue
			}
			switch c {
			case '\\':
				esc = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			open = append(open, '}')
		case '[':
			open = append(open, ']')
		case '}', ']':
			if len(open) > 0 && open[len(open)-1] == c {
				open = open[:len(open)-1]
				boundary = i + 1
			}
			// несовпадающий закрыватель игнорируем — мусор генератора
		}
	}
	return boundary, open, inString
}
