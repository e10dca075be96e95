package doc

import "strings"

// ExtractPayload выделяет JSON-подобный фрагмент из сырого ответа генератора:
// срезает code-fence обрамление, болтовню до первой '{' и хвост после последней '}'.
// complete=false — закрывающей скобки нет; это ожидаемо для оборванного ответа
// и означает «идём в repair», а не фатальную ошибку.
func ExtractPayload(raw string) (payload string, complete bool, err error) {
	s := stripFences(raw)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false, &ExtractionError{Reason: "no opening brace in response"}
	}
	s = s[start:]

	end := strings.LastIndexByte(s, '}')
	if end < 0 {
		return s, false, nil
	}
	return s[:end+1], true, nil
}

// stripFences убирает ведущий ```/```json и замыкающий ``` maркеры, если они есть.
func stripFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// срезаем всю первую строку: ``` или ```json
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		t := strings.TrimSpace(s)
		s = t[:len(t)-3]
	}
	return strings.TrimSpace(s)
}
