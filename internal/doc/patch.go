package doc

import "strings"

// ApplyPatches применяет операции по порядку к тексту разметки.
// Замена всегда первого вхождения — search обязан быть уникален в документе
// по контракту с генератором. Любая ненайденная строка отменяет ВСЁ:
// наружу уходит либо полностью пропатченный текст, либо исходный без
// изменений (applied=false — это триггер fallback, не ошибка).
func ApplyPatches(markup string, ops []PatchOperation) (patched string, applied bool) {
	out := markup
	for _, op := range ops {
		if op.Search == "" || !strings.Contains(out, op.Search) {
			return markup, false
		}
		out = strings.Replace(out, op.Search, op.Replace, 1)
	}
	return out, true
}
