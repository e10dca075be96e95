package genai

import "context"

// Result — итог одного вызова генерации.
// Truncated выставляется, когда модель упёрлась в лимит токенов:
// текст в этом случае почти наверняка обрезан посреди JSON.
type Result struct {
	Text      string
	Truncated bool
}

// Client — генерация текста по паре system/user. onDelta (опционально)
// получает куски ответа по мере стриминга.
type Client interface {
	Generate(ctx context.Context, system, user string, onDelta func(delta string)) (Result, error)
}
