package doc

// Таксономия ошибок пайплайна разбора. Все четыре — фатальные:
// оркестратор не ретраит их, а переводит запрос в терминальную ошибку.

// ExtractionError — в сыром тексте не нашлось границы документа.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string { return "extraction failed: " + e.Reason }

// ParseError — границы нашлись, но содержимое не разбирается,
// и обрыв генерации не был заявлен (repair не применяется).
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "document parse failed: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// RepairFailure — обрыв был заявлен, ремонт попробовали, не вышло. Терминально.
type RepairFailure struct {
	Reason string
}

func (e *RepairFailure) Error() string { return "truncation repair failed: " + e.Reason }

// ValidationError — документ разобрался, но обязательная форма нарушена.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid document: field '" + e.Field + "': " + e.Reason
}
