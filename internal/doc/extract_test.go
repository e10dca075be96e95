package doc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPayload(t *testing.T) {
	payload, complete, err := ExtractPayload(`{"a": 1}`)
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, `{"a": 1}`, payload)
}

func TestExtractPayloadStripsFencesAndProse(t *testing.T) {
	raw := "Sure, here is the document:\n```json\n{\"a\": 1}\n```\nLet me know if you need changes."
	payload, complete, err := ExtractPayload(raw)
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, `{"a": 1}`, payload)
}

func TestExtractPayloadBareFence(t *testing.T) {
	payload, complete, err := ExtractPayload("```\n{\"a\": 1}\n```")
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, `{"a": 1}`, payload)
}

func TestExtractPayloadNoOpeningBrace(t *testing.T) {
	_, _, err := ExtractPayload("no json here")
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
}

func TestExtractPayloadNoClosingBrace(t *testing.T) {
	// обрыв без закрывающей скобки — не ошибка, кандидат на repair
	payload, complete, err := ExtractPayload(`{"a": [1, 2`)
	require.NoError(t, err)
	require.False(t, complete)
	require.Equal(t, `{"a": [1, 2`, payload)
}

func TestExtractPayloadTakesOuterBraces(t *testing.T) {
	payload, complete, err := ExtractPayload(`junk {"a": {"b": 1}} trailing`)
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, `{"a": {"b": 1}}`, payload)
}
