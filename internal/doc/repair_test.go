package doc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepairClosesOpenStructures(t *testing.T) {
	repaired, err := Repair(`{"tables": [{"name": "a", "columns": []}`)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(repaired)))

	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
	tables := obj["tables"].([]any)
	require.Len(t, tables, 1)
}

func TestRepairDropsPartialTrailingValue(t *testing.T) {
	// второй элемент оборван посреди объекта — выживает только первый
	repaired, err := Repair(`{"rows": [{"a": 1}, {"b":`)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
	rows := obj["rows"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, float64(1), rows[0].(map[string]any)["a"])
}

func TestRepairStripsTrailingComma(t *testing.T) {
	repaired, err := Repair(`{"rows": [{"a": 1},`)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(repaired)))
}

func TestRepairNeverClosesStringLiterals(t *testing.T) {
	// обрыв внутри строкового литерала неремонтопригоден: ремонт закрывает
	// только структурные скобки, никогда — строки
	_, err := Repair(`{"rows": [{"task": "buy mi`)
	var repErr *RepairFailure
	require.ErrorAs(t, err, &repErr)
}

func TestRepairNothingRecoverable(t *testing.T) {
	_, err := Repair(`{"a": 1, "b": 2`)
	var repErr *RepairFailure
	require.ErrorAs(t, err, &repErr)
}

func TestRepairEscapedQuotesInsideStrings(t *testing.T) {
	repaired, err := Repair(`{"rows": [{"a": "say \"hi\" {ok]"}, {"b":`)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
	rows := obj["rows"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, `say "hi" {ok]`, rows[0].(map[string]any)["a"])
}

func TestRepairSubsetProperty(t *testing.T) {
	// префиксы валидного документа, обрезанные по границе скобок,
	// чинятся в подмножество исходной структуры
	full := `{"tables": [{"name": "todos", "columns": [{"name": "task", "type": "TEXT"}]}], "html": "<p></p>"}`
	for _, cut := range []int{len(full) - 1, strings.Index(full, `, "html"`)} {
		repaired, err := Repair(full[:cut])
		require.NoError(t, err, "cut at %d", cut)

		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(repaired), &obj))
		// никаких сфабрикованных ключей
		for k := range obj {
			require.Contains(t, []string{"tables", "html"}, k)
		}
	}
}
