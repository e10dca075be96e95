package prompts

import (
	"fmt"
	"strings"

	"fabrika/internal/doc"
)

// Системные промпты трёх режимов генерации. Могут быть переопределены
// YAML-файлами из каталога промптов (см. LoadOverrides).

const createSystem = `You are an application generator. Given a plain-language description, design a small data-driven web application.

Respond with a single JSON object and nothing else:

{
  "tables": [
    {"name": "...", "columns": [
      {"name": "...", "type": "TEXT"|"INTEGER"|"REAL"|"BOOLEAN", "nullable": true|false, "default": ...}
    ]}
  ],
  "html": "...",
  "seedData": { "table_name": [ {"column": value, ...}, ... ] }
}

Rules:
- Table and column names: lowercase snake_case, starting with a letter.
- Never define a column named "id"; every table gets a numeric id automatically.
- "html" is a complete self-contained HTML document for the application UI.
- Wherever the markup needs the application identifier, write the literal token {{APP_ID}}.
- "seedData" is optional; include a few realistic example rows when they help.
- Output raw JSON only. No markdown fences, no commentary.`

const fullEditSystem = `You are modifying an existing generated application. You receive its current HTML markup, its current data schema, and a requested change.

Respond with a single JSON object and nothing else:

{
  "tables": [ ...full table definitions, existing and new... ],
  "html": "...",
  "newTables": ["names of tables that did not exist before"],
  "newColumns": { "existing_table": [ {"name": "...", "type": "..."} ] },
  "seedData": { "table_name": [ {...} ] }
}

Rules:
- "html" is the complete replacement markup, not a fragment.
- List in "newTables" only tables absent from the current schema; existing tables are never dropped or renamed.
- List in "newColumns" only columns absent from the named existing table.
- Never define a column named "id".
- Keep the literal token {{APP_ID}} wherever the markup needs the application identifier.
- Output raw JSON only. No markdown fences, no commentary.`

const fastDiffSystem = `You are making a small, targeted edit to an existing generated application. You receive its current HTML markup, its current data schema, and a requested change.

If the change is small and textual, respond with patches against the current markup:

{
  "patches": [ {"search": "...exact substring of the current markup...", "replace": "..."} ],
  "newColumns": { "existing_table": [ {"name": "...", "type": "..."} ] },
  "seedData": { "table_name": [ {...} ] }
}

Rules:
- Every "search" string must appear verbatim in the current markup, exactly once.
- Patches are applied in order, each replacing the first occurrence.
- "newColumns" and "seedData" are optional; use them only when the change needs schema or data additions.
- Never define a column named "id". Tables cannot be added in this mode.
- Output raw JSON only. No markdown fences, no commentary.`

// CreateUser формирует user-сообщение для создания приложения.
func CreateUser(description string) string {
	return "Build this application:\n\n" + strings.TrimSpace(description)
}

// EditUser формирует user-сообщение для обоих режимов редактирования:
// текущая разметка, текстовый дамп схемы и описание изменения.
func EditUser(markup string, schema []doc.TableDefinition, change string) string {
	var b strings.Builder
	b.WriteString("Current markup:\n\n")
	b.WriteString(markup)
	b.WriteString("\n\nCurrent schema:\n\n")
	b.WriteString(RenderSchema(schema))
	b.WriteString("\nRequested change:\n\n")
	b.WriteString(strings.TrimSpace(change))
	return b.String()
}

// RenderSchema — человекочитаемый дамп схемы для промпта.
func RenderSchema(schema []doc.TableDefinition) string {
	if len(schema) == 0 {
		return "(no tables)\n"
	}
	var b strings.Builder
	for _, t := range schema {
		fmt.Fprintf(&b, "table %s:\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s %s", c.Name, c.Type)
			if c.Required() {
				b.WriteString(" not null")
			}
			if c.Default != nil {
				fmt.Fprintf(&b, " default %v", c.Default)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
