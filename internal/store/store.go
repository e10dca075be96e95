package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"fabrika/internal/doc"

	"github.com/oklog/ulid/v2"
)

// ApplicationRecord — сохранённое приложение. Меняется только через
// пайплайн генерации/редактирования.
type ApplicationRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Markup      string    `json:"markup"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ошибки хранилища. ErrColumnExists и ErrTableExists — штатные для
// повторной reconciliation: вызывающий обязан их терпеть.
var (
	ErrAppNotFound   = errors.New("application not found")
	ErrTableNotFound = errors.New("table not found")
	ErrRowNotFound   = errors.New("row not found")
	ErrColumnExists  = errors.New("column already exists")
	ErrTableExists   = errors.New("table already exists")
)

// Store — явный репозиторий вместо глобальных реестров:
// идентификатор приложения везде передаётся ключом.
type Store interface {
	CreateApplication(ctx context.Context, app *ApplicationRecord) error
	GetApplication(ctx context.Context, appID string) (*ApplicationRecord, error)
	ListApplications(ctx context.Context) ([]*ApplicationRecord, error)
	UpdateMarkup(ctx context.Context, appID, markup string) error
	// DeleteApplication сносит приложение целиком: запись, схему, данные.
	// Используется как откат неудавшегося создания.
	DeleteApplication(ctx context.Context, appID string) error

	// Схема: только добавление, никаких drop/rename.
	CreateTables(ctx context.Context, appID string, tables []doc.TableDefinition) error
	AddColumn(ctx context.Context, appID, table string, col doc.ColumnDefinition) error
	GetSchema(ctx context.Context, appID string) ([]doc.TableDefinition, error)

	// Данные. Числовой id — неявная identity-колонка каждой таблицы.
	InsertRow(ctx context.Context, appID, table string, row map[string]any) (int64, error)
	ListRows(ctx context.Context, appID, table string, p ListParams) ([]map[string]any, error)
	GetRow(ctx context.Context, appID, table string, id int64) (map[string]any, error)
	UpdateRow(ctx context.Context, appID, table string, id int64, patch map[string]any) (map[string]any, error)
	DeleteRow(ctx context.Context, appID, table string, id int64) error
}

// ListParams — листинг строк: равенства по колонкам + пагинация.
type ListParams struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// PageSize нормализует лимит страницы: 50 по умолчанию, максимум 1000.
func (p ListParams) PageSize() int {
	if p.Limit <= 0 || p.Limit > 1000 {
		return 50
	}
	return p.Limit
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID выдаёт ULID для нового приложения.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
