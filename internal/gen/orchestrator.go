package gen

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fabrika/internal/doc"
	"fabrika/internal/genai"
	"fabrika/internal/logger"
	"fabrika/internal/prompts"
	"fabrika/internal/store"
)

// Orchestrator гоняет пайплайны создания и редактирования приложений:
// генерация → извлечение/починка/разбор → валидация имён → reconciliation
// схемы → сиды → разметка. На приложение — один пайплайн за раз.
type Orchestrator struct {
	store    store.Store
	ai       genai.Client
	prompts  prompts.Set
	log      *logger.Logger
	locks    *appLocks
	notifier *Notifier
}

func New(st store.Store, ai genai.Client, ps prompts.Set, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    st,
		ai:       ai,
		prompts:  ps,
		log:      log,
		locks:    newAppLocks(),
		notifier: NewNotifier(64),
	}
}

// Progress — поток событий пайплайнов для внешнего наблюдателя.
func (o *Orchestrator) Progress() <-chan Event { return o.notifier.Events() }

type CreateRequest struct {
	Title       string
	Description string
}

// EditResult — итог одного edit-запроса.
type EditResult struct {
	App          *store.ApplicationRecord
	UsedFallback bool
	SeedFailures int
}

// генерация с прогресс-событиями примерно раз в 2КБ принятого текста
func (o *Orchestrator) generate(ctx context.Context, appID, system, user string) (genai.Result, error) {
	o.notifier.Publish(Event{AppID: appID, Stage: StageGenerating})
	var received int
	lastNotified := 0
	res, err := o.ai.Generate(ctx, system, user, func(delta string) {
		received += len(delta)
		if received-lastNotified >= 2048 {
			lastNotified = received
			o.notifier.Publish(Event{AppID: appID, Stage: StageGenerating,
				Detail: "received " + strconv.Itoa(received) + " bytes"})
		}
	})
	return res, err
}

// Create выполняет полный пайплайн создания. Фатальная ошибка до первой
// записи оставляет хранилище нетронутым — у запроса создания нет fallback.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (*store.ApplicationRecord, error) {
	appID := store.NewID()
	unlock := o.locks.acquire(appID)
	defer unlock()

	started := time.Now()
	o.log.Info("create pipeline started", "app", appID)

	res, err := o.generate(ctx, appID, o.prompts.Create, prompts.CreateUser(req.Description))
	if err != nil {
		return nil, o.fail(appID, err)
	}

	d, err := doc.ParseDocument(res.Text, res.Truncated)
	if err != nil {
		return nil, o.fail(appID, err)
	}
	if err := d.CheckNames(); err != nil {
		return nil, o.fail(appID, err)
	}

	o.notifier.Publish(Event{AppID: appID, Stage: StagePersisting})
	now := time.Now().UTC()
	app := &store.ApplicationRecord{
		ID:          appID,
		Title:       titleFor(req),
		Description: req.Description,
		Markup:      strings.ReplaceAll(d.Markup, doc.AppIDPlaceholder, appID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.store.CreateApplication(ctx, app); err != nil {
		return nil, o.fail(appID, err)
	}
	if err := o.store.CreateTables(ctx, appID, d.Tables); err != nil {
		// фатальная ошибка после вставки записи: откатываем, чтобы не
		// оставить частичное приложение без таблиц
		if dErr := o.store.DeleteApplication(ctx, appID); dErr != nil {
			o.log.Error("rollback after failed table creation failed",
				"app", appID, "error", dErr.Error())
		}
		return nil, o.fail(appID, err)
	}
	if failed := loadSeeds(ctx, o.store, o.log, appID, d.SeedData); failed > 0 {
		o.log.Warn("seed loading finished with failures", "app", appID, "failed", failed)
	}

	o.notifier.Publish(Event{AppID: appID, Stage: StageComplete})
	o.log.Info("create pipeline finished", "app", appID,
		"tables", len(d.Tables), "elapsed", time.Since(started).String())
	return app, nil
}

// Edit выполняет двухфазный протокол редактирования: быстрая попытка
// патчами, при любой её осечке — полная регенерация. Частичный результат
// быстрой фазы никогда не смешивается с результатом fallback.
func (o *Orchestrator) Edit(ctx context.Context, appID, change string) (*EditResult, error) {
	unlock := o.locks.acquire(appID)
	defer unlock()

	o.notifier.Publish(Event{AppID: appID, Stage: StageAnalyzing})
	app, err := o.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, o.fail(appID, err)
	}
	schema, err := o.store.GetSchema(ctx, appID)
	if err != nil {
		return nil, o.fail(appID, err)
	}
	user := prompts.EditUser(app.Markup, schema, change)

	result, ok, err := o.fastAttempt(ctx, appID, app.Markup, user)
	if err != nil {
		return nil, o.fail(appID, err)
	}
	if !ok {
		result, err = o.fallback(ctx, appID, user)
		if err != nil {
			return nil, o.fail(appID, err)
		}
	}

	result.App, err = o.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, o.fail(appID, err)
	}
	o.notifier.Publish(Event{AppID: appID, Stage: StageComplete})
	return result, nil
}

// fastAttempt: ok=false означает «патчи неприменимы, нужен fallback» —
// это не ошибка. Ошибка возвращается только от слоя хранения: к этому
// моменту документ уже принят и запись обязана быть согласованной.
func (o *Orchestrator) fastAttempt(ctx context.Context, appID, markup, user string) (*EditResult, bool, error) {
	o.notifier.Publish(Event{AppID: appID, Stage: StageFastAttempt})

	res, err := o.generate(ctx, appID, o.prompts.FastDiff, user)
	if err != nil {
		return nil, false, err
	}
	d, err := doc.ParsePatchDocument(res.Text, res.Truncated)
	if err != nil {
		// быстрая фаза хрупкая по контракту: кривой ответ — повод для
		// fallback, а не терминальная ошибка
		o.log.Info("fast edit response rejected", "app", appID, "error", err.Error())
		return nil, false, nil
	}
	if err := d.CheckNames(); err != nil {
		o.log.Info("fast edit response rejected", "app", appID, "error", err.Error())
		return nil, false, nil
	}

	patched, applied := doc.ApplyPatches(markup, d.Patches)
	if !applied {
		o.log.Info("patches not applicable, falling back", "app", appID)
		return nil, false, nil
	}

	o.notifier.Publish(Event{AppID: appID, Stage: StagePersisting})
	if err := reconcileColumns(ctx, o.store, o.log, appID, d.NewColumns); err != nil {
		return nil, false, err
	}
	if err := o.store.UpdateMarkup(ctx, appID, strings.ReplaceAll(patched, doc.AppIDPlaceholder, appID)); err != nil {
		return nil, false, err
	}
	failed := loadSeeds(ctx, o.store, o.log, appID, d.SeedData)
	return &EditResult{UsedFallback: false, SeedFailures: failed}, true, nil
}

func (o *Orchestrator) fallback(ctx context.Context, appID, user string) (*EditResult, error) {
	o.notifier.Publish(Event{AppID: appID, Stage: StageFallback})

	res, err := o.generate(ctx, appID, o.prompts.FullEdit, user)
	if err != nil {
		return nil, err
	}
	d, err := doc.ParseDocument(res.Text, res.Truncated)
	if err != nil {
		return nil, err
	}
	if err := d.CheckNames(); err != nil {
		return nil, err
	}

	o.notifier.Publish(Event{AppID: appID, Stage: StagePersisting})
	if err := reconcileTables(ctx, o.store, o.log, appID, d); err != nil {
		return nil, err
	}
	if err := reconcileColumns(ctx, o.store, o.log, appID, d.NewColumns); err != nil {
		return nil, err
	}
	if err := o.store.UpdateMarkup(ctx, appID, strings.ReplaceAll(d.Markup, doc.AppIDPlaceholder, appID)); err != nil {
		return nil, err
	}
	failed := loadSeeds(ctx, o.store, o.log, appID, d.SeedData)
	return &EditResult{UsedFallback: true, SeedFailures: failed}, nil
}

func (o *Orchestrator) fail(appID string, err error) error {
	o.notifier.Publish(Event{AppID: appID, Stage: StageError, Detail: err.Error()})
	o.log.Error("pipeline failed", "app", appID, "error", err.Error())
	return err
}

func titleFor(req CreateRequest) string {
	if t := strings.TrimSpace(req.Title); t != "" {
		return t
	}
	// заголовок из первых слов описания
	d := strings.TrimSpace(req.Description)
	if i := strings.IndexByte(d, '\n'); i >= 0 {
		d = d[:i]
	}
	if len(d) > 60 {
		cut := strings.LastIndexByte(d[:60], ' ')
		if cut < 20 {
			cut = 60
		}
		d = d[:cut]
	}
	if d == "" {
		return "Untitled application"
	}
	return d
}
