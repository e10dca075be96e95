package main

import (
	"context"
	"log"

	"fabrika/internal/api"
	"fabrika/internal/config"
	"fabrika/internal/gen"
	"fabrika/internal/genai"
	"fabrika/internal/logger"
	"fabrika/internal/pg"
	"fabrika/internal/prompts"
	"fabrika/internal/store"
)

func main() {
	cfg := config.Load()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logg.Sync()

	// хранилище: Postgres при заданном DB URL, иначе in-memory
	var st store.Store
	if cfg.DBURL != "" {
		db, err := pg.Open(cfg.DBURL)
		if err != nil {
			logg.Fatal("postgres connect failed", "error", err.Error())
		}
		pgStore := pg.New(db, logg)
		if err := pgStore.Init(context.Background()); err != nil {
			logg.Fatal("postgres init failed", "error", err.Error())
		}
		st = pgStore
		logg.Info("storage: postgres")
	} else {
		st = store.NewMemory()
		logg.Info("storage: in-memory")
	}

	promptSet, err := prompts.LoadOverrides(cfg.PromptsDir)
	if err != nil {
		logg.Fatal("prompt overrides failed", "dir", cfg.PromptsDir, "error", err.Error())
	}

	ai, err := genai.NewOpenAI(logg)
	if err != nil {
		logg.Fatal("generative client init failed", "error", err.Error())
	}

	orch := gen.New(st, ai, promptSet, logg)

	// события прогресса — в лог; потребители необязательны
	go func() {
		for e := range orch.Progress() {
			logg.Debug("pipeline progress", "app", e.AppID, "stage", e.Stage, "detail", e.Detail)
		}
	}()

	srv := api.NewServer(st, orch, logg)
	logg.Info("fabrika server starting", "port", cfg.Port)
	if err := api.RunServer(":"+cfg.Port, srv); err != nil {
		logg.Fatal("server stopped", "error", err.Error())
	}
}
