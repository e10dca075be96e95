package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port       string `json:"port"`
	DBURL      string `json:"dbUrl"`      // пусто = in-memory
	PromptsDir string `json:"promptsDir"` // каталог YAML-переопределений промптов
	LogMode    string `json:"logMode"`    // "dev" | "prod"
}

func def() Config {
	return Config{
		Port:       "8080",
		DBURL:      "",
		PromptsDir: "",
		LogMode:    "dev",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
// Флаг -config подменяет путь к JSON до его чтения. Флаги живут в отдельном
// FlagSet, поэтому функцию можно звать повторно.
// Ключи генеративного сервиса (OPENAI_*) остаются чисто env-шными.
func LoadWithPath(jsonPath string) Config {
	fs := flag.NewFlagSet("fabrika", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", "", "HTTP port")
	db := fs.String("db", "", "Postgres URL (empty = in-memory)")
	promptsDir := fs.String("prompts", "", "Path to prompt override directory")
	logMode := fs.String("log-mode", "", "Log mode (dev/prod)")
	_ = fs.Parse(os.Args[1:])

	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(*configPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("FABRIKA_PORT", cfg.Port)
	cfg.DBURL = getenv("FABRIKA_DB_URL", cfg.DBURL)
	cfg.PromptsDir = getenv("FABRIKA_PROMPTS_DIR", cfg.PromptsDir)
	cfg.LogMode = getenv("FABRIKA_LOG_MODE", cfg.LogMode)

	// явно переданные флаги — поверх JSON и ENV
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "db":
			cfg.DBURL = strings.TrimSpace(*db)
		case "prompts":
			cfg.PromptsDir = strings.TrimSpace(*promptsDir)
		case "log-mode":
			cfg.LogMode = strings.TrimSpace(*logMode)
		}
	})

	return cfg
}

// Load читает config.json рядом с бинарём.
func Load() Config { return LoadWithPath("config.json") }
