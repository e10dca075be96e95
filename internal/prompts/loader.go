package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Набор системных промптов по режимам.
type Set struct {
	Create   string
	FullEdit string
	FastDiff string
}

// Defaults — встроенные промпты.
func Defaults() Set {
	return Set{Create: createSystem, FullEdit: fullEditSystem, FastDiff: fastDiffSystem}
}

type overrideFile struct {
	Mode   string `yaml:"mode"` // create | full_edit | fast_diff
	System string `yaml:"system"`
}

// LoadOverrides читает все *.yaml/*.yml из каталога и подменяет промпты
// соответствующих режимов. Пустой dir — без переопределений.
func LoadOverrides(dir string) (Set, error) {
	set := Defaults()
	if dir == "" {
		return set, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return set, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return set, err
		}
		var f overrideFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return set, fmt.Errorf("prompt file %s: %w", e.Name(), err)
		}
		// режим — из поля mode или из имени файла
		mode := f.Mode
		if mode == "" {
			mode = strings.TrimSuffix(e.Name(), ext)
		}
		system := strings.TrimSpace(f.System)
		if system == "" {
			continue
		}
		switch mode {
		case "create":
			set.Create = system
		case "full_edit":
			set.FullEdit = system
		case "fast_diff":
			set.FastDiff = system
		default:
			return set, fmt.Errorf("prompt file %s: unknown mode %q", e.Name(), mode)
		}
	}
	return set, nil
}
