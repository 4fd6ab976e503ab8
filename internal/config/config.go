package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config — настройки инструмента.
//
// Файл: $XDG_CONFIG_HOME/reqchain/config.yaml (опционален —
// без файла действуют значения по умолчанию).
type Config struct {
	// DBPath — путь к файлу локальной БД.
	DBPath string `yaml:"db_path"`

	// Browser — настройки браузерного OAuth flow.
	Browser BrowserConfig `yaml:"browser"`
}

// BrowserConfig — настройки браузера для authorization flow.
type BrowserConfig struct {
	// Default — браузер по умолчанию; пусто — headless без профиля.
	Default string `yaml:"default"`

	// ProfileDir — базовая директория профилей именованных браузеров.
	ProfileDir string `yaml:"profile_dir"`

	// PollIntervalMs — интервал опроса заголовка страницы.
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// PollInterval возвращает интервал опроса как Duration.
func (b BrowserConfig) PollInterval() time.Duration {
	if b.PollIntervalMs <= 0 {
		return 0
	}
	return time.Duration(b.PollIntervalMs) * time.Millisecond
}

// Load читает конфиг из файла и накладывает его на значения
// по умолчанию. Отсутствие файла — не ошибка.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DefaultPath возвращает стандартный путь к файлу конфига.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "reqchain", "config.yaml")
}

// defaults — конфигурация по умолчанию.
func defaults() *Config {
	base := "."
	if dir, err := os.UserConfigDir(); err == nil {
		base = filepath.Join(dir, "reqchain")
	}
	return &Config{
		DBPath: filepath.Join(base, "reqchain.db"),
		Browser: BrowserConfig{
			ProfileDir: filepath.Join(base, "profiles"),
		},
	}
}
