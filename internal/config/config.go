// Package config загружает конфигурацию приложения из JSON-файла и
// переменных окружения. Переменные окружения имеют приоритет над файлом.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config конфигурация приложения
type Config struct {
	// Сервер
	Port string `json:"port"`

	// База словарей
	DatabasePath string `json:"database_path"`

	// Клиент сервиса ранжирования
	RankingBaseURL string        `json:"ranking_base_url"`
	RankingAPIKey  string        `json:"ranking_api_key"`
	RankingTimeout time.Duration `json:"-"`

	// Пороги нечеткого сопоставления
	ForwardThreshold float64 `json:"forward_threshold"`
	ReverseThreshold float64 `json:"reverse_threshold"`

	// Повторы инициализации сессии
	InitMaxAttempts int `json:"init_max_attempts"`

	// Окно дедупликации удаленных запросов
	DedupeWindow time.Duration `json:"-"`

	// Веб-поиск
	WebSearch WebSearchConfig `json:"web_search"`

	// Ранжировщик бэкенда
	RankerProvider string `json:"ranker_provider"`
	RankerLanguage string `json:"ranker_language"`
	RankerTopN     int    `json:"ranker_top_n"`
}

// WebSearchConfig конфигурация веб-поиска
type WebSearchConfig struct {
	Enabled  bool          `json:"enabled"`
	CacheTTL time.Duration `json:"-"`
	MaxSize  int           `json:"max_size"`
}

// configJSON промежуточная форма для разбора длительностей из строк
type configJSON struct {
	Port             string  `json:"port"`
	DatabasePath     string  `json:"database_path"`
	RankingBaseURL   string  `json:"ranking_base_url"`
	RankingAPIKey    string  `json:"ranking_api_key"`
	RankingTimeout   string  `json:"ranking_timeout"`
	ForwardThreshold float64 `json:"forward_threshold"`
	ReverseThreshold float64 `json:"reverse_threshold"`
	InitMaxAttempts  int     `json:"init_max_attempts"`
	DedupeWindow     string  `json:"dedupe_window"`
	WebSearch        struct {
		Enabled  bool   `json:"enabled"`
		CacheTTL string `json:"cache_ttl"`
		MaxSize  int    `json:"max_size"`
	} `json:"web_search"`
	RankerProvider string `json:"ranker_provider"`
	RankerLanguage string `json:"ranker_language"`
	RankerTopN     int    `json:"ranker_top_n"`
}

// Load загружает конфигурацию. Путь к JSON-файлу необязателен:
// при пустом пути используются значения окружения и умолчания.
func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
		log.Printf("[Config] INFO: loaded config file %s", path)
	}

	config.loadEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// defaults возвращает конфигурацию по умолчанию
func defaults() *Config {
	return &Config{
		Port:             "8080",
		DatabasePath:     "termnorm.db",
		RankingBaseURL:   "http://localhost:8790",
		RankingTimeout:   30 * time.Second,
		ForwardThreshold: 0.7,
		ReverseThreshold: 0.5,
		InitMaxAttempts:  3,
		DedupeWindow:     2 * time.Second,
		WebSearch: WebSearchConfig{
			Enabled:  true,
			CacheTTL: time.Hour,
			MaxSize:  1000,
		},
		RankerProvider: "heuristic",
		RankerLanguage: "russian",
		RankerTopN:     10,
	}
}

// loadFile накладывает значения из JSON-файла
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.Port, raw.Port)
	setString(&c.DatabasePath, raw.DatabasePath)
	setString(&c.RankingBaseURL, raw.RankingBaseURL)
	setString(&c.RankingAPIKey, raw.RankingAPIKey)
	setDuration(&c.RankingTimeout, raw.RankingTimeout)
	if raw.ForwardThreshold > 0 {
		c.ForwardThreshold = raw.ForwardThreshold
	}
	if raw.ReverseThreshold > 0 {
		c.ReverseThreshold = raw.ReverseThreshold
	}
	if raw.InitMaxAttempts > 0 {
		c.InitMaxAttempts = raw.InitMaxAttempts
	}
	setDuration(&c.DedupeWindow, raw.DedupeWindow)

	c.WebSearch.Enabled = raw.WebSearch.Enabled
	setDuration(&c.WebSearch.CacheTTL, raw.WebSearch.CacheTTL)
	if raw.WebSearch.MaxSize > 0 {
		c.WebSearch.MaxSize = raw.WebSearch.MaxSize
	}

	setString(&c.RankerProvider, raw.RankerProvider)
	setString(&c.RankerLanguage, raw.RankerLanguage)
	if raw.RankerTopN > 0 {
		c.RankerTopN = raw.RankerTopN
	}

	return nil
}

// loadEnv накладывает значения из переменных окружения
func (c *Config) loadEnv() {
	c.Port = getEnv("TERMNORM_PORT", c.Port)
	c.DatabasePath = getEnv("TERMNORM_DB_PATH", c.DatabasePath)
	c.RankingBaseURL = getEnv("TERMNORM_RANKING_URL", c.RankingBaseURL)
	c.RankingAPIKey = getEnv("TERMNORM_RANKING_API_KEY", c.RankingAPIKey)
	c.RankingTimeout = getEnvDuration("TERMNORM_RANKING_TIMEOUT", c.RankingTimeout)
	c.ForwardThreshold = getEnvFloat("TERMNORM_FORWARD_THRESHOLD", c.ForwardThreshold)
	c.ReverseThreshold = getEnvFloat("TERMNORM_REVERSE_THRESHOLD", c.ReverseThreshold)
	c.InitMaxAttempts = getEnvInt("TERMNORM_INIT_MAX_ATTEMPTS", c.InitMaxAttempts)
	c.DedupeWindow = getEnvDuration("TERMNORM_DEDUPE_WINDOW", c.DedupeWindow)
	c.RankerProvider = getEnv("TERMNORM_RANKER_PROVIDER", c.RankerProvider)
	c.RankerLanguage = getEnv("TERMNORM_RANKER_LANGUAGE", c.RankerLanguage)
	c.RankerTopN = getEnvInt("TERMNORM_RANKER_TOP_N", c.RankerTopN)
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric: %q", c.Port)
	}
	if c.ForwardThreshold <= 0 || c.ForwardThreshold > 1 {
		return fmt.Errorf("forward threshold must be in (0, 1], got %v", c.ForwardThreshold)
	}
	if c.ReverseThreshold <= 0 || c.ReverseThreshold > 1 {
		return fmt.Errorf("reverse threshold must be in (0, 1], got %v", c.ReverseThreshold)
	}
	if c.InitMaxAttempts < 1 {
		return fmt.Errorf("init max attempts must be at least 1, got %d", c.InitMaxAttempts)
	}
	if c.RankingBaseURL == "" {
		return fmt.Errorf("ranking base URL is required")
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, value string) {
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*dst = d
	}
}

// getEnv получает переменную окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
