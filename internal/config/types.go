package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ClientConfig представляет настройки клиента интервью
type ClientConfig struct {
	API    APIConfig    `yaml:"api"`
	Input  InputConfig  `yaml:"input"`
	Upload UploadConfig `yaml:"upload"`
	Report ReportConfig `yaml:"report"`
}

// APIConfig содержит настройки обращения к сервису интервью
type APIConfig struct {
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// InputConfig содержит ограничения на текстовые ответы
type InputConfig struct {
	MaxAnswerLength    int `yaml:"max_answer_length"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// UploadConfig содержит ограничения на файловые ответы.
// Список расширений — подсказка пользователю, а не граница безопасности:
// окончательную проверку файла делает сервис.
type UploadConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
}

// ReportConfig содержит настройки сохранения отчетов
type ReportConfig struct {
	ResultsDir string `yaml:"results_dir"`
}

// Методы для удобного доступа к конфигурации
func (c *ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

func (c *ClientConfig) MaxFileSizeBytes() int64 {
	return int64(c.Upload.MaxFileSizeMB) * 1024 * 1024
}

// IsExtensionAllowed проверяет расширение имени файла по списку допустимых
func (c *ClientConfig) IsExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range c.Upload.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
