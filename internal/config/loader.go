package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load загружает конфигурацию клиента из YAML файла
func Load(filename string) (*ClientConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	var config ClientConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация конфигурации
	err = validateConfig(&config)
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return &config, nil
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *ClientConfig) error {
	if config.API.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds должно быть больше 0")
	}

	if config.Input.MaxAnswerLength <= 0 {
		return fmt.Errorf("max_answer_length должно быть больше 0")
	}

	if config.Input.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute должно быть больше 0")
	}

	if config.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb должно быть больше 0")
	}

	if len(config.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions не может быть пустым")
	}

	for i, ext := range config.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("расширение %d должно начинаться с точки: %q", i, ext)
		}
	}

	if config.Report.ResultsDir == "" {
		return fmt.Errorf("results_dir не может быть пустым")
	}

	return nil
}
