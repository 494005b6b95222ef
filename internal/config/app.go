package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// AppConfig представляет конфигурацию приложения из переменных окружения
type AppConfig struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	InterviewAPIURL  string `env:"INTERVIEW_API_URL" envDefault:"https://excel-mock-interviewer-coding-ninjas.onrender.com"`
	ClientConfigPath string `env:"CLIENT_CONFIG_PATH" envDefault:"config/client.yaml"`
	AdminUserID      int64  `env:"ADMIN_USER"`
}

// LoadAppConfig читает конфигурацию приложения из переменных окружения
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	return cfg, nil
}
