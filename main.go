package main

import (
	"fmt"
	"log"

	"excel-interview-bot/internal/api"
	"excel-interview-bot/internal/config"
	"excel-interview-bot/internal/metrics"
	"excel-interview-bot/internal/storage"
	"excel-interview-bot/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🚀 Запуск Excel Interview Bot...")

	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		log.Printf("Предупреждение: .env файл не найден: %v", err)
	}

	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("Ошибка конфигурации приложения: %v", err)
	}

	// Загружаем настройки клиента интервью
	cfg, err := config.Load(appCfg.ClientConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации клиента: %v", err)
	}

	// Инициализируем сервисы
	fmt.Println("🔧 Инициализация сервисов...")

	client := api.NewClient(appCfg.InterviewAPIURL, cfg.RequestTimeout())
	if err := client.Ping(); err != nil {
		log.Printf("⚠️ Сервис интервью недоступен: %v", err)
		log.Println("Бот запустится, но интервью не начнутся до восстановления сервиса")
	} else {
		fmt.Println("✅ Сервис интервью доступен")
	}

	store := storage.New(cfg.Report.ResultsDir)
	botMetrics := metrics.NewMetrics()

	// Telegram бот
	bot := telegram.New(appCfg.TelegramBotToken)
	handler := telegram.NewHandler(bot, cfg, client, store, botMetrics, appCfg.AdminUserID)
	fmt.Println("✅ Telegram бот инициализирован")

	// Выводим информацию о конфигурации
	fmt.Println("\n📋 Конфигурация:")
	fmt.Printf("• Сервис интервью: %s\n", appCfg.InterviewAPIURL)
	fmt.Printf("• Таймаут запросов: %s\n", cfg.RequestTimeout())
	fmt.Printf("• Допустимые файлы: %v (до %d МБ)\n", cfg.Upload.AllowedExtensions, cfg.Upload.MaxFileSizeMB)
	fmt.Printf("• Отчеты сохраняются в: %s\n", cfg.Report.ResultsDir)

	fmt.Println("\n🤖 Telegram бот запущен!")
	fmt.Println("⏳ Ожидание сообщений...")
	fmt.Println("📱 Найдите бота в Telegram и отправьте /start")

	// Запускаем polling
	if err := bot.StartPolling(handler.HandleUpdate); err != nil {
		log.Fatalf("Ошибка запуска бота: %v", err)
	}
}
