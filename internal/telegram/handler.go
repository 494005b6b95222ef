package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"excel-interview-bot/internal/config"
	"excel-interview-bot/internal/interview"
	"excel-interview-bot/internal/metrics"
	"excel-interview-bot/internal/storage"

	"github.com/google/uuid"
)

// Messenger описывает операции бота, которые использует обработчик
type Messenger interface {
	SendMessage(chatID int64, text string) error
	SendFormattedMessage(chatID int64, format string, args ...interface{}) error
	SendDocument(chatID int64, filename string, data []byte, caption string) error
	GetFileContent(fileID string) ([]byte, error)
}

type RateLimiter struct {
	requests map[int64][]time.Time
	mutex    sync.RWMutex
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *RateLimiter) IsAllowed(userID int64) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	if requests, exists := rl.requests[userID]; exists {
		var valid []time.Time
		for _, t := range requests {
			if now.Sub(t) < rl.window {
				valid = append(valid, t)
			}
		}
		rl.requests[userID] = valid
	}

	if len(rl.requests[userID]) >= rl.limit {
		return false
	}

	rl.requests[userID] = append(rl.requests[userID], now)
	return true
}

type Handler struct {
	bot           Messenger
	config        *config.ClientConfig
	gateway       interview.Gateway
	store         *storage.Store
	metrics       *metrics.Metrics
	adminUserID   int64
	sessions      map[int64]*UserSession
	sessionsMutex sync.RWMutex
	rateLimiter   *RateLimiter
}

func NewHandler(bot Messenger, cfg *config.ClientConfig, gateway interview.Gateway, store *storage.Store, m *metrics.Metrics, adminUserID int64) *Handler {
	h := &Handler{
		bot:         bot,
		config:      cfg,
		gateway:     gateway,
		store:       store,
		metrics:     m,
		adminUserID: adminUserID,
		sessions:    make(map[int64]*UserSession),
		rateLimiter: NewRateLimiter(cfg.Input.RateLimitPerMinute, time.Minute),
	}
	h.startSessionCleanup()
	return h
}

func (h *Handler) startSessionCleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			h.cleanupInactiveSessions()
		}
	}()
}

func (h *Handler) cleanupInactiveSessions() {
	h.sessionsMutex.Lock()
	defer h.sessionsMutex.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	for uid, sess := range h.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(h.sessions, uid)
		}
	}
}

func (h *Handler) HandleUpdate(update Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if !h.rateLimiter.IsAllowed(userID) {
		h.bot.SendMessage(chatID, "⏳ Слишком много сообщений. Пожалуйста, подождите минуту.")
		return
	}

	session := h.getOrCreateSession(userID)
	session.LastActivity = time.Now()

	if update.Message.Document != nil {
		h.handleDocument(chatID, update.Message, session)
		return
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(chatID, text, session)
		return
	}
	h.handleUserInput(chatID, text, session)
}

// handleCommand обрабатывает команды бота
func (h *Handler) handleCommand(chatID int64, command string, session *UserSession) {
	switch command {
	case "/start":
		h.handleStartCommand(chatID, session)
	case "/help":
		h.handleHelpCommand(chatID)
	case "/status":
		h.handleStatusCommand(chatID, session)
	case "/report":
		h.handleReportCommand(chatID, session)
	case "/export":
		h.handleExportCommand(chatID, session)
	case "/restart":
		h.handleRestartCommand(chatID, session)
	case "/stop":
		h.handleStopCommand(chatID, session)
	case "/stats":
		h.handleStatsCommand(chatID, session)
	default:
		h.bot.SendMessage(chatID, "Неизвестная команда. Используйте /help для получения списка команд.")
	}
}

// handleStartCommand начинает новую попытку интервью
func (h *Handler) handleStartCommand(chatID int64, session *UserSession) {
	if session.Controller != nil && session.Controller.State() == interview.StateActive {
		h.bot.SendMessage(chatID, "У вас уже идет интервью. Используйте /status для проверки прогресса или /restart для начала заново.")
		return
	}

	session.AttemptID = uuid.New().String()
	session.Controller = interview.NewController(h.gateway)

	question, err := session.Controller.Start()
	if err != nil {
		h.metrics.IncrementRequestsFailed()
		h.bot.SendMessage(chatID, "❌ Не удалось начать интервью. Попробуйте /start еще раз чуть позже.")
		return
	}

	h.metrics.IncrementSessionsStarted()

	welcomeText := fmt.Sprintf(`🎯 *Добро пожаловать в Excel-интервью!*

🆔 *ID сессии:* `+"`%s`"+`

*Правила:*
• Отвечайте на текстовые вопросы обычным сообщением
• На файловые вопросы прикрепляйте книгу Excel документом
• Подпись к документу станет заметкой к ответу
• Используйте /status для проверки прогресса
• После завершения — /report и /export

Первый вопрос уже готов! 🚀`, session.Controller.SessionID())
	h.bot.SendMessage(chatID, welcomeText)

	if question == nil {
		h.bot.SendMessage(chatID, "🎉 Сервис не прислал ни одного вопроса — интервью уже завершено. Используйте /report для получения отчета.")
		return
	}

	h.sendQuestion(chatID, *question)
}

// handleUserInput обрабатывает текстовые ответы пользователя
func (h *Handler) handleUserInput(chatID int64, text string, session *UserSession) {
	if session.Controller == nil || session.Controller.State() == interview.StateNoSession {
		h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start для начала или /help для помощи.")
		return
	}

	state := session.Controller.State()
	if state == interview.StateDone || state == interview.StateReportFetched {
		h.bot.SendMessage(chatID, "Интервью уже завершено. Используйте /report для получения отчета или /start для новой попытки.")
		return
	}

	// Соответствие модальности: текущий вопрос может требовать файл
	if session.Controller.AwaitingFile() {
		h.bot.SendFormattedMessage(chatID, "📎 Текущий вопрос требует загрузки файла. Прикрепите документ (%s); подпись к нему станет заметкой.",
			strings.Join(h.config.Upload.AllowedExtensions, ", "))
		return
	}

	// Валидация ввода
	if err := h.validateUserInput(text); err != nil {
		h.bot.SendMessage(chatID, "❌ "+err.Error())
		return
	}

	res, err := session.Controller.AdvanceTurn(interview.NewTextSubmission(text))
	if err != nil {
		h.reportTurnError(chatID, err)
		return
	}

	h.metrics.IncrementAnswersSubmitted()
	h.sendTurnOutcome(chatID, res)
}

// handleDocument обрабатывает файловые ответы
func (h *Handler) handleDocument(chatID int64, msg *Message, session *UserSession) {
	if session.Controller == nil || session.Controller.State() != interview.StateActive {
		h.bot.SendMessage(chatID, "Сейчас файл не требуется. Используйте /start для начала интервью.")
		return
	}
	if !session.Controller.AwaitingFile() {
		h.bot.SendMessage(chatID, "Текущий вопрос ожидает текстовый ответ, а не файл.")
		return
	}

	doc := msg.Document
	if !h.config.IsExtensionAllowed(doc.FileName) {
		h.bot.SendFormattedMessage(chatID, "⚠️ Недопустимый формат файла. Допустимые расширения: %s",
			strings.Join(h.config.Upload.AllowedExtensions, ", "))
		return
	}
	if doc.FileSize > h.config.MaxFileSizeBytes() {
		h.bot.SendFormattedMessage(chatID, "⚠️ Файл слишком большой (максимум %d МБ).", h.config.Upload.MaxFileSizeMB)
		return
	}

	content, err := h.bot.GetFileContent(doc.FileID)
	if err != nil {
		h.bot.SendMessage(chatID, "❌ Не удалось получить файл из Telegram. Попробуйте отправить его еще раз.")
		return
	}

	note := strings.TrimSpace(msg.Caption)
	res, err := session.Controller.AdvanceTurn(interview.NewFileSubmission(doc.FileName, content, note))
	if err != nil {
		h.reportTurnError(chatID, err)
		return
	}

	h.metrics.IncrementFilesSubmitted()
	h.sendTurnOutcome(chatID, res)
}

// sendTurnOutcome показывает пользователю результат одного хода
func (h *Handler) sendTurnOutcome(chatID int64, res *interview.TurnResult) {
	if res.HasEvaluation() {
		h.bot.SendFormattedMessage(chatID, "📊 *Оценка:*\n```json\n%s\n```", compactEvaluation(res.Evaluation))
	}

	if res.NextQuestion != nil {
		h.sendQuestion(chatID, *res.NextQuestion)
		return
	}

	h.metrics.IncrementSessionsCompleted()
	h.bot.SendMessage(chatID, "🎉 *Интервью завершено!*\n\nИспользуйте /report для получения итогового отчета и /export для скачивания файла.")
}

// sendQuestion отправляет вопрос с подсказкой нужной модальности
func (h *Handler) sendQuestion(chatID int64, question interview.Question) {
	switch question.Type {
	case interview.QuestionFile:
		h.bot.SendFormattedMessage(chatID, "❓ *Вопрос %d:*\n\n%s\n\n📎 _Прикрепите книгу Excel документом (%s). Подпись к документу станет заметкой к ответу._",
			question.Index+1, question.Prompt, strings.Join(h.config.Upload.AllowedExtensions, ", "))
	case interview.QuestionDesign:
		h.bot.SendFormattedMessage(chatID, "❓ *Вопрос %d (design):*\n\n%s\n\n_Опишите вашу структуру текстом._",
			question.Index+1, question.Prompt)
	default:
		h.bot.SendFormattedMessage(chatID, "❓ *Вопрос %d:*\n\n%s", question.Index+1, question.Prompt)
	}
}

// reportTurnError переводит ошибку хода в сообщение пользователю
func (h *Handler) reportTurnError(chatID int64, err error) {
	switch {
	case errors.Is(err, interview.ErrSubmissionInFlight):
		h.bot.SendMessage(chatID, "⏳ Предыдущий ответ еще обрабатывается. Подождите, пожалуйста.")
	case errors.Is(err, interview.ErrInterviewDone):
		h.bot.SendMessage(chatID, "Интервью уже завершено. Используйте /report для получения отчета.")
	case errors.Is(err, interview.ErrFileSubmitFailed):
		h.metrics.IncrementRequestsFailed()
		h.bot.SendMessage(chatID, "❌ Не удалось отправить файл. Попробуйте прикрепить его еще раз.")
	default:
		h.metrics.IncrementRequestsFailed()
		h.bot.SendMessage(chatID, "❌ Не удалось отправить ответ. Отправьте его еще раз.")
	}
}

// handleReportCommand запрашивает итоговый отчет
func (h *Handler) handleReportCommand(chatID int64, session *UserSession) {
	if session.Controller == nil {
		h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start.")
		return
	}

	rep, err := session.Controller.FetchReport()
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrNotDone):
			h.bot.SendMessage(chatID, "Отчет доступен только после завершения интервью. Ответьте сначала на все вопросы.")
		case errors.Is(err, interview.ErrNoSession):
			h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start.")
		default:
			h.metrics.IncrementRequestsFailed()
			h.bot.SendMessage(chatID, "❌ Не удалось получить отчет. Попробуйте /report еще раз.")
		}
		return
	}

	h.metrics.IncrementReportsFetched()

	if summary, ok := rep.Summarize(); ok {
		h.bot.SendFormattedMessage(chatID, "🏁 *Итог интервью*\n\n🆔 Сессия: `%s`\n📊 Итоговый балл: %.1f\n📝 Записей в транскрипте: %d",
			summary.SessionID, summary.FinalScore, summary.Entries)
	}

	rendered, err := rep.RenderYAML()
	if err != nil {
		h.bot.SendMessage(chatID, "⚠️ Отчет получен, но его не удалось отобразить. Используйте /export для скачивания файла.")
		return
	}

	h.sendLongMessage(chatID, "📄 *Транскрипт:*", rendered, "yaml")
	h.bot.SendMessage(chatID, "💾 Используйте /export чтобы получить отчет файлом.")
}

// handleExportCommand выгружает сохраненный отчет файлом
func (h *Handler) handleExportCommand(chatID int64, session *UserSession) {
	if session.Controller == nil {
		h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start.")
		return
	}

	rep, ok := session.Controller.Report()
	if !ok {
		h.bot.SendMessage(chatID, "Сначала получите отчет командой /report.")
		return
	}

	data, err := rep.Export()
	if err != nil {
		h.bot.SendMessage(chatID, "❌ Не удалось сериализовать отчет: "+err.Error())
		return
	}

	path, err := h.store.SaveReport(session.AttemptID, rep)
	if err != nil {
		h.bot.SendMessage(chatID, "⚠️ Отчет не удалось сохранить на диск: "+err.Error())
		path = ""
	}

	caption := "📄 Отчет интервью"
	if path != "" {
		caption = fmt.Sprintf("📄 Отчет интервью (копия сохранена в `%s`)", path)
	}

	if err := h.bot.SendDocument(chatID, "interview_report.json", data, caption); err != nil {
		h.bot.SendMessage(chatID, "❌ Не удалось отправить файл отчета: "+err.Error())
	}
}

// handleStatusCommand показывает статус интервью
func (h *Handler) handleStatusCommand(chatID int64, session *UserSession) {
	if session.Controller == nil {
		h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start для начала.")
		return
	}

	switch session.Controller.State() {
	case interview.StateNoSession:
		h.bot.SendMessage(chatID, "Интервью не начато. Используйте /start для начала.")
	case interview.StateActive:
		question, _ := session.Controller.CurrentQuestion()
		progress := fmt.Sprintf("📊 *Прогресс интервью*\n\n"+
			"🆔 Сессия: `%s`\n"+
			"❓ Текущий вопрос: %d (%s)\n"+
			"💬 Сообщений в логе: %d\n"+
			"⏰ Состояние: %s",
			session.Controller.SessionID(),
			question.Index+1, question.Type,
			len(session.Controller.Messages()),
			h.getStateDescription(session.Controller.State()))
		h.bot.SendMessage(chatID, progress)
	case interview.StateDone:
		h.bot.SendFormattedMessage(chatID, "✅ Интервью завершено!\n🆔 Сессия: `%s`\n\n_Используйте /report для получения отчета_", session.Controller.SessionID())
	case interview.StateReportFetched:
		h.bot.SendFormattedMessage(chatID, "✅ Интервью завершено, отчет получен.\n🆔 Сессия: `%s`\n\n_Используйте /export чтобы скачать отчет файлом_", session.Controller.SessionID())
	}
}

// handleRestartCommand перезапускает интервью
func (h *Handler) handleRestartCommand(chatID int64, session *UserSession) {
	h.resetSession(session)
	h.bot.SendMessage(chatID, "🔄 Интервью сброшено. Используйте /start для начала нового интервью.")
}

// handleStopCommand останавливает интервью
func (h *Handler) handleStopCommand(chatID int64, session *UserSession) {
	if session.Controller == nil {
		h.bot.SendMessage(chatID, "Интервью не запущено.")
		return
	}

	h.resetSession(session)
	h.bot.SendMessage(chatID, "🛑 Интервью остановлено.")
}

// handleStatsCommand показывает счетчики работы бота
func (h *Handler) handleStatsCommand(chatID int64, session *UserSession) {
	if h.adminUserID != 0 && session.UserID != h.adminUserID {
		h.bot.SendMessage(chatID, "Команда доступна только администратору.")
		return
	}

	s := h.metrics.GetSnapshot()
	h.bot.SendFormattedMessage(chatID, "📈 *Статистика бота*\n\n"+
		"• Интервью начато: %d\n"+
		"• Интервью завершено: %d\n"+
		"• Текстовых ответов: %d\n"+
		"• Файловых ответов: %d\n"+
		"• Отчетов получено: %d\n"+
		"• Неудачных запросов: %d\n"+
		"• Обновлено: %s",
		s.SessionsStarted, s.SessionsCompleted, s.AnswersSubmitted,
		s.FilesSubmitted, s.ReportsFetched, s.RequestsFailed,
		s.LastUpdateTime.Format(time.RFC3339))
}

// handleHelpCommand обрабатывает команду /help
func (h *Handler) handleHelpCommand(chatID int64) {
	helpText := `🤖 *Бот Excel Mock Interview*

*Команды:*
/start - Начать интервью
/status - Проверить прогресс
/report - Получить итоговый отчет (после завершения)
/export - Скачать отчет JSON файлом
/restart - Сбросить интервью и начать заново
/stop - Остановить текущее интервью
/help - Показать это сообщение

*Как это работает:*
1. /start создает сессию на сервисе интервью
2. Бот присылает вопросы, вы отвечаете по одному
3. На текстовые и design-вопросы отвечайте сообщением
4. На файловые вопросы прикрепляйте книгу Excel документом
5. После каждого ответа приходит оценка
6. Когда вопросы закончатся — /report и /export

*Совет:* Подпись к документу станет заметкой к файловому ответу.`

	h.bot.SendMessage(chatID, helpText)
}

// validateUserInput проверяет текстовый ответ перед отправкой
func (h *Handler) validateUserInput(text string) error {
	if text == "" {
		return fmt.Errorf("пустой ответ отправить нельзя")
	}

	if len(text) > h.config.Input.MaxAnswerLength {
		return fmt.Errorf("сообщение слишком длинное (максимум %d символов)", h.config.Input.MaxAnswerLength)
	}

	// Проверка на спам/повторяющиеся символы
	if len(text) > 10 && strings.Count(text, text[:1]) > len(text)*8/10 {
		return fmt.Errorf("сообщение содержит слишком много повторяющихся символов")
	}

	return nil
}

// sendLongMessage отправляет длинный текст частями в пределах лимита Telegram
func (h *Handler) sendLongMessage(chatID int64, header, body, lang string) {
	const maxChunkSize = 3500

	if len(body) <= maxChunkSize {
		h.bot.SendFormattedMessage(chatID, "%s\n\n```%s\n%s\n```", header, lang, body)
		return
	}

	h.bot.SendMessage(chatID, header+" _(большой размер, отправляю частями)_")

	totalChunks := (len(body) + maxChunkSize - 1) / maxChunkSize
	for i := 0; i < totalChunks; i++ {
		start := i * maxChunkSize
		end := start + maxChunkSize
		if end > len(body) {
			end = len(body)
		}

		err := h.bot.SendFormattedMessage(chatID, "📄 *Часть %d/%d:*\n\n```%s\n%s\n```", i+1, totalChunks, lang, body[start:end])
		if err != nil {
			h.bot.SendFormattedMessage(chatID, "❌ Ошибка отправки части %d: %v", i+1, err)
		}

		// Небольшая задержка между сообщениями
		time.Sleep(500 * time.Millisecond)
	}
}

// Вспомогательные методы
func (h *Handler) getOrCreateSession(userID int64) *UserSession {
	h.sessionsMutex.Lock()
	defer h.sessionsMutex.Unlock()

	if session, exists := h.sessions[userID]; exists {
		return session
	}

	session := &UserSession{
		UserID:       userID,
		LastActivity: time.Now(),
	}
	h.sessions[userID] = session
	return session
}

func (h *Handler) resetSession(session *UserSession) {
	session.Controller = nil
	session.AttemptID = ""
	session.LastActivity = time.Now()
}

func (h *Handler) getStateDescription(state interview.State) string {
	switch state {
	case interview.StateNoSession:
		return "Ожидание"
	case interview.StateActive:
		return "Интервью"
	case interview.StateDone:
		return "Завершено"
	case interview.StateReportFetched:
		return "Отчет получен"
	default:
		return "Неизвестно"
	}
}

// compactEvaluation убирает пробелы из JSON оценки для компактного показа
func compactEvaluation(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
