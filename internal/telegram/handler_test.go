package telegram

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"excel-interview-bot/internal/config"
	"excel-interview-bot/internal/interview"
	"excel-interview-bot/internal/metrics"
	"excel-interview-bot/internal/report"
	"excel-interview-bot/internal/storage"
)

type fakeMessenger struct {
	messages    []string
	documents   []string
	documentRaw []byte
	fileContent []byte
	fileErr     error
}

func (f *fakeMessenger) SendMessage(chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeMessenger) SendFormattedMessage(chatID int64, format string, args ...interface{}) error {
	return f.SendMessage(chatID, fmt.Sprintf(format, args...))
}

func (f *fakeMessenger) SendDocument(chatID int64, filename string, data []byte, caption string) error {
	f.documents = append(f.documents, filename)
	f.documentRaw = data
	return nil
}

func (f *fakeMessenger) GetFileContent(fileID string) ([]byte, error) {
	return f.fileContent, f.fileErr
}

func (f *fakeMessenger) lastMessage() string {
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeMessenger) anyMessageContains(substr string) bool {
	for _, m := range f.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type fakeGateway struct {
	start     *interview.StartResult
	startErr  error
	turns     []*interview.TurnResult
	turnErr   error
	reportRes report.Report

	submits     int
	fileSubmits int
	fetches     int
	lastFile    interview.FileAnswer
}

func (g *fakeGateway) CreateSession() (*interview.StartResult, error) {
	if g.startErr != nil {
		return nil, g.startErr
	}
	return g.start, nil
}

func (g *fakeGateway) SubmitAnswer(sessionID, answer string) (*interview.TurnResult, error) {
	g.submits++
	return g.nextTurn()
}

func (g *fakeGateway) SubmitFile(sessionID string, file interview.FileAnswer) (*interview.TurnResult, error) {
	g.fileSubmits++
	g.lastFile = file
	return g.nextTurn()
}

func (g *fakeGateway) FetchTranscript(sessionID string) (report.Report, error) {
	g.fetches++
	return g.reportRes, nil
}

func (g *fakeGateway) nextTurn() (*interview.TurnResult, error) {
	if g.turnErr != nil {
		return nil, g.turnErr
	}
	res := g.turns[0]
	g.turns = g.turns[1:]
	return res, nil
}

func testConfig(resultsDir string) *config.ClientConfig {
	return &config.ClientConfig{
		API:    config.APIConfig{RequestTimeoutSeconds: 5},
		Input:  config.InputConfig{MaxAnswerLength: 4000, RateLimitPerMinute: 100},
		Upload: config.UploadConfig{AllowedExtensions: []string{".xlsx"}, MaxFileSizeMB: 5},
		Report: config.ReportConfig{ResultsDir: resultsDir},
	}
}

func textUpdate(userID int64, text string) Update {
	return Update{Message: &Message{
		From: &User{ID: userID},
		Chat: &Chat{ID: userID},
		Text: text,
	}}
}

func documentUpdate(userID int64, name, caption string, size int64) Update {
	return Update{Message: &Message{
		From:     &User{ID: userID},
		Chat:     &Chat{ID: userID},
		Caption:  caption,
		Document: &Document{FileID: "file-1", FileName: name, FileSize: size},
	}}
}

func TestInterviewFlow(t *testing.T) {
	gw := &fakeGateway{
		start: &interview.StartResult{
			SessionID: "S1",
			Question:  &interview.Question{Type: interview.QuestionText, Prompt: "Explain VLOOKUP", Index: 0},
		},
		turns: []*interview.TurnResult{
			{
				Evaluation:   json.RawMessage(`{"score":8}`),
				NextQuestion: &interview.Question{Type: interview.QuestionFile, Prompt: "Upload your pivot table", Index: 1},
			},
			{
				Evaluation:  json.RawMessage(`{"score":5}`),
				SessionDone: true,
			},
		},
		reportRes: report.Report(`{"session_id":"S1","transcript":[{"question":"q"}],"final_score":13}`),
	}

	bot := &fakeMessenger{fileContent: []byte("workbook-bytes")}
	m := metrics.NewMetrics()
	h := NewHandler(bot, testConfig(t.TempDir()), gw, storage.New(t.TempDir()), m, 0)

	h.HandleUpdate(textUpdate(7, "/start"))
	if !bot.anyMessageContains("Explain VLOOKUP") {
		t.Fatalf("first question was not shown: %v", bot.messages)
	}

	h.HandleUpdate(textUpdate(7, "It looks up..."))
	if gw.submits != 1 {
		t.Fatalf("expected one text submit, got %d", gw.submits)
	}
	if !bot.anyMessageContains(`{"score":8}`) {
		t.Fatalf("evaluation was not shown: %v", bot.messages)
	}
	if !bot.anyMessageContains("Upload your pivot table") {
		t.Fatalf("file question was not shown")
	}

	// Текст вместо файла — отклоняется до обращения к сервису
	h.HandleUpdate(textUpdate(7, "here is my table"))
	if gw.submits != 1 {
		t.Fatalf("text submit must be rejected while a file is expected")
	}
	if !bot.anyMessageContains("требует загрузки файла") {
		t.Fatalf("modality hint missing: %v", bot.messages)
	}

	// Неверное расширение
	h.HandleUpdate(documentUpdate(7, "resume.pdf", "", 100))
	if gw.fileSubmits != 0 {
		t.Fatalf("disallowed extension must not reach the gateway")
	}

	// Слишком большой файл
	h.HandleUpdate(documentUpdate(7, "big.xlsx", "", 100*1024*1024))
	if gw.fileSubmits != 0 {
		t.Fatalf("oversized file must not reach the gateway")
	}

	// Корректный файл с заметкой в подписи
	h.HandleUpdate(documentUpdate(7, "pivot.xlsx", "see sheet 2", 1024))
	if gw.fileSubmits != 1 {
		t.Fatalf("expected one file submit, got %d", gw.fileSubmits)
	}
	if gw.lastFile.Name != "pivot.xlsx" || gw.lastFile.Note != "see sheet 2" || string(gw.lastFile.Data) != "workbook-bytes" {
		t.Fatalf("unexpected file submission: %+v", gw.lastFile)
	}
	if !bot.anyMessageContains("Интервью завершено") {
		t.Fatalf("completion message missing: %v", bot.messages)
	}

	// Отчет
	h.HandleUpdate(textUpdate(7, "/report"))
	if gw.fetches != 1 {
		t.Fatalf("expected one transcript fetch, got %d", gw.fetches)
	}
	if !bot.anyMessageContains("Итоговый балл: 13.0") {
		t.Fatalf("summary missing: %v", bot.messages)
	}

	// Экспорт файлом
	h.HandleUpdate(textUpdate(7, "/export"))
	if len(bot.documents) != 1 || bot.documents[0] != "interview_report.json" {
		t.Fatalf("export document missing: %v", bot.documents)
	}
	exported, err := gw.reportRes.Export()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if string(bot.documentRaw) != string(exported) {
		t.Fatalf("exported artifact mismatch")
	}

	s := m.GetSnapshot()
	if s.SessionsStarted != 1 || s.SessionsCompleted != 1 || s.AnswersSubmitted != 1 || s.FilesSubmitted != 1 || s.ReportsFetched != 1 {
		t.Fatalf("unexpected metrics: %+v", s)
	}
}

func TestAnswerWithoutSession(t *testing.T) {
	bot := &fakeMessenger{}
	h := NewHandler(bot, testConfig(t.TempDir()), &fakeGateway{}, storage.New(t.TempDir()), metrics.NewMetrics(), 0)

	h.HandleUpdate(textUpdate(7, "my answer"))
	if !strings.Contains(bot.lastMessage(), "/start") {
		t.Fatalf("expected a /start hint: %v", bot.messages)
	}
}

func TestExportBeforeReport(t *testing.T) {
	gw := &fakeGateway{
		start: &interview.StartResult{
			SessionID: "S1",
			Question:  &interview.Question{Type: interview.QuestionText, Prompt: "Q1", Index: 0},
		},
	}
	bot := &fakeMessenger{}
	h := NewHandler(bot, testConfig(t.TempDir()), gw, storage.New(t.TempDir()), metrics.NewMetrics(), 0)

	h.HandleUpdate(textUpdate(7, "/start"))
	h.HandleUpdate(textUpdate(7, "/export"))

	if len(bot.documents) != 0 {
		t.Fatalf("export must not send anything before the report is fetched")
	}
	if !bot.anyMessageContains("/report") {
		t.Fatalf("expected a /report hint: %v", bot.messages)
	}
}

func TestStatsAdminOnly(t *testing.T) {
	bot := &fakeMessenger{}
	h := NewHandler(bot, testConfig(t.TempDir()), &fakeGateway{}, storage.New(t.TempDir()), metrics.NewMetrics(), 42)

	h.HandleUpdate(textUpdate(7, "/stats"))
	if !bot.anyMessageContains("только администратору") {
		t.Fatalf("non-admin must be rejected: %v", bot.messages)
	}

	h.HandleUpdate(textUpdate(42, "/stats"))
	if !bot.anyMessageContains("Статистика бота") {
		t.Fatalf("admin must see the stats: %v", bot.messages)
	}
}

func TestValidateUserInput(t *testing.T) {
	h := NewHandler(&fakeMessenger{}, testConfig(t.TempDir()), &fakeGateway{}, storage.New(t.TempDir()), metrics.NewMetrics(), 0)

	if err := h.validateUserInput("нормальный ответ"); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if err := h.validateUserInput(""); err == nil {
		t.Fatalf("empty input must be rejected")
	}
	if err := h.validateUserInput(strings.Repeat("x", 5000)); err == nil {
		t.Fatalf("overlong input must be rejected")
	}
	if err := h.validateUserInput(strings.Repeat("a", 20)); err == nil {
		t.Fatalf("spammy input must be rejected")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.IsAllowed(1) || !rl.IsAllowed(1) {
		t.Fatalf("first requests must pass")
	}
	if rl.IsAllowed(1) {
		t.Fatalf("limit exceeded request must be blocked")
	}
	if !rl.IsAllowed(2) {
		t.Fatalf("limits are per user")
	}
}
