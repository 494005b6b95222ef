package interview

import (
	"encoding/json"

	"excel-interview-bot/internal/report"
)

// QuestionType определяет модальность ответа на вопрос
type QuestionType string

const (
	QuestionText   QuestionType = "text"
	QuestionDesign QuestionType = "design"
	QuestionFile   QuestionType = "file"
)

// Question представляет один вопрос интервью
type Question struct {
	Type   QuestionType `json:"type"`
	Prompt string       `json:"prompt"`
	Index  int          `json:"index"`
}

// IsFileQuestion сообщает, требует ли вопрос загрузки файла
func (q Question) IsFileQuestion() bool {
	return q.Type == QuestionFile
}

// Role определяет автора записи в логе интервью
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message представляет одну запись в логе интервью.
// Лог только дополняется, порядок записей никогда не меняется.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State представляет состояние попытки интервью
type State string

const (
	StateNoSession     State = "no_session"
	StateActive        State = "active"
	StateDone          State = "done"
	StateReportFetched State = "report_fetched"
)

// SubmissionKind определяет вид отправляемого ответа
type SubmissionKind string

const (
	SubmissionText SubmissionKind = "text"
	SubmissionFile SubmissionKind = "file"
)

// FileAnswer представляет файловый ответ: содержимое книги и необязательная заметка
type FileAnswer struct {
	Name string
	Data []byte
	Note string
}

// Submission представляет ответ пользователя на текущий вопрос.
// Текстовые и design-вопросы используют Text, файловые — File.
type Submission struct {
	Kind SubmissionKind
	Text string
	File *FileAnswer
}

// NewTextSubmission создает текстовый ответ (для вопросов типа text и design)
func NewTextSubmission(text string) Submission {
	return Submission{Kind: SubmissionText, Text: text}
}

// NewFileSubmission создает файловый ответ с необязательной заметкой
func NewFileSubmission(name string, data []byte, note string) Submission {
	return Submission{
		Kind: SubmissionFile,
		File: &FileAnswer{Name: name, Data: data, Note: note},
	}
}

// StartResult представляет ответ сервиса на создание сессии
type StartResult struct {
	SessionID string    `json:"session_id"`
	Question  *Question `json:"question"`
}

// TurnResult представляет ответ сервиса на отправленный ответ.
// Отсутствие NextQuestion — единственный сигнал завершения интервью;
// SessionDone сервис присылает как дублирующий признак.
type TurnResult struct {
	Evaluation   json.RawMessage `json:"evaluation,omitempty"`
	NextQuestion *Question       `json:"next_question,omitempty"`
	SessionDone  bool            `json:"session_done,omitempty"`
}

// HasEvaluation сообщает, содержит ли ответ сервиса оценку
func (r *TurnResult) HasEvaluation() bool {
	return len(r.Evaluation) > 0 && string(r.Evaluation) != "null"
}

// Gateway описывает четыре операции удаленного сервиса интервью
type Gateway interface {
	CreateSession() (*StartResult, error)
	SubmitAnswer(sessionID, answer string) (*TurnResult, error)
	SubmitFile(sessionID string, file FileAnswer) (*TurnResult, error)
	FetchTranscript(sessionID string) (report.Report, error)
}
