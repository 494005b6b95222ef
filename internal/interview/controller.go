package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"excel-interview-bot/internal/report"
)

// Controller управляет состоянием одной попытки интервью: идентификатором
// сессии, текущим вопросом, логом сообщений и признаком завершения.
// Единственный владелец состояния между ходами; все переходы идут через него.
type Controller struct {
	gateway Gateway

	mu        sync.Mutex
	sessionID string
	question  *Question
	messages  []Message
	done      bool
	report    report.Report
	inFlight  bool
}

// NewController создает контроллер для одной попытки интервью
func NewController(gateway Gateway) *Controller {
	return &Controller{gateway: gateway}
}

// Start создает сессию на сервисе и получает первый вопрос.
// При ошибке состояние остается нетронутым, попытку можно повторить.
func (c *Controller) Start() (*Question, error) {
	c.mu.Lock()
	if c.sessionID != "" {
		c.mu.Unlock()
		return nil, ErrSessionExists
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	res, err := c.gateway.CreateSession()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	c.sessionID = res.SessionID
	if res.Question == nil {
		// Сервис не прислал ни одного вопроса — интервью пустое
		c.done = true
		return nil, nil
	}

	question := *res.Question
	c.question = &question
	c.messages = append(c.messages, Message{Role: RoleSystem, Content: question.Prompt})
	return &question, nil
}

// AdvanceTurn отправляет ответ на текущий вопрос и продвигает интервью на один
// ход. Текстовый ответ сразу попадает в лог и не откатывается при ошибке
// запроса — пользователь его уже "сказал". Содержимое файлов в лог не пишется.
func (c *Controller) AdvanceTurn(sub Submission) (*TurnResult, error) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.done {
		c.mu.Unlock()
		return nil, ErrInterviewDone
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if sub.Kind == SubmissionFile && sub.File == nil {
		c.mu.Unlock()
		return nil, ErrEmptySubmission
	}

	c.inFlight = true
	if sub.Kind == SubmissionText {
		c.messages = append(c.messages, Message{Role: RoleUser, Content: sub.Text})
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	var res *TurnResult
	var err error
	opErr := ErrSubmitFailed
	switch sub.Kind {
	case SubmissionFile:
		opErr = ErrFileSubmitFailed
		res, err = c.gateway.SubmitFile(sessionID, *sub.File)
	default:
		res, err = c.gateway.SubmitAnswer(sessionID, sub.Text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		return nil, fmt.Errorf("%w: %w", opErr, err)
	}

	c.applyTurn(res)
	return res, nil
}

// applyTurn применяет ответ сервиса к логу и состоянию. Вызывается под мьютексом.
func (c *Controller) applyTurn(res *TurnResult) {
	if res.HasEvaluation() {
		c.messages = append(c.messages, Message{
			Role:    RoleSystem,
			Content: "Evaluation: " + compactJSON(res.Evaluation),
		})
	}

	if res.NextQuestion != nil {
		question := *res.NextQuestion
		c.question = &question
		c.messages = append(c.messages, Message{Role: RoleSystem, Content: question.Prompt})
		return
	}

	// Отсутствие next_question — единственный сигнал завершения
	c.question = nil
	c.done = true

	if !res.HasEvaluation() && !res.SessionDone {
		log.Printf("Сессия %s: ответ без evaluation и next_question, считаю интервью завершенным", c.sessionID)
	}
}

// FetchReport запрашивает итоговый отчет. Доступно только после завершения
// интервью; повторный вызов просто перезаписывает сохраненный отчет.
func (c *Controller) FetchReport() (report.Report, error) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if !c.done {
		c.mu.Unlock()
		return nil, ErrNotDone
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.inFlight = true
	sessionID := c.sessionID
	c.mu.Unlock()

	rep, err := c.gateway.FetchTranscript(sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportFetchFailed, err)
	}

	c.report = rep
	return rep, nil
}

// State возвращает текущее производное состояние попытки
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.sessionID == "":
		return StateNoSession
	case c.report != nil:
		return StateReportFetched
	case c.done:
		return StateDone
	default:
		return StateActive
	}
}

// SessionID возвращает идентификатор сессии, выданный сервисом
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// CurrentQuestion возвращает копию текущего вопроса, если он есть
func (c *Controller) CurrentQuestion() (Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.question == nil {
		return Question{}, false
	}
	return *c.question, true
}

// AwaitingFile сообщает, ждет ли текущий вопрос загрузки файла
func (c *Controller) AwaitingFile() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.question != nil && c.question.IsFileQuestion()
}

// Messages возвращает копию лога интервью в порядке добавления
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Report возвращает сохраненный отчет, если он был получен
func (c *Controller) Report() (report.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return nil, false
	}
	out := make(report.Report, len(c.report))
	copy(out, c.report)
	return out, true
}

// compactJSON убирает лишние пробелы из JSON; при ошибке возвращает исходный текст
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
