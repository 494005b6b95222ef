package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"excel-interview-bot/internal/interview"
	"excel-interview-bot/internal/report"
)

// Client представляет HTTP клиент сервиса интервью.
// Четыре операции сервиса — создание сессии, отправка ответа, отправка файла
// и получение отчета — транслируются в запросы один к одному, без повторов
// и без бэкоффа: повтор — это повторное действие пользователя.
type Client struct {
	baseURL string
	client  *http.Client
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// NewClient создает клиент сервиса интервью
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateSession создает новую сессию интервью и возвращает первый вопрос
func (c *Client) CreateSession() (*interview.StartResult, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/session", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var res interview.StartResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа сервиса: %w", err)
	}
	if res.SessionID == "" {
		return nil, fmt.Errorf("сервис не вернул идентификатор сессии")
	}

	return &res, nil
}

// SubmitAnswer отправляет текстовый ответ на текущий вопрос сессии
func (c *Client) SubmitAnswer(sessionID, answer string) (*interview.TurnResult, error) {
	jsonBody, err := json.Marshal(answerRequest{Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	url := fmt.Sprintf("%s/session/%s/message", c.baseURL, sessionID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.sendTurn(req)
}

// SubmitFile отправляет файловый ответ: книга уходит бинарной multipart
// частью excel_file, заметка — текстовым полем answer.
func (c *Client) SubmitFile(sessionID string, file interview.FileAnswer) (*interview.TurnResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("excel_file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("ошибка подготовки файла: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := writer.WriteField("answer", file.Note); err != nil {
		return nil, fmt.Errorf("ошибка записи заметки: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка завершения формы: %w", err)
	}

	url := fmt.Sprintf("%s/session/%s/submit", c.baseURL, sessionID)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.sendTurn(req)
}

// FetchTranscript запрашивает итоговый отчет завершенной сессии
func (c *Client) FetchTranscript(sessionID string) (report.Report, error) {
	url := fmt.Sprintf("%s/session/%s/transcript", c.baseURL, sessionID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	return report.Report(body), nil
}

// Ping проверяет доступность сервиса; используется только при старте
func (c *Client) Ping() error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	_, err = c.send(req)
	return err
}

// sendTurn выполняет запрос и разбирает общий для обоих видов ответа формат
func (c *Client) sendTurn(req *http.Request) (*interview.TurnResult, error) {
	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var res interview.TurnResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа сервиса: %w", err)
	}

	return &res, nil
}

// send выполняет запрос и возвращает тело успешного ответа.
// Сетевые ошибки и не-2xx статусы не различаются дальше читаемого сообщения.
func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к сервису интервью: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("сервис интервью вернул статус %d: %s", resp.StatusCode, truncateBody(body))
	}

	return body, nil
}

// truncateBody обрезает тело ответа для сообщения об ошибке
func truncateBody(body []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
