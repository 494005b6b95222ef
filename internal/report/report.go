package report

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"
)

// Report представляет итоговый отчет интервью — непрозрачный JSON от сервиса.
// Клиент не интерпретирует его содержимое, только хранит и сериализует.
type Report []byte

// Summary содержит известные поля отчета, если сервис прислал ожидаемую форму
type Summary struct {
	SessionID  string  `json:"session_id"`
	FinalScore float64 `json:"final_score"`
	Entries    int     `json:"-"`
}

// Export сериализует отчет в JSON с устойчивым порядком ключей.
// Повторный экспорт одного и того же отчета дает побайтово идентичный результат.
func (r Report) Export() ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(r, &value); err != nil {
		return nil, fmt.Errorf("ошибка разбора отчета: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации отчета: %w", err)
	}

	return data, nil
}

// Summarize извлекает итоговый балл и количество записей транскрипта.
// Возвращает false, если отчет имеет неизвестную форму.
func (r Report) Summarize() (Summary, bool) {
	var parsed struct {
		SessionID  string            `json:"session_id"`
		FinalScore float64           `json:"final_score"`
		Transcript []json.RawMessage `json:"transcript"`
	}

	if err := json.Unmarshal(r, &parsed); err != nil {
		return Summary{}, false
	}
	if parsed.SessionID == "" && parsed.Transcript == nil {
		return Summary{}, false
	}

	return Summary{
		SessionID:  parsed.SessionID,
		FinalScore: parsed.FinalScore,
		Entries:    len(parsed.Transcript),
	}, true
}

// RenderYAML представляет отчет в человекочитаемом виде для отправки в чат
func (r Report) RenderYAML() (string, error) {
	var value map[string]interface{}
	if err := json.Unmarshal(r, &value); err != nil {
		return "", fmt.Errorf("ошибка разбора отчета: %w", err)
	}

	out, err := yaml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("ошибка рендеринга отчета: %w", err)
	}

	return string(out), nil
}
