package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"excel-interview-bot/internal/report"
)

const (
	reportPrefix = "report_"
	reportSuffix = ".json"
)

// Store сохраняет экспортированные отчеты интервью на диске
type Store struct {
	dir string
}

// New создает хранилище отчетов в указанной директории
func New(dir string) *Store {
	return &Store{dir: dir}
}

// SaveReport экспортирует отчет и записывает его в файл.
// Возвращает путь к записанному файлу.
func (s *Store) SaveReport(attemptID string, rep report.Report) (string, error) {
	// Создаем директорию если её нет
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории %s: %w", s.dir, err)
	}

	data, err := rep.Export()
	if err != nil {
		return "", fmt.Errorf("ошибка экспорта отчета: %w", err)
	}

	path := filepath.Join(s.dir, reportPrefix+attemptID+reportSuffix)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи файла %s: %w", path, err)
	}

	return path, nil
}

// LoadReport загружает сохраненный отчет по идентификатору попытки
func (s *Store) LoadReport(attemptID string) (report.Report, error) {
	path := filepath.Join(s.dir, reportPrefix+attemptID+reportSuffix)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	return report.Report(data), nil
}

// ListReports возвращает идентификаторы всех сохраненных отчетов
func (s *Store) ListReports() ([]string, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", s.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, reportPrefix), reportSuffix))
	}

	return ids, nil
}
