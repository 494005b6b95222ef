package interview

import "errors"

// Ошибки операций: по одной на каждую операцию транспортного клиента,
// каждая оборачивает исходную причину без дальнейшей классификации.
var (
	ErrStartFailed       = errors.New("не удалось начать интервью")
	ErrSubmitFailed      = errors.New("не удалось отправить ответ")
	ErrFileSubmitFailed  = errors.New("не удалось отправить файл")
	ErrReportFetchFailed = errors.New("не удалось получить отчет")
)

// Ошибки-ограждения: отклоняют операцию локально, без обращения к сервису.
var (
	ErrNoSession          = errors.New("сессия интервью не создана")
	ErrSessionExists      = errors.New("сессия интервью уже создана")
	ErrInterviewDone      = errors.New("интервью уже завершено")
	ErrNotDone            = errors.New("интервью еще не завершено")
	ErrSubmissionInFlight = errors.New("предыдущая отправка еще обрабатывается")
	ErrEmptySubmission    = errors.New("файловый ответ не содержит файла")
)
