package metrics

import (
	"sync"
	"time"
)

// Metrics накапливает счетчики работы бота
type Metrics struct {
	mu                sync.RWMutex
	sessionsStarted   int64
	sessionsCompleted int64
	answersSubmitted  int64
	filesSubmitted    int64
	reportsFetched    int64
	requestsFailed    int64
	lastUpdateTime    time.Time
}

// Snapshot представляет срез счетчиков на момент запроса
type Snapshot struct {
	SessionsStarted   int64
	SessionsCompleted int64
	AnswersSubmitted  int64
	FilesSubmitted    int64
	ReportsFetched    int64
	RequestsFailed    int64
	LastUpdateTime    time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		lastUpdateTime: time.Now(),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsStarted++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementSessionsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCompleted++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementAnswersSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answersSubmitted++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementFilesSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filesSubmitted++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementReportsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsFetched++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementRequestsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsFailed++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		SessionsStarted:   m.sessionsStarted,
		SessionsCompleted: m.sessionsCompleted,
		AnswersSubmitted:  m.answersSubmitted,
		FilesSubmitted:    m.filesSubmitted,
		ReportsFetched:    m.reportsFetched,
		RequestsFailed:    m.requestsFailed,
		LastUpdateTime:    m.lastUpdateTime,
	}
}
