package normalization

import (
	"context"
	"fmt"
	"log"
	"time"

	"termnorm/ranking"
)

// RetryConfig расписание повторов инициализации сессии
type RetryConfig struct {
	MaxAttempts int
	// Delays задержки перед повтором после каждой неудачной попытки.
	// Если попыток больше, чем задержек, последняя задержка повторяется.
	Delays []time.Duration
}

// DefaultRetryConfig возвращает расписание повторов по умолчанию
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delays:      []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// delay возвращает задержку перед повтором после попытки attempt (с 1)
func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.Delays) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(c.Delays) {
		idx = len(c.Delays) - 1
	}
	return c.Delays[idx]
}

// SessionGuard скрывает жизненный цикл удаленной сессии от конвейера.
// Сервис ранжирования держит индекс терминов в памяти, и любой рестарт
// бэкенда молча обесценивает его, поэтому каждый удаленный вызов
// оборачивается в восстановление: одна повторная инициализация плюс
// один повтор вызова.
type SessionGuard struct {
	transport Transport
	state     StateStore
	notifier  Notifier
	retry     RetryConfig

	// sleep и now подменяются в тестах
	sleep func(time.Duration)
	now   func() time.Time
}

// NewSessionGuard создает страж сессии
func NewSessionGuard(transport Transport, state StateStore, notifier Notifier, retry RetryConfig) *SessionGuard {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}

	return &SessionGuard{
		transport: transport,
		state:     state,
		notifier:  notifier,
		retry:     retry,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// EnsureInitialized гарантирует готовность удаленной сессии.
// Если сессия уже помечена инициализированной, возвращает true без
// сетевого вызова: это быстрый путь, а не проверка живости.
func (g *SessionGuard) EnsureInitialized(ctx context.Context, terms []string) bool {
	if stateBool(g.state, StateSessionInitialized) {
		return true
	}

	g.notifier.Notify("Инициализация сессии ранжирования...", "info")

	if !g.InitWithRetry(ctx, terms) {
		g.notifier.Notify("Не удалось инициализировать сессию ранжирования", "error")
		return false
	}
	return true
}

// InitWithRetry выполняет инициализацию сессии с повторами по
// расписанию. При успехе сохраняет состояние сессии и возвращает true
// немедленно. После исчерпания попыток сохраняет причину отказа.
func (g *SessionGuard) InitWithRetry(ctx context.Context, terms []string) bool {
	var lastErr error

	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		err := g.transport.InitTerms(ctx, terms)
		if err == nil {
			g.state.Set(StateSessionInitialized, true)
			g.state.Set(StateSessionTermCount, len(terms))
			g.state.Set(StateSessionLastInit, g.now().UTC().Format(time.RFC3339))
			return true
		}

		lastErr = err
		log.Printf("[Session] WARN: init attempt %d/%d failed: %v", attempt, g.retry.MaxAttempts, err)

		if attempt < g.retry.MaxAttempts {
			g.sleep(g.retry.delay(attempt))
		}
	}

	g.state.Set(StateSessionInitialized, false)
	g.state.Set(StateSessionFailure, fmt.Sprintf("session init failed after %d attempts: %v", g.retry.MaxAttempts, lastErr))
	return false
}

// ExecuteWithRecovery выполняет удаленный вызов с одним восстановлением.
// Ошибка или пустой ответ трактуются как недействительная сессия:
// сессия сбрасывается, инициализация повторяется, и при ее успехе вызов
// повторяется ровно один раз. Неудача восстановления возвращает nil —
// "удаленный уровень ничего не дал", а не ошибку.
func (g *SessionGuard) ExecuteWithRecovery(ctx context.Context, terms []string, call func() (*ranking.RankResponse, error)) *ranking.RankResponse {
	resp, err := call()
	if err == nil && resp != nil {
		return resp
	}
	if err != nil {
		log.Printf("[Session] WARN: remote call failed, recovering: %v", err)
	}

	g.notifier.Notify("Сессия ранжирования недействительна, выполняется восстановление...", "warning")
	g.state.Set(StateSessionInitialized, false)

	if !g.InitWithRetry(ctx, terms) {
		return nil
	}

	resp, err = call()
	if err != nil {
		log.Printf("[Session] ERROR: remote call failed after recovery: %v", err)
		return nil
	}
	return resp
}
