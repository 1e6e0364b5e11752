package alerting

import (
	"sync"
	"time"
)

// cleanupThreshold — после стольких записей устаревшие удаляются.
const cleanupThreshold = 100

// RateLimiter подавляет повторные алерты с тем же ключом в пределах окна.
// Хранит состояние в памяти, поэтому полезен прежде всего в hub-watch,
// где процесс живёт долго. Ключ — ErrorCode+Scenario.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	sent   map[string]time.Time
	now    func() time.Time
}

// NewRateLimiter создаёт RateLimiter с указанным окном.
func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		sent:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow атомарно проверяет ключ и помечает его отправленным.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if len(r.sent) > cleanupThreshold {
		for k, last := range r.sent {
			if now.Sub(last) >= r.window {
				delete(r.sent, k)
			}
		}
	}

	if last, ok := r.sent[key]; ok && now.Sub(last) < r.window {
		return false
	}
	r.sent[key] = now
	return true
}

// Reset забывает ключ. Вызывается при восстановлении сценария, чтобы
// следующий провал дал алерт сразу.
func (r *RateLimiter) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sent, key)
}

// SetNowFunc подменяет часы. Используется в тестах.
func (r *RateLimiter) SetNowFunc(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = fn
}

// rateKey — ключ rate limiting для алерта.
func rateKey(a Alert) string {
	return a.ErrorCode + "|" + a.Scenario
}
