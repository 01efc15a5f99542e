// Package alert решает, когда критическое событие должно породить экстренное оповещение.
package alert

import (
	"sync"
	"time"

	"roof-watch-go/internal/timeutil"
)

// DefaultCooldown минимальный интервал между оповещениями одного потока
const DefaultCooldown = 30 * time.Second

// Debouncer хранит время последней попытки оповещения и окно подавления.
// Один экземпляр на видеопоток: состояние нельзя делить между потоками.
type Debouncer struct {
	clock    timeutil.Clock
	cooldown time.Duration

	mu        sync.Mutex
	lastAlert time.Time
	fired     bool
}

// NewDebouncer создает дебаунсер. Отрицательный cooldown приводится к нулю.
func NewDebouncer(clock timeutil.Clock, cooldown time.Duration) *Debouncer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cooldown < 0 {
		cooldown = 0
	}
	return &Debouncer{
		clock:    clock,
		cooldown: cooldown,
	}
}

// Cooldown возвращает окно подавления
func (d *Debouncer) Cooldown() time.Duration {
	return d.cooldown
}

// Now текущее время по часам дебаунсера
func (d *Debouncer) Now() time.Time {
	return d.clock.Now()
}

// TryAcquire разрешает отправку, если оповещений еще не было или с последнего
// прошло строго больше cooldown. Состояние не меняет: после отправки нужно вызвать Record.
func (d *Debouncer) TryAcquire(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.fired {
		return true
	}
	return now.Sub(d.lastAlert) > d.cooldown
}

// Record фиксирует момент попытки отправки
func (d *Debouncer) Record(now time.Time) {
	d.mu.Lock()
	d.lastAlert = now
	d.fired = true
	d.mu.Unlock()
}

// LastAlert возвращает время последней зафиксированной отправки
func (d *Debouncer) LastAlert() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastAlert, d.fired
}

// Remaining сколько осталось до конца окна подавления (0, если отправка разрешена)
func (d *Debouncer) Remaining(now time.Time) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.fired {
		return 0
	}
	left := d.cooldown - now.Sub(d.lastAlert)
	if left < 0 {
		return 0
	}
	return left
}
