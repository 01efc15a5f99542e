// Package timeutil содержит абстракцию часов, позволяющую подменять время в тестах.
package timeutil

import (
	"sync"
	"time"
)

// Clock источник текущего времени
type Clock interface {
	// Now возвращает текущее время.
	Now() time.Time

	// Since возвращает время, прошедшее с момента t.
	Since(t time.Time) time.Duration
}

// RealClock реализует Clock через пакет time
type RealClock struct{}

// Now возвращает time.Now()
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since возвращает time.Since(t)
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock управляемые часы для тестов
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock создает часы, остановленные на моменте start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now возвращает текущее значение часов
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since возвращает разницу между текущим значением часов и t
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set устанавливает часы на момент t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance сдвигает часы вперед на d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
