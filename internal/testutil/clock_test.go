package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_FrozenUntilMoved(t *testing.T) {
	start := time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "repeated reads must not drift")
}

func TestClock_Advance(t *testing.T) {
	start := time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, start.Add(5*time.Minute), clock.Now())

	clock.Advance(-10 * time.Minute)
	assert.Equal(t, start.Add(-5*time.Minute), clock.Now(), "negative advance moves backward")
}

func TestClock_Set(t *testing.T) {
	clock := NewClock(time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC))

	next := time.Date(2025, 3, 21, 9, 30, 0, 0, time.UTC)
	clock.Set(next)
	assert.Equal(t, next, clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock(time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC))
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines * 2)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
		go func() {
			defer wg.Done()
			_ = clock.Now()
		}()
	}
	wg.Wait()

	want := time.Date(2025, 3, 20, 21, 0, 50, 0, time.UTC)
	assert.Equal(t, want, clock.Now(), "all advances must land exactly once")
}
