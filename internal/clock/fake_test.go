package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	var firedAt []time.Time
	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			firedAt = append(firedAt, c.Now())
		}
	}
	c.AfterFunc(3*time.Minute, record("c"))
	c.AfterFunc(time.Minute, record("a"))
	c.AfterFunc(2*time.Minute, record("b"))

	c.Advance(150 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(time.Minute), firedAt[0])
	assert.Equal(t, start.Add(150*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Hour)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_StopPreventsFire(t *testing.T) {
	c := NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports nothing to stop")

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFake_CallbackArmsChainedTimer(t *testing.T) {
	c := NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var fired []time.Duration
	start := c.Now()
	c.AfterFunc(time.Minute, func() {
		fired = append(fired, c.Now().Sub(start))
		c.AfterFunc(2*time.Minute, func() {
			fired = append(fired, c.Now().Sub(start))
		})
	})

	c.Advance(10 * time.Minute)
	assert.Equal(t, []time.Duration{time.Minute, 3 * time.Minute}, fired)
}

func TestFake_SetBackwardsDoesNotFire(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)
	fired := false
	c.AfterFunc(time.Minute, func() { fired = true })

	c.Set(start.Add(-time.Hour))
	assert.False(t, fired)
	assert.Equal(t, start.Add(-time.Hour), c.Now())
}
