package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 8 * * *", spec)

	_, err = buildDailySpec("8 am")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestSchedulerService_Register(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())

	daily, err := s.ScheduleDaily("23:59", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleInterval(10*time.Minute, func() {})
	require.NoError(t, err)

	_, err = s.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next(daily)
	require.False(t, next.IsZero())
	assert.Equal(t, 23, next.Hour())
	assert.Equal(t, 59, next.Minute())
}

func TestSchedulerService_IntervalRuns(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("interval job did not run")
	}
}
