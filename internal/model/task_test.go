package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdays_ScanValue(t *testing.T) {
	days := Weekdays{time.Monday, time.Wednesday, time.Friday}

	v, err := days.Value()
	require.NoError(t, err)
	assert.Equal(t, "1,3,5", v)

	var back Weekdays
	require.NoError(t, back.Scan("1,3,5"))
	assert.Equal(t, days, back)

	require.NoError(t, back.Scan([]byte("0, 6")))
	assert.Equal(t, Weekdays{time.Sunday, time.Saturday}, back)

	require.NoError(t, back.Scan(nil))
	assert.Nil(t, back)

	assert.Error(t, back.Scan("mon"))
	assert.Error(t, back.Scan(42))
}

func TestWeekdays_Normalize(t *testing.T) {
	got := Weekdays{time.Friday, time.Monday, time.Friday, time.Sunday}.Normalize()
	assert.Equal(t, Weekdays{time.Sunday, time.Monday, time.Friday}, got)
	assert.True(t, got.Contains(time.Monday))
	assert.False(t, got.Contains(time.Tuesday))
}

func TestTask_KindHelpers(t *testing.T) {
	assert.False(t, Task{Kind: KindTask}.IsReminder())
	assert.True(t, Task{Kind: KindReminder, Mode: ModeOnce}.IsReminder())
	assert.False(t, Task{Kind: KindReminder, Mode: ModeOnce}.IsWeekly())
	assert.True(t, Task{Kind: KindReminder, Mode: ModeWeekly}.IsWeekly())
}
