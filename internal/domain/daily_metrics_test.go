package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayBucket_IsEmpty(t *testing.T) {
	// 全空桶不落库（上层据此跳过并计入 rowsSkipped）
	assert.True(t, (&DayBucket{}).IsEmpty())

	v := 1.0
	assert.False(t, (&DayBucket{Steps: &v}).IsEmpty())
	assert.False(t, (&DayBucket{HRV: &v}).IsEmpty())
	assert.False(t, (&DayBucket{SleepMinutes: &v}).IsEmpty())
}

func TestDayBucket_MetricValue(t *testing.T) {
	steps, azm, rhr := 8000.0, 50.0, 62.0
	b := &DayBucket{Steps: &steps, ActiveZoneMinutes: &azm, RestingHR: &rhr}

	assert.Equal(t, &steps, b.MetricValue(MetricSteps))
	// zones 的代表值是派生的 activeZoneMinutes
	assert.Equal(t, &azm, b.MetricValue(MetricZones))
	assert.Equal(t, &rhr, b.MetricValue(MetricRestingHR))
	assert.Nil(t, b.MetricValue(MetricCalories))
	assert.Nil(t, b.MetricValue(MetricSleep))
}
