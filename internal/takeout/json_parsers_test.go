package takeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonFile(name, slot, content string) ClassifiedFile {
	return ClassifiedFile{
		Path: "Takeout/Fitbit/Global Export Data/" + name,
		Name: name,
		Slot: slot,
		Data: []byte(content),
	}
}

func TestParseStepsJSON_SumsPerDay(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("steps-2024-01-01.json", SlotStepsJSON, `[
		{"dateTime": "01/01/24 00:00:00", "value": "100"},
		{"dateTime": "01/01/24 00:15:00", "value": "250"},
		{"dateTime": "01/02/24 00:00:00", "value": 80}
	]`)

	accepted := parseStepsJSON(f, agg)
	assert.Equal(t, 3, accepted)

	res := agg.Finalize()
	assert.Equal(t, 350.0, *res.Buckets["2024-01-01"].Steps)
	assert.Equal(t, 80.0, *res.Buckets["2024-01-02"].Steps)
}

func TestParseStepsJSON_CorruptDocument(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("steps-2024-01-01.json", SlotStepsJSON, `{"not": "an array"`)

	accepted := parseStepsJSON(f, agg)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)
}

func TestParseCaloriesJSON_BadEntriesSkipped(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("calories-2024-01-01.json", SlotCaloriesJSON, `[
		{"dateTime": "01/01/24 00:00:00", "value": "15.36"},
		{"dateTime": "garbage", "value": "10"},
		{"dateTime": "01/01/24 00:15:00", "value": null}
	]`)

	accepted := parseCaloriesJSON(f, agg)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, agg.RowsSkipped)

	res := agg.Finalize()
	assert.Equal(t, 15.36, *res.Buckets["2024-01-01"].EnergyBurnedKcal)
}

func TestParseZonesJSON_SumsZoneMinutes(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("time_in_heart_rate_zones-2024-01-01.json", SlotZonesJSON, `[
		{"dateTime": "01/01/24 00:00:00", "value": {"valuesInZones": {
			"BELOW_DEFAULT_ZONE_1": 1200, "IN_DEFAULT_ZONE_1": 40,
			"IN_DEFAULT_ZONE_2": 20, "IN_DEFAULT_ZONE_3": 5
		}}},
		{"dateTime": "01/01/24 12:00:00", "value": {"valuesInZones": {
			"IN_DEFAULT_ZONE_2": 10, "IN_DEFAULT_ZONE_3": 5
		}}}
	]`)

	accepted := parseZonesJSON(f, agg)
	assert.Equal(t, 2, accepted)

	res := agg.Finalize()
	b := res.Buckets["2024-01-01"]
	assert.Equal(t, 1200.0, *b.BelowZone1Min)
	assert.Equal(t, 40.0, *b.Zone1Min)
	assert.Equal(t, 30.0, *b.Zone2Min)
	assert.Equal(t, 10.0, *b.Zone3Min)
}

func TestParseRestingHRJSON_ZeroValueIsNoContribution(t *testing.T) {
	agg := NewAggregation("UTC")
	// 厂家在无数据的日子里给 value=0：视为无贡献，不是心率 0
	f := jsonFile("resting_heart_rate-2024-01-01.json", SlotRestingHRJSON, `[
		{"dateTime": "01/01/24 00:00:00", "value": {"date": "01/01/24", "value": 0.0, "error": 12.0}},
		{"dateTime": "01/02/24 00:00:00", "value": {"date": "01/02/24", "value": 61.5, "error": 3.2}}
	]`)

	accepted := parseRestingHRJSON(f, agg)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)

	res := agg.Finalize()
	assert.NotContains(t, res.Buckets, "2024-01-01")
	assert.Equal(t, 61.5, *res.Buckets["2024-01-02"].RestingHR)
}

func TestParseSleepJSON_WakeDateFromEndTimeNoOffset(t *testing.T) {
	agg := NewAggregation("UTC")
	// endTime 是厂家本地时钟：直接取日期部分，不做偏移运算
	f := jsonFile("sleep-2024-01-01.json", SlotSleepJSON, `[
		{"logId": 1, "dateOfSleep": "2024-01-02", "startTime": "2024-01-01T22:30:00.000",
		 "endTime": "2024-01-02T06:30:00.000", "minutesAsleep": 430, "mainSleep": true}
	]`)

	accepted := parseSleepJSON(f, agg)
	assert.Equal(t, 1, accepted)

	res := agg.Finalize()
	require.Contains(t, res.Buckets, "2024-01-02")
	assert.Equal(t, 430.0, *res.Buckets["2024-01-02"].SleepMinutes)

	day := agg.Diags.Days["2024-01-02"]
	require.Len(t, day.SleepEntries, 1)
	assert.Nil(t, day.SleepEntries[0].OffsetMin) // JSON 路径无偏移
}

func TestParseSleepJSON_FallbackChain(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("sleep-2024-01-01.json", SlotSleepJSON, `[
		{"logId": 1, "dateOfSleep": "2024-01-03", "startTime": "2024-01-02T23:00:00.000",
		 "minutesAsleep": 300},
		{"logId": 2, "dateOfSleep": "2024-01-05", "minutesAsleep": 290}
	]`)

	accepted := parseSleepJSON(f, agg)
	assert.Equal(t, 2, accepted)

	res := agg.Finalize()
	// 第一条退到 startTime，第二条退到 dateOfSleep
	assert.Equal(t, 300.0, *res.Buckets["2024-01-02"].SleepMinutes)
	assert.Equal(t, 290.0, *res.Buckets["2024-01-05"].SleepMinutes)
}

func TestParseSleepJSON_NapAndBadMinutes(t *testing.T) {
	agg := NewAggregation("UTC")
	f := jsonFile("sleep-2024-01-01.json", SlotSleepJSON, `[
		{"logId": 1, "endTime": "2024-01-02T06:30:00.000", "minutesAsleep": 400, "mainSleep": true},
		{"logId": 2, "endTime": "2024-01-02T15:00:00.000", "minutesAsleep": 50, "mainSleep": false},
		{"logId": 3, "endTime": "2024-01-02T18:00:00.000", "minutesAsleep": 0, "mainSleep": true}
	]`)

	accepted := parseSleepJSON(f, agg)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)

	res := agg.Finalize()
	assert.Equal(t, 400.0, *res.Buckets["2024-01-02"].SleepMinutes)
}
