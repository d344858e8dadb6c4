package takeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_SlotAssignment(t *testing.T) {
	root := "Takeout/Fitbit/"
	entries := map[string][]byte{
		"Takeout/Fitbit/steps_2024.csv":                                 []byte("date,steps\n"),
		"Takeout/Fitbit/calories_2024.csv":                              []byte("date,calories\n"),
		"Takeout/Fitbit/heart_rate_zones_2024.csv":                      []byte("date,zone1_minutes\n"),
		"Takeout/Fitbit/resting_heart_rate_2024.csv":                    []byte("date,value\n"),
		"Takeout/Fitbit/sleep_2024.csv":                                 []byte("end_time\n"),
		"Takeout/Fitbit/Global Export Data/steps-2024-01-01.json":       []byte(`[]`),
		"Takeout/Fitbit/Global Export Data/calories-2024-01-01.json":    []byte(`[]`),
		"Takeout/Fitbit/Global Export Data/time_in_heart_rate_zones-2024-01-01.json": []byte(`[]`),
		"Takeout/Fitbit/Global Export Data/resting_heart_rate-2024-01-01.json":       []byte(`[]`),
		"Takeout/Fitbit/Global Export Data/sleep-2024-01-01.json":       []byte(`[]`),
	}

	csvFiles, jsonFiles := Classify(root, entries)
	require.Len(t, csvFiles, 5)
	require.Len(t, jsonFiles, 5)

	slotsOf := func(files []ClassifiedFile) map[string]string {
		m := make(map[string]string)
		for _, f := range files {
			m[f.Name] = f.Slot
		}
		return m
	}

	csvSlots := slotsOf(csvFiles)
	assert.Equal(t, SlotStepsCSV, csvSlots["steps_2024.csv"])
	assert.Equal(t, SlotCaloriesCSV, csvSlots["calories_2024.csv"])
	assert.Equal(t, SlotZonesCSV, csvSlots["heart_rate_zones_2024.csv"])
	assert.Equal(t, SlotRestingHRCSV, csvSlots["resting_heart_rate_2024.csv"])
	assert.Equal(t, SlotSleepCSV, csvSlots["sleep_2024.csv"])

	jsonSlots := slotsOf(jsonFiles)
	assert.Equal(t, SlotStepsJSON, jsonSlots["steps-2024-01-01.json"])
	assert.Equal(t, SlotCaloriesJSON, jsonSlots["calories-2024-01-01.json"])
	assert.Equal(t, SlotZonesJSON, jsonSlots["time_in_heart_rate_zones-2024-01-01.json"])
	assert.Equal(t, SlotRestingHRJSON, jsonSlots["resting_heart_rate-2024-01-01.json"])
	assert.Equal(t, SlotSleepJSON, jsonSlots["sleep-2024-01-01.json"])
}

func TestClassify_SleepScoreGoesToRestingHRSlot(t *testing.T) {
	// sleep_score.csv 是 resting_hr 的补充来源，不能落进 sleep 槽位
	entries := map[string][]byte{
		"Takeout/Fitbit/sleep_score.csv": []byte("date,resting_heart_rate\n"),
	}

	csvFiles, _ := Classify("Takeout/Fitbit/", entries)
	require.Len(t, csvFiles, 1)
	assert.Equal(t, SlotRestingHRCSV, csvFiles[0].Slot)
}

func TestClassify_RestingHRBeforeSleepScore(t *testing.T) {
	// 主来源 resting_heart_rate*.csv 必须先于 sleep_score.csv 解析：
	// 后者只在当日静息心率仍缺失时才补值
	entries := map[string][]byte{
		"Takeout/Fitbit/sleep_score.csv":             []byte("date,resting_heart_rate\n"),
		"Takeout/Fitbit/resting_heart_rate_2024.csv": []byte("date,value\n"),
	}

	csvFiles, _ := Classify("Takeout/Fitbit/", entries)
	require.Len(t, csvFiles, 2)
	assert.Equal(t, "resting_heart_rate_2024.csv", csvFiles[0].Name)
	assert.Equal(t, "sleep_score.csv", csvFiles[1].Name)
}

func TestClassify_IgnoresUnrecognizedAndOutsideRoot(t *testing.T) {
	entries := map[string][]byte{
		"Takeout/Fitbit/weight_2024.csv":      []byte("date,weight\n"),
		"Takeout/Fitbit/readme.txt":           []byte("x"),
		"Takeout/Google Photos/steps_x.csv":   []byte("date,steps\n"),
		"Takeout/Fitbit/steps_2024.csv":       []byte("date,steps\n"),
	}

	csvFiles, jsonFiles := Classify("Takeout/Fitbit/", entries)
	require.Len(t, csvFiles, 1)
	assert.Empty(t, jsonFiles)
	assert.Equal(t, "steps_2024.csv", csvFiles[0].Name)
}

func TestClassify_DeterministicOrder(t *testing.T) {
	entries := map[string][]byte{
		"Takeout/Fitbit/steps_b.csv":    []byte("date,steps\n"),
		"Takeout/Fitbit/steps_a.csv":    []byte("date,steps\n"),
		"Takeout/Fitbit/calories_x.csv": []byte("date,calories\n"),
	}

	csvFiles, _ := Classify("Takeout/Fitbit/", entries)
	require.Len(t, csvFiles, 3)
	assert.Equal(t, "steps_a.csv", csvFiles[0].Name)
	assert.Equal(t, "steps_b.csv", csvFiles[1].Name)
	assert.Equal(t, "calories_x.csv", csvFiles[2].Name)
}
