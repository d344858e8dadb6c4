package takeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalsync-import/internal/domain"
)

func csvFile(name, slot, content string) ClassifiedFile {
	return ClassifiedFile{
		Path: "Takeout/Fitbit/" + name,
		Name: name,
		Slot: slot,
		Data: []byte(content),
	}
}

func TestParseStepsCSV_SumsPerDay(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("steps_2024.csv", SlotStepsCSV,
		"date,steps\n"+
			"2024-01-01,1000\n"+
			"2024-01-01,2500\n"+
			"2024-01-02,\"3,000\"\n")

	accepted := parseStepsCSV(f, agg)
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 0, agg.RowsSkipped)

	res := agg.Finalize()
	require.NotNil(t, res.Buckets["2024-01-01"].Steps)
	assert.Equal(t, 3500.0, *res.Buckets["2024-01-01"].Steps)
	require.NotNil(t, res.Buckets["2024-01-02"].Steps)
	assert.Equal(t, 3000.0, *res.Buckets["2024-01-02"].Steps)
}

func TestParseStepsCSV_BadRowsSkipped(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("steps_2024.csv", SlotStepsCSV,
		"date,steps\n"+
			"2024-01-01,1000\n"+
			"not-a-date,500\n"+
			"2024-01-01,NaN\n")

	accepted := parseStepsCSV(f, agg)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, agg.RowsSkipped)
}

func TestParseStepsCSV_UnparseableFile(t *testing.T) {
	agg := NewAggregation("UTC")
	// 引号不闭合，文件级解析失败：整个文件按 0 行计，不 panic 不中断
	f := csvFile("steps_2024.csv", SlotStepsCSV, "date,steps\n\"2024-01-01,100\n")

	accepted := parseStepsCSV(f, agg)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)
}

func TestParseCaloriesCSV_AlternateColumnNames(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("calories_2024.csv", SlotCaloriesCSV,
		"date,calories_burned\n2024-01-01,2100.5\n")

	accepted := parseCaloriesCSV(f, agg)
	assert.Equal(t, 1, accepted)

	res := agg.Finalize()
	require.NotNil(t, res.Buckets["2024-01-01"].EnergyBurnedKcal)
	assert.Equal(t, 2100.5, *res.Buckets["2024-01-01"].EnergyBurnedKcal)
}

func TestParseZonesCSV_FieldLevelTolerance(t *testing.T) {
	agg := NewAggregation("UTC")
	// zone2 一个字段坏掉只丢该字段，行里其他区间照常累加
	f := csvFile("heart_rate_zones_2024.csv", SlotZonesCSV,
		"date,zone1_minutes,zone2_minutes,zone3_minutes\n"+
			"2024-01-01,20,bad,10\n")

	accepted := parseZonesCSV(f, agg)
	assert.Equal(t, 1, accepted)

	res := agg.Finalize()
	b := res.Buckets["2024-01-01"]
	require.NotNil(t, b.Zone1Min)
	assert.Equal(t, 20.0, *b.Zone1Min)
	assert.Nil(t, b.Zone2Min)
	require.NotNil(t, b.Zone3Min)
	assert.Equal(t, 10.0, *b.Zone3Min)
}

func TestParseZonesCSV_AllFieldsBadIsSkippedRow(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("heart_rate_zones_2024.csv", SlotZonesCSV,
		"date,zone1_minutes\n2024-01-01,bad\n")

	accepted := parseZonesCSV(f, agg)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)
}

func TestParseRestingHRCSV_FirstValidWins(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("resting_heart_rate_2024.csv", SlotRestingHRCSV,
		"date,value\n"+
			"2024-01-01,0\n"+
			"2024-01-01,62\n"+
			"2024-01-01,64\n")

	accepted := parseRestingHRCSV(f, agg)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, 1, agg.RowsSkipped) // v<=0 无贡献

	res := agg.Finalize()
	require.NotNil(t, res.Buckets["2024-01-01"].RestingHR)
	assert.Equal(t, 62.0, *res.Buckets["2024-01-01"].RestingHR)
}

func TestParseRestingHRCSV_SleepScoreFillsOnlyWhenAbsent(t *testing.T) {
	agg := NewAggregation("UTC")

	primary := csvFile("resting_heart_rate_2024.csv", SlotRestingHRCSV,
		"date,value\n2024-01-01,60\n")
	supplement := csvFile("sleep_score.csv", SlotRestingHRCSV,
		"date,resting_heart_rate\n"+
			"2024-01-01,70\n"+
			"2024-01-02,58\n")

	parseRestingHRCSV(primary, agg)
	parseRestingHRCSV(supplement, agg)

	res := agg.Finalize()
	// 01-01 已有主来源值，sleep_score 不覆盖；01-02 缺失，由 sleep_score 补齐
	assert.Equal(t, 60.0, *res.Buckets["2024-01-01"].RestingHR)
	assert.Equal(t, 58.0, *res.Buckets["2024-01-02"].RestingHR)
}

func TestParseSleepCSV_WakeDateUsesExplicitOffset(t *testing.T) {
	agg := NewAggregation("UTC")
	// UTC 03:00 + (-05:00) = 前一天 22:00：醒来日是 2024-01-01
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"start_time,end_time,minutes_asleep,timezone_offset\n"+
			"2024-01-01 19:00:00,2024-01-02 03:00:00,420,-05:00\n")

	accepted := parseSleepCSV(f, agg)
	assert.Equal(t, 1, accepted)

	res := agg.Finalize()
	require.Contains(t, res.Buckets, "2024-01-01")
	assert.Equal(t, 420.0, *res.Buckets["2024-01-01"].SleepMinutes)
}

func TestParseSleepCSV_PositiveOffsetCrossesForward(t *testing.T) {
	agg := NewAggregation("UTC")
	// UTC 23:30 + 05:30 = 次日 05:00：醒来日是 2024-01-02
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"end_time,minutes_asleep,timezone_offset\n"+
			"2024-01-01 23:30:00,400,+05:30\n")

	parseSleepCSV(f, agg)
	res := agg.Finalize()
	require.Contains(t, res.Buckets, "2024-01-02")
	assert.Equal(t, 400.0, *res.Buckets["2024-01-02"].SleepMinutes)
}

func TestParseSleepCSV_SegmentsSumPerWakeDate(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"end_time,minutes_asleep,timezone_offset\n"+
			"2024-01-02 03:00:00,300,+00:00\n"+
			"2024-01-02 08:00:00,120,+00:00\n")

	parseSleepCSV(f, agg)
	res := agg.Finalize()
	assert.Equal(t, 420.0, *res.Buckets["2024-01-02"].SleepMinutes)
}

func TestParseSleepCSV_NapExcludedFromTotal(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"end_time,minutes_asleep,timezone_offset,is_main_sleep\n"+
			"2024-01-02 06:00:00,400,+00:00,true\n"+
			"2024-01-02 15:00:00,45,+00:00,false\n")

	parseSleepCSV(f, agg)
	res := agg.Finalize()
	// 小睡不计入总量，但是分桶诊断里保留那条决策
	assert.Equal(t, 400.0, *res.Buckets["2024-01-02"].SleepMinutes)

	day := agg.Diags.Days["2024-01-02"]
	require.NotNil(t, day)
	require.Len(t, day.SleepEntries, 2)
	assert.True(t, day.SleepEntries[0].MainSleep)
	assert.False(t, day.SleepEntries[1].MainSleep)
}

func TestParseSleepCSV_FallbackToStartTime(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"start_time,end_time,minutes_asleep,timezone_offset\n"+
			"2024-01-01 22:00:00,,360,+00:00\n")

	accepted := parseSleepCSV(f, agg)
	assert.Equal(t, 1, accepted)

	res := agg.Finalize()
	require.Contains(t, res.Buckets, "2024-01-01")
	assert.Equal(t, 360.0, *res.Buckets["2024-01-01"].SleepMinutes)
}

func TestParseSleepCSV_MissingOffsetIsSkipped(t *testing.T) {
	agg := NewAggregation("UTC")
	// 没有显式偏移就无法确定醒来日：行跳过，绝不猜测
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"end_time,minutes_asleep\n2024-01-02 06:00:00,400\n")

	accepted := parseSleepCSV(f, agg)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 1, agg.RowsSkipped)
	assert.Empty(t, agg.Finalize().Buckets)
}

func TestParseSleepCSV_SuspiciousSessionFlagged(t *testing.T) {
	agg := NewAggregation("UTC")
	f := csvFile("sleep_2024.csv", SlotSleepCSV,
		"end_time,minutes_asleep,timezone_offset\n"+
			"2024-01-02 06:00:00,1500,+00:00\n")

	parseSleepCSV(f, agg)
	day := agg.Diags.Days["2024-01-02"]
	require.NotNil(t, day)
	require.Len(t, day.SleepEntries, 1)
	assert.True(t, day.SleepEntries[0].Suspicious)
	require.NotNil(t, day.SleepEntries[0].OffsetMin)
	assert.Equal(t, 0, *day.SleepEntries[0].OffsetMin)
	assert.Equal(t, domain.SourceCSV, day.SleepEntries[0].Source)
}
