package takeout

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"vitalsync-import/internal/domain"
)

// csvTable 解析后的 CSV：列名（小写、去空白）→ 列号，加数据行
type csvTable struct {
	index map[string]int
	rows  [][]string
}

// readCSV 读取整个 CSV 文件；首行为表头
// 文件级解析失败返回 nil（整个文件按 0 行处理，不中断导入）
func readCSV(data []byte) *csvTable {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &csvTable{index: index, rows: records[1:]}
}

// col 按候选列名取行内字段；都不存在返回 ("", false)
func (t *csvTable) col(row []string, names ...string) (string, bool) {
	for _, name := range names {
		if i, ok := t.index[name]; ok && i < len(row) {
			return row[i], true
		}
	}
	return "", false
}

// hasCol 表头是否含任一候选列
func (t *csvTable) hasCol(names ...string) bool {
	for _, name := range names {
		if _, ok := t.index[name]; ok {
			return true
		}
	}
	return false
}

// parseStepsCSV 步数 CSV：date + steps 列，同日多行求和
// 坏行逐条跳过，单条坏行不会中止文件
func parseStepsCSV(f ClassifiedFile, agg *Aggregation) int {
	t := readCSV(f.Data)
	if t == nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, row := range t.rows {
		rawDate, ok := t.col(row, "date", "timestamp")
		if !ok {
			agg.Skip()
			continue
		}
		date, err := parseCSVDate(rawDate)
		if err != nil {
			agg.Skip()
			continue
		}
		rawVal, ok := t.col(row, "steps", "value")
		if !ok {
			agg.Skip()
			continue
		}
		v, err := parseNumber(rawVal)
		if err != nil {
			agg.Skip()
			continue
		}
		agg.AddSteps(domain.SourceCSV, date, v)
		agg.row(SlotStepsCSV, date, domain.MetricSteps, f.Name)
		accepted++
	}
	return accepted
}

// parseCaloriesCSV 消耗千卡 CSV：date + calories 列，同日求和
func parseCaloriesCSV(f ClassifiedFile, agg *Aggregation) int {
	t := readCSV(f.Data)
	if t == nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, row := range t.rows {
		rawDate, ok := t.col(row, "date", "timestamp")
		if !ok {
			agg.Skip()
			continue
		}
		date, err := parseCSVDate(rawDate)
		if err != nil {
			agg.Skip()
			continue
		}
		rawVal, ok := t.col(row, "calories", "calories_burned", "value")
		if !ok {
			agg.Skip()
			continue
		}
		v, err := parseNumber(rawVal)
		if err != nil {
			agg.Skip()
			continue
		}
		agg.AddCalories(domain.SourceCSV, date, v)
		agg.row(SlotCaloriesCSV, date, domain.MetricCalories, f.Name)
		accepted++
	}
	return accepted
}

// 区间分钟数的候选列名（不同导出批次命名不一致）
var (
	zoneBelowCols = []string{"below_zone_1_minutes", "below_zone1_minutes", "out_of_range_minutes"}
	zone1Cols     = []string{"zone1_minutes", "fat_burn_minutes"}
	zone2Cols     = []string{"zone2_minutes", "cardio_minutes"}
	zone3Cols     = []string{"zone3_minutes", "peak_minutes"}
)

// parseZonesCSV 心率区间 CSV：date + 各区间分钟列
// 文件内各区间独立求和；单个坏字段只丢该字段，整行无一可用字段才算坏行
func parseZonesCSV(f ClassifiedFile, agg *Aggregation) int {
	t := readCSV(f.Data)
	if t == nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, row := range t.rows {
		rawDate, ok := t.col(row, "date", "date_time", "timestamp")
		if !ok {
			agg.Skip()
			continue
		}
		date, err := parseCSVDate(rawDate)
		if err != nil {
			agg.Skip()
			continue
		}

		below := zoneField(t, row, zoneBelowCols)
		z1 := zoneField(t, row, zone1Cols)
		z2 := zoneField(t, row, zone2Cols)
		z3 := zoneField(t, row, zone3Cols)
		if below == nil && z1 == nil && z2 == nil && z3 == nil {
			agg.Skip()
			continue
		}

		agg.AddZones(domain.SourceCSV, date, below, z1, z2, z3)
		agg.row(SlotZonesCSV, date, domain.MetricZones, f.Name)
		accepted++
	}
	return accepted
}

func zoneField(t *csvTable, row []string, names []string) *float64 {
	raw, ok := t.col(row, names...)
	if !ok {
		return nil
	}
	v, err := parseNumber(raw)
	if err != nil {
		return nil
	}
	return &v
}

// parseRestingHRCSV 静息心率 CSV：每日取首个有效值，不求和
// 同一槽位处理两种文件：resting_heart_rate*.csv（主来源）和 sleep_score.csv
// （低优先级补充，分类器保证它排在主来源之后，只在当日仍缺值时填入）
func parseRestingHRCSV(f ClassifiedFile, agg *Aggregation) int {
	t := readCSV(f.Data)
	if t == nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, row := range t.rows {
		rawDate, ok := t.col(row, "date", "timestamp")
		if !ok {
			agg.Skip()
			continue
		}
		date, err := parseCSVDate(rawDate)
		if err != nil {
			agg.Skip()
			continue
		}
		rawVal, ok := t.col(row, "resting_heart_rate", "value")
		if !ok {
			agg.Skip()
			continue
		}
		v, err := parseNumber(rawVal)
		if err != nil || v <= 0 {
			agg.Skip()
			continue
		}
		agg.SetRestingHR(domain.SourceCSV, date, v)
		agg.row(SlotRestingHRCSV, date, domain.MetricRestingHR, f.Name)
		accepted++
	}
	return accepted
}

// CSV 睡眠时间戳：UTC，无时区后缀
var sleepCSVTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

func parseSleepCSVTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range sleepCSVTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSleepCSV 睡眠 CSV：end_time 是 UTC 时间戳，timezone_offset 是显式
// "+HH:MM"/"-HH:MM" 偏移。醒来日 = date(end_utc + offset)；同醒来日的多个
// 片段求和。end_time 缺失时退回 start_time 做同样的偏移运算
func parseSleepCSV(f ClassifiedFile, agg *Aggregation) int {
	t := readCSV(f.Data)
	if t == nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, row := range t.rows {
		rawOffset, ok := t.col(row, "timezone_offset", "utc_offset")
		if !ok {
			agg.Skip()
			continue
		}
		offsetMin, err := parseUTCOffset(rawOffset)
		if err != nil {
			agg.Skip()
			continue
		}

		rawEnd, _ := t.col(row, "end_time", "sleep_end")
		endUTC, endOK := parseSleepCSVTimestamp(rawEnd)
		if !endOK {
			// 没有结束时间戳时退回会话自己的开始时间
			rawStart, _ := t.col(row, "start_time", "sleep_start")
			endUTC, endOK = parseSleepCSVTimestamp(rawStart)
			if !endOK {
				agg.Skip()
				continue
			}
			rawEnd = rawStart
		}

		rawMinutes, ok := t.col(row, "minutes_asleep", "minutes")
		if !ok {
			agg.Skip()
			continue
		}
		minutes, err := parseNumber(rawMinutes)
		if err != nil || minutes <= 0 {
			agg.Skip()
			continue
		}

		mainSleep := true
		if rawMain, ok := t.col(row, "is_main_sleep", "main_sleep"); ok {
			mainSleep = parseCSVBool(rawMain)
		}

		wakeDate := sleepWakeDateCSV(endUTC, offsetMin)
		offset := offsetMin
		agg.recordSleepSession(domain.SourceCSV, wakeDate, rawEnd, &offset, minutes, mainSleep)
		agg.row(SlotSleepCSV, wakeDate, domain.MetricSleep, f.Name)
		accepted++
	}
	return accepted
}

func parseCSVBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no":
		return false
	}
	return true
}
