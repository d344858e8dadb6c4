package takeout

import (
	"encoding/json"
	"fmt"
	"math"

	"vitalsync-import/internal/domain"
)

// timeSeriesRecord Takeout "Global Export Data" 的通用时间序列形状
// dateTime 为厂家格式 MM/DD/YY HH:MM:SS，value 可能是字符串或数字
type timeSeriesRecord struct {
	DateTime string `json:"dateTime"`
	Value    any    `json:"value"`
}

// numberFromAny 把 JSON value 字段归一成有限浮点数
func numberFromAny(v any) (float64, error) {
	switch n := v.(type) {
	case string:
		return parseNumber(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("non-finite number")
		}
		return n, nil
	case json.Number:
		return parseNumber(n.String())
	}
	return 0, fmt.Errorf("unsupported value type %T", v)
}

// parseStepsJSON 步数 JSON（日内序列）：同日所有条目求和
// 整个文档无法解析时按一条坏行计，文件按 0 行处理
func parseStepsJSON(f ClassifiedFile, agg *Aggregation) int {
	var records []timeSeriesRecord
	if err := json.Unmarshal(f.Data, &records); err != nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, rec := range records {
		t, err := parseJSONDateTime(rec.DateTime)
		if err != nil {
			agg.Skip()
			continue
		}
		v, err := numberFromAny(rec.Value)
		if err != nil {
			agg.Skip()
			continue
		}
		date := t.Format(dateLayout)
		agg.AddSteps(domain.SourceJSON, date, v)
		agg.row(SlotStepsJSON, date, domain.MetricSteps, f.Name)
		accepted++
	}
	return accepted
}

// parseCaloriesJSON 消耗千卡 JSON（日内序列）：同日求和
func parseCaloriesJSON(f ClassifiedFile, agg *Aggregation) int {
	var records []timeSeriesRecord
	if err := json.Unmarshal(f.Data, &records); err != nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, rec := range records {
		t, err := parseJSONDateTime(rec.DateTime)
		if err != nil {
			agg.Skip()
			continue
		}
		v, err := numberFromAny(rec.Value)
		if err != nil {
			agg.Skip()
			continue
		}
		date := t.Format(dateLayout)
		agg.AddCalories(domain.SourceJSON, date, v)
		agg.row(SlotCaloriesJSON, date, domain.MetricCalories, f.Name)
		accepted++
	}
	return accepted
}

// zonesRecord time_in_heart_rate_zones 的条目形状
type zonesRecord struct {
	DateTime string `json:"dateTime"`
	Value    struct {
		ValuesInZones map[string]float64 `json:"valuesInZones"`
	} `json:"value"`
}

// parseZonesJSON 心率区间 JSON：各区间同日求和
func parseZonesJSON(f ClassifiedFile, agg *Aggregation) int {
	var records []zonesRecord
	if err := json.Unmarshal(f.Data, &records); err != nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, rec := range records {
		t, err := parseJSONDateTime(rec.DateTime)
		if err != nil {
			agg.Skip()
			continue
		}
		zones := rec.Value.ValuesInZones
		if len(zones) == 0 {
			agg.Skip()
			continue
		}
		date := t.Format(dateLayout)
		agg.AddZones(domain.SourceJSON, date,
			finiteZone(zones, "BELOW_DEFAULT_ZONE_1"),
			finiteZone(zones, "IN_DEFAULT_ZONE_1"),
			finiteZone(zones, "IN_DEFAULT_ZONE_2"),
			finiteZone(zones, "IN_DEFAULT_ZONE_3"),
		)
		agg.row(SlotZonesJSON, date, domain.MetricZones, f.Name)
		accepted++
	}
	return accepted
}

func finiteZone(zones map[string]float64, key string) *float64 {
	v, ok := zones[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// rhrRecord resting_heart_rate 的条目形状
// 厂家在无数据的日子里会给 value=0 + 较大的 error，视为无贡献
type rhrRecord struct {
	DateTime string `json:"dateTime"`
	Value    struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
		Error float64 `json:"error"`
	} `json:"value"`
}

// parseRestingHRJSON 静息心率 JSON：每日取首个有效值
func parseRestingHRJSON(f ClassifiedFile, agg *Aggregation) int {
	var records []rhrRecord
	if err := json.Unmarshal(f.Data, &records); err != nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, rec := range records {
		t, err := parseJSONDateTime(rec.DateTime)
		if err != nil {
			agg.Skip()
			continue
		}
		v := rec.Value.Value
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			agg.Skip()
			continue
		}
		date := t.Format(dateLayout)
		agg.SetRestingHR(domain.SourceJSON, date, v)
		agg.row(SlotRestingHRJSON, date, domain.MetricRestingHR, f.Name)
		accepted++
	}
	return accepted
}

// sleepLogRecord sleep-*.json 的会话形状
type sleepLogRecord struct {
	LogID         int64   `json:"logId"`
	DateOfSleep   string  `json:"dateOfSleep"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	MinutesAsleep float64 `json:"minutesAsleep"`
	MainSleep     *bool   `json:"mainSleep"`
}

// parseSleepJSON 睡眠 JSON：endTime 已经是厂家本地时钟，直接取日期部分为醒来日
// （不做偏移运算——这里套用 CSV 路径的偏移就会把日期推错一天）
// 回退顺序：endTime → startTime → dateOfSleep
func parseSleepJSON(f ClassifiedFile, agg *Aggregation) int {
	var records []sleepLogRecord
	if err := json.Unmarshal(f.Data, &records); err != nil {
		agg.Skip()
		return 0
	}

	accepted := 0
	for _, rec := range records {
		wakeDate, rawEnd, ok := sleepJSONWakeDate(rec)
		if !ok {
			agg.Skip()
			continue
		}
		minutes := rec.MinutesAsleep
		if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
			agg.Skip()
			continue
		}

		mainSleep := true
		if rec.MainSleep != nil {
			mainSleep = *rec.MainSleep
		}

		agg.recordSleepSession(domain.SourceJSON, wakeDate, rawEnd, nil, minutes, mainSleep)
		agg.row(SlotSleepJSON, wakeDate, domain.MetricSleep, f.Name)
		accepted++
	}
	return accepted
}

func sleepJSONWakeDate(rec sleepLogRecord) (wakeDate, raw string, ok bool) {
	for _, candidate := range []string{rec.EndTime, rec.StartTime, rec.DateOfSleep} {
		if candidate == "" {
			continue
		}
		if t, err := parseJSONDateTime(candidate); err == nil {
			return sleepWakeDateJSON(t), candidate, true
		}
	}
	return "", "", false
}
