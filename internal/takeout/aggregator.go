package takeout

import (
	"fmt"
	"sort"

	"vitalsync-import/internal/domain"
)

// 睡眠日总量合理性阈值（分钟）
const (
	sleepSuspiciousMinTotal = 180
	sleepSuspiciousMaxTotal = 900
	sleepUnusualMinTotal    = 240
	sleepUnusualMaxTotal    = 600
)

// Aggregation 单次导入的按日累加器
// CSV 和 JSON 两个来源各自独立累加：同一来源内求和，跨来源在 Finalize 时解决冲突
// （CSV 胜出，JSON 值作为 ConflictEntry 记录后丢弃——两个文件族粒度不同，相加会重复计数）
type Aggregation struct {
	Timezone    string
	Diags       *Diagnostics
	RowsSkipped int

	csv  map[string]*domain.DayBucket
	json map[string]*domain.DayBucket

	parseDetails map[string]int            // 槽位 → 接受的行数
	rowsPerDay   map[string]map[string]int // 槽位 → 日期 → 行数
}

func NewAggregation(timezone string) *Aggregation {
	return &Aggregation{
		Timezone:     timezone,
		Diags:        NewDiagnostics(),
		csv:          make(map[string]*domain.DayBucket),
		json:         make(map[string]*domain.DayBucket),
		parseDetails: make(map[string]int),
		rowsPerDay:   make(map[string]map[string]int),
	}
}

func (a *Aggregation) bucket(src domain.Source, date string) *domain.DayBucket {
	m := a.csv
	if src == domain.SourceJSON {
		m = a.json
	}
	b, ok := m[date]
	if !ok {
		b = &domain.DayBucket{}
		m[date] = b
	}
	return b
}

// row 登记一条被接受的行：槽位计数、按日分布、诊断
func (a *Aggregation) row(slot string, date string, metric domain.Metric, file string) {
	a.parseDetails[slot]++
	byDay, ok := a.rowsPerDay[slot]
	if !ok {
		byDay = make(map[string]int)
		a.rowsPerDay[slot] = byDay
	}
	byDay[date]++
	a.Diags.RecordRow(date, metric, file)
}

// Skip 计入被跳过的坏行（坏日期、坏数值、缺列）
func (a *Aggregation) Skip() {
	a.RowsSkipped++
}

func addTo(dst **float64, v float64) {
	if *dst == nil {
		val := v
		*dst = &val
		return
	}
	**dst += v
}

// AddSteps 步数：同日同来源跨行/跨文件求和
func (a *Aggregation) AddSteps(src domain.Source, date string, v float64) {
	addTo(&a.bucket(src, date).Steps, v)
}

// AddCalories 消耗千卡：同日同来源求和
func (a *Aggregation) AddCalories(src domain.Source, date string, v float64) {
	addTo(&a.bucket(src, date).EnergyBurnedKcal, v)
}

// AddZones 心率区间分钟数：各区间在文件内/文件间求和
// activeZoneMinutes/cardioMin 的派生在 Finalize 时统一计算
func (a *Aggregation) AddZones(src domain.Source, date string, below, z1, z2, z3 *float64) {
	b := a.bucket(src, date)
	if below != nil {
		addTo(&b.BelowZone1Min, *below)
	}
	if z1 != nil {
		addTo(&b.Zone1Min, *z1)
	}
	if z2 != nil {
		addTo(&b.Zone2Min, *z2)
	}
	if z3 != nil {
		addTo(&b.Zone3Min, *z3)
	}
}

// SetRestingHR 静息心率：每日取首个有效值，不求和
// 已有值时返回 false（行仍计入原始行数）
func (a *Aggregation) SetRestingHR(src domain.Source, date string, v float64) bool {
	b := a.bucket(src, date)
	if b.RestingHR != nil {
		return false
	}
	val := v
	b.RestingHR = &val
	return true
}

// AddSleepMinutes 睡眠分钟数：按醒来日求和（分桶规则见 sleep.go）
func (a *Aggregation) AddSleepMinutes(src domain.Source, date string, minutes float64) {
	addTo(&a.bucket(src, date).SleepMinutes, minutes)
}

// Resolution Finalize 的产物：最终日桶、来源标签、冲突记录、汇总
type Resolution struct {
	Buckets    map[string]*domain.DayBucket
	SourceTags map[string]map[domain.Metric]domain.Source
	Conflicts  []domain.ConflictEntry
	Summary    domain.ImportSummary
	MinDate    string
	MaxDate    string
}

// Finalize 派生区间指标并解决跨来源冲突
// 规则：同一 (date, metric) CSV 已有值时，JSON 值不合并，记一条 csv_preferred 冲突后丢弃
// 这是刻意的信任排序，不是合并也不是平均
func (a *Aggregation) Finalize() *Resolution {
	deriveZones(a.csv)
	deriveZones(a.json)

	res := &Resolution{
		Buckets:    make(map[string]*domain.DayBucket),
		SourceTags: make(map[string]map[domain.Metric]domain.Source),
	}

	dates := make(map[string]bool)
	for d := range a.csv {
		dates[d] = true
	}
	for d := range a.json {
		dates[d] = true
	}

	sorted := make([]string, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	for _, date := range sorted {
		csvBucket := a.csv[date]
		jsonBucket := a.json[date]
		final := &domain.DayBucket{}
		tags := make(map[domain.Metric]domain.Source)

		dayHasCSV, dayHasJSON := false, false
		for _, metric := range domain.Metrics {
			var csvVal, jsonVal *float64
			if csvBucket != nil {
				csvVal = csvBucket.MetricValue(metric)
			}
			if jsonBucket != nil {
				jsonVal = jsonBucket.MetricValue(metric)
			}

			switch {
			case csvVal != nil && jsonVal != nil:
				copyMetric(final, csvBucket, metric)
				tags[metric] = domain.SourceBoth
				res.Conflicts = append(res.Conflicts, domain.ConflictEntry{
					Date:       date,
					Metric:     metric,
					CSVValue:   csvVal,
					JSONValue:  jsonVal,
					Resolution: domain.ResolutionCSVPreferred,
				})
				dayHasCSV, dayHasJSON = true, true
			case csvVal != nil:
				copyMetric(final, csvBucket, metric)
				tags[metric] = domain.SourceCSV
				dayHasCSV = true
			case jsonVal != nil:
				copyMetric(final, jsonBucket, metric)
				tags[metric] = domain.SourceJSON
				dayHasJSON = true
			default:
				tags[metric] = domain.SourceNone
			}
		}

		a.validateSleepTotal(res, date, final, tags)

		res.Buckets[date] = final
		res.SourceTags[date] = tags

		switch {
		case dayHasCSV && dayHasJSON:
			res.Summary.DaysBothSource++
		case dayHasCSV:
			res.Summary.DaysCSVOnly++
		case dayHasJSON:
			res.Summary.DaysJSONOnly++
		}

		// 回填诊断终态：来源标签 + 最终值快照
		for metric, tag := range tags {
			if tag == domain.SourceNone {
				continue
			}
			md := a.Diags.metric(date, metric)
			md.Source = tag
			md.Value = final.MetricValue(metric)
		}
	}

	res.Summary.TotalConflicts = len(res.Conflicts)

	for _, date := range sorted {
		if b := res.Buckets[date]; b != nil && !b.IsEmpty() {
			if res.MinDate == "" {
				res.MinDate = date
			}
			res.MaxDate = date
		}
	}

	return res
}

// validateSleepTotal 睡眠日总量合理性检查
// 可疑总量额外记为冲突类条目（面向运维可见），不静默接受也不致命
func (a *Aggregation) validateSleepTotal(res *Resolution, date string, final *domain.DayBucket, tags map[domain.Metric]domain.Source) {
	if final.SleepMinutes == nil {
		return
	}
	total := *final.SleepMinutes

	if total < sleepSuspiciousMinTotal || total > sleepSuspiciousMaxTotal {
		entry := domain.ConflictEntry{
			Date:       date,
			Metric:     domain.MetricSleep,
			Resolution: domain.ResolutionSuspiciousSleep,
		}
		if tags[domain.MetricSleep] == domain.SourceJSON {
			entry.JSONValue = final.SleepMinutes
		} else {
			entry.CSVValue = final.SleepMinutes
		}
		res.Conflicts = append(res.Conflicts, entry)
		a.Diags.Note(date, fmt.Sprintf("suspicious sleep total: %.0f min", total))
		return
	}
	if total < sleepUnusualMinTotal || total > sleepUnusualMaxTotal {
		a.Diags.Note(date, fmt.Sprintf("unusual sleep total: %.0f min", total))
	}
}

// deriveZones 对每个来源桶派生 activeZoneMinutes = z2 + 2*z3、cardioMin = z2 + z3
// zone1/fat burn 不计入 cardio；任一区间字段出现即派生（缺失区间按 0 处理）
func deriveZones(buckets map[string]*domain.DayBucket) {
	for _, b := range buckets {
		if b.BelowZone1Min == nil && b.Zone1Min == nil && b.Zone2Min == nil && b.Zone3Min == nil {
			continue
		}
		z2, z3 := 0.0, 0.0
		if b.Zone2Min != nil {
			z2 = *b.Zone2Min
		}
		if b.Zone3Min != nil {
			z3 = *b.Zone3Min
		}
		azm := z2 + 2*z3
		cardio := z2 + z3
		b.ActiveZoneMinutes = &azm
		b.CardioMin = &cardio
	}
}

// copyMetric 把胜出来源桶里该指标的所有字段拷入最终桶
func copyMetric(dst, src *domain.DayBucket, metric domain.Metric) {
	switch metric {
	case domain.MetricSteps:
		dst.Steps = src.Steps
	case domain.MetricCalories:
		dst.EnergyBurnedKcal = src.EnergyBurnedKcal
	case domain.MetricZones:
		dst.BelowZone1Min = src.BelowZone1Min
		dst.Zone1Min = src.Zone1Min
		dst.Zone2Min = src.Zone2Min
		dst.Zone3Min = src.Zone3Min
		dst.ActiveZoneMinutes = src.ActiveZoneMinutes
		dst.CardioMin = src.CardioMin
	case domain.MetricRestingHR:
		dst.RestingHR = src.RestingHR
	case domain.MetricSleep:
		dst.SleepMinutes = src.SleepMinutes
	}
}

// ParseDetails 十个槽位的行数（未出现的槽位填 0）
func (a *Aggregation) ParseDetails() map[string]int {
	out := make(map[string]int, len(Slots))
	for _, slot := range Slots {
		out[slot] = a.parseDetails[slot]
	}
	return out
}

// RowsPerDayStats 每个槽位的按日行数分布（min/max/median）
func (a *Aggregation) RowsPerDayStats() map[string]domain.RowsPerDayStats {
	out := make(map[string]domain.RowsPerDayStats)
	for slot, byDay := range a.rowsPerDay {
		counts := make([]int, 0, len(byDay))
		for _, n := range byDay {
			counts = append(counts, n)
		}
		if len(counts) == 0 {
			continue
		}
		sort.Ints(counts)
		stats := domain.RowsPerDayStats{
			Min: counts[0],
			Max: counts[len(counts)-1],
		}
		mid := len(counts) / 2
		if len(counts)%2 == 1 {
			stats.Median = float64(counts[mid])
		} else {
			stats.Median = float64(counts[mid-1]+counts[mid]) / 2
		}
		out[slot] = stats
	}
	return out
}
