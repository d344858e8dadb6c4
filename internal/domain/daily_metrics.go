package domain

// Metric 指标标识（date + metric 唯一确定一条贡献）
type Metric string

const (
	MetricSteps     Metric = "steps"
	MetricCalories  Metric = "calories"
	MetricZones     Metric = "zones"
	MetricRestingHR Metric = "resting_hr"
	MetricSleep     Metric = "sleep"
)

// Metrics 所有指标的固定顺序列表（用于诊断输出和汇总）
var Metrics = []Metric{MetricSteps, MetricCalories, MetricZones, MetricRestingHR, MetricSleep}

// Source 数据来源标签
// CSV 优先于 JSON：同一 (date, metric) 两个来源都有值时存储 CSV 值（见 ConflictEntry）
type Source string

const (
	SourceCSV  Source = "csv"
	SourceJSON Source = "json"
	SourceBoth Source = "both" // 仅用于诊断/置信度报告，存储值仍归属 CSV
	SourceNone Source = "none"
)

// DayBucket 单个日历日（YYYY-MM-DD）的指标累加器
// 字段为 nil 表示没有任何解析器贡献过该指标
// 累加规则：同一来源内求和（resting_hr 除外，取首个有效值），跨来源不相加
type DayBucket struct {
	Steps             *float64 `json:"steps"`
	EnergyBurnedKcal  *float64 `json:"energyBurnedKcal"`
	Zone1Min          *float64 `json:"zone1Min"`
	Zone2Min          *float64 `json:"zone2Min"`
	Zone3Min          *float64 `json:"zone3Min"`
	BelowZone1Min     *float64 `json:"belowZone1Min"`
	ActiveZoneMinutes *float64 `json:"activeZoneMinutes"` // 派生：zone2 + 2*zone3
	CardioMin         *float64 `json:"cardioMin"`         // 派生：zone2 + zone3（不含 zone1/fat burn）
	RestingHR         *float64 `json:"restingHr"`
	SleepMinutes      *float64 `json:"sleepMinutes"` // 按醒来日归属（见 takeout 包的 wake-date 规则）
	HRV               *float64 `json:"hrv"`
}

// IsEmpty 是否所有字段均为 nil（空桶不落库，计入 rowsSkipped）
func (b *DayBucket) IsEmpty() bool {
	return b.Steps == nil &&
		b.EnergyBurnedKcal == nil &&
		b.Zone1Min == nil &&
		b.Zone2Min == nil &&
		b.Zone3Min == nil &&
		b.BelowZone1Min == nil &&
		b.ActiveZoneMinutes == nil &&
		b.CardioMin == nil &&
		b.RestingHR == nil &&
		b.SleepMinutes == nil &&
		b.HRV == nil
}

// MetricValue 按指标取桶内代表值（诊断快照用）
// zones 返回 activeZoneMinutes 作为代表值
func (b *DayBucket) MetricValue(m Metric) *float64 {
	switch m {
	case MetricSteps:
		return b.Steps
	case MetricCalories:
		return b.EnergyBurnedKcal
	case MetricZones:
		return b.ActiveZoneMinutes
	case MetricRestingHR:
		return b.RestingHR
	case MetricSleep:
		return b.SleepMinutes
	}
	return nil
}
