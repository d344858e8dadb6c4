package takeout

import (
	"sort"

	"vitalsync-import/internal/domain"
)

// Diagnostics 单次导入的全部诊断：每个出现过的日期一条 DiagnosticDay
// 终态（来源标签、最终值快照）由 Aggregation.Finalize 回填
type Diagnostics struct {
	Days map[string]*domain.DiagnosticDay
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{Days: make(map[string]*domain.DiagnosticDay)}
}

func (d *Diagnostics) day(date string) *domain.DiagnosticDay {
	dd, ok := d.Days[date]
	if !ok {
		dd = &domain.DiagnosticDay{
			Date:    date,
			Metrics: make(map[domain.Metric]*domain.MetricDiag),
		}
		d.Days[date] = dd
	}
	return dd
}

func (d *Diagnostics) metric(date string, m domain.Metric) *domain.MetricDiag {
	dd := d.day(date)
	md, ok := dd.Metrics[m]
	if !ok {
		md = &domain.MetricDiag{Source: domain.SourceNone}
		dd.Metrics[m] = md
	}
	return md
}

// RecordRow 记录一条被接受的行：文件贡献 + 行计数
func (d *Diagnostics) RecordRow(date string, m domain.Metric, file string) {
	md := d.metric(date, m)
	md.RowCount++
	for _, f := range md.Files {
		if f == file {
			return
		}
	}
	md.Files = append(md.Files, file)
}

// RecordSleepEntry 记录一条睡眠分桶决策（原始时间戳进、桶日期出）
func (d *Diagnostics) RecordSleepEntry(entry domain.SleepBucketEntry) {
	dd := d.day(entry.Date)
	dd.SleepEntries = append(dd.SleepEntries, entry)
}

// Note 追加当日睡眠备注（suspicious/unusual 总量）
func (d *Diagnostics) Note(date, note string) {
	dd := d.day(date)
	dd.SleepNotes = append(dd.SleepNotes, note)
}

// SortedDates 升序日期列表
func (d *Diagnostics) SortedDates() []string {
	dates := make([]string, 0, len(d.Days))
	for date := range d.Days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
