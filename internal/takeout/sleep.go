package takeout

import (
	"time"

	"vitalsync-import/internal/domain"
)

// SleepBucketRule 返回给调用方的人类可读分桶规则说明（调试用）
const SleepBucketRule = "csv: wake_date = date(sleep_end_utc + explicit_offset); " +
	"json: wake_date = date(endTime) taken as vendor-local clock, no offset arithmetic; " +
	"fallback end -> start -> dateOfSleep; naps (mainSleep=false) excluded from daily totals"

// 单条会话时长超过 24 小时视为不合理
const sleepSessionMaxMinutes = 24 * 60

// sleepWakeDateCSV CSV 路径的醒来日：UTC 结束时刻加上显式偏移分钟后取日期部分
// CSV 行带的是 UTC 时间戳 + "+HH:MM"/"-HH:MM" 偏移串
func sleepWakeDateCSV(endUTC time.Time, offsetMin int) string {
	return endUTC.Add(time.Duration(offsetMin) * time.Minute).Format(dateLayout)
}

// sleepWakeDateJSON JSON 路径的醒来日：endTime 已经是厂家本地时钟，
// 直接取日期部分，不做任何偏移运算
// （把它当 CSV 路径处理会二次套用偏移——这正是这个设计要避免的那类 bug）
func sleepWakeDateJSON(endLocal time.Time) string {
	return endLocal.Format(dateLayout)
}

// recordSleepSession 记录一条睡眠会话的分桶结果
// 每条决策（原始时间戳、偏移、桶日期、来源）都进诊断，便于事后追溯错桶
// 小睡（mainSleep=false）不计入当日总量，但仍保留诊断条目
func (a *Aggregation) recordSleepSession(src domain.Source, wakeDate, rawEnd string, offsetMin *int, minutes float64, mainSleep bool) {
	entry := domain.SleepBucketEntry{
		Date:       wakeDate,
		Source:     src,
		RawEndTime: rawEnd,
		OffsetMin:  offsetMin,
		Minutes:    minutes,
		MainSleep:  mainSleep,
		Suspicious: minutes <= 0 || minutes > sleepSessionMaxMinutes,
	}
	a.Diags.RecordSleepEntry(entry)

	if mainSleep {
		a.AddSleepMinutes(src, wakeDate, minutes)
	}
}
