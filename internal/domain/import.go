package domain

import "time"

// ImportStatus 导入终态
type ImportStatus string

const (
	ImportStatusOK           ImportStatus = "ok"
	ImportStatusDuplicate    ImportStatus = "duplicate"
	ImportStatusNoData       ImportStatus = "no_data"
	ImportStatusNoFitbitRoot ImportStatus = "error_no_fitbit_root"
)

// WriteMode 落库写模式
type WriteMode string

const (
	// WriteModeFillMissing 默认：仅当新值非空时覆盖，已有存储值通过 COALESCE 保留
	WriteModeFillMissing WriteMode = "fill_missing"
	// WriteModeOverwrite 无条件替换所有字段（包括把本次无数据的字段置空）
	WriteModeOverwrite WriteMode = "overwrite"
)

// ImportRecord import_log 表领域模型（content_hash 唯一，拒绝重复上传）
type ImportRecord struct {
	ImportID     string       `db:"import_id"`    // UUID
	ContentHash  string       `db:"content_hash"` // 整个归档的 SHA-256（hex）
	FileName     string       `db:"file_name"`    // 原始文件名（仅用于审计日志）
	Status       ImportStatus `db:"status"`
	TimezoneUsed string       `db:"timezone_used"`
	WriteMode    WriteMode    `db:"write_mode"`
	DaysInserted int          `db:"days_inserted"`
	DaysUpdated  int          `db:"days_updated"`
	CreatedAt    time.Time    `db:"created_at"`
}

// ConflictEntry 跨来源冲突记录：同一 (date, metric) 两个来源都产生了值
// resolution 固定为 csv_preferred；可疑睡眠总量单独使用 suspicious_sleep_total
type ConflictEntry struct {
	Date       string   `json:"date"` // YYYY-MM-DD
	Metric     Metric   `json:"metric"`
	CSVValue   *float64 `json:"csvValue"`
	JSONValue  *float64 `json:"jsonValue"`
	Resolution string   `json:"resolution"`
}

const (
	ResolutionCSVPreferred    = "csv_preferred"
	ResolutionSuspiciousSleep = "suspicious_sleep_total"
)

// ImportSummary 单次导入的来源覆盖汇总（按天×指标统计）
type ImportSummary struct {
	DaysCSVOnly    int `json:"daysCsvOnly"`
	DaysJSONOnly   int `json:"daysJsonOnly"`
	DaysBothSource int `json:"daysBothSources"`
	TotalConflicts int `json:"totalConflicts"`
}

// SleepBucketEntry 单条睡眠分桶决策（原始时间戳进、桶日期出，便于事后追溯）
type SleepBucketEntry struct {
	Date       string  `json:"date"`   // 归属的醒来日 YYYY-MM-DD
	Source     Source  `json:"source"` // csv 或 json
	RawEndTime string  `json:"rawEndTime"`
	OffsetMin  *int    `json:"offsetMin"` // CSV 路径的显式 UTC 偏移（分钟）；JSON 路径为 nil
	Minutes    float64 `json:"minutes"`
	MainSleep  bool    `json:"mainSleep"`  // false = 小睡，不计入当日总量
	Suspicious bool    `json:"suspicious"` // 单条时长不合理（<0 或 >24h）
}

// MetricDiag 单日单指标的诊断：哪些文件、多少行、哪个来源胜出、最终值快照
type MetricDiag struct {
	Files    []string `json:"files"`
	RowCount int      `json:"rowCount"`
	Source   Source   `json:"source"`
	Value    *float64 `json:"value"`
}

// DiagnosticDay 单次导入中出现过的每个日期的诊断记录
// 回答 "这一天为什么显示这个数" 的查询；睡眠另带逐条分桶记录
type DiagnosticDay struct {
	Date         string                 `json:"date"`
	Metrics      map[Metric]*MetricDiag `json:"metrics"`
	SleepEntries []SleepBucketEntry     `json:"sleepEntries,omitempty"`
	SleepNotes   []string               `json:"sleepNotes,omitempty"` // suspicious/unusual 总量备注
}

// RowsPerDayStats 单个解析器的行数分布（按天）
type RowsPerDayStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median float64 `json:"median"`
}

// DateRange 推断出的导入日期范围（可能为空）
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TakeoutImportResult 面向调用方的终态结果
type TakeoutImportResult struct {
	ImportID           string                     `json:"importId"`
	Status             ImportStatus               `json:"status"`
	DateRange          *DateRange                 `json:"dateRange"`
	FilesSeen          int                        `json:"filesSeen"`
	FilesParsed        int                        `json:"filesParsed"`
	DaysInserted       int                        `json:"daysInserted"`
	DaysUpdated        int                        `json:"daysUpdated"`
	RowsSkipped        int                        `json:"rowsSkipped"`
	ParseDetails       map[string]int             `json:"parseDetails"` // 十个解析器槽位 → 行数
	FilePatterns       []string                   `json:"filePatterns"` // 命中的文件名 glob
	ConflictsDetected  []ConflictEntry            `json:"conflictsDetected"` // 有界样本
	RowsPerDay         map[string]RowsPerDayStats `json:"rowsPerDayDistribution"`
	TimezoneUsed       string                     `json:"timezoneUsed"`
	SleepBucketRule    string                     `json:"sleepBucketRule"` // 人类可读的分桶规则说明
	ImportSummary      ImportSummary              `json:"importSummary"`
}
