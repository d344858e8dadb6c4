package takeout

import (
	"path"
	"sort"
	"strings"
)

// 解析器槽位：五个指标 × 两种格式，parseDetails 的十个键
const (
	SlotStepsCSV      = "steps_csv"
	SlotStepsJSON     = "steps_json"
	SlotCaloriesCSV   = "calories_csv"
	SlotCaloriesJSON  = "calories_json"
	SlotZonesCSV      = "zones_csv"
	SlotZonesJSON     = "zones_json"
	SlotRestingHRCSV  = "resting_hr_csv"
	SlotRestingHRJSON = "resting_hr_json"
	SlotSleepCSV      = "sleep_csv"
	SlotSleepJSON     = "sleep_json"
)

// Slots 固定顺序的槽位列表（结果输出用）
var Slots = []string{
	SlotStepsCSV, SlotStepsJSON,
	SlotCaloriesCSV, SlotCaloriesJSON,
	SlotZonesCSV, SlotZonesJSON,
	SlotRestingHRCSV, SlotRestingHRJSON,
	SlotSleepCSV, SlotSleepJSON,
}

// ClassifiedFile 已归类的数据文件
type ClassifiedFile struct {
	Path    string
	Name    string // 文件名（不含目录）
	Slot    string
	Pattern string // 命中的文件名 glob（结果里的 filePatterns）
	Data    []byte
}

// rule 有序的 (判定, 槽位) 对：新厂家文件类型只需追加规则，不改判定链
// order 决定同一格式内的解析顺序（sleep_score.csv 必须晚于 resting_heart_rate*.csv，
// 因为它只在 resting_hr 仍缺失时才补值）
type rule struct {
	match   func(base string) bool
	slot    string
	pattern string
	order   int
}

var csvRules = []rule{
	// sleep_score.csv 是 resting_hr 的低优先级补充来源，要先于宽泛的 sleep 前缀匹配
	{func(b string) bool { return b == "sleep_score.csv" }, SlotRestingHRCSV, "sleep_score.csv", 40},
	{func(b string) bool { return strings.HasPrefix(b, "sleep") }, SlotSleepCSV, "sleep*.csv", 50},
	{func(b string) bool { return strings.HasPrefix(b, "steps") }, SlotStepsCSV, "steps*.csv", 10},
	{func(b string) bool { return strings.HasPrefix(b, "calories") }, SlotCaloriesCSV, "calories*.csv", 20},
	{func(b string) bool {
		return strings.HasPrefix(b, "active zone minutes") || strings.HasPrefix(b, "active_zone_minutes") ||
			strings.HasPrefix(b, "time_in_heart_rate_zones") || strings.HasPrefix(b, "heart_rate_zones")
	}, SlotZonesCSV, "heart_rate_zones*.csv", 25},
	{func(b string) bool { return strings.HasPrefix(b, "resting_heart_rate") }, SlotRestingHRCSV, "resting_heart_rate*.csv", 30},
}

var jsonRules = []rule{
	{func(b string) bool { return strings.HasPrefix(b, "sleep_score") }, SlotRestingHRJSON, "sleep_score*.json", 40},
	{func(b string) bool { return strings.HasPrefix(b, "sleep") }, SlotSleepJSON, "sleep-*.json", 50},
	{func(b string) bool { return strings.HasPrefix(b, "steps") }, SlotStepsJSON, "steps-*.json", 10},
	{func(b string) bool { return strings.HasPrefix(b, "calories") }, SlotCaloriesJSON, "calories-*.json", 20},
	{func(b string) bool {
		return strings.HasPrefix(b, "time_in_heart_rate_zones") || strings.HasPrefix(b, "active_zone_minutes")
	}, SlotZonesJSON, "time_in_heart_rate_zones-*.json", 25},
	{func(b string) bool { return strings.HasPrefix(b, "resting_heart_rate") }, SlotRestingHRJSON, "resting_heart_rate-*.json", 30},
}

// Classify 把根目录下的文件按文件名模式分进十个解析器槽位
// 未识别的文件静默忽略（前向兼容，新文件类型不破坏流水线）
// 返回的 CSV 集必须在任何 JSON 文件之前全部处理完：来源优先级依赖这个顺序
func Classify(root string, entries map[string][]byte) (csvFiles, jsonFiles []ClassifiedFile) {
	for p, data := range entries {
		if !strings.HasPrefix(p, root) {
			continue
		}
		base := strings.ToLower(path.Base(p))
		ext := path.Ext(base)
		if ext == ".txt" {
			continue
		}

		var rules []rule
		switch ext {
		case ".csv":
			rules = csvRules
		case ".json":
			rules = jsonRules
		default:
			continue
		}

		for _, r := range rules {
			if r.match(base) {
				cf := ClassifiedFile{
					Path:    p,
					Name:    path.Base(p),
					Slot:    r.slot,
					Pattern: r.pattern,
					Data:    data,
				}
				if ext == ".csv" {
					csvFiles = append(csvFiles, cf)
				} else {
					jsonFiles = append(jsonFiles, cf)
				}
				break
			}
		}
	}

	sortClassified(csvFiles, csvRules)
	sortClassified(jsonFiles, jsonRules)
	return csvFiles, jsonFiles
}

// sortClassified 按规则 order 再按路径排序，保证解析顺序确定
func sortClassified(files []ClassifiedFile, rules []rule) {
	orderOf := make(map[string]int, len(rules))
	for _, r := range rules {
		orderOf[r.pattern] = r.order
	}
	sort.Slice(files, func(i, j int) bool {
		oi, oj := orderOf[files[i].Pattern], orderOf[files[j].Pattern]
		if oi != oj {
			return oi < oj
		}
		return files[i].Path < files[j].Path
	})
}
