package takeout

import "strings"

// fitbitRootSegment 厂家导出目录名（Google Takeout 下为 Takeout/Fitbit/...）
const fitbitRootSegment = "Fitbit"

// LocateFitbitRoot 在所有条目路径中查找包含厂家导出目录段的路径前缀
// 返回截止到该目录段（含）的前缀，如 "Takeout/Fitbit/"
// 先精确匹配，找不到时退回大小写不敏感匹配；都找不到返回 ("", false)，
// 导入以 error_no_fitbit_root 终止，不做任何解析
func LocateFitbitRoot(entries map[string][]byte) (string, bool) {
	if prefix, ok := locateSegment(entries, fitbitRootSegment, false); ok {
		return prefix, true
	}
	return locateSegment(entries, fitbitRootSegment, true)
}

func locateSegment(entries map[string][]byte, segment string, foldCase bool) (string, bool) {
	// map 遍历无序：归档里出现多个候选前缀时取字典序最小的那个，保证可重复
	best := ""
	for p := range entries {
		parts := strings.Split(p, "/")
		// 最后一段是文件名，不参与目录段匹配
		for i := 0; i < len(parts)-1; i++ {
			match := parts[i] == segment
			if !match && foldCase {
				match = strings.EqualFold(parts[i], segment)
			}
			if match {
				prefix := strings.Join(parts[:i+1], "/") + "/"
				if best == "" || prefix < best {
					best = prefix
				}
				break
			}
		}
	}
	return best, best != ""
}
