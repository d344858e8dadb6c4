package takeout

// parserFor 槽位 → 解析函数
// 合同：拿文件字节和共享累加器，返回接受的行数；坏行逐条跳过
var parserFor = map[string]func(ClassifiedFile, *Aggregation) int{
	SlotStepsCSV:      parseStepsCSV,
	SlotCaloriesCSV:   parseCaloriesCSV,
	SlotZonesCSV:      parseZonesCSV,
	SlotRestingHRCSV:  parseRestingHRCSV,
	SlotSleepCSV:      parseSleepCSV,
	SlotStepsJSON:     parseStepsJSON,
	SlotCaloriesJSON:  parseCaloriesJSON,
	SlotZonesJSON:     parseZonesJSON,
	SlotRestingHRJSON: parseRestingHRJSON,
	SlotSleepJSON:     parseSleepJSON,
}

// RunParsers 依次执行全部解析：CSV 集必须先于 JSON 集完整跑完，
// 来源优先级（CSV 胜出）依赖这个顺序
// 返回实际解析过的文件数
func RunParsers(csvFiles, jsonFiles []ClassifiedFile, agg *Aggregation) int {
	parsed := 0
	for _, f := range csvFiles {
		if p, ok := parserFor[f.Slot]; ok {
			p(f, agg)
			parsed++
		}
	}
	for _, f := range jsonFiles {
		if p, ok := parserFor[f.Slot]; ok {
			p(f, agg)
			parsed++
		}
	}
	return parsed
}
