package takeout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseCSVDate CSV 日期列：取 YYYY-MM-DD 前缀
func parseCSVDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return "", fmt.Errorf("date too short: %q", s)
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(dateLayout), nil
}

// parseJSONDateTime JSON 日期时间：ISO 前缀或厂家格式 MM/DD/YY HH:MM:SS
// 厂家两位年份 <50 归 2000 年代，否则 1900 年代
func parseJSONDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	// ISO 前缀（带或不带时间部分）
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return t, nil
		}
	}

	// 厂家格式 MM/DD/YY HH:MM:SS
	fields := strings.Fields(s)
	dateParts := strings.Split(fields[0], "/")
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
	}
	month, err1 := strconv.Atoi(dateParts[0])
	day, err2 := strconv.Atoi(dateParts[1])
	yy, err3 := strconv.Atoi(dateParts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
	}
	year := yy
	if yy < 100 {
		if yy < 50 {
			year = 2000 + yy
		} else {
			year = 1900 + yy
		}
	}

	hour, min, sec := 0, 0, 0
	if len(fields) > 1 {
		timeParts := strings.Split(fields[1], ":")
		if len(timeParts) >= 2 {
			hour, _ = strconv.Atoi(timeParts[0])
			min, _ = strconv.Atoi(timeParts[1])
			if len(timeParts) >= 3 {
				sec, _ = strconv.Atoi(timeParts[2])
			}
		}
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", s)
	}
	return t, nil
}

// parseNumber 数值解析：剥掉千分位逗号；非有限结果视为 "无贡献" 而不是 0
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// parseUTCOffset 解析显式 UTC 偏移串 "+HH:MM"/"-HH:MM"，返回分钟数
func parseUTCOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || hh > 14 || mm > 59 {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	minutes := hh*60 + mm
	if s[0] == '-' {
		minutes = -minutes
	}
	return minutes, nil
}
