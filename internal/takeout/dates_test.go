package takeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVDate(t *testing.T) {
	date, err := parseCSVDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", date)

	// 带时间部分的时间戳只取日期前缀
	date, err = parseCSVDate("2024-01-15 08:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", date)

	_, err = parseCSVDate("15/01/2024")
	assert.Error(t, err)

	_, err = parseCSVDate("")
	assert.Error(t, err)
}

func TestParseJSONDateTime_ISO(t *testing.T) {
	ts, err := parseJSONDateTime("2024-01-02T06:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", ts.Format("2006-01-02"))

	ts, err = parseJSONDateTime("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", ts.Format("2006-01-02"))
}

func TestParseJSONDateTime_VendorFormat(t *testing.T) {
	ts, err := parseJSONDateTime("01/02/24 06:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", ts.Format("2006-01-02"))
	assert.Equal(t, 6, ts.Hour())
	assert.Equal(t, 30, ts.Minute())

	// 两位年份 <50 归 2000 年代，>=50 归 1900 年代
	ts, err = parseJSONDateTime("03/15/49 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 2049, ts.Year())

	ts, err = parseJSONDateTime("03/15/75 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 1975, ts.Year())
}

func TestParseJSONDateTime_InvalidCalendarDate(t *testing.T) {
	// 02/30 不存在：不能让 time.Date 静默归一化成 03/01
	_, err := parseJSONDateTime("02/30/24 00:00:00")
	assert.Error(t, err)

	_, err = parseJSONDateTime("garbage")
	assert.Error(t, err)

	_, err = parseJSONDateTime("")
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	v, err := parseNumber("1,234")
	require.NoError(t, err)
	assert.Equal(t, 1234.0, v)

	v, err = parseNumber(" 98.6 ")
	require.NoError(t, err)
	assert.Equal(t, 98.6, v)

	_, err = parseNumber("NaN")
	assert.Error(t, err)

	_, err = parseNumber("+Inf")
	assert.Error(t, err)

	_, err = parseNumber("")
	assert.Error(t, err)

	_, err = parseNumber("abc")
	assert.Error(t, err)
}

func TestParseUTCOffset(t *testing.T) {
	min, err := parseUTCOffset("+05:30")
	require.NoError(t, err)
	assert.Equal(t, 330, min)

	min, err = parseUTCOffset("-05:00")
	require.NoError(t, err)
	assert.Equal(t, -300, min)

	min, err = parseUTCOffset("+00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, min)

	_, err = parseUTCOffset("05:00")
	assert.Error(t, err)

	_, err = parseUTCOffset("+15:00")
	assert.Error(t, err)

	_, err = parseUTCOffset("")
	assert.Error(t, err)
}
