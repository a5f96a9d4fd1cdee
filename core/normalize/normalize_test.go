package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"12":          12,
		"12,5":        12.5,
		"12.5":        12.5,
		"1.250":       1250,
		"0.250":       0.25,
		"1.250.000":   1250000,
		"1,250,000":   1250000,
		"1.250,5":     1250.5,
		"1,250.5":     1250.5,
		" 1 250 ":     1250,
		"-3,5":        -3.5,
		"1 250,75": 1250.75,
	}
	for in, want := range cases {
		got, err := ParseNumber(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	_, err := ParseNumber("")
	assert.ErrorIs(t, err, ErrEmpty)
	for _, bad := range []string{"abc", "1.2.3,4,5", "12,34,5", "1..2"} {
		_, err := ParseNumber(bad)
		assert.ErrorIs(t, err, ErrFormat, bad)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1:30":          90 * time.Minute,
		"01:30:15":      time.Hour + 30*time.Minute + 15*time.Second,
		"26:00":         26 * time.Hour,
		"1:30:00 AM":    90 * time.Minute,
		"12:15 AM":      15 * time.Minute,
		"1:30 PM":       13*time.Hour + 30*time.Minute,
		"2:00:00 CH":    14 * time.Hour,
		"1h30":          90 * time.Minute,
		"1h30m":         90 * time.Minute,
		"2 giờ 15 phút": 2*time.Hour + 15*time.Minute,
		"90 phút":       90 * time.Minute,
		"1 tiếng":       time.Hour,
		"1,5":           90 * time.Minute,
		"0.75":          45 * time.Minute,
		"45 min":        45 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDuration("  ")
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = ParseDuration("1:75")
	assert.ErrorIs(t, err, ErrRange)
	for _, huge := range []string{"9999999999999:00", "99999999999999999999:00", "99999999999999999999 h", "100001 giờ"} {
		_, err := ParseDuration(huge)
		assert.ErrorIs(t, err, ErrRange, huge)
	}
	for _, bad := range []string{"abc", "-1:30", "1 ngày", "13:00 PM"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]time.Duration{
		"08:30":    8*time.Hour + 30*time.Minute,
		"8h30":     8*time.Hour + 30*time.Minute,
		"8g":       8 * time.Hour,
		"8:30 PM":  20*time.Hour + 30*time.Minute,
		"12:05 SA": 5 * time.Minute,
		"0.5":      12 * time.Hour,
		"23:59:59": 23*time.Hour + 59*time.Minute + 59*time.Second,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseClock("24:10")
	assert.ErrorIs(t, err, ErrRange)
	_, err = ParseClock("1.5")
	assert.ErrorIs(t, err, ErrRange)
}

func TestParseDistanceKm(t *testing.T) {
	cases := map[string]float64{
		"12,5 km":  12.5,
		"12.5km":   12.5,
		"1.250 Km": 1250,
		"850 m":    0.85,
		"850 mét":  0.85,
		"35":       35,
		"40 cây số": 40,
	}
	for in, want := range cases {
		got, err := ParseDistanceKm(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	_, err := ParseDistanceKm("-5 km")
	assert.ErrorIs(t, err, ErrRange)
	_, err = ParseDistanceKm("km")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ParseDistanceKm("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseLiters(t *testing.T) {
	v, err := ParseLiters("25,5 lít")
	require.NoError(t, err)
	assert.InDelta(t, 25.5, v, 1e-9)
	v, err = ParseLiters("40L")
	require.NoError(t, err)
	assert.InDelta(t, 40, v, 1e-9)
}

func TestParseRevenue(t *testing.T) {
	type want struct {
		amount int64
		neg    bool
	}
	cases := map[string]want{
		"1.500.000 đ":    {1500000, false},
		"₫1,500,000":     {1500000, false},
		"VND 1.500.000":  {1500000, false},
		"1.500.000 VNĐ":  {1500000, false},
		"-500.000":       {500000, true},
		"500.000-":       {500000, true},
		"(500.000)":      {500000, true},
		"1,5tr":          {1500000, false},
		"2 triệu đồng":   {2000000, false},
		"200k":           {200000, false},
		"1 tỷ":           {1000000000, false},
		"1500000.00":     {1500000, false},
		"1,250,000.50":   {1250001, false},
		"750":            {750, false},
		"350 nghìn":      {350000, false},
	}
	for in, w := range cases {
		amount, neg, err := ParseRevenue(in)
		require.NoError(t, err, in)
		assert.Equal(t, w.amount, amount, in)
		assert.Equal(t, w.neg, neg, in)
	}
	for _, huge := range []string{"99999999999999999999", "9.999.999.999.999.999.999", "99999999999 tỷ"} {
		_, _, err := ParseRevenue(huge)
		assert.ErrorIs(t, err, ErrRange, huge)
	}
	_, _, err := ParseRevenue("đ")
	assert.Error(t, err)
	_, _, err = ParseRevenue("")
	assert.ErrorIs(t, err, ErrEmpty)
	_, _, err = ParseRevenue("miễn phí")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseDate(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"02/01/2025", "2/1/2025", "02-01-2025", "2025-01-02", "02/01/25", "02.01.2025", "45659"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, day.Equal(got), "%s -> %s", in, got)
	}
	got, err := ParseDate("02/01/2025 08:30")
	require.NoError(t, err)
	assert.Equal(t, day.Add(8*time.Hour+30*time.Minute), got)

	_, err = ParseDate("32/01/2025")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ParseDate("2025")
	assert.ErrorIs(t, err, ErrRange)
}

func TestFoldHeaderAndNames(t *testing.T) {
	assert.Equal(t, "bien so xe", FoldHeader("  Biển số  xe (*)"))
	assert.Equal(t, "quang duong km", FoldHeader("Quãng đường (km)"))
	assert.Equal(t, "don vi", FoldHeader("ĐƠN VỊ"))
	assert.Equal(t, "Nguyễn Văn An", CleanName("  nguyễn  văn AN "))
	assert.Equal(t, "", CleanName("   "))
	assert.Equal(t, "51B-12345", CleanPlate("51b-123.45"))
	assert.Equal(t, "51B12345", CleanPlate(" 51B 123 45 "))
}
