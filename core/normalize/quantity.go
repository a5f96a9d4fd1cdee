package normalize

import (
	"fmt"
	"math"
	"strings"
)

type unitSuffix struct {
	suffix string
	factor float64
}

// Longer suffixes first so "km" wins over "m".
var distanceUnits = []unitSuffix{
	{"cay so", 1}, {"kms", 1}, {"km", 1}, {"met", 0.001}, {"m", 0.001},
}

var literUnits = []unitSuffix{
	{"litres", 1}, {"liters", 1}, {"litre", 1}, {"liter", 1}, {"lit", 1}, {"l", 1},
}

// ParseDistanceKm reads a distance and returns kilometres. Values without a
// unit are kilometres; "m"/"mét" values are converted.
func ParseDistanceKm(s string) (float64, error) {
	return parseQuantity(s, distanceUnits)
}

// ParseLiters reads a fuel volume in litres ("25,5 lít", "25.5L").
func ParseLiters(s string) (float64, error) {
	return parseQuantity(s, literUnits)
}

func parseQuantity(s string, units []unitSuffix) (float64, error) {
	t := fold(s)
	if t == "" {
		return 0, ErrEmpty
	}
	factor := 1.0
	for _, u := range units {
		if strings.HasSuffix(t, u.suffix) {
			t = strings.TrimSpace(strings.TrimSuffix(t, u.suffix))
			factor = u.factor
			break
		}
	}
	v, err := ParseNumber(t)
	if err != nil {
		if err == ErrEmpty {
			return 0, fmt.Errorf("%w: %q", ErrFormat, s)
		}
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return v * factor, nil
}

var revenueMagnitudes = []unitSuffix{
	{"trieu", 1e6}, {"nghin", 1e3}, {"ngan", 1e3}, {"ty", 1e9}, {"tr", 1e6}, {"k", 1e3},
}

var currencyMarks = strings.NewReplacer("₫", "", "$", "", "vnd", "", "dong", "", " ", "")

// ParseRevenue reads an amount of money in VND. Currency marks ("đ", "₫",
// "VND", "đồng") are ignored, and magnitude words ("k", "tr", "triệu",
// "tỷ") scale the value. Without a magnitude word both dots and commas are
// thousands marks unless the groups say otherwise ("1500000.00").
//
// Negative inputs ("-500.000", "500.000-", "(500.000)") return their
// absolute value with negative set, so callers can flag the row.
func ParseRevenue(s string) (amount int64, negative bool, err error) {
	t := currencyMarks.Replace(fold(s))
	t = compact(t)
	if t == "" {
		return 0, false, ErrEmpty
	}
	switch {
	case strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")"):
		negative = true
		t = t[1 : len(t)-1]
	case strings.HasSuffix(t, "-"):
		negative = true
		t = strings.TrimSuffix(t, "-")
	case strings.HasPrefix(t, "-"):
		negative = true
		t = strings.TrimPrefix(t, "-")
	}
	t = strings.TrimSuffix(t, "d")
	t = strings.TrimPrefix(t, "d")
	factor := 0.0
	for _, m := range revenueMagnitudes {
		if strings.HasSuffix(t, m.suffix) {
			t = strings.TrimSuffix(t, m.suffix)
			factor = m.factor
			break
		}
	}
	if t == "" {
		return 0, false, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	var v float64
	switch {
	case factor > 0:
		v, err = ParseNumber(t)
		v *= factor
	case thousandsOnly(t):
		v, err = ParseNumber(strings.NewReplacer(".", "", ",", "").Replace(t))
	default:
		v, err = ParseNumber(t)
	}
	if err != nil {
		return 0, false, err
	}
	if v < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	if v >= math.MaxInt64 {
		return 0, false, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return int64(math.Round(v)), negative, nil
}

// thousandsOnly reports whether every separator in t splits off a group of
// exactly three digits, regardless of which mark is used.
func thousandsOnly(t string) bool {
	groups := strings.FieldsFunc(t, func(r rune) bool { return r == '.' || r == ',' })
	if len(groups) < 2 || strings.HasSuffix(t, ".") || strings.HasSuffix(t, ",") {
		return false
	}
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
