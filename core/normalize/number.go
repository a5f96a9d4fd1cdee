package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber reads a decimal number written with either Vietnamese
// ("1.250,5") or English ("1,250.5") separators.
//
// When both marks appear the right-most one is the decimal mark. A lone comma
// is a decimal mark. A lone dot is a thousands mark when it is followed by
// exactly three digits and preceded by a non-zero group ("1.250"), otherwise
// it is a decimal mark ("12.5", "0.250"). Repeated marks of one kind are
// thousands marks.
func ParseNumber(s string) (float64, error) {
	t := compact(s)
	if t == "" {
		return 0, ErrEmpty
	}
	neg := false
	switch t[0] {
	case '-':
		neg = true
		t = t[1:]
	case '+':
		t = t[1:]
	}
	num, err := canonicalDecimal(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// compact trims s and removes inner spaces, including the non-breaking and
// narrow spaces Excel uses as digit group separators.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f', '\u2009':
			return -1
		case '\u2212':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
}

func canonicalDecimal(t string) (string, error) {
	if t == "" {
		return "", ErrFormat
	}
	for _, r := range t {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return "", ErrFormat
		}
	}
	dots := strings.Count(t, ".")
	commas := strings.Count(t, ",")
	switch {
	case dots == 0 && commas == 0:
		return t, nil
	case dots > 0 && commas > 0:
		d, c := strings.LastIndexByte(t, '.'), strings.LastIndexByte(t, ',')
		if d > c {
			if dots > 1 {
				return "", ErrFormat
			}
			return strings.ReplaceAll(t, ",", ""), nil
		}
		if commas > 1 {
			return "", ErrFormat
		}
		return strings.Replace(strings.ReplaceAll(t, ".", ""), ",", ".", 1), nil
	case commas == 1:
		return strings.Replace(t, ",", ".", 1), nil
	case commas > 1:
		if !thousandsGrouped(t, ',') {
			return "", ErrFormat
		}
		return strings.ReplaceAll(t, ",", ""), nil
	case dots > 1:
		if !thousandsGrouped(t, '.') {
			return "", ErrFormat
		}
		return strings.ReplaceAll(t, ".", ""), nil
	default:
		i := strings.IndexByte(t, '.')
		head, tail := t[:i], t[i+1:]
		if len(tail) == 3 && len(head) >= 1 && len(head) <= 3 && strings.TrimLeft(head, "0") != "" {
			return head + tail, nil
		}
		return t, nil
	}
}

// thousandsGrouped reports whether every group after the first has exactly
// three digits and the first has one to three.
func thousandsGrouped(t string, sep byte) bool {
	groups := strings.Split(t, string(sep))
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
