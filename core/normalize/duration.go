package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationToken = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([a-z]*)`)

// maxDurationHours bounds parsed durations well inside time.Duration.
const maxDurationHours = 100_000

// ParseDuration reads a trip duration. Accepted forms:
//
//	"1:30", "1:30:15"        hours:minutes[:seconds], hours may exceed 24
//	"1:30:00 AM", "1:30 PM"  Excel time-of-day formatting of a duration
//	"1h30", "2 giờ 15 phút"  hour/minute units, Vietnamese or English
//	"90 phút", "1 tiếng"     single unit
//	"1,5", "1.5"             decimal hours
//
// The result is rounded to the second.
func ParseDuration(s string) (time.Duration, error) {
	t := fold(s)
	if t == "" {
		return 0, ErrEmpty
	}
	if body, pm, ok := splitMeridiem(t); ok {
		h, m, sec, err := splitClock(body)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", err, s)
		}
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("%w: %q", ErrRange, s)
		}
		h %= 12
		if pm {
			h += 12
		}
		return clockDuration(h, m, sec), nil
	}
	if strings.Contains(t, ":") {
		h, m, sec, err := splitClock(t)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", err, s)
		}
		if h > maxDurationHours {
			return 0, fmt.Errorf("%w: %q", ErrRange, s)
		}
		return clockDuration(h, m, sec), nil
	}
	d, err := unitDuration(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	return d, nil
}

// ParseClock reads a time of day and returns the offset since midnight.
// Accepts "08:30", "8h30", "8g30", "8:30 PM", "8:30 CH" and Excel day
// fractions such as "0.354166".
func ParseClock(s string) (time.Duration, error) {
	t := fold(s)
	if t == "" {
		return 0, ErrEmpty
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && strings.Contains(t, ".") {
		if f < 0 || f >= 1 {
			return 0, fmt.Errorf("%w: %q", ErrRange, s)
		}
		return (time.Duration(math.Round(f*86400)) * time.Second), nil
	}
	body, pm, meridiem := splitMeridiem(t)
	if !meridiem {
		body = t
	}
	body = strings.NewReplacer("h", ":", "g", ":").Replace(strings.ReplaceAll(body, " ", ""))
	body = strings.TrimSuffix(body, ":")
	if !strings.Contains(body, ":") {
		body += ":00"
	}
	h, m, sec, err := splitClock(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, s)
	}
	if meridiem {
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("%w: %q", ErrRange, s)
		}
		h %= 12
		if pm {
			h += 12
		}
	}
	if h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return clockDuration(h, m, sec), nil
}

// splitMeridiem strips an AM/PM marker. Vietnamese Excel installs print
// "SA" (sáng) and "CH" (chiều) instead.
func splitMeridiem(t string) (string, bool, bool) {
	for _, m := range []struct {
		suffix string
		pm     bool
	}{{"am", false}, {"pm", true}, {"sa", false}, {"ch", true}} {
		if strings.HasSuffix(t, m.suffix) {
			body := strings.TrimSpace(strings.TrimSuffix(t, m.suffix))
			if body == "" || body[len(body)-1] < '0' || body[len(body)-1] > '9' {
				return "", false, false
			}
			return body, m.pm, true
		}
	}
	return "", false, false
}

func splitClock(t string) (h, m, sec int, err error) {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, ErrFormat
	}
	vals := make([]int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return 0, 0, 0, ErrFormat
		}
		n, perr := strconv.Atoi(p)
		if errors.Is(perr, strconv.ErrRange) {
			return 0, 0, 0, ErrRange
		}
		if perr != nil {
			return 0, 0, 0, ErrFormat
		}
		if n < 0 || (i > 0 && n > 59) {
			return 0, 0, 0, ErrRange
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], nil
}

func clockDuration(h, m, sec int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

func unitDuration(t string) (time.Duration, error) {
	if strings.TrimSpace(durationToken.ReplaceAllString(t, "")) != "" {
		return 0, ErrFormat
	}
	matches := durationToken.FindAllStringSubmatch(t, -1)
	if len(matches) == 0 {
		return 0, ErrFormat
	}
	var total float64
	prev := ""
	for i, m := range matches {
		v, err := ParseNumber(m[1])
		if err != nil {
			return 0, err
		}
		unit := m[2]
		if unit == "" {
			switch {
			case len(matches) == 1:
				unit = "h"
			case i > 0 && prev == "h":
				unit = "m"
			default:
				return 0, ErrFormat
			}
		}
		switch unit {
		case "h", "hr", "hrs", "hour", "hours", "gio", "tieng", "g":
			total += v * 3600
			prev = "h"
		case "m", "p", "ph", "min", "mins", "minute", "minutes", "phut":
			total += v * 60
			prev = "m"
		case "s", "sec", "secs", "giay":
			total += v
			prev = "s"
		default:
			return 0, ErrFormat
		}
	}
	if total > maxDurationHours*3600 {
		return 0, ErrRange
	}
	return time.Duration(math.Round(total)) * time.Second, nil
}
