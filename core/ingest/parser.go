package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// tripNamespace seeds deterministic trip IDs so re-importing a file updates
// the same rows instead of duplicating them.
var tripNamespace = uuid.MustParse("6f1c2a4e-9b7d-4c1e-8f3a-2d5b7e9c0a11")

// Limits bounds plausible per-trip values. Values above a limit are recorded
// as out_of_range and zeroed.
type Limits struct {
	MaxTripHours  float64 `json:"max_trip_hours"`
	MaxTripKm     float64 `json:"max_trip_km"`
	MaxTripLiters float64 `json:"max_trip_liters"`
	MaxRevenueVND int64   `json:"max_revenue_vnd"`
}

// SetDefaults fills zero limits.
func (l *Limits) SetDefaults() {
	if l.MaxTripHours <= 0 {
		l.MaxTripHours = 24
	}
	if l.MaxTripKm <= 0 {
		l.MaxTripKm = 2000
	}
	if l.MaxTripLiters <= 0 {
		l.MaxTripLiters = 500
	}
	if l.MaxRevenueVND <= 0 {
		l.MaxRevenueVND = 1_000_000_000
	}
}

// Parser turns a raw Table into normalised trips.
type Parser struct {
	mapping Mapping
	limits  Limits
	now     func() time.Time
}

// NewParser returns a Parser using m for header detection. A nil mapping
// falls back to DefaultMapping.
func NewParser(m Mapping, l Limits) *Parser {
	if m == nil {
		m = DefaultMapping()
	}
	l.SetDefaults()
	return &Parser{mapping: m, limits: l, now: time.Now}
}

// totalLabels mark summary rows appended by the transport team.
var totalLabels = []string{"tong", "total"}

// Parse normalises every data row under the detected header. Rows without a
// plate or date are rejected; other bad cells become zero with an issue.
func (p *Parser) Parse(t *Table) (model.Batch, []model.Trip, error) {
	if t == nil || len(t.Rows) == 0 {
		return model.Batch{}, nil, ErrNoHeader
	}
	headerIdx, cols, err := p.mapping.findHeader(t.Rows)
	if err != nil {
		return model.Batch{}, nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	batch := model.Batch{
		ID:       uuid.NewString(),
		Source:   t.Name,
		Imported: p.now().UTC(),
	}
	var trips []model.Trip
	var lastDate time.Time
	for i := headerIdx + 1; i < len(t.Rows); i++ {
		row := t.Rows[i]
		if blankRow(row) || isTotalRow(row) {
			continue
		}
		batch.Rows++
		rowNum := i + 1
		trip, issues, ok := p.parseRow(row, rowNum, cols, &lastDate)
		batch.Issues = append(batch.Issues, issues...)
		if !ok {
			batch.Rejected++
			continue
		}
		trip.BatchID = batch.ID
		trip.ID = tripID(t.Name, trip)
		trips = append(trips, trip)
		batch.Accepted++
	}
	return batch, trips, nil
}

func (p *Parser) parseRow(row []string, rowNum int, cols map[Field]int, lastDate *time.Time) (model.Trip, []model.Issue, bool) {
	get := func(f Field) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return cell(row, idx)
	}
	var issues []model.Issue
	flag := func(f Field, code model.IssueCode, raw string) {
		issues = append(issues, model.Issue{Row: rowNum, Field: string(f), Code: code, Raw: raw})
	}
	flagErr := func(f Field, err error, raw string) {
		switch {
		case errors.Is(err, normalize.ErrRange):
			flag(f, model.IssueRange, raw)
		default:
			flag(f, model.IssueFormat, raw)
		}
	}

	tr := model.Trip{
		Row:          rowNum,
		Plate:        normalize.CleanPlate(get(FieldPlate)),
		VehicleModel: strings.Join(strings.Fields(get(FieldModel)), " "),
		Driver:       normalize.CleanName(get(FieldDriver)),
		Department:   normalize.CleanName(get(FieldDepartment)),
		Category:     strings.Join(strings.Fields(get(FieldCategory)), " "),
		Route:        strings.Join(strings.Fields(get(FieldRoute)), " "),
	}

	// Merged date cells only carry the value on their first row.
	rawDate := get(FieldDate)
	switch d, err := normalize.ParseDate(rawDate); {
	case err == nil:
		tr.Date = d
		*lastDate = normalize.Day(d)
	case errors.Is(err, normalize.ErrEmpty) && !lastDate.IsZero():
		tr.Date = *lastDate
	case errors.Is(err, normalize.ErrEmpty):
		flag(FieldDate, model.IssueMissingDate, "")
	default:
		flag(FieldDate, model.IssueMissingDate, rawDate)
	}
	if tr.Plate == "" {
		flag(FieldPlate, model.IssueMissingPlate, get(FieldPlate))
	}
	if tr.Plate == "" || tr.Date.IsZero() {
		return model.Trip{}, issues, false
	}

	var hasStart, hasEnd bool
	if raw := get(FieldStart); raw != "" {
		if c, err := normalize.ParseClock(raw); err == nil {
			tr.Start, hasStart = c, true
		} else {
			flagErr(FieldStart, err, raw)
		}
	}
	if raw := get(FieldEnd); raw != "" {
		if c, err := normalize.ParseClock(raw); err == nil {
			tr.End, hasEnd = c, true
		} else {
			flagErr(FieldEnd, err, raw)
		}
	}

	maxDur := time.Duration(p.limits.MaxTripHours * float64(time.Hour))
	rawDur := get(FieldDuration)
	switch d, err := normalize.ParseDuration(rawDur); {
	case err == nil && (d < 0 || d > maxDur):
		flag(FieldDuration, model.IssueRange, rawDur)
	case err == nil:
		tr.Duration = d
	case errors.Is(err, normalize.ErrEmpty):
	default:
		flagErr(FieldDuration, err, rawDur)
	}
	// Both clocks must come from the sheet; an empty end is not midnight.
	if tr.Duration == 0 && hasStart && hasEnd && tr.End != tr.Start {
		d := tr.End - tr.Start
		if d < 0 {
			d += 24 * time.Hour
		}
		if d <= maxDur {
			tr.Duration = d
			flag(FieldDuration, model.IssueDerivedDuration, "")
		}
	}

	if raw := get(FieldDistance); raw != "" {
		v, err := normalize.ParseDistanceKm(raw)
		switch {
		case err != nil:
			flagErr(FieldDistance, err, raw)
		case v > p.limits.MaxTripKm:
			flag(FieldDistance, model.IssueRange, raw)
		default:
			tr.DistanceKm = v
		}
	}
	if raw := get(FieldFuel); raw != "" {
		v, err := normalize.ParseLiters(raw)
		switch {
		case err != nil:
			flagErr(FieldFuel, err, raw)
		case v > p.limits.MaxTripLiters:
			flag(FieldFuel, model.IssueRange, raw)
		default:
			tr.FuelLiters = v
		}
	}
	if raw := get(FieldRevenue); raw != "" {
		v, neg, err := normalize.ParseRevenue(raw)
		switch {
		case err != nil:
			flagErr(FieldRevenue, err, raw)
		case v < 0 || v > p.limits.MaxRevenueVND:
			flag(FieldRevenue, model.IssueRange, raw)
		default:
			tr.RevenueVND = v
			if neg {
				flag(FieldRevenue, model.IssueNegativeRevenue, raw)
			}
		}
	}
	tr.Issues = issues
	return tr, issues, true
}

func isTotalRow(row []string) bool {
	for _, c := range row {
		f := normalize.FoldHeader(c)
		if f == "" {
			continue
		}
		for _, l := range totalLabels {
			if f == l || strings.HasPrefix(f, l+" ") {
				return true
			}
		}
		return false
	}
	return false
}

func tripID(source string, t model.Trip) string {
	key := fmt.Sprintf("%s|%d|%s|%s|%s|%d", source, t.Row, t.Day().Format("2006-01-02"), t.Plate, t.Driver, t.Start)
	return uuid.NewSHA1(tripNamespace, []byte(key)).String()
}
