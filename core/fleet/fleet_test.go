package fleet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corner-25/test-umc-sub000/core/model"
)

func jan(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func trip(day time.Time, plate, driver, dept, cat string, hours, km, liters float64, rev int64) model.Trip {
	return model.Trip{
		Date: day, Plate: plate, Driver: driver, Department: dept, Category: cat,
		Duration:   time.Duration(hours * float64(time.Hour)),
		DistanceKm: km, FuelLiters: liters, RevenueVND: rev,
	}
}

func fixture() []model.Trip {
	issue := []model.Issue{{Row: 7, Field: "driver", Code: model.IssueEmpty}}
	last := trip(jan(8), "51B-33333", "", "Khoa Nội", "Hành chính", 1, 10, 0, 0)
	last.Issues = issue
	return []model.Trip{
		trip(jan(6), "51B-11111", "Nguyễn Văn An", "Khoa Nội", "Cấp cứu", 4, 100, 10, 500000),
		trip(jan(6), "51B-11111", "Nguyễn Văn An", "Khoa Nội", "Cấp cứu", 7, 350, 30, 1000000),
		trip(jan(7), "51B-22222", "Trần Bình", "Khoa Ngoại", "Hành chính", 2, 40, 0, 0),
		trip(jan(7), "51B-22222", "Trần Bình", "Khoa Ngoại", "Hành chính", 1, 20, 2, 200000),
		trip(jan(8), "51B-11111", "Lê Cường", "Khoa Nội", "Hành chính", 13, 80, 8, 0),
		last,
	}
}

func register() *Catalog {
	return NewCatalog([]model.Vehicle{
		{Plate: "51b-111.11", Model: "Toyota Innova", FuelStandard: 8},
		{Plate: "51B-22222", FuelStandard: 10},
		{Plate: "51B-44444", Department: "Khoa Ngoại"},
		{Plate: "51B-55555", Retired: true},
	})
}

func defaults() Config {
	var c Config
	c.SetDefaults()
	return c
}

func TestVehicleKPIs(t *testing.T) {
	kpis := VehicleKPIs(fixture(), register(), defaults(), Filter{From: jan(6), To: jan(10)})
	require.Len(t, kpis, 4)
	assert.Equal(t, []string{"51B-11111", "51B-22222", "51B-33333", "51B-44444"},
		[]string{kpis[0].Plate, kpis[1].Plate, kpis[2].Plate, kpis[3].Plate})

	a := kpis[0]
	assert.Equal(t, "Toyota Innova", a.Model)
	assert.Equal(t, "Khoa Nội", a.Department)
	assert.Equal(t, 3, a.Trips)
	assert.Equal(t, 2, a.ActiveDays)
	assert.InDelta(t, 530, a.DistanceKm, 1e-9)
	assert.InDelta(t, 24, a.Hours, 1e-9)
	assert.Equal(t, int64(1500000), a.RevenueVND)
	assert.InDelta(t, 530.0/3, a.AvgKmPerTrip, 1e-9)
	assert.InDelta(t, 48.0/530*100, a.LitersPer100Km, 1e-9)
	assert.Equal(t, FuelOver, a.FuelStatus)
	require.NotNil(t, a.FuelVariancePct)
	assert.InDelta(t, (48.0/530*100-8)/8*100, *a.FuelVariancePct, 1e-9)
	assert.InDelta(t, 0.6, a.Utilization, 1e-9)

	b := kpis[1]
	assert.InDelta(t, 10, b.LitersPer100Km, 1e-9, "only trips reporting fuel count")
	assert.Equal(t, FuelOK, b.FuelStatus)

	assert.Equal(t, FuelUnknown, kpis[2].FuelStatus)
	assert.Nil(t, kpis[2].FuelVariancePct)

	idle := kpis[3]
	assert.Zero(t, idle.Trips)
	assert.Zero(t, idle.Utilization)
	assert.Equal(t, "Khoa Ngoại", idle.Department)
}

func TestVehicleKPIsFiltersAndClamps(t *testing.T) {
	cfg := defaults()
	cfg.DefaultFuelStandard = 12
	kpis := VehicleKPIs(fixture(), register(), cfg, Filter{Departments: []string{"khoa ngoai"}})
	require.Len(t, kpis, 2)
	assert.Equal(t, "51B-22222", kpis[0].Plate)
	assert.Equal(t, 10.0, kpis[0].FuelStandard, "register standard wins over default")
	assert.Equal(t, "51B-44444", kpis[1].Plate)

	kpis = VehicleKPIs(fixture(), nil, cfg, Filter{Plates: []string{"51B11111"}, From: jan(8), To: jan(8)})
	require.Len(t, kpis, 1)
	assert.Equal(t, 1.0, kpis[0].Utilization, "13h on an 8h day clamps to 1")
	assert.Equal(t, 12.0, kpis[0].FuelStandard)
	assert.Equal(t, FuelUnder, kpis[0].FuelStatus)

	kpis = VehicleKPIs(fixture(), register(), cfg, Filter{Drivers: []string{"Trần Bình"}})
	require.Len(t, kpis, 1, "idle vehicles are not attributed to a driver")
}

func TestDriverKPIs(t *testing.T) {
	kpis := DriverKPIs(fixture(), defaults(), Filter{})
	require.Len(t, kpis, 3)
	assert.Equal(t, []string{"Lê Cường", "Nguyễn Văn An", "Trần Bình"},
		[]string{kpis[0].Driver, kpis[1].Driver, kpis[2].Driver})

	an := kpis[1]
	assert.Equal(t, 2, an.Trips)
	assert.Equal(t, 1, an.ActiveDays)
	assert.Equal(t, 1, an.Vehicles)
	assert.InDelta(t, 11, an.AvgHoursPerDay, 1e-9)
	assert.InDelta(t, 11, an.MaxDailyHours, 1e-9)
	assert.Equal(t, 1, an.OverloadDays)
	assert.Equal(t, "Khoa Nội", an.Department)

	// hours 13, 11, 3: mean 9, sample std sqrt(28)
	std := 5.291502622129181
	assert.InDelta(t, 4/std, kpis[0].WorkloadZ, 1e-9)
	assert.InDelta(t, 2/std, an.WorkloadZ, 1e-9)
	assert.InDelta(t, -6/std, kpis[2].WorkloadZ, 1e-9)
	for _, k := range kpis {
		assert.False(t, k.Outlier)
	}
	assert.Equal(t, 0, kpis[2].OverloadDays)
}

func TestDriverKPIsOutlier(t *testing.T) {
	var trips []model.Trip
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		trips = append(trips, trip(jan(6), "51B-1", name, "", "", 1, 1, 0, 0))
	}
	trips = append(trips, trip(jan(6), "51B-2", "F", "", "", 10, 1, 0, 0))
	kpis := DriverKPIs(trips, defaults(), Filter{})
	require.Len(t, kpis, 6)
	assert.Equal(t, "F", kpis[0].Driver)
	assert.True(t, kpis[0].Outlier)
	assert.False(t, kpis[1].Outlier)

	few := DriverKPIs(trips[4:], defaults(), Filter{})
	require.Len(t, few, 2)
	assert.Zero(t, few[0].WorkloadZ)
}

func TestDetectOverloads(t *testing.T) {
	got := DetectOverloads(fixture(), defaults())
	type row struct {
		subject, key, metric string
		day                  time.Time
		sev                  Severity
	}
	var rows []row
	for _, o := range got {
		rows = append(rows, row{o.Subject, o.Key, o.Metric, o.Day, o.Severity})
	}
	assert.Equal(t, []row{
		{SubjectDriver, "Nguyễn Văn An", MetricHours, jan(6), SeverityWarning},
		{SubjectDriver, "Nguyễn Văn An", MetricKm, jan(6), SeverityWarning},
		{SubjectVehicle, "51B-11111", MetricHours, jan(6), SeverityWarning},
		{SubjectVehicle, "51B-11111", MetricKm, jan(6), SeverityWarning},
		{SubjectDriver, "Lê Cường", MetricHours, jan(8), SeverityCritical},
		{SubjectVehicle, "51B-11111", MetricHours, jan(8), SeverityCritical},
	}, rows)
	assert.InDelta(t, 450, got[1].Value, 1e-9)
	assert.Equal(t, 400.0, got[1].Limit)

	counts := CountBySeverity(got)
	assert.Equal(t, 2, counts[SubjectDriver][SeverityWarning])
	assert.Equal(t, 1, counts[SubjectVehicle][SeverityCritical])
}

func TestDetectOverloadsMergesPlateSpellings(t *testing.T) {
	trips := []model.Trip{
		trip(jan(6), "51B-12345", "A", "", "", 6, 20, 0, 0),
		trip(jan(6), "51B12345", "B", "", "", 6, 20, 0, 0),
	}
	got := DetectOverloads(trips, defaults())
	require.Len(t, got, 1)
	assert.Equal(t, SubjectVehicle, got[0].Subject)
	assert.Equal(t, "51B-12345", got[0].Key)
	assert.InDelta(t, 12, got[0].Value, 1e-9)
}

func TestDetectOverloadsTripCount(t *testing.T) {
	var trips []model.Trip
	for i := 0; i < 9; i++ {
		trips = append(trips, trip(jan(6), "51B-1", "A", "", "", 0.5, 5, 0, 0))
	}
	got := DetectOverloads(trips, defaults())
	require.Len(t, got, 2)
	assert.Equal(t, MetricTrips, got[0].Metric)
	assert.Equal(t, SeverityWarning, got[0].Severity)
	assert.Equal(t, 9.0, got[0].Value)

	trips = append(trips, trip(jan(6), "51B-1", "A", "", "", 0.5, 5, 0, 0))
	got = DetectOverloads(trips, defaults())
	assert.Equal(t, SeverityCritical, got[0].Severity, "10 trips reaches 8*1.25")
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture(), Filter{})
	assert.Equal(t, jan(6), s.From)
	assert.Equal(t, jan(8), s.To)
	assert.Equal(t, 3, s.Days)
	assert.Equal(t, 6, s.Trips)
	assert.Equal(t, 3, s.Vehicles)
	assert.Equal(t, 3, s.Drivers)
	assert.Equal(t, 2, s.Departments)
	assert.InDelta(t, 600, s.DistanceKm, 1e-9)
	assert.InDelta(t, 28, s.Hours, 1e-9)
	assert.InDelta(t, 50, s.FuelLiters, 1e-9)
	assert.Equal(t, int64(1700000), s.RevenueVND)
	assert.InDelta(t, 100, s.AvgKmPerTrip, 1e-9)
	assert.Equal(t, 40.0, s.MedianKmPerTrip)
	assert.Equal(t, 350.0, s.P90KmPerTrip)
	assert.Equal(t, 1, s.TripsWithIssues)

	empty := Summarize(nil, Filter{})
	assert.Zero(t, empty.Trips)
	assert.Zero(t, empty.Days)
}

func TestDailySeries(t *testing.T) {
	pts := DailySeries(fixture(), Filter{From: jan(5), To: jan(9)})
	require.Len(t, pts, 5)
	assert.Equal(t, jan(5), pts[0].Day)
	assert.Zero(t, pts[0].Trips)
	assert.Equal(t, 2, pts[1].Trips)
	assert.Equal(t, 1, pts[1].Vehicles)
	assert.InDelta(t, 450, pts[1].DistanceKm, 1e-9)
	assert.Equal(t, 2, pts[3].Vehicles)
	assert.Zero(t, pts[4].Trips)

	assert.Nil(t, DailySeries(nil, Filter{}))
}

func TestFilter(t *testing.T) {
	tr := trip(jan(6), "51B-123.45", "Nguyễn Văn An", "Khoa Nội", "Cấp cứu", 1, 1, 0, 0)
	assert.True(t, Filter{}.Match(tr))
	assert.True(t, Filter{Drivers: []string{"nguyen van an"}}.Match(tr))
	assert.True(t, Filter{Plates: []string{"51B12345"}}.Match(tr))
	assert.True(t, Filter{Categories: []string{"CẤP CỨU"}}.Match(tr))
	assert.False(t, Filter{Departments: []string{"Khoa Ngoại"}}.Match(tr))
	assert.False(t, Filter{From: jan(7)}.Match(tr))
	assert.False(t, Filter{To: jan(5)}.Match(tr))
	assert.True(t, Filter{From: jan(6).Add(15 * time.Hour), To: jan(6)}.Match(tr))

	assert.Equal(t, 10, Filter{From: jan(1), To: jan(10)}.Days(nil))
	assert.Equal(t, 3, Filter{}.Days(fixture()))
	assert.Equal(t, 0, Filter{}.Days(nil))
}

func TestPivotMonth(t *testing.T) {
	feb := func(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }
	trips := []model.Trip{
		trip(feb(3), "A", "", "", "", 1, 10, 0, 0),
		trip(feb(4), "A", "", "", "", 1, 10, 0, 0),
		trip(feb(5), "A", "", "", "", 1, 10, 0, 0),
		trip(feb(6), "B", "", "", "", 1, 10, 0, 0),
		trip(jan(10), "A", "", "", "", 1, 10, 0, 0),
		trip(jan(11), "C", "", "", "", 1, 10, 0, 0),
		trip(jan(12), "C", "", "", "", 1, 10, 0, 0),
		trip(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "C", "", "", "", 1, 10, 0, 0),
	}
	tbl := Pivot(trips, PivotQuery{})
	assert.Equal(t, DimVehicle, tbl.Dimension)
	assert.Equal(t, "2025-02", tbl.Current.Label)
	assert.Equal(t, feb(28), tbl.Current.To)
	assert.Equal(t, "2025-01", tbl.Previous.Label)
	require.Len(t, tbl.Rows, 3)

	a, b, c := tbl.Rows[0], tbl.Rows[1], tbl.Rows[2]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, 3.0, a.Current)
	assert.Equal(t, 1.0, a.Previous)
	require.NotNil(t, a.ChangePct)
	assert.InDelta(t, 200, *a.ChangePct, 1e-9)
	assert.Equal(t, "B", b.Key)
	assert.Nil(t, b.ChangePct)
	assert.Equal(t, "C", c.Key)
	assert.Equal(t, -2.0, c.Delta)
	assert.InDelta(t, -100, *c.ChangePct, 1e-9)

	assert.Equal(t, 4.0, tbl.Total.Current)
	assert.Equal(t, 3.0, tbl.Total.Previous)

	km := Pivot(trips, PivotQuery{Metric: SumKm, Granularity: PerYear, At: feb(1)})
	assert.Equal(t, "2025", km.Current.Label)
	assert.Equal(t, 70.0, km.Total.Current)
	assert.Equal(t, 10.0, km.Total.Previous)

	assert.Empty(t, Pivot(nil, PivotQuery{}).Rows)
}

func TestPivotDimensions(t *testing.T) {
	trips := fixture()
	tbl := Pivot(trips, PivotQuery{Dimension: DimDriver, Granularity: PerWeek, Metric: SumHours})
	assert.Equal(t, "2025-W02", tbl.Current.Label)
	assert.Equal(t, jan(6), tbl.Current.From)
	assert.Equal(t, "2025-W01", tbl.Previous.Label)
	keys := map[string]float64{}
	for _, r := range tbl.Rows {
		keys[r.Key] = r.Current
	}
	assert.Equal(t, map[string]float64{"Lê Cường": 13, "Nguyễn Văn An": 11, "Trần Bình": 3, Unknown: 1}, keys)

	dept := Pivot(trips, PivotQuery{Dimension: DimDepartment, Metric: SumRevenue, Filter: Filter{Categories: []string{"Cấp cứu"}}})
	require.Len(t, dept.Rows, 1)
	assert.Equal(t, 1500000.0, dept.Rows[0].Current)
}

func TestPeriodOf(t *testing.T) {
	p := periodOf(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), PerWeek)
	assert.Equal(t, "2025-W01", p.Label)
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), p.From)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), p.To)

	q := periodOf(time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), PerQuarter)
	assert.Equal(t, "2025-Q2", q.Label)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), q.To)

	d := periodOf(jan(3), PerDay)
	assert.Equal(t, "2025-01-03", d.Label)
}

func TestParsePivotOptions(t *testing.T) {
	d, err := ParseDimension("Driver")
	require.NoError(t, err)
	assert.Equal(t, DimDriver, d)
	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, PerMonth, g)
	m, err := ParseMetric("revenue")
	require.NoError(t, err)
	assert.Equal(t, SumRevenue, m)
	_, err = ParseDimension("color")
	assert.Error(t, err)
	_, err = ParseGranularity("decade")
	assert.Error(t, err)
	_, err = ParseMetric("co2")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	c := defaults()
	assert.Equal(t, 10.0, c.Thresholds.MaxDailyHours)
	assert.Equal(t, 8, c.Thresholds.MaxDailyTrips)
	assert.Equal(t, 400.0, c.Thresholds.MaxDailyKm)
	assert.Equal(t, 1.25, c.Thresholds.CriticalRatio)
	assert.Equal(t, 8.0, c.AvailableHoursPerDay)
	require.NoError(t, c.Validate())

	bad := c
	bad.AvailableHoursPerDay = 25
	assert.Error(t, bad.Validate())
	bad = c
	bad.Vehicles = []model.Vehicle{{Plate: ""}}
	assert.Error(t, bad.Validate())
}

func TestLoadStandards(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	list, err := LoadStandards(write("a.yaml", "- plate: 51b-111.11\n  model: Innova\n  fuel_standard: 8.5\n"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "51B-11111", list[0].Plate)
	assert.Equal(t, 8.5, list[0].FuelStandard)

	list, err = LoadStandards(write("b.yml", "vehicles:\n  - plate: 51B-2\n    fuel_standard: 10\n    retired: true\n"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Retired)

	list, err = LoadStandards(write("c.json", `{"vehicles":[{"plate":"51B-3","fuel_standard":9}]}`))
	require.NoError(t, err)
	assert.Equal(t, 9.0, list[0].FuelStandard)

	list, err = LoadStandards(write("d.json", `[{"plate":"51B-4"}]`))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = LoadStandards(write("e.json", `[{"plate":"51B-5","fuel_standard":-1}]`))
	assert.Error(t, err)
	_, err = LoadStandards(write("f.toml", ``))
	assert.Error(t, err)
	_, err = LoadStandards(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	c := register()
	assert.Equal(t, 4, c.Len())
	v, ok := c.Lookup("51B11111")
	require.True(t, ok)
	assert.Equal(t, "51B-11111", v.Plate)
	_, ok = c.Lookup("99A-1")
	assert.False(t, ok)

	override := NewCatalog([]model.Vehicle{{Plate: "51B-1", FuelStandard: 8}}, []model.Vehicle{{Plate: "51B1", FuelStandard: 9}})
	v, _ = override.Lookup("51B-1")
	assert.Equal(t, 9.0, v.FuelStandard)

	var none *Catalog
	assert.Zero(t, none.Len())
	assert.Nil(t, none.Vehicles())
}

func TestMetricConverters(t *testing.T) {
	days := VehicleDays(fixture())
	require.Len(t, days, 4)
	assert.Equal(t, "51B-11111", days[0].Plate)
	assert.Equal(t, 2, days[0].Trips)
	assert.InDelta(t, 40, days[0].FuelLiters, 1e-9)

	snaps := Snapshots(VehicleKPIs(fixture(), register(), defaults(), Filter{}))
	assert.Len(t, snaps, 4)

	counts := OverloadCounts(DetectOverloads(fixture(), defaults()))
	assert.Len(t, counts, 4)
}
