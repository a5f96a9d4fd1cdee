// Package charts renders the fleet dashboard charts as standalone HTML pages.
package charts

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/corner-25/test-umc-sub000/core/fleet"
)

// Chart names served by the API.
const (
	NameVehicleKm = "vehicle-km"
	NameDaily     = "daily"
	NameFuel      = "fuel"
	NamePivot     = "pivot"
)

// Names lists the available charts.
func Names() []string { return []string{NameVehicleKm, NameDaily, NameFuel, NamePivot} }

// Renderer is implemented by every go-echarts chart.
type Renderer interface {
	Render(w io.Writer) error
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	}
}

func r2(v float64) float64 { return math.Round(v*100) / 100 }

// VehicleKm is a bar chart of the distance driven per vehicle.
func VehicleKm(kpis []fleet.VehicleKPI) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts("Quãng đường theo xe", "km"),
		charts.WithXAxisOpts(opts.XAxis{Name: "Biển số"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km"}),
	)...)
	x := make([]string, 0, len(kpis))
	km := make([]opts.BarData, 0, len(kpis))
	for _, k := range kpis {
		x = append(x, k.Plate)
		km = append(km, opts.BarData{Value: r2(k.DistanceKm)})
	}
	bar.SetXAxis(x).AddSeries("Quãng đường", km)
	return bar
}

// Daily plots trips and km per day; km uses a second axis.
func Daily(points []fleet.DayPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOpts("Hoạt động theo ngày", ""),
		charts.WithXAxisOpts(opts.XAxis{Name: "Ngày"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Chuyến"}),
	)...)
	line.ExtendYAxis(opts.YAxis{Name: "km"})
	x := make([]string, 0, len(points))
	trips := make([]opts.LineData, 0, len(points))
	km := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		x = append(x, p.Day.Format("02/01/2006"))
		trips = append(trips, opts.LineData{Value: p.Trips})
		km = append(km, opts.LineData{Value: r2(p.DistanceKm)})
	}
	line.SetXAxis(x).
		AddSeries("Số chuyến", trips).
		AddSeries("Quãng đường", km, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	return line
}

// Fuel compares measured L/100km with each vehicle standard. Vehicles
// without fuel data are left out.
func Fuel(kpis []fleet.VehicleKPI) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts("Nhiên liệu so với định mức", "lít/100km"),
		charts.WithXAxisOpts(opts.XAxis{Name: "Biển số"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "lít/100km"}),
	)...)
	var x []string
	var measured, standard []opts.BarData
	for _, k := range kpis {
		if k.LitersPer100Km == 0 {
			continue
		}
		x = append(x, k.Plate)
		measured = append(measured, opts.BarData{Value: r2(k.LitersPer100Km)})
		standard = append(standard, opts.BarData{Value: r2(k.FuelStandard)})
	}
	bar.SetXAxis(x).
		AddSeries("Thực tế", measured).
		AddSeries("Định mức", standard)
	return bar
}

// Pivot draws the current and previous period side by side.
func Pivot(p fleet.PivotTable) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts(
		fmt.Sprintf("So sánh %s: %s / %s", p.Metric, p.Current.Label, p.Previous.Label),
		string(p.Dimension)),
		charts.WithYAxisOpts(opts.YAxis{Name: string(p.Metric)}),
	)...)
	x := make([]string, 0, len(p.Rows))
	cur := make([]opts.BarData, 0, len(p.Rows))
	prev := make([]opts.BarData, 0, len(p.Rows))
	for _, r := range p.Rows {
		x = append(x, r.Key)
		cur = append(cur, opts.BarData{Value: r2(r.Current)})
		prev = append(prev, opts.BarData{Value: r2(r.Previous)})
	}
	bar.SetXAxis(x).
		AddSeries(p.Current.Label, cur).
		AddSeries(p.Previous.Label, prev)
	return bar
}

// HTML renders c into a string.
func HTML(c Renderer) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return buf.String(), nil
}

// Valid reports whether name is a known chart.
func Valid(name string) bool {
	for _, n := range Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
