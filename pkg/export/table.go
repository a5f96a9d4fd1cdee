// Package export writes report tables as CSV, JSON or styled Excel workbooks.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/model"
)

// Kind tells writers how to format a column.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	// Ratio values are fractions shown as percentages in Excel.
	Ratio
	Money
	Date
)

// Column describes one table column. Key names the field in JSON output;
// Header is the Vietnamese caption used in CSV and Excel.
type Column struct {
	Key    string
	Header string
	Kind   Kind
}

// Table is a named grid of values. A nil cell is written empty.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Table names accepted by ParseTable.
const (
	TableVehicles  = "vehicles"
	TableDrivers   = "drivers"
	TableOverloads = "overloads"
	TablePivot     = "pivot"
	TableTrips     = "trips"
)

// ParseTable validates a table name from a query string.
func ParseTable(s string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(s)); t {
	case TableVehicles, TableDrivers, TableOverloads, TablePivot, TableTrips:
		return t, nil
	case "":
		return TableVehicles, nil
	}
	return "", fmt.Errorf("unknown table %q", s)
}

func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// VehicleTable lists vehicle KPIs.
func VehicleTable(kpis []fleet.VehicleKPI) Table {
	t := Table{
		Name: "Xe",
		Columns: []Column{
			{"plate", "Biển số", Text},
			{"model", "Loại xe", Text},
			{"department", "Khoa/Phòng", Text},
			{"trips", "Số chuyến", Int},
			{"active_days", "Ngày hoạt động", Int},
			{"distance_km", "Quãng đường (km)", Float},
			{"hours", "Thời gian (giờ)", Float},
			{"avg_km_per_trip", "Km/chuyến", Float},
			{"fuel_liters", "Nhiên liệu (lít)", Float},
			{"liters_per_100km", "Lít/100km", Float},
			{"fuel_standard", "Định mức (lít/100km)", Float},
			{"fuel_variance_pct", "Chênh lệch định mức (%)", Float},
			{"fuel_status", "Đánh giá nhiên liệu", Text},
			{"utilization", "Hiệu suất sử dụng", Ratio},
			{"revenue_vnd", "Doanh thu (VNĐ)", Money},
		},
	}
	for _, k := range kpis {
		t.Rows = append(t.Rows, []any{
			k.Plate, k.Model, k.Department, k.Trips, k.ActiveDays, k.DistanceKm, k.Hours,
			k.AvgKmPerTrip, k.FuelLiters, k.LitersPer100Km, k.FuelStandard,
			optional(k.FuelVariancePct), string(k.FuelStatus), k.Utilization, k.RevenueVND,
		})
	}
	return t
}

// DriverTable lists driver KPIs.
func DriverTable(kpis []fleet.DriverKPI) Table {
	t := Table{
		Name: "Tài xế",
		Columns: []Column{
			{"driver", "Tài xế", Text},
			{"department", "Khoa/Phòng", Text},
			{"trips", "Số chuyến", Int},
			{"active_days", "Ngày làm việc", Int},
			{"vehicles", "Số xe", Int},
			{"distance_km", "Quãng đường (km)", Float},
			{"hours", "Thời gian (giờ)", Float},
			{"avg_hours_per_day", "Giờ/ngày", Float},
			{"max_daily_hours", "Giờ cao nhất/ngày", Float},
			{"overload_days", "Ngày quá tải", Int},
			{"workload_z", "Chỉ số z", Float},
			{"outlier", "Bất thường", Text},
			{"revenue_vnd", "Doanh thu (VNĐ)", Money},
		},
	}
	for _, k := range kpis {
		outlier := ""
		if k.Outlier {
			outlier = "có"
		}
		t.Rows = append(t.Rows, []any{
			k.Driver, k.Department, k.Trips, k.ActiveDays, k.Vehicles, k.DistanceKm, k.Hours,
			k.AvgHoursPerDay, k.MaxDailyHours, k.OverloadDays, k.WorkloadZ, outlier, k.RevenueVND,
		})
	}
	return t
}

var subjectLabels = map[string]string{fleet.SubjectDriver: "Tài xế", fleet.SubjectVehicle: "Xe"}

var metricLabels = map[string]string{
	fleet.MetricHours: "Giờ chạy",
	fleet.MetricTrips: "Số chuyến",
	fleet.MetricKm:    "Quãng đường (km)",
}

var severityLabels = map[fleet.Severity]string{
	fleet.SeverityWarning:  "Cảnh báo",
	fleet.SeverityCritical: "Nghiêm trọng",
}

// OverloadTable lists detected overloads.
func OverloadTable(overloads []fleet.Overload) Table {
	t := Table{
		Name: "Quá tải",
		Columns: []Column{
			{"day", "Ngày", Date},
			{"subject", "Đối tượng", Text},
			{"key", "Tên/Biển số", Text},
			{"metric", "Chỉ tiêu", Text},
			{"value", "Giá trị", Float},
			{"limit", "Ngưỡng", Float},
			{"severity", "Mức độ", Text},
		},
	}
	for _, o := range overloads {
		t.Rows = append(t.Rows, []any{
			o.Day, subjectLabels[o.Subject], o.Key, metricLabels[o.Metric],
			o.Value, o.Limit, severityLabels[o.Severity],
		})
	}
	return t
}

var dimensionLabels = map[fleet.Dimension]string{
	fleet.DimVehicle:    "Xe",
	fleet.DimDriver:     "Tài xế",
	fleet.DimDepartment: "Khoa/Phòng",
	fleet.DimCategory:   "Loại chuyến",
}

// PivotTable lists the pivot rows followed by the total row. The value
// headers carry the period labels.
func PivotTable(p fleet.PivotTable) Table {
	t := Table{
		Name: "Pivot",
		Columns: []Column{
			{"key", dimensionLabels[p.Dimension], Text},
			{"current", p.Current.Label, Float},
			{"previous", p.Previous.Label, Float},
			{"delta", "Chênh lệch", Float},
			{"change_pct", "Thay đổi (%)", Float},
		},
	}
	for _, r := range append(append([]fleet.PivotRow(nil), p.Rows...), p.Total) {
		t.Rows = append(t.Rows, []any{r.Key, r.Current, r.Previous, r.Delta, optional(r.ChangePct)})
	}
	return t
}

func clock(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// TripTable lists normalised trips with their issue codes.
func TripTable(trips []model.Trip) Table {
	t := Table{
		Name: "Chuyến",
		Columns: []Column{
			{"date", "Ngày", Date},
			{"plate", "Biển số", Text},
			{"driver", "Tài xế", Text},
			{"department", "Khoa/Phòng", Text},
			{"category", "Loại chuyến", Text},
			{"route", "Lộ trình", Text},
			{"start", "Giờ đi", Text},
			{"end", "Giờ về", Text},
			{"hours", "Thời gian (giờ)", Float},
			{"distance_km", "Quãng đường (km)", Float},
			{"fuel_liters", "Nhiên liệu (lít)", Float},
			{"revenue_vnd", "Doanh thu (VNĐ)", Money},
			{"issues", "Ghi chú", Text},
		},
	}
	for _, tr := range trips {
		codes := make([]string, 0, len(tr.Issues))
		for _, is := range tr.Issues {
			codes = append(codes, is.Field+":"+string(is.Code))
		}
		t.Rows = append(t.Rows, []any{
			tr.Day(), tr.Plate, tr.Driver, tr.Department, tr.Category, tr.Route,
			clock(tr.Start), clock(tr.End), tr.Hours(), tr.DistanceKm, tr.FuelLiters,
			tr.RevenueVND, strings.Join(codes, ", "),
		})
	}
	return t
}
