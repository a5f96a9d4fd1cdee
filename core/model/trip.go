package model

import "time"

// IssueCode classifies a problem found while normalising a row.
type IssueCode string

const (
	IssueEmpty           IssueCode = "empty"
	IssueFormat          IssueCode = "format"
	IssueRange           IssueCode = "out_of_range"
	IssueNegativeRevenue IssueCode = "negative_revenue"
	IssueDerivedDuration IssueCode = "derived_duration"
	IssueMissingPlate    IssueCode = "missing_plate"
	IssueMissingDate     IssueCode = "missing_date"
)

// Issue records a field that could not be taken at face value. Row is the
// 1-based row number in the source sheet.
type Issue struct {
	Row   int       `json:"row"`
	Field string    `json:"field"`
	Code  IssueCode `json:"code"`
	Raw   string    `json:"raw,omitempty"`
}

// Trip is one normalised line of the vehicle trip log.
type Trip struct {
	ID      string    `json:"id"`
	BatchID string    `json:"batch_id"`
	Row     int       `json:"row"`
	Date    time.Time `json:"date"`
	// Start and End are offsets since midnight; zero when not recorded.
	Start time.Duration `json:"start,omitempty"`
	End   time.Duration `json:"end,omitempty"`

	Plate        string `json:"plate"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	Driver       string `json:"driver,omitempty"`
	Department   string `json:"department,omitempty"`
	Category     string `json:"category,omitempty"`
	Route        string `json:"route,omitempty"`

	Duration   time.Duration `json:"duration"`
	DistanceKm float64       `json:"distance_km"`
	FuelLiters float64       `json:"fuel_liters"`
	RevenueVND int64         `json:"revenue_vnd"`

	Issues []Issue `json:"issues,omitempty"`
}

// Hours returns the trip duration in hours.
func (t Trip) Hours() float64 { return t.Duration.Hours() }

// Day returns the trip date truncated to midnight UTC.
func (t Trip) Day() time.Time {
	d := t.Date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Batch summarises one import of a source file.
type Batch struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Imported time.Time `json:"imported"`
	Rows     int       `json:"rows"`
	Accepted int       `json:"accepted"`
	Rejected int       `json:"rejected"`
	Issues   []Issue   `json:"issues,omitempty"`
}

// IssueCounts tallies the batch issues by code.
func (b Batch) IssueCounts() map[IssueCode]int {
	out := make(map[IssueCode]int)
	for _, is := range b.Issues {
		out[is.Code]++
	}
	return out
}
