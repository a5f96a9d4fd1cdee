package ingest

import (
	"errors"
	"strings"

	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// Field is a canonical trip attribute.
type Field string

const (
	FieldDate       Field = "date"
	FieldStart      Field = "start"
	FieldEnd        Field = "end"
	FieldPlate      Field = "plate"
	FieldModel      Field = "vehicle_model"
	FieldDriver     Field = "driver"
	FieldDepartment Field = "department"
	FieldCategory   Field = "category"
	FieldRoute      Field = "route"
	FieldDuration   Field = "duration"
	FieldDistance   Field = "distance"
	FieldFuel       Field = "fuel"
	FieldRevenue    Field = "revenue"
)

// resolveOrder lists fields from the most to the least specific header, so
// "Thời gian bắt đầu" is claimed by start before duration sees "thời gian".
var resolveOrder = []Field{
	FieldStart, FieldEnd, FieldModel, FieldPlate, FieldDriver, FieldDepartment,
	FieldCategory, FieldRoute, FieldRevenue, FieldFuel, FieldDistance, FieldDuration, FieldDate,
}

// ErrNoHeader is returned when no row looks like a trip log header.
var ErrNoHeader = errors.New("no header row found")

// headerScanRows bounds how far below the sheet title the header may sit.
const headerScanRows = 15

// Mapping lists the header aliases of each field. Aliases are compared after
// FoldHeader, so "Biển số" and "bien so" are equivalent.
type Mapping map[Field][]string

// DefaultMapping covers the headers used by UMC transport team exports.
func DefaultMapping() Mapping {
	return Mapping{
		FieldDate:       {"ngày", "ngày đi", "ngày chạy", "ngày thực hiện", "ngày tháng", "date", "trip date"},
		FieldStart:      {"giờ đi", "giờ xuất phát", "giờ bắt đầu", "thời gian bắt đầu", "bắt đầu", "start", "start time", "departure"},
		FieldEnd:        {"giờ về", "giờ kết thúc", "thời gian kết thúc", "kết thúc", "end", "end time", "return"},
		FieldPlate:      {"biển số", "biển số xe", "bks", "số xe", "xe", "plate", "vehicle", "license plate"},
		FieldModel:      {"loại xe", "hiệu xe", "dòng xe", "model", "vehicle model"},
		FieldDriver:     {"tài xế", "lái xe", "tên tài xế", "người lái", "họ tên tài xế", "driver"},
		FieldDepartment: {"khoa", "đơn vị", "khoa phòng", "phòng ban", "đơn vị sử dụng", "department"},
		FieldCategory:   {"loại chuyến", "phân loại", "mục đích", "loại hình", "category", "type", "purpose"},
		FieldRoute:      {"lộ trình", "tuyến đường", "nơi đến", "điểm đến", "route", "destination"},
		FieldDuration:   {"thời gian", "thời gian chạy", "số giờ", "tổng thời gian", "thời lượng", "duration", "hours"},
		FieldDistance:   {"quãng đường", "số km", "km", "cự ly", "km thực tế", "distance", "distance km"},
		FieldFuel:       {"nhiên liệu", "xăng dầu", "số lít", "lít", "fuel", "fuel liters"},
		FieldRevenue:    {"doanh thu", "thành tiền", "số tiền", "cước phí", "phí", "revenue", "amount"},
	}
}

// Merge returns a copy of m where fields present in extra get the additional
// aliases appended. Unknown field names are ignored.
func (m Mapping) Merge(extra map[string][]string) Mapping {
	out := make(Mapping, len(m))
	for f, al := range m {
		out[f] = append([]string(nil), al...)
	}
	for name, al := range extra {
		f := Field(name)
		if _, ok := out[f]; !ok {
			continue
		}
		out[f] = append(out[f], al...)
	}
	return out
}

// Resolve maps fields to column indexes for the given header row. Exact
// folded matches are taken first; then aliases of four characters or more
// may match as a substring ("Số km (km)" resolves distance).
func (m Mapping) Resolve(header []string) map[Field]int {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = normalize.FoldHeader(h)
	}
	cols := make(map[Field]int)
	taken := make(map[int]bool)
	assign := func(match func(h, alias string) bool) {
		for _, f := range resolveOrder {
			if _, done := cols[f]; done {
				continue
			}
		search:
			for i, h := range folded {
				if h == "" || taken[i] {
					continue
				}
				for _, a := range m[f] {
					if match(h, normalize.FoldHeader(a)) {
						cols[f] = i
						taken[i] = true
						break search
					}
				}
			}
		}
	}
	assign(func(h, a string) bool { return h == a })
	assign(func(h, a string) bool { return len(a) >= 4 && strings.Contains(h, a) })
	return cols
}

// findHeader scans the first rows of t for the one resolving the most fields.
// A header must resolve at least the plate or the date plus one other field.
func (m Mapping) findHeader(rows [][]string) (int, map[Field]int, error) {
	best, bestCols := -1, map[Field]int(nil)
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		cols := m.Resolve(rows[i])
		_, hasPlate := cols[FieldPlate]
		_, hasDate := cols[FieldDate]
		if len(cols) < 2 || (!hasPlate && !hasDate) {
			continue
		}
		if len(cols) > len(bestCols) {
			best, bestCols = i, cols
		}
	}
	if best < 0 {
		return 0, nil, ErrNoHeader
	}
	return best, bestCols, nil
}
