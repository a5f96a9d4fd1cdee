package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	corefleet "github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// filterFlags are the report filters shared by report, export and chart.
type filterFlags struct {
	from, to    string
	plates      []string
	drivers     []string
	departments []string
	categories  []string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "first day (yyyy-mm-dd or dd/mm/yyyy)")
	fl.StringVar(&f.to, "to", "", "last day, inclusive")
	fl.StringSliceVar(&f.plates, "plate", nil, "vehicle plates")
	fl.StringSliceVar(&f.drivers, "driver", nil, "driver names")
	fl.StringSliceVar(&f.departments, "department", nil, "departments")
	fl.StringSliceVar(&f.categories, "category", nil, "trip categories")
}

func (f *filterFlags) filter() (corefleet.Filter, error) {
	out := corefleet.Filter{
		Plates:      f.plates,
		Drivers:     f.drivers,
		Departments: f.departments,
		Categories:  f.categories,
	}
	var err error
	if out.From, err = flagDay(f.from); err != nil {
		return out, fmt.Errorf("--from: %w", err)
	}
	if out.To, err = flagDay(f.to); err != nil {
		return out, fmt.Errorf("--to: %w", err)
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.To.Before(out.From) {
		return out, fmt.Errorf("--to is before --from")
	}
	return out, nil
}

func flagDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	d, err := normalize.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return normalize.Day(d), nil
}
