package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corner-25/test-umc-sub000/app"
	corefleet "github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	"github.com/corner-25/test-umc-sub000/pkg/charts"
	"github.com/corner-25/test-umc-sub000/pkg/export"
)

// reportInputs holds what every report command loads from the store.
type reportInputs struct {
	trips   []model.Trip
	catalog *corefleet.Catalog
	filter  corefleet.Filter
	pivot   corefleet.PivotQuery
}

var (
	reportFilter filterFlags
	reportFormat string
	pivotFlags   struct{ dimension, period, metric, at string }

	exportOut    string
	exportTables []string

	chartOut string
)

var reportCmd = &cobra.Command{
	Use:       "report [summary|vehicles|drivers|overloads|pivot|trips]",
	Short:     "Print a fleet report to stdout",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"summary", export.TableVehicles, export.TableDrivers, export.TableOverloads, export.TablePivot, export.TableTrips},
	RunE:      runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write report tables to a file; the format follows the extension",
	RunE:  runExport,
}

var chartCmd = &cobra.Command{
	Use:       "chart NAME",
	Short:     "Render a chart as a standalone HTML page",
	Args:      cobra.ExactArgs(1),
	ValidArgs: charts.Names(),
	RunE:      runChart,
}

func init() {
	for _, c := range []*cobra.Command{reportCmd, exportCmd, chartCmd} {
		reportFilter.bind(c)
		c.Flags().StringVar(&pivotFlags.dimension, "dimension", "", "pivot dimension: vehicle, driver, department or category")
		c.Flags().StringVar(&pivotFlags.period, "period", "", "pivot period: day, week, month, quarter or year")
		c.Flags().StringVar(&pivotFlags.metric, "metric", "", "pivot metric: trips, km, hours, revenue or fuel")
		c.Flags().StringVar(&pivotFlags.at, "at", "", "day inside the current pivot period")
		rootCmd.AddCommand(c)
	}
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "csv or json")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (.xlsx, .csv or .json)")
	exportCmd.Flags().StringSliceVar(&exportTables, "tables", []string{export.TableVehicles, export.TableDrivers, export.TableOverloads}, "tables to write; csv takes one")
	_ = exportCmd.MarkFlagRequired("out")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output file; default is stdout")
}

func loadInputs(cmd *cobra.Command) (reportInputs, error) {
	var in reportInputs
	f, err := reportFilter.filter()
	if err != nil {
		return in, err
	}
	in.filter = f
	in.pivot = corefleet.PivotQuery{Filter: f}
	if in.pivot.Dimension, err = corefleet.ParseDimension(pivotFlags.dimension); err != nil {
		return in, err
	}
	if in.pivot.Granularity, err = corefleet.ParseGranularity(pivotFlags.period); err != nil {
		return in, err
	}
	if in.pivot.Metric, err = corefleet.ParseMetric(pivotFlags.metric); err != nil {
		return in, err
	}
	if in.pivot.At, err = flagDay(pivotFlags.at); err != nil {
		return in, fmt.Errorf("--at: %w", err)
	}

	store, err := app.OpenStore(cfg.Store)
	if err != nil {
		return in, err
	}
	defer store.Close()
	// Pivots compare periods outside the date filter, so load everything.
	if in.trips, err = store.Trips(cmd.Context(), tripstore.Query{}); err != nil {
		return in, err
	}
	in.catalog, err = app.LoadCatalog(cfg.Fleet)
	return in, err
}

func buildTable(name string, in reportInputs) (export.Table, error) {
	switch name {
	case export.TableVehicles:
		return export.VehicleTable(corefleet.VehicleKPIs(in.trips, in.catalog, cfg.Fleet, in.filter)), nil
	case export.TableDrivers:
		return export.DriverTable(corefleet.DriverKPIs(in.trips, cfg.Fleet, in.filter)), nil
	case export.TableOverloads:
		return export.OverloadTable(corefleet.DetectOverloads(in.filter.Apply(in.trips), cfg.Fleet)), nil
	case export.TablePivot:
		return export.PivotTable(corefleet.Pivot(in.trips, in.pivot)), nil
	case export.TableTrips:
		trips := in.filter.Apply(in.trips)
		tripstore.SortTrips(trips)
		return export.TripTable(trips), nil
	}
	return export.Table{}, fmt.Errorf("unknown table %q", name)
}

func runReport(cmd *cobra.Command, args []string) error {
	name := "summary"
	if len(args) == 1 {
		name = strings.ToLower(args[0])
	}
	format, err := export.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	if format == export.XLSX {
		return fmt.Errorf("report prints csv or json; use export for xlsx")
	}
	in, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	if name == "summary" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(corefleet.Summarize(in.trips, in.filter))
	}
	t, err := buildTable(name, in)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), format, t)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(exportOut), "."))
	if err != nil {
		return err
	}
	in, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	tables := make([]export.Table, 0, len(exportTables))
	for _, name := range exportTables {
		t, err := buildTable(strings.ToLower(strings.TrimSpace(name)), in)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if err := export.Write(f, format, tables...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exportOut)
	return nil
}

func runChart(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])
	if !charts.Valid(name) {
		return fmt.Errorf("unknown chart %q (known: %s)", name, strings.Join(charts.Names(), ", "))
	}
	in, err := loadInputs(cmd)
	if err != nil {
		return err
	}
	var c charts.Renderer
	switch name {
	case charts.NameVehicleKm:
		c = charts.VehicleKm(corefleet.VehicleKPIs(in.trips, in.catalog, cfg.Fleet, in.filter))
	case charts.NameFuel:
		c = charts.Fuel(corefleet.VehicleKPIs(in.trips, in.catalog, cfg.Fleet, in.filter))
	case charts.NameDaily:
		c = charts.Daily(corefleet.DailySeries(in.trips, in.filter))
	case charts.NamePivot:
		c = charts.Pivot(corefleet.Pivot(in.trips, in.pivot))
	}
	html, err := charts.HTML(c)
	if err != nil {
		return err
	}
	if chartOut == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	return os.WriteFile(chartOut, []byte(html), 0o644)
}
