package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corner-25/test-umc-sub000/app"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	"github.com/corner-25/test-umc-sub000/infra/metrics"
	"github.com/corner-25/test-umc-sub000/jobs/kpibackfill"
)

var (
	backfillFilter filterFlags
	influxCfg      metrics.InfluxConfig
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Replay stored trips into InfluxDB as vehicle-day points",
	RunE:  runBackfill,
}

func init() {
	backfillFilter.bind(backfillCmd)
	fl := backfillCmd.Flags()
	fl.StringVar(&influxCfg.URL, "influx-url", "", "InfluxDB URL")
	fl.StringVar(&influxCfg.Token, "influx-token", "", "InfluxDB token")
	fl.StringVar(&influxCfg.Org, "influx-org", "", "InfluxDB organisation")
	fl.StringVar(&influxCfg.Bucket, "influx-bucket", "", "InfluxDB bucket")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if err := influxCfg.Validate(); err != nil {
		return err
	}
	f, err := backfillFilter.filter()
	if err != nil {
		return err
	}
	store, err := app.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	sink := metrics.NewInfluxSink(influxCfg)
	defer sink.Close()
	q := tripstore.Query{From: f.From, To: f.To, Plates: f.Plates, Departments: f.Departments}
	n, err := kpibackfill.Backfill(cmd.Context(), store, sink, q)
	if err != nil {
		return fmt.Errorf("backfill after %d vehicle-days: %w", n, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d vehicle-days to %s/%s\n", n, influxCfg.Org, influxCfg.Bucket)
	return nil
}
