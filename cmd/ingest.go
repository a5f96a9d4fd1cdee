package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/corner-25/test-umc-sub000/app"
	"github.com/corner-25/test-umc-sub000/core/ingest"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/infra/logger"
)

var (
	ingestSheet   string
	ingestIssues  int
	ingestSources bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [FILE...]",
	Short: "Import trip log files (xlsx, csv or json) into the trip store",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !ingestSources {
			return fmt.Errorf("requires at least one file or --sources")
		}
		return nil
	},
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSheet, "sheet", "", "worksheet of xlsx files; default is the first sheet")
	ingestCmd.Flags().IntVar(&ingestIssues, "issues", 20, "issues listed per file")
	ingestCmd.Flags().BoolVar(&ingestSources, "sources", false, "also pull the sources listed under ingest.sources")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	failed := 0
	for _, path := range args {
		src, err := ingest.FileSource(path)
		if err != nil {
			return err
		}
		if x, ok := src.(*ingest.XLSXSource); ok {
			x.Sheet = ingestSheet
		}
		b, err := svc.Pipeline.Run(cmd.Context(), src)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		printBatch(cmd.OutOrStdout(), path, b, ingestIssues)
	}
	total := len(args)
	if ingestSources {
		res, err := svc.ImportSources(cmd.Context())
		if err != nil {
			return err
		}
		total += len(res)
		for _, r := range res {
			if r.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Source, r.Err)
				continue
			}
			printBatch(cmd.OutOrStdout(), r.Source, r.Batch, ingestIssues)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, total)
	}
	return nil
}

func printBatch(w io.Writer, path string, b model.Batch, maxIssues int) {
	fmt.Fprintf(w, "%s: batch %s, %d rows, %d accepted, %d rejected\n", path, b.ID, b.Rows, b.Accepted, b.Rejected)
	counts := b.IssueCounts()
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	for _, c := range codes {
		fmt.Fprintf(w, "  %-18s %d\n", c, counts[model.IssueCode(c)])
	}
	if maxIssues <= 0 || len(b.Issues) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ROW\tFIELD\tCODE\tVALUE")
	for i, is := range b.Issues {
		if i == maxIssues {
			fmt.Fprintf(tw, "  ...\t%d more\t\t\n", len(b.Issues)-maxIssues)
			break
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", is.Row, is.Field, is.Code, is.Raw)
	}
	_ = tw.Flush()
}
