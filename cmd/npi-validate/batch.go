package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/npi-validator/internal/cloud"
	"github.com/gyeh/npi-validator/internal/input"
	"github.com/gyeh/npi-validator/internal/npi"
	"github.com/gyeh/npi-validator/internal/output"
	"github.com/gyeh/npi-validator/internal/progress"
	"github.com/gyeh/npi-validator/internal/validation"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		npiList     string
		inputFile   string
		rosterFile  string
		outputFile  string
		s3Bucket    string
		concurrency int
		retries     int
		noProgress  bool
		logProgress bool
		table       bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Validate many NPIs with rate-limited concurrency and write a JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Batch.Concurrency = concurrency
			}
			if cmd.Flags().Changed("retries") {
				cfg.Batch.MaxRetries = retries
			}

			ctx, cancel := signalContext()
			defer cancel()

			npis, source, err := collectNPIs(ctx, npiList, inputFile, rosterFile)
			if err != nil {
				return err
			}
			if len(npis) == 0 {
				return fmt.Errorf("no NPIs specified (use --npi, --input or --roster)")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var mgr progress.Manager
			switch {
			case noProgress:
				mgr = &progress.NoopManager{}
			case logProgress:
				mgr = progress.NewLogManager()
			default:
				mgr = progress.NewMPBManager()
			}

			startTime := time.Now()
			results, err := runChunks(ctx, a.batchValidator(), npis, cfg.Batch.Concurrency, mgr)
			mgr.Wait()
			if err != nil {
				return err
			}
			summary := npi.Summarize(results)
			duration := time.Since(startTime)

			report := output.NewReport(source, results, summary)
			if table {
				output.WriteTable(os.Stdout, results, summary)
			} else if err := output.WriteReport(outputFile, report); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if s3Bucket != "" {
				key, err := uploadReport(ctx, s3Bucket, cfg.Cache.Region, report)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Report uploaded to s3://%s/%s\n", s3Bucket, key)
			}

			fmt.Fprintf(os.Stderr, "\nBatch complete: %d NPIs, %d validated, %d invalid (%d failed), %d deactivated, %d organization in %.1fs\n",
				summary.Total, summary.Validated, summary.Invalid, summary.Failed, summary.Deactivated, summary.Organization, duration.Seconds())
			if !table && outputFile != "-" {
				fmt.Fprintf(os.Stderr, "Results written to %s\n", outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&npiList, "npi", "", "Comma-separated NPIs to validate")
	cmd.Flags().StringVar(&inputFile, "input", "", "File or URL of NPIs, one or more per line (may be gzipped)")
	cmd.Flags().StringVar(&rosterFile, "roster", "", "JSON roster file or URL with a providers array of {\"npi\": ...} entries")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file path (use '-' for stdout)")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Also upload the report to this S3 bucket")
	cmd.Flags().IntVar(&concurrency, "concurrency", validation.DefaultConcurrency, "Maximum concurrent validations")
	cmd.Flags().IntVar(&retries, "retries", 0, "Retries per NPI for retryable registry errors")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVar(&logProgress, "log-progress", false, "Print progress as log lines instead of bars")
	cmd.Flags().BoolVar(&table, "table", false, "Print a plain-text table instead of the JSON report")

	return cmd
}

// collectNPIs merges every NPI source in flag order and names the source
// for the report. File sources may be http(s) URLs.
func collectNPIs(ctx context.Context, npiList, inputFile, rosterFile string) ([]string, string, error) {
	npis := input.SplitList(npiList)
	source := "flags"

	if inputFile != "" {
		fromFile, err := readSource(ctx, inputFile, input.ReadList)
		if err != nil {
			return nil, "", fmt.Errorf("reading NPIs: %w", err)
		}
		npis = append(npis, fromFile...)
		source = inputFile
	}
	if rosterFile != "" {
		fromRoster, err := readSource(ctx, rosterFile, input.ReadRoster)
		if err != nil {
			return nil, "", fmt.Errorf("reading roster: %w", err)
		}
		npis = append(npis, fromRoster...)
		source = rosterFile
	}
	return npis, source, nil
}

func readSource(ctx context.Context, src string, read func(string) ([]string, error)) ([]string, error) {
	p, cleanup, err := input.Localize(ctx, src)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return read(p)
}

// runChunks validates npis in batches of at most MaxBatchSize, one progress
// bar per chunk, and returns results in input order.
func runChunks(ctx context.Context, b *validation.BatchValidator, npis []string, concurrency int, mgr progress.Manager) ([]npi.ValidationResult, error) {
	chunks := (len(npis) + validation.MaxBatchSize - 1) / validation.MaxBatchSize
	results := make([]npi.ValidationResult, 0, len(npis))

	for i := 0; i < chunks; i++ {
		start := i * validation.MaxBatchSize
		end := min(start+validation.MaxBatchSize, len(npis))

		tracker := mgr.NewTracker(i, chunks, fmt.Sprintf("NPIs %d-%d", start+1, end))
		res, err := b.ValidateBatch(ctx, npis[start:end], validation.BatchOptions{
			Concurrency: concurrency,
			Tracker:     tracker,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res.Results...)
	}
	return results, nil
}

func uploadReport(ctx context.Context, bucket, region string, report output.Report) (string, error) {
	client, err := cloud.NewS3Client(ctx, bucket, region)
	if err != nil {
		return "", fmt.Errorf("creating S3 client: %w", err)
	}
	data, err := report.Marshal()
	if err != nil {
		return "", err
	}
	key := "reports/" + report.ID + ".json"
	if err := client.UploadBytes(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("uploading report: %w", err)
	}
	return key, nil
}
