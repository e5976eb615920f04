package commands

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/owner"
	"github.com/de-tools/governance-atlas/pkg/services/reporter"
	"github.com/de-tools/governance-atlas/pkg/store/s3export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const exportPrefix = "eol-violations"

type format struct {
	extension   string
	contentType string
}

var formats = map[string]format{
	"table":       {extension: "txt", contentType: "text/plain"},
	"csv":         {extension: "csv", contentType: "text/csv"},
	"summary-csv": {extension: "csv", contentType: "text/csv"},
	"json":        {extension: "json", contentType: "application/json"},
	"yaml":        {extension: "yaml", contentType: "application/yaml"},
}

type ReportCmd struct {
	mode          string
	tagKey        string
	minViolations int
	format        string
	owners        []string
	output        string
	s3URI         string
	load          Loader
	reporter      *export.Reporter
	now           func() time.Time
}

func NewReportCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	return newReportCmd(load, reporter, time.Now)
}

func newReportCmd(load Loader, reporter *export.Reporter, now func() time.Time) *cobra.Command {
	rc := &ReportCmd{load: load, reporter: reporter, now: now}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate EOL violations per owner",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.mode, "mode", "", "Owner mode: owner or tag (default from settings)")
	cmd.Flags().StringVar(&rc.tagKey, "tag-key", "", "Tag key used in tag mode")
	cmd.Flags().IntVar(&rc.minViolations, "min-violations", 1, "Minimum distinct violation types per owner")
	cmd.Flags().StringVar(&rc.format, "format", "table", "Output format: table, csv, summary-csv, json or yaml")
	cmd.Flags().StringSliceVar(&rc.owners, "owners", nil, "Only report these owner keys")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&rc.s3URI, "s3-uri", "", "Also upload the report to s3://bucket/prefix/")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	f, ok := formats[rc.format]
	if !ok {
		return fmt.Errorf("unsupported format %q", rc.format)
	}

	deps, err := rc.load(cmd)
	if err != nil {
		return err
	}

	req := deps.Runner.DefaultRequest()
	if cmd.Flags().Changed("mode") || cmd.Flags().Changed("tag-key") {
		req.Mode, err = owner.ParseMode(rc.mode, rc.tagKey)
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("min-violations") {
		if rc.minViolations < 0 {
			return fmt.Errorf("--min-violations must not be negative")
		}
		req.MinViolations = rc.minViolations
	}

	result, err := deps.Runner.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}
	result.Owners = filterOwners(result.Owners, rc.owners)

	var buf bytes.Buffer
	if err := rc.render(&buf, result); err != nil {
		return err
	}

	if rc.s3URI != "" {
		if err := rc.upload(cmd, deps, f, buf.Bytes()); err != nil {
			return err
		}
	}

	if rc.output != "" {
		if err := os.WriteFile(rc.output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rc.output, err)
		}
		logger.Info().Str("path", rc.output).Int("owners", len(result.Owners)).Msg("report written")
		return nil
	}

	_, err = rc.reporter.Writer().Write(buf.Bytes())
	return err
}

func (rc *ReportCmd) render(buf *bytes.Buffer, result domain.RunResult) error {
	switch rc.format {
	case "csv":
		return reporter.WriteRowsCSV(buf, reporter.Flatten(result.Owners, nil))
	case "summary-csv":
		return reporter.WriteSummaryCSV(buf, reporter.SummaryRows(result.Owners, nil))
	case "json":
		return export.WriteJSON(buf, result)
	case "yaml":
		return export.WriteYAML(buf, result)
	default:
		return export.NewReporter(buf).Owners(result)
	}
}

func (rc *ReportCmd) upload(cmd *cobra.Command, deps *Deps, f format, body []byte) error {
	ctx := cmd.Context()
	if deps.NewUploader == nil {
		return fmt.Errorf("s3 upload is not configured")
	}

	name := fmt.Sprintf("%s-%s.%s", exportPrefix, rc.now().UTC().Format(time.DateOnly), f.extension)
	loc, err := s3export.ParseURI(rc.s3URI, name)
	if err != nil {
		return err
	}
	uploader, err := deps.NewUploader(ctx)
	if err != nil {
		return err
	}
	if err := uploader.Upload(ctx, loc, f.contentType, bytes.NewReader(body)); err != nil {
		return err
	}
	cmd.PrintErrf("uploaded %s\n", loc)
	return nil
}

func filterOwners(owners []domain.OwnerSummary, keys []string) []domain.OwnerSummary {
	if len(keys) == 0 {
		return owners
	}
	out := make([]domain.OwnerSummary, 0, len(keys))
	for _, o := range owners {
		if slices.Contains(keys, o.Owner) {
			out = append(out, o)
		}
	}
	return out
}
