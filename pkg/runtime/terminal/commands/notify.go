package commands

import (
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/notify"
	"github.com/spf13/cobra"
)

type NotifyCmd struct {
	owners    []string
	all       bool
	testEmail string
	load      Loader
	reporter  *export.Reporter
}

func NewNotifyCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	nc := &NotifyCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Prepare owner notifications for the current report (demo delivery)",
		RunE:  nc.run,
	}

	cmd.Flags().StringSliceVar(&nc.owners, "owners", nil, "Owner keys to notify")
	cmd.Flags().BoolVar(&nc.all, "all", false, "Notify every owner in the report")
	cmd.Flags().StringVar(&nc.testEmail, "test-email", "", "Redirect every message to this address")
	cmd.MarkFlagsMutuallyExclusive("owners", "all")
	cmd.MarkFlagsOneRequired("owners", "all")

	return cmd
}

func (nc *NotifyCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := nc.load(cmd)
	if err != nil {
		return err
	}

	result, err := deps.Runner.Run(ctx, deps.Runner.DefaultRequest())
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	selected := nc.owners
	if nc.all {
		selected = make([]string, 0, len(result.Owners))
		for _, o := range result.Owners {
			selected = append(selected, o.Owner)
		}
	}

	cfg := deps.SMTP
	if nc.testEmail != "" {
		cfg.TestEmail = nc.testEmail
	}

	results, err := notify.DemoDispatch(ctx, cfg, selected, result.Owners)
	if err != nil {
		return err
	}
	return nc.reporter.Deliveries(results)
}
