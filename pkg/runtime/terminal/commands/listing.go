package commands

import (
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/pipeline"
	"github.com/spf13/cobra"
)

func NewPoliciesCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List EOL governance policies with violating assets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load(cmd)
			if err != nil {
				return err
			}
			listing, err := deps.Runner.ListPolicies(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list policies: %w", err)
			}
			if err := reporter.Policies(listing.Policies); err != nil {
				return err
			}
			for _, f := range listing.Failures {
				cmd.PrintErrf("warning: %s: %s\n", f.Target, f.Reason)
			}
			return nil
		},
	}
}

type InventoryCmd struct {
	limit    int
	load     Loader
	reporter *export.Reporter
}

func NewInventoryCmd(load Loader, reporter *export.Reporter) *cobra.Command {
	ic := &InventoryCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List managed assets",
		RunE:  ic.run,
	}

	cmd.Flags().IntVar(&ic.limit, "limit", pipeline.DefaultInventoryLimit, "Maximum number of assets to list")

	return cmd
}

func (ic *InventoryCmd) run(cmd *cobra.Command, _ []string) error {
	if ic.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	deps, err := ic.load(cmd)
	if err != nil {
		return err
	}
	listing, err := deps.Runner.ListInventory(cmd.Context(), ic.limit)
	if err != nil {
		return fmt.Errorf("failed to list inventory: %w", err)
	}
	return ic.reporter.Inventory(listing)
}
