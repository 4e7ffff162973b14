package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youruser/promoapp/internal/discover"
	"github.com/youruser/promoapp/internal/logging"
	"github.com/youruser/promoapp/internal/pipeline"
)

func newBucketsCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "buckets OUTPUT",
		Short: "Compose pairs and action shots from numbered subdirectories",
		Long: `Reads <src>/1 .. <src>/N. In each, the first Front*.png and Back*.png are
composed onto the canvas as <OUTPUT>_PROMOTIONAL_<i>.jpg, and the first other
PNG is saved at half scale as <OUTPUT>_PROMOTIONAL_ACTION_<i>.jpg.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			n := cfg.Buckets.Count
			if cmd.Flags().Changed("count") {
				n = count
			}
			return ctx.run(cmd, discover.BucketMatcher{Count: n, Base: args[0]})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of buckets (overrides buckets.count)")
	return cmd
}

func newPairsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs",
		Short: `Compose "Front 2, <NAME>.png" with "Back 2, <NAME>.png" from one directory`,
		Long: `Pairs every "Front 2, <NAME>.png" in <src> with "Back 2, <NAME>.png" and
writes Promotional_<NAME>.jpg to <out>. A front without a matching back is
logged and skipped.

Source PNGs are removed according to sources.policy, the same as buckets. The
default, delete-on-load, deletes each source once it has been decoded. Set
sources.policy = "keep" to leave the inputs in place, or "delete-after-save"
to remove them only after the composite is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd, discover.NameMatcher{})
		},
	}
}

func (c *commandContext) run(cmd *cobra.Command, m discover.Matcher) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(opts, logger)
	if err != nil {
		return err
	}

	report, runErr := runner.Run(cmd.Context(), m)
	if report != nil && len(report.Results) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(report))
	}
	return runErr
}
