package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume/internal/presentation/tui"
)

var describeCmd = &cobra.Command{
	Use:   "describe [blueprint.yaml]",
	Short: "Describe the processes, clusters and connections of a pipeline",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		bp, p, err := e.buildPipeline(cmd, args)
		if err != nil {
			return err
		}
		if err := p.SetupPipeline(); err != nil {
			e.logger.Warn("setup failed, execution order unavailable", "err", err)
		}

		md := tui.DescribeMarkdown(bp.Name, p)
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		out, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addSourceFlags(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")
}
