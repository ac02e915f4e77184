package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume/internal/presentation/graph"
	"github.com/aretw0/flume/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph [blueprint.yaml]",
	Short: "Export the pipeline graph visualization",
	Long: `Builds the pipeline and outputs a Mermaid diagram (graph LR). With --setup the
pipeline is also set up and a process blamed for a setup failure is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		_, p, err := e.buildPipeline(cmd, args)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if setup, _ := cmd.Flags().GetBool("setup"); setup {
			overlay = &graph.Overlay{}
			if err := p.SetupPipeline(); err != nil {
				var derr *domain.Error
				if errors.As(err, &derr) {
					overlay.Failed = derr.Process
				}
				e.logger.Warn("setup failed", "err", err)
			} else {
				overlay.Done = p.ProcessOrder()
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addSourceFlags(graphCmd)
	graphCmd.Flags().Bool("setup", false, "Set the pipeline up and highlight the outcome")
}
