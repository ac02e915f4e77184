package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume"
	mcpAdapter "github.com/aretw0/flume/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [blueprint.yaml]",
	Short: "Expose a pipeline to AI agents over the Model Context Protocol",
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
			e.logger.Warn("setup failed", "blueprint", bp.Name, "err", err)
		}

		srv := mcpAdapter.NewServer(p, flume.Version,
			mcpAdapter.WithRegistry(e.engine.Registry()),
			mcpAdapter.WithLogger(e.logger),
		)

		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			port, _ := cmd.Flags().GetInt("port")
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, fmt.Sprintf(":%d", port), fmt.Sprintf("http://localhost:%d", port))
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addSourceFlags(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
