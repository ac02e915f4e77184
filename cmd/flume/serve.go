package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/flume"
	httpAdapter "github.com/aretw0/flume/pkg/adapters/http"
	"github.com/aretw0/flume/pkg/observability"
	"github.com/aretw0/flume/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve [blueprint.yaml]",
	Short: "Serve a pipeline's structure over HTTP",
	Long: `Builds and sets up the pipeline and exposes it as a read-only JSON API with
Server-Sent Events for pipeline events and Prometheus metrics at /metrics.
With --run the pipeline is also executed while the server is up.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := commandSettings(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(s)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = s.HTTP.Addr
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		streams := httpAdapter.NewStreamManager(logger)

		e, err := newEnv(cmd,
			flume.WithLifecycleHooks(metrics.Hooks()),
			flume.WithLifecycleHooks(streams.Hooks()),
			flume.WithLifecycleHooks(observability.LoggingHooks(logger)),
			flume.WithSchedulerOptions(scheduler.WithStepHook(metrics.ObserveStep)),
		)
		if err != nil {
			return err
		}
		bp, p, err := e.buildPipeline(cmd, args)
		if err != nil {
			return err
		}
		if err := p.SetupPipeline(); err != nil {
			// The API still serves a pipeline whose setup failed; /status reports why.
			logger.Warn("setup failed", "blueprint", bp.Name, "err", err)
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithVersion(flume.Version),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
		}
		if s.HTTP.Metrics {
			opts = append(opts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(p, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("HTTP server listening", "address", addr, "blueprint", bp.Name)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			logger.Info("HTTP server stopped")
			return nil
		})
		if run, _ := cmd.Flags().GetBool("run"); run && p.SetupSuccessful() {
			g.Go(func() error {
				steps, err := e.engine.Run(gctx, p)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("run %s: %w", bp.Name, err)
				}
				logger.Info("pipeline completed", "blueprint", bp.Name, "steps", steps)
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSourceFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on [FLUME_HTTP_ADDR]")
	serveCmd.Flags().Bool("run", false, "Run the pipeline while serving")
}
