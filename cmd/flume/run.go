package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume"
	"github.com/aretw0/flume/internal/presentation/tui"
	"github.com/aretw0/flume/pkg/observability"
	"github.com/aretw0/flume/pkg/scheduler"
	"github.com/aretw0/flume/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run [blueprint.yaml]",
	Short: "Run a pipeline until its sinks complete",
	Long: `Builds and sets up the pipeline, then drives every process until all sinks
have seen their inputs complete. When redis is configured the run holds a
lock named after the blueprint so the same pipeline never runs twice at once.`,
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
		rate, _ := cmd.Flags().GetFloat64("rate")
		if !cmd.Flags().Changed("rate") {
			rate = s.RateLimit.StepsPerSecond
		}

		schedOpts := []scheduler.Option{}
		if rate > 0 {
			schedOpts = append(schedOpts, scheduler.WithRateLimit(rate, s.RateLimit.Burst))
		}
		e, err := newEnv(cmd,
			flume.WithLifecycleHooks(observability.LoggingHooks(logger)),
			flume.WithSchedulerOptions(schedOpts...),
		)
		if err != nil {
			return err
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && tui.IsTerminal(os.Stderr) {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		bp, p, err := e.buildPipeline(cmd, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ttl, _ := cmd.Flags().GetDuration("lock-ttl")
		sessions, closeSessions, err := openSessions(e.settings,
			session.WithKeyPrefix("run:"),
			session.WithTTL(ttl),
			session.WithLogger(e.logger),
		)
		if err != nil {
			return err
		}
		defer closeSessions()

		start := time.Now()
		var steps map[string]int64
		err = sessions.WithLock(ctx, bp.Name, func(ctx context.Context) error {
			var err error
			steps, err = e.engine.Run(ctx, p)
			return err
		})
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Failure(fmt.Sprintf("Pipeline %s failed", bp.Name)))
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), tui.Success(fmt.Sprintf("Pipeline %s completed in %s", bp.Name, time.Since(start).Round(time.Millisecond))))
		names := make([]string, 0, len(steps))
		for name := range steps {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Muted(fmt.Sprintf("  %-24s %d steps", name, steps[name])))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSourceFlags(runCmd)
	runCmd.Flags().Float64("rate", 0, "Limit scheduler steps per second, 0 for no limit [FLUME_STEPS_PER_SECOND]")
	runCmd.Flags().Duration("lock-ttl", time.Minute, "Expiry of the redis run lock; renewed while the run lasts, so it only bounds how long a crashed run blocks others")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
