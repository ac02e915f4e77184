package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume/internal/presentation/tui"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/registry"
	"github.com/aretw0/flume/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [blueprint.yaml]",
	Short: "Check a blueprint for consistency",
	Long: `Builds the pipeline described by a blueprint and runs setup: every process
type must exist, every config must satisfy its schema, every required input
must be connected and the graph must be acyclic.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		bp, err := e.loadBlueprint(cmd, args)
		if err != nil {
			return err
		}

		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			if err := validateStrict(e.engine.Registry(), bp); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), tui.Failure("Validation failed"))
				return err
			}
		}

		p, err := e.engine.Setup(bp)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.Failure("Validation failed"))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Success(fmt.Sprintf("Blueprint %s is valid", bp.Name)))
		fmt.Fprintln(cmd.OutOrStdout(), tui.Muted(fmt.Sprintf("%d processes, %d edges", len(p.ProcessNames()), len(p.Edges()))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addSourceFlags(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Reject config keys a process type does not declare")
}

// validateStrict checks every process config in bp against the keys its type
// declares, reporting undeclared keys.
func validateStrict(r *registry.Registry, bp *blueprint.Blueprint) error {
	var errs []error
	check := func(defs []blueprint.ProcessDef) {
		for _, def := range defs {
			keys, err := r.Keys(def.Type)
			if err != nil {
				errs = append(errs, fmt.Errorf("process %s: %w", def.Name, err))
				continue
			}
			if err := schema.ValidateStrict(keys, config.FromMap(def.Config)); err != nil {
				errs = append(errs, fmt.Errorf("process %s: %w", def.Name, err))
			}
		}
	}
	var walk func([]blueprint.ClusterDef)
	walk = func(clusters []blueprint.ClusterDef) {
		for _, c := range clusters {
			check(c.Processes)
			walk(c.Clusters)
		}
	}
	check(bp.Processes)
	walk(bp.Clusters)
	return errors.Join(errs...)
}
