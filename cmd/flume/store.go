package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume/internal/presentation/tui"
	"github.com/aretw0/flume/pkg/blueprint"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored blueprints",
	Long: `Saves, lists, shows and deletes blueprints in the configured store: redis
when --redis-addr (FLUME_REDIS_ADDR) is set, a YAML directory otherwise.`,
}

var storeSaveCmd = &cobra.Command{
	Use:   "save <blueprint.yaml>",
	Short: "Validate a blueprint file and save it to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := commandSettings(cmd)
		if err != nil {
			return err
		}
		bp, err := blueprint.Load(args[0])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = bp.Name
		}
		if name == "" {
			name = baseName(args[0])
		}

		sessions, closeSessions, err := openSessions(s)
		if err != nil {
			return err
		}
		defer closeSessions()
		if err := sessions.Save(commandContext(cmd), name, bp); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Success("Saved "+name))
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored blueprint names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := commandSettings(cmd)
		if err != nil {
			return err
		}
		sessions, closeSessions, err := openSessions(s)
		if err != nil {
			return err
		}
		defer closeSessions()

		names, err := sessions.List(commandContext(cmd))
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored blueprint as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := commandSettings(cmd)
		if err != nil {
			return err
		}
		sessions, closeSessions, err := openSessions(s)
		if err != nil {
			return err
		}
		defer closeSessions()

		bp, err := sessions.Load(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		data, err := blueprint.Marshal(bp)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored blueprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := commandSettings(cmd)
		if err != nil {
			return err
		}
		sessions, closeSessions, err := openSessions(s)
		if err != nil {
			return err
		}
		defer closeSessions()

		if err := sessions.Delete(commandContext(cmd), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Success("Deleted "+args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeSaveCmd, storeListCmd, storeShowCmd, storeDeleteCmd)
	storeSaveCmd.Flags().String("name", "", "Name to store the blueprint under (default: its name or file name)")
}
