package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types [type]",
	Short: "List registered process types and their config keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		r := e.engine.Registry()

		types := r.Types()
		if len(args) == 1 {
			types = args
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, typ := range types {
			desc, err := r.Description(typ)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", typ, desc)

			keys, _ := r.Keys(typ)
			for _, k := range keys {
				extra := ""
				switch {
				case k.Required:
					extra = "required"
				case k.Default != "":
					extra = "default " + k.Default
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", k.Name, k.Type.Name(), extra, k.Description)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
