package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"career-mentor/internal/fields"
)

func newFieldsCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "fields [field]",
		Short: "List configured fields, or the questions asked for one field",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := fields.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, key := range table.Keys() {
					fmt.Fprintf(out, "%-22s %s\n", key, table.Lookup(key).Name)
				}
				return nil
			}
			row := table.Lookup(args[0])
			fmt.Fprintf(out, "%s (%s)\n", row.Name, row.Key)
			if !table.Known(args[0]) {
				fmt.Fprintln(out, "not configured, using the default row")
			}
			for _, q := range row.Questions {
				fmt.Fprintf(out, "- [%s] %s\n", q.Key, q.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "YAML file merged over the built-in table")
	return cmd
}
