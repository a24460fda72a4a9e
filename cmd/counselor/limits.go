package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"career-mentor/internal/ratelimit"
	"career-mentor/internal/telegram"
)

// Without REDIS_ADDR these commands only see the counters of this process.
func newLimitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Inspect or reset rate limits (shared counters need REDIS_ADDR)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <identity>",
		Short: "Show the allowance of one identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			info, err := a.Limit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), telegram.FormatLimit(info))
			for k, v := range ratelimit.Headers(info) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <identity>",
		Short: "Forget the recorded requests of one identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.ResetLimit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show counters across identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			st, err := a.LimitStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "identities: %d\nactive: %d\nrequests: %d\nlimit: %d\n",
				st.TotalIdentities, st.ActiveIdentities, st.TotalRequests, st.Limit)
			return nil
		},
	})
	return cmd
}
