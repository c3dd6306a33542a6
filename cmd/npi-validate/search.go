package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var firstName, lastName, state string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the NPI Registry for individual providers by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if firstName == "" && lastName == "" {
				return fmt.Errorf("at least one of --first or --last is required")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.client.SearchByName(ctx, firstName, lastName, state)
			if err != nil {
				return fmt.Errorf("searching registry: %w", err)
			}

			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling results: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
			fmt.Fprintf(os.Stderr, "%d providers found\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first", "", "Provider first name")
	cmd.Flags().StringVar(&lastName, "last", "", "Provider last name")
	cmd.Flags().StringVar(&state, "state", "", "Two-letter state code")

	return cmd
}
