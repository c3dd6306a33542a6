package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/npi-validator/internal/npi"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "validate NPI [NPI...]",
		Short: "Validate one or more NPIs and print the results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			results := make([]npi.ValidationResult, 0, len(args))
			failed := 0
			for _, arg := range args {
				r, err := a.service.ValidateOne(ctx, arg)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error validating %s: %v\n", arg, err)
					failed++
					continue
				}
				results = append(results, r)
				if explain {
					explainChecksum(cmd.ErrOrStderr(), r)
				}
			}

			var data []byte
			if len(args) == 1 && len(results) == 1 {
				data, err = json.MarshalIndent(results[0], "", "  ")
			} else {
				data, err = json.MarshalIndent(results, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("marshaling results: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))

			if failed > 0 {
				return fmt.Errorf("%d of %d lookups failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "on a check digit failure, print the digit that would make the NPI valid")
	return cmd
}

// explainChecksum reports the expected check digit for a result that failed
// Luhn validation. Other results print nothing.
func explainChecksum(w io.Writer, r npi.ValidationResult) {
	if r.Reason != npi.ReasonChecksum || len(r.NPI) != 10 {
		return
	}
	base := r.NPI[:9]
	want, err := npi.CheckDigit(base)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s: check digit is %c, expected %c (%s%c)\n", r.NPI, r.NPI[9], want, base, want)
}
