package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"contact-intake/api/services"
	"contact-intake/pkg/ontology"

	"github.com/spf13/cobra"
)

func newSubmitCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record one contact from a JSON file (or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			var sub ontology.ContactSubmission
			if err := json.NewDecoder(in).Decode(&sub); err != nil {
				return fmt.Errorf("failed to decode submission: %w", err)
			}

			dbService, err := a.openDB()
			if err != nil {
				return err
			}
			defer dbService.Close()

			intake := services.NewIntakeService(dbService, a.linkOptions(), nil, a.logger)
			result, err := intake.Submit(cmd.Context(), &sub)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with the submission, - for stdin")
	return cmd
}
