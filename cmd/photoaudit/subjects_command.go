package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photoaudit/internal/report"
)

func newSubjectsCommand(ctx *commandContext) *cobra.Command {
	var (
		sf         subjectFlags
		jsonOutput bool
		excelPath  string
	)

	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List users and their profiles with study metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			cl, err := ctx.openClients(cmd.Context(), sf.bucket)
			if err != nil {
				return err
			}
			defer cl.Close()

			subjects, err := sf.subjects(cmd.Context(), cfg, cl)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(subjects); err != nil {
					return err
				}
			} else {
				w := &report.Writer{Out: os.Stdout}
				w.Subjects(subjects)
			}

			if excelPath != "" {
				since, err := parseSince(sf.since)
				if err != nil {
					return err
				}
				until, err := parseUntil(sf.until)
				if err != nil {
					return err
				}
				if err := report.WriteProfilesWorkbook(excelPath, subjects, since, until); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "workbook written to %s\n", excelPath)
			}
			return nil
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&jsonOutput, "json", false, "Emit subjects as JSON")
	flags.StringVar(&excelPath, "excel", "", "Also write subjects to this .xlsx file")

	return cmd
}
