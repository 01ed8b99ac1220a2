package cmd

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/dashforge/dashforge/pkg/spec"
	"github.com/dashforge/dashforge/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec.json>",
	Short: "Validate a dashboard spec document",
	Args:  cobra.ExactArgs(1),
	Example: `
dashforge validate sales-dashboard.json
`,
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := spec.LoadFromPath(args[0])
		if err != nil {
			fmt.Println(aurora.Red(err.Error()))
			os.Exit(1)
		}

		result := validator.Validate(doc)

		summary := result.Summary
		fmt.Printf("Title:      %s\n", summary.Title)
		if summary.Description != "" {
			fmt.Printf("About:      %s\n", summary.Description)
		}
		fmt.Printf("Sections:   %d\n", summary.SectionsCount)
		fmt.Printf("Components: %d\n", summary.ComponentsCount)
		fmt.Printf("Queries:    %d\n", summary.QueriesCount)
		if summary.FiltersCount != nil {
			fmt.Printf("Filters:    %d\n", *summary.FiltersCount)
		}
		fmt.Println()

		for _, message := range result.Errors {
			fmt.Println(aurora.Red(fmt.Sprintf("error: %s", message)))
		}
		for _, message := range result.Warnings {
			fmt.Println(aurora.Yellow(fmt.Sprintf("warning: %s", message)))
		}

		if !result.Valid {
			fmt.Println(aurora.Red("✗ spec is invalid"))
			os.Exit(1)
		}

		fmt.Println(aurora.Green("✓ spec is valid"))
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
