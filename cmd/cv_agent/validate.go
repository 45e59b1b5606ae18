package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a JSON Schema",
	Long:  "Validates a JSON file against one of the embedded schemas (cv, rewrite_response, ...) or a schema file on disk.",
	RunE:  runValidate,
}

var (
	schemaArg string
	jsonPath  string
)

func init() {
	validateCmd.Flags().StringVarP(&schemaArg, "schema", "s", "", "Embedded schema name or path to a schema file (required)")
	validateCmd.Flags().StringVarP(&jsonPath, "json", "j", "", "Path to JSON file to validate (required)")

	if err := validateCmd.MarkFlagRequired("schema"); err != nil {
		panic(fmt.Sprintf("failed to mark schema flag as required: %v", err))
	}
	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var err error
	if slices.Contains(schemas.Names(), schemaArg) {
		var data []byte
		data, err = os.ReadFile(jsonPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", jsonPath, err)
		}
		err = schemas.Validate(schemaArg, data)
	} else {
		err = schemas.ValidateFile(schemaArg, jsonPath)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var ve *schemas.ValidationError
	switch {
	case err == nil:
		printer.PrintValidation(schemaArg, nil)
		return nil
	case errors.As(err, &ve):
		printer.PrintValidation(schemaArg, ve.Details())
		return fmt.Errorf("%s does not match %s", jsonPath, schemaArg)
	default:
		return err
	}
}
