package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a structured CV from a plain text file",
	Long:  "Reads and cleans a plain text CV, asks the model for the structured CV and validates the result against the CV schema.",
	RunE:  runExtract,
}

var (
	extractInputFile  string
	extractTargetRole string
	extractLocale     string
	extractOutputFile string
)

func init() {
	extractCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to the raw CV text file (required)")
	extractCmd.Flags().StringVarP(&extractTargetRole, "role", "r", "", "Target role")
	extractCmd.Flags().StringVarP(&extractLocale, "locale", "l", "", "Locale (en or tr)")
	extractCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to output CV JSON file (default stdout)")

	if err := extractCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	raw, err := extraction.ReadText(extractInputFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cmd.Context(), cfg, cliLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.client.Close() }()

	cv, err := svc.extractor.Extract(cmd.Context(), extraction.Request{
		RawText:    raw,
		TargetRole: extractTargetRole,
		Locale:     types.Locale(extractLocale),
	})
	if err != nil {
		return fmt.Errorf("failed to extract CV: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), extractOutputFile, cv)
}
