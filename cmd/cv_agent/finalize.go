package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/finalize"
	"github.com/jonathan/cv-assistant/internal/types"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Polish or rewrite a whole CV",
	Long: `Sends a structured CV to the model in one of two modes:
  polish   fixes language and consistency only
  rewrite  rewrites every section around the same facts
The result is the updated CV with the model's notes.`,
	RunE: runFinalize,
}

var (
	finalizeCVFile     string
	finalizeMode       string
	finalizeSectorID   string
	finalizeRoleID     string
	finalizeSeniority  string
	finalizeLocale     string
	finalizeOutputFile string
)

func init() {
	finalizeCmd.Flags().StringVarP(&finalizeCVFile, "cv", "c", "", "Path to the CV JSON file (required)")
	finalizeCmd.Flags().StringVarP(&finalizeMode, "mode", "m", string(finalize.ModePolish), "polish or rewrite")
	finalizeCmd.Flags().StringVar(&finalizeSectorID, "sector", "", "Taxonomy sector id")
	finalizeCmd.Flags().StringVar(&finalizeRoleID, "role-id", "", "Taxonomy role id")
	finalizeCmd.Flags().StringVar(&finalizeSeniority, "seniority", "", "Target seniority, e.g. senior")
	finalizeCmd.Flags().StringVarP(&finalizeLocale, "locale", "l", string(types.LocaleEN), "Locale (en or tr)")
	finalizeCmd.Flags().StringVarP(&finalizeOutputFile, "out", "o", "", "Path to output JSON file (default stdout)")

	if err := finalizeCmd.MarkFlagRequired("cv"); err != nil {
		panic(fmt.Sprintf("failed to mark cv flag as required: %v", err))
	}

	rootCmd.AddCommand(finalizeCmd)
}

func runFinalize(cmd *cobra.Command, _ []string) error {
	var cv types.CV
	if err := readJSONFile(finalizeCVFile, &cv); err != nil {
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

	res, err := svc.finalizer.Finalize(cmd.Context(), finalize.Request{
		CV:        &cv,
		Mode:      finalize.Mode(finalizeMode),
		SectorID:  finalizeSectorID,
		RoleID:    finalizeRoleID,
		Seniority: finalizeSeniority,
		Locale:    types.Locale(finalizeLocale),
	})
	if err != nil {
		return fmt.Errorf("failed to finalize CV: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), finalizeOutputFile, res)
}
