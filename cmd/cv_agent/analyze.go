package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/types"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Find content gaps in a CV and suggest follow-up questions",
	RunE:  runGaps,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a CV with the ATS checks and the model's role fit",
	RunE:  runScore,
}

// Flags shared by gaps and score
var (
	analyzeCVFile         string
	analyzeTargetRole     string
	analyzeJobDescription string
	analyzeJobURL         string
	analyzeLocale         string
	analyzeSectorID       string
	analyzeRoleID         string
	analyzeOutputFile     string
)

func init() {
	for _, c := range []*cobra.Command{gapsCmd, scoreCmd} {
		c.Flags().StringVarP(&analyzeCVFile, "cv", "c", "", "Path to the CV JSON file (required)")
		c.Flags().StringVarP(&analyzeTargetRole, "role", "r", "", "Target role (required)")
		c.Flags().StringVarP(&analyzeJobDescription, "job-description", "j", "", "Job description text")
		c.Flags().StringVar(&analyzeJobURL, "job-url", "", "Job posting URL, fetched when --job-description is empty")
		c.Flags().StringVarP(&analyzeLocale, "locale", "l", string(types.LocaleEN), "Locale (en or tr)")
		c.Flags().StringVarP(&analyzeOutputFile, "out", "o", "", "Path to output JSON file (default stdout)")
		for _, name := range []string{"cv", "role"} {
			if err := c.MarkFlagRequired(name); err != nil {
				panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
			}
		}
		rootCmd.AddCommand(c)
	}
	gapsCmd.Flags().StringVar(&analyzeSectorID, "sector", "", "Taxonomy sector id")
	gapsCmd.Flags().StringVar(&analyzeRoleID, "role-id", "", "Taxonomy role id")
}

// gapsOutput is written by the gaps command
type gapsOutput struct {
	*types.GapsResult
	Questions []types.Question `json:"questions"`
}

func runGaps(cmd *cobra.Command, _ []string) error {
	var cv types.CV
	if err := readJSONFile(analyzeCVFile, &cv); err != nil {
		return err
	}
	jd, err := jobDescription(cmd.Context(), analyzeJobDescription, analyzeJobURL)
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

	locale := types.Locale(analyzeLocale)
	found, err := svc.analyzer.Analyze(cmd.Context(), gaps.Request{
		CV:             &cv,
		TargetRole:     analyzeTargetRole,
		JobDescription: jd,
		Locale:         locale,
		SectorID:       analyzeSectorID,
		RoleID:         analyzeRoleID,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze gaps: %w", err)
	}

	qs, err := svc.generator.Next(cmd.Context(), questions.Request{Gaps: found.Gaps, Locale: locale})
	if err != nil {
		return fmt.Errorf("failed to generate questions: %w", err)
	}

	if verbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintGaps(found)
		for _, q := range qs {
			fmt.Fprintf(cmd.OutOrStdout(), "? %s\n", q.Text)
		}
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), analyzeOutputFile, gapsOutput{GapsResult: found, Questions: qs})
}

func runScore(cmd *cobra.Command, _ []string) error {
	var cv types.CV
	if err := readJSONFile(analyzeCVFile, &cv); err != nil {
		return err
	}
	jd, err := jobDescription(cmd.Context(), analyzeJobDescription, analyzeJobURL)
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

	score, err := svc.scorer.Score(cmd.Context(), ats.Request{
		CV:             &cv,
		TargetRole:     analyzeTargetRole,
		JobDescription: jd,
		Locale:         types.Locale(analyzeLocale),
	})
	if err != nil {
		return fmt.Errorf("failed to score CV: %w", err)
	}

	if verbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintScore(score)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), analyzeOutputFile, score)
}
