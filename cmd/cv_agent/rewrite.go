package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-assistant/internal/diff"
	"github.com/jonathan/cv-assistant/internal/observability"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/types"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite a single CV bullet",
	Long:  "Rewrites one bullet with the model, then applies the style, quality and fabrication checks. Prints the accepted rewrite or the rejection reason.",
	RunE:  runRewrite,
}

var (
	rewriteBefore         string
	rewriteFacts          []string
	rewriteTargetRole     string
	rewriteJobDescription string
	rewriteJobURL         string
	rewriteLocale         string
	rewriteOutputFile     string
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteBefore, "before", "b", "", "Bullet to rewrite (required)")
	rewriteCmd.Flags().StringArrayVarP(&rewriteFacts, "fact", "f", nil, "Verified fact the rewrite may use (repeatable)")
	rewriteCmd.Flags().StringVarP(&rewriteTargetRole, "role", "r", "", "Target role")
	rewriteCmd.Flags().StringVarP(&rewriteJobDescription, "job-description", "j", "", "Job description text")
	rewriteCmd.Flags().StringVar(&rewriteJobURL, "job-url", "", "Job posting URL, fetched when --job-description is empty")
	rewriteCmd.Flags().StringVarP(&rewriteLocale, "locale", "l", string(types.LocaleEN), "Locale (en or tr)")
	rewriteCmd.Flags().StringVarP(&rewriteOutputFile, "out", "o", "", "Path to output JSON file (default stdout)")

	if err := rewriteCmd.MarkFlagRequired("before"); err != nil {
		panic(fmt.Sprintf("failed to mark before flag as required: %v", err))
	}

	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	jd, err := jobDescription(cmd.Context(), rewriteJobDescription, rewriteJobURL)
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

	facts := rewriteFacts
	if facts == nil {
		facts = []string{}
	}
	req := types.RewriteRequest{
		Before:         rewriteBefore,
		UserFacts:      facts,
		TargetRole:     rewriteTargetRole,
		JobDescription: jd,
		Locale:         types.Locale(rewriteLocale),
	}

	res, err := svc.rewriter.Rewrite(cmd.Context(), req)
	if err != nil {
		var rejected *rewriting.RejectedError
		if verbose && errors.As(err, &rejected) {
			observability.NewPrinter(cmd.ErrOrStderr()).PrintRejection(req.Before, string(rejected.Reason), rejected.Reason.Message())
		}
		return fmt.Errorf("failed to rewrite bullet: %w", err)
	}

	if verbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintRewrite(res, diff.Words(res.Before, res.After))
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), rewriteOutputFile, res)
}
