package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nepaliabroad/resources/internal/clock/system"
	"github.com/nepaliabroad/resources/internal/report"
	"github.com/nepaliabroad/resources/internal/resource"
	"github.com/nepaliabroad/resources/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var (
		category string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored resource records and print a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var cat resource.Category
			if category != "" {
				cat = resource.Category(category)
				if !cat.Valid() {
					return fmt.Errorf("unknown category %q (valid: %v)", category, resource.Categories())
				}
			}

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.shutdown()

			checker := validate.NewLinkChecker(validate.LinkCheckerConfig{
				UserAgent:         a.cfg.Fetch.UserAgent,
				Timeout:           a.cfg.RequestTimeout(),
				Concurrency:       a.cfg.Validation.LinkCheckConcurrency,
				BrokenStatusCodes: a.cfg.Validation.BrokenStatusCodes,
			}, a.logger)
			runner := validate.NewRunner(
				a.store,
				checker,
				validate.RecordValidator{StaleThresholdDays: a.cfg.Validation.StaleThresholdDays},
				system.New(),
				a.logger,
			)

			result, err := runner.Run(ctx, cat)
			if err != nil {
				return err
			}

			text := report.Render(result, time.Now().UTC())
			fmt.Fprint(cmd.OutOrStdout(), text)
			if output != "" {
				if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				a.logger.Info("report written", zap.String("path", output))
			}
			if result.IssueCount() > 0 {
				a.logger.Warn("validation found issues", zap.Int("issues", result.IssueCount()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict validation to one category")
	cmd.Flags().StringVar(&output, "output", "", "also write the report to this file")
	return cmd
}
