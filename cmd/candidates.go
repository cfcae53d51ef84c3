package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/notify"
	"github.com/hrmatcher/hr-matcher/internal/store"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Inspect and review saved match results",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved candidates, LinkedIn-verified first, then by accuracy score",
	Run: func(cmd *cobra.Command, _ []string) {
		candidatesList(cmd)
	},
}

var candidatesStatusCmd = &cobra.Command{
	Use:   "status <match-id> <accepted|rejected>",
	Short: "Accept or reject a candidate and send the status email",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		candidatesStatus(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesListCmd, candidatesStatusCmd)

	addCandidateFilterFlags(candidatesListCmd)
	candidatesStatusCmd.Flags().Bool("no-email", false, "record the decision without emailing the candidate")
}

func candidatesList(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	filter, err := candidateFilter(cmd)
	if err != nil {
		logger.Fatal("parsing filters", zap.Error(err))
	}

	db := mustStore(ctx, config, logger)
	defer db.Close()

	candidates, err := db.ListCandidates(ctx, filter)
	if err != nil {
		logger.Fatal("listing candidates", zap.Error(err))
	}

	logger.Info("listing candidates", zap.Int("count", len(candidates)))

	if err := printJSON(candidates); err != nil {
		logger.Fatal("printing candidates", zap.Error(err))
	}
}

func addCandidateFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "only list candidates of this job id")
	cmd.Flags().String("job-title", "", "only list candidates of jobs whose title contains this text")
	cmd.Flags().Bool("linkedin-verified", false, "only list candidates whose LinkedIn verification matches this value")
	cmd.Flags().Float64("min-accuracy", 0, "only list candidates with at least this accuracy score")
}

// candidateFilter reads the list flags. Boolean and numeric filters apply only when set.
func candidateFilter(cmd *cobra.Command) (store.CandidateFilter, error) {
	flags := cmd.Flags()
	filter := store.CandidateFilter{JobTitle: cmd.Flag("job-title").Value.String()}

	if raw := cmd.Flag("job").Value.String(); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("parsing job id: %w", err)
		}
		filter.JobID = &id
	}

	if flags.Changed("linkedin-verified") {
		verified, err := flags.GetBool("linkedin-verified")
		if err != nil {
			return filter, err
		}
		filter.LinkedInVerified = &verified
	}

	if flags.Changed("min-accuracy") {
		minimum, err := flags.GetFloat64("min-accuracy")
		if err != nil {
			return filter, err
		}
		filter.MinAccuracy = &minimum
	}

	return filter, nil
}

func candidatesStatus(cmd *cobra.Command, rawID, status string) {
	ctx := context.Background()
	logger, config := setup()

	if err := store.ValidateStatus(status); err != nil {
		logger.Fatal("invalid status", zap.Error(err))
	}

	db := mustStore(ctx, config, logger)
	defer db.Close()

	var notifier *notify.Service
	if noEmail, _ := cmd.Flags().GetBool("no-email"); !noEmail {
		var drafter notify.Drafter
		oracle, err := newOracle(ctx, config.AI.Gemini, logger)
		if err != nil {
			logger.Warn("email drafts disabled, using template", zap.Error(err))
		} else {
			drafter = oracle
		}

		notifier, err = newNotifier(config, drafter, logger)
		if err != nil {
			logger.Fatal("preparing status email", zap.Error(err))
		}
	}

	if err := applyDecision(ctx, db, notifier, logger, rawID, status); err != nil {
		logger.Fatal("updating candidate status", zap.Error(err))
	}
}

func mustStore(ctx context.Context, config *Config, logger *zap.Logger) *store.DB {
	db, err := openStore(ctx, config.Database)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	if db == nil {
		logger.Fatal("database is not configured", zap.String("hint", "set database.url or DATABASE_URL"))
	}
	return db
}

// applyDecision records status for the match result and emails the candidate when notifier is set.
// A missing candidate email is logged, not returned.
func applyDecision(ctx context.Context, db *store.DB, notifier *notify.Service, logger *zap.Logger, rawID, status string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("parsing match id: %w", err)
	}

	if err := db.UpdateMatchStatus(ctx, id, status); err != nil {
		return err
	}

	logger.Info("candidate status updated", zap.String("match_id", rawID), zap.String("status", status))

	if notifier == nil {
		return nil
	}

	candidate, err := db.GetCandidate(ctx, id)
	if err != nil {
		return err
	}

	err = notifier.Notify(ctx, notify.Decision{
		MatchID:       rawID,
		CandidateName: candidate.Name,
		FileName:      candidate.FileName,
		Email:         candidate.Email,
		JobTitle:      candidate.JobTitle,
		Status:        status,
	})
	if errors.Is(err, notify.ErrNoRecipient) {
		logger.Warn("status email skipped", zap.String("match_id", rawID), zap.Error(err))
		return nil
	}
	return err
}
