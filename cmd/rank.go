package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/extract"
	"github.com/hrmatcher/hr-matcher/internal/finder"
	"github.com/hrmatcher/hr-matcher/internal/notify"
	"github.com/hrmatcher/hr-matcher/internal/ranking"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
	"github.com/hrmatcher/hr-matcher/internal/store"
)

const (
	PromptAccept = "Accept"
	PromptReject = "Reject"
	PromptBack   = "back"
	PromptExit   = "exit"
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank <requirement-file>",
	Short: "Rank the local resumes (and optionally global candidates) against a requirement",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rank(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("resumes", "", "resume folder (default is folders.resumes)")
	rankCmd.Flags().BoolP("global", "g", false, "also search external candidates")
	rankCmd.Flags().IntP("top", "n", finder.DefaultTopN, "number of candidates to return")
	rankCmd.Flags().BoolP("review", "r", false, "review local candidates interactively and accept or reject them")
}

func rank(cmd *cobra.Command, name string) {
	ctx := context.Background()
	logger, config := setup()

	path, req, err := resolveRequirement(config, name)
	if err != nil {
		logger.Fatal("loading requirement", zap.Error(err))
	}

	oracle, err := newOracle(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Fatal("building gemini oracle", zap.Error(err))
	}

	opts := finder.Options{ResumeDir: config.Folders.Resumes}
	if dir := cmd.Flag("resumes").Value.String(); dir != "" {
		opts.ResumeDir = dir
	}
	opts.GlobalSearch, _ = cmd.Flags().GetBool("global")
	opts.TopN, _ = cmd.Flags().GetInt("top")

	var searcher finder.Searcher
	if opts.GlobalSearch {
		// Keep the interface nil when no client could be built.
		if client := newSearcher(config.Apollo, logger); client != nil {
			searcher = client
		}
	}

	ranker := ranking.New(oracle, extract.Extractor{}, logger)
	f := finder.New(ranker, searcher, logger)

	logger.Info("finding candidates",
		zap.String("requirement", path),
		zap.String("resumes", opts.ResumeDir),
		zap.Bool("global", opts.GlobalSearch),
		zap.Int("top", opts.TopN),
	)

	entries := f.FindCandidates(ctx, req, opts)

	if err := printJSON(entries); err != nil {
		logger.Fatal("printing candidates", zap.Error(err))
	}

	if review, _ := cmd.Flags().GetBool("review"); !review {
		return
	}

	reviewer, err := newReviewer(ctx, config, oracle, logger)
	if err != nil {
		logger.Fatal("preparing review", zap.Error(err))
	}
	defer reviewer.close()

	if err := reviewer.run(ctx, req, path, entries); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("reviewing candidates", zap.Error(err))
	}
}

// reviewer persists HR decisions on ranked local candidates and notifies them.
type reviewer struct {
	db       *store.DB
	notifier *notify.Service
	logger   *zap.Logger
}

func newReviewer(ctx context.Context, config *Config, drafter notify.Drafter, logger *zap.Logger) (*reviewer, error) {
	db, err := openStore(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if db == nil {
		return nil, errors.New("database.url (or DATABASE_URL) is required to record decisions")
	}

	notifier, err := newNotifier(config, drafter, logger)
	if err != nil {
		logger.Warn("status emails disabled", zap.Error(err))
	}

	return &reviewer{db: db, notifier: notifier, logger: logger}, nil
}

func (r *reviewer) close() {
	r.db.Close()
}

func (r *reviewer) run(ctx context.Context, req *requirement.Requirement, path string, entries []ranking.Entry) error {
	local := make([]ranking.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Source == ranking.SourceLocal {
			local = append(local, e)
		}
	}

	if len(local) == 0 {
		r.logger.Info("nothing to review", zap.String("reason", "no local candidates"))
		return nil
	}

	job, err := r.db.EnsureJob(ctx, req, path)
	if err != nil {
		return err
	}

	for len(local) > 0 {
		items := make([]string, 0, len(local)+1)
		for i, e := range local {
			items = append(items, reviewLabel(i, e))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptExit),
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptExit {
			return errExit
		}

		decided, err := r.decide(ctx, job, local[idx])
		if err != nil {
			return err
		}
		if decided {
			local = append(local[:idx], local[idx+1:]...)
		}
	}

	r.logger.Info("all candidates reviewed")
	return nil
}

func reviewLabel(i int, e ranking.Entry) string {
	verdict := "degraded"
	if e.Match != nil && !e.Match.IsDegraded() {
		verdict = string(e.Match.Verdict.Status) + " " + strconv.FormatFloat(e.Match.Score(), 'f', 0, 64)
	}
	return fmt.Sprintf("%d. %s / %s / %s", i+1, e.Name(), e.FileName, verdict)
}

// decide asks for a decision on one entry and reports whether one was recorded.
func (r *reviewer) decide(ctx context.Context, job *store.Job, entry ranking.Entry) (bool, error) {
	decisionPrompt := promptui.Select{
		Label: fmt.Sprintf("Decision for %s", entry.Name()),
		Items: []string{PromptAccept, PromptReject, PromptBack},
	}

	_, action, err := decisionPrompt.Run()
	if err != nil {
		return false, err
	}

	var status string
	switch action {
	case PromptAccept:
		status = store.StatusAccepted
	case PromptReject:
		status = store.StatusRejected
	case PromptBack:
		return false, nil
	default:
		return false, fmt.Errorf("invalid action: %s", action)
	}

	match, err := r.db.SaveMatch(ctx, job.ID, entry.FileName, derefResume(entry.Resume), derefVerdict(entry.Match))
	if err != nil {
		return false, err
	}

	if err := applyDecision(ctx, r.db, r.notifier, r.logger, match.ID.String(), status); err != nil {
		return false, err
	}
	return true, nil
}

func derefResume(r *ai.ResumeResult) ai.ResumeResult {
	if r == nil {
		return ai.ResumeResult{}
	}
	return *r
}

func derefVerdict(v *ai.VerdictResult) ai.VerdictResult {
	if v == nil {
		return ai.VerdictResult{}
	}
	return *v
}
