package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/extract"
	"github.com/hrmatcher/hr-matcher/internal/ranking"
)

var matchCmd = &cobra.Command{
	Use:   "match <requirement-file> <resume-file>",
	Short: "Score a single resume against a requirement",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		match(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

type matchOutput struct {
	MatchID          string `json:"match_id,omitempty"`
	LinkedInVerified bool   `json:"linkedin_verified"`
	ranking.Entry
}

func match(requirementName, resumePath string) {
	ctx := context.Background()
	logger, config := setup()

	path, req, err := resolveRequirement(config, requirementName)
	if err != nil {
		logger.Fatal("loading requirement", zap.Error(err))
	}

	oracle, err := newOracle(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Fatal("building gemini oracle", zap.Error(err))
	}

	ranker := ranking.New(oracle, extract.Extractor{}, logger)

	entry, err := ranker.RankFile(ctx, req, resumePath)
	if err != nil {
		logger.Fatal("matching resume", zap.String("file", resumePath), zap.Error(err))
	}

	output := matchOutput{
		LinkedInVerified: entry.Resume.Resume.LinkedInVerified(),
		Entry:            entry,
	}

	db, err := openStore(ctx, config.Database)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	if db != nil {
		defer db.Close()

		job, err := db.EnsureJob(ctx, req, path)
		if err != nil {
			logger.Fatal("saving job", zap.Error(err))
		}

		saved, err := db.SaveMatch(ctx, job.ID, entry.FileName, *entry.Resume, *entry.Match)
		if err != nil {
			logger.Fatal("saving match result", zap.Error(err))
		}
		output.MatchID = saved.ID.String()
	}

	logger.Info("resume matched",
		zap.String("file", entry.FileName),
		zap.Bool("passed", entry.Passed()),
		zap.Float64("accuracy_score", entry.Match.Score()),
	)

	if err := printJSON(output); err != nil {
		logger.Fatal("printing match", zap.Error(err))
	}
}
