package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Generate and inspect job requirements",
}

var jobGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Expand a short job summary into a full requirement and save it",
	Run: func(cmd *cobra.Command, _ []string) {
		jobGenerate(cmd)
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show <requirement-file>",
	Short: "Print a saved requirement as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		jobShow(args[0])
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the jobs saved in the database",
	Run: func(_ *cobra.Command, _ []string) {
		jobList()
	},
}

var jobKeywordsCmd = &cobra.Command{
	Use:   "keywords <requirement-file>",
	Short: "Suggest a sourcing query, related titles and skills for a requirement",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		jobKeywords(args[0])
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobGenerateCmd, jobShowCmd, jobListCmd, jobKeywordsCmd)

	jobGenerateCmd.Flags().StringP("title", "t", "", "job title")
	jobGenerateCmd.Flags().StringP("summary", "s", "", "short job summary")
	jobGenerateCmd.Flags().String("experience", "", "required experience, e.g. \"3+ years\"")
	jobGenerateCmd.Flags().String("location", "", "job location")
	jobGenerateCmd.Flags().String("employment-type", "", "employment type, e.g. \"Full-time\"")
	jobGenerateCmd.Flags().Bool("dry-run", false, "print the generated requirement without saving it")

	jobGenerateCmd.MarkFlagRequired("title")
}

func jobGenerate(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	brief := ai.JobBrief{
		Title:          cmd.Flag("title").Value.String(),
		Summary:        cmd.Flag("summary").Value.String(),
		Experience:     cmd.Flag("experience").Value.String(),
		Location:       cmd.Flag("location").Value.String(),
		EmploymentType: cmd.Flag("employment-type").Value.String(),
	}

	oracle, err := newOracle(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Fatal("building gemini oracle", zap.Error(err))
	}

	logger.Info("generating job requirement", zap.String("title", brief.Title))

	result, err := oracle.GenerateJob(ctx, brief)
	if err != nil {
		logger.Fatal("generating job requirement", zap.Error(err))
	}

	if result.IsDegraded() {
		if err := printJSON(result); err != nil {
			logger.Fatal("printing raw answer", zap.Error(err))
		}
		logger.Fatal("model returned an unusable job description", zap.String("hint", "retry or rephrase the summary"))
	}

	if err := printJSON(result.Requirement); err != nil {
		logger.Fatal("printing requirement", zap.Error(err))
	}

	if cmd.Flag("dry-run").Value.String() == "true" {
		return
	}

	path, err := requirement.WriteFile(config.Folders.Requirements, result.Requirement, time.Now())
	if err != nil {
		logger.Fatal("saving requirement", zap.Error(err))
	}
	logger.Info("requirement saved", zap.String("file", path))

	db, err := openStore(ctx, config.Database)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	if db == nil {
		return
	}
	defer db.Close()

	job, err := db.EnsureJob(ctx, result.Requirement, path)
	if err != nil {
		logger.Fatal("saving job", zap.Error(err))
	}
	logger.Info("job saved", zap.String("job_id", job.ID.String()))
}

func jobShow(name string) {
	logger, config := setup()

	path, req, err := resolveRequirement(config, name)
	if err != nil {
		logger.Fatal("loading requirement", zap.Error(err))
	}
	logger.Debug("requirement loaded", zap.String("file", path))

	if err := printJSON(req); err != nil {
		logger.Fatal("printing requirement", zap.Error(err))
	}
}

func jobList() {
	ctx := context.Background()
	logger, config := setup()

	db := mustStore(ctx, config, logger)
	defer db.Close()

	jobs, err := db.ListJobs(ctx)
	if err != nil {
		logger.Fatal("listing jobs", zap.Error(err))
	}

	logger.Info("listing jobs", zap.Int("count", len(jobs)))

	if err := printJSON(jobs); err != nil {
		logger.Fatal("printing jobs", zap.Error(err))
	}
}

func jobKeywords(name string) {
	ctx := context.Background()
	logger, config := setup()

	_, req, err := resolveRequirement(config, name)
	if err != nil {
		logger.Fatal("loading requirement", zap.Error(err))
	}

	oracle, err := newOracle(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Fatal("building gemini oracle", zap.Error(err))
	}

	result, err := oracle.SuggestKeywords(ctx, req)
	if err != nil {
		logger.Fatal("suggesting keywords", zap.Error(err))
	}

	if result.IsDegraded() {
		logger.Warn("model returned unstructured keywords")
	}

	if err := printJSON(result); err != nil {
		logger.Fatal("printing keywords", zap.Error(err))
	}
}
