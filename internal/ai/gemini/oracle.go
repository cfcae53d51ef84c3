package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
	"github.com/hrmatcher/hr-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Oracle implements ai.Assistant on top of a Gemini generator.
type Oracle struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var (
	//go:embed prompts/resume.md
	resumePrompt string
	//go:embed prompts/match.md
	matchPrompt string
	//go:embed prompts/job.md
	jobPrompt string
	//go:embed prompts/keywords.md
	keywordsPrompt string
	//go:embed prompts/email.md
	emailPrompt string
)

const defaultMaxLogLength = 200

var _ ai.Assistant = (*Oracle)(nil)

func NewOracle(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Oracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Oracle{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// StructureResume turns raw resume text into a ParsedResume. Answers that are not a JSON object
// come back as a degraded result rather than an error; fields of an unexpected type are skipped.
func (o *Oracle) StructureResume(ctx context.Context, text string) (ai.ResumeResult, error) {
	if strings.TrimSpace(text) == "" {
		return ai.ResumeResult{}, errors.New("resume text is empty")
	}

	cleaned, err := o.ask(ctx, "structure resume", resumePrompt, "Resume Text:\n"+text)
	if err != nil {
		return ai.ResumeResult{}, err
	}

	var resume ai.ParsedResume
	dropped, err := decodeObject(cleaned, objectSchemaLoader, &resume, nil)
	if err != nil {
		o.degraded("structure resume", cleaned, err)
		return ai.ResumeResult{Degraded: &ai.Degraded{RawResponse: cleaned}}, nil
	}
	o.dropped("structure resume", dropped)

	return ai.ResumeResult{Resume: &resume}, nil
}

// ScoreMatch asks the model for a verdict on resume against the serialized requirement.
// Only a missing or non-string status degrades the verdict.
func (o *Oracle) ScoreMatch(ctx context.Context, requirementText string, resume ai.ResumeResult) (ai.VerdictResult, error) {
	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return ai.VerdictResult{}, fmt.Errorf("marshal resume payload: %w", err)
	}

	message := "Job Requirement:\n" + requirementText + "\n\nResume Data:\n" + string(resumeJSON)

	cleaned, err := o.ask(ctx, "score match", matchPrompt, message)
	if err != nil {
		return ai.VerdictResult{}, err
	}

	var verdict ai.MatchVerdict
	dropped, err := decodeObject(cleaned, verdictSchemaLoader, &verdict, normalizeVerdict)
	if err != nil {
		o.degraded("score match", cleaned, err)
		return ai.VerdictResult{Degraded: &ai.Degraded{RawResponse: cleaned}}, nil
	}
	o.dropped("score match", dropped)

	return ai.VerdictResult{Verdict: &verdict}, nil
}

// GenerateJob expands a short brief into a full requirement.
func (o *Oracle) GenerateJob(ctx context.Context, brief ai.JobBrief) (ai.JobResult, error) {
	if strings.TrimSpace(brief.Title) == "" {
		return ai.JobResult{}, errors.New("job title is required")
	}

	message := fmt.Sprintf("Job Title: %s\nSummary: %s\nExperience: %s\nLocation: %s\nEmployment Type: %s",
		brief.Title, brief.Summary, brief.Experience, brief.Location, brief.EmploymentType)

	cleaned, err := o.ask(ctx, "generate job", jobPrompt, message)
	if err != nil {
		return ai.JobResult{}, err
	}

	var req requirement.Requirement
	dropped, err := decodeObject(cleaned, jobSchemaLoader, &req, nil)
	if err != nil {
		o.degraded("generate job", cleaned, err)
		return ai.JobResult{Degraded: &ai.Degraded{RawResponse: cleaned}}, nil
	}
	o.dropped("generate job", dropped)
	req.Normalize()

	return ai.JobResult{Requirement: &req}, nil
}

// SuggestKeywords produces sourcing hints for req.
func (o *Oracle) SuggestKeywords(ctx context.Context, req *requirement.Requirement) (ai.KeywordsResult, error) {
	if req == nil {
		return ai.KeywordsResult{}, errors.New("requirement is required")
	}

	message := fmt.Sprintf("Job Title: %s\nExperience: %s\nLocation: %s\nEmployment Type: %s\nSkills: %s\nDescription: %s",
		req.Title, req.Experience, req.Location, req.EmploymentType, strings.Join(req.Skills, ", "), req.Description)

	cleaned, err := o.ask(ctx, "suggest keywords", keywordsPrompt, message)
	if err != nil {
		return ai.KeywordsResult{}, err
	}

	var keywords ai.Keywords
	dropped, err := decodeObject(cleaned, objectSchemaLoader, &keywords, nil)
	if err != nil {
		o.degraded("suggest keywords", cleaned, err)
		return ai.KeywordsResult{Degraded: &ai.Degraded{RawResponse: cleaned}}, nil
	}
	o.dropped("suggest keywords", dropped)

	return ai.KeywordsResult{Keywords: &keywords}, nil
}

// DraftStatusEmail writes a plain-text notification body. Callers fall back to a template on error.
func (o *Oracle) DraftStatusEmail(ctx context.Context, draft ai.EmailDraft) (string, error) {
	message := fmt.Sprintf("Candidate Name: %s\nJob Title: %s\nDecision: %s\nMatch Link: %s",
		draft.CandidateName, draft.JobTitle, draft.Status, draft.MatchLink)

	raw, err := o.call(ctx, "draft email", emailPrompt, message)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}

func (o *Oracle) ask(ctx context.Context, operation, system, message string) (string, error) {
	raw, err := o.call(ctx, operation, system, message)
	if err != nil {
		return "", err
	}
	return extractJSON(raw), nil
}

func (o *Oracle) call(ctx context.Context, operation, system, message string) (string, error) {
	if o == nil || o.generator == nil {
		return "", fmt.Errorf("%w: gemini oracle is not initialized", ai.ErrTransport)
	}

	o.logger.Debug("gemini generate content request",
		zap.String("operation", operation),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, system, message)
	if err != nil {
		if !errors.Is(err, ai.ErrTransport) {
			err = fmt.Errorf("%w: %s: %w", ai.ErrTransport, operation, err)
		}
		return "", err
	}

	o.logger.Debug("gemini generate content response",
		zap.String("operation", operation),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return raw, nil
}

func (o *Oracle) degraded(operation, cleaned string, err error) {
	o.logger.Warn("gemini response is not the expected json, keeping raw answer",
		zap.String("operation", operation),
		zap.String("response_preview", utils.TruncateForLog(cleaned, o.maxLogLen)),
		zap.Error(err),
	)
}

func (o *Oracle) dropped(operation string, fields []string) {
	if len(fields) == 0 {
		return
	}
	o.logger.Debug("gemini response fields ignored",
		zap.String("operation", operation),
		zap.Strings("fields", fields),
	)
}
