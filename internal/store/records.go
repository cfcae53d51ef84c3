package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hrmatcher/hr-matcher/internal/ai"
)

// NewResume builds a resume record from an oracle result.
func NewResume(fileName string, result ai.ResumeResult) (*Resume, error) {
	parsed, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parsed resume: %w", err)
	}

	resume := &Resume{FileName: fileName, Parsed: parsed}
	if result.Resume != nil {
		resume.Name = result.Resume.Name
		resume.Email = result.Resume.Email
	}
	return resume, nil
}

// NewMatchResult builds a pending match result for a scored resume.
func NewMatchResult(jobID, resumeID uuid.UUID, resume ai.ResumeResult, verdict ai.VerdictResult) (*MatchResult, error) {
	content, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verdict: %w", err)
	}

	return &MatchResult{
		JobID:            jobID,
		ResumeID:         resumeID,
		Verdict:          content,
		Passed:           verdict.Passed(),
		AccuracyScore:    verdict.Score(),
		LinkedInVerified: resume.Resume.LinkedInVerified(),
		Status:           StatusPending,
	}, nil
}
