package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

// Review statuses of a match result.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Job is a finalized requirement saved for the dashboard.
type Job struct {
	ID          uuid.UUID                `json:"id"`
	Title       string                   `json:"title"`
	Requirement *requirement.Requirement `json:"requirement"`
	FilePath    string                   `json:"file_path"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Resume is a structured resume. Parsed holds either the resume fields or {"raw_response": ...}.
type Resume struct {
	ID        uuid.UUID       `json:"id"`
	FileName  string          `json:"file_name"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Parsed    json.RawMessage `json:"parsed"`
	CreatedAt time.Time       `json:"created_at"`
}

// MatchResult links a resume to a job with the model verdict and the HR review status.
type MatchResult struct {
	ID               uuid.UUID       `json:"id"`
	JobID            uuid.UUID       `json:"job_id"`
	ResumeID         uuid.UUID       `json:"resume_id"`
	Verdict          json.RawMessage `json:"verdict"`
	Passed           bool            `json:"passed"`
	AccuracyScore    float64         `json:"accuracy_score"`
	LinkedInVerified bool            `json:"linkedin_verified"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Candidate is a dashboard row joining a match result with its resume and job.
type Candidate struct {
	MatchID          uuid.UUID `json:"match_id"`
	JobID            uuid.UUID `json:"job_id"`
	JobTitle         string    `json:"job_title"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	FileName         string    `json:"file_name"`
	Passed           bool      `json:"passed"`
	AccuracyScore    float64   `json:"accuracy_score"`
	LinkedInVerified bool      `json:"linkedin_verified"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// CandidateFilter narrows the dashboard. Zero fields do not filter.
type CandidateFilter struct {
	JobID            *uuid.UUID
	JobTitle         string // case-insensitive substring
	LinkedInVerified *bool
	MinAccuracy      *float64
}

// Match reports whether c passes every set filter.
func (f CandidateFilter) Match(c Candidate) bool {
	if f.JobID != nil && c.JobID != *f.JobID {
		return false
	}
	if title := strings.ToLower(strings.TrimSpace(f.JobTitle)); title != "" &&
		!strings.Contains(strings.ToLower(c.JobTitle), title) {
		return false
	}
	if f.LinkedInVerified != nil && c.LinkedInVerified != *f.LinkedInVerified {
		return false
	}
	if f.MinAccuracy != nil && c.AccuracyScore < *f.MinAccuracy {
		return false
	}
	return true
}

// FilterCandidates keeps the candidates matching f, in order.
func FilterCandidates(candidates []Candidate, f CandidateFilter) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Match(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// ValidateStatus accepts only the statuses HR may set.
func ValidateStatus(status string) error {
	switch status {
	case StatusAccepted, StatusRejected:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidStatus, status, StatusAccepted, StatusRejected)
	}
}

// SortCandidates puts LinkedIn-verified candidates first, then orders by accuracy score descending.
// Equal candidates keep their order.
func SortCandidates(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if a.LinkedInVerified != b.LinkedInVerified {
			if a.LinkedInVerified {
				return -1
			}
			return 1
		}
		switch {
		case a.AccuracyScore > b.AccuracyScore:
			return -1
		case a.AccuracyScore < b.AccuracyScore:
			return 1
		default:
			return 0
		}
	})
}
