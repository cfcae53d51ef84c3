package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

// ErrTransport marks failures talking to the model: network, auth, quota, empty answers.
var ErrTransport = errors.New("ai transport failure")

// Oracle structures resumes and scores them against a job requirement.
type Oracle interface {
	StructureResume(ctx context.Context, text string) (ResumeResult, error)
	ScoreMatch(ctx context.Context, requirementText string, resume ResumeResult) (VerdictResult, error)
}

// Assistant is the full set of model-backed operations used by the CLI.
type Assistant interface {
	Oracle
	GenerateJob(ctx context.Context, brief JobBrief) (JobResult, error)
	SuggestKeywords(ctx context.Context, req *requirement.Requirement) (KeywordsResult, error)
	DraftStatusEmail(ctx context.Context, draft EmailDraft) (string, error)
}

// Degraded carries a model answer that could not be decoded into the expected shape.
type Degraded struct {
	RawResponse string `json:"raw_response"`
}

// Education, Experience and Project are nested resume records.
type Education struct {
	Degree    string `json:"degree" mapstructure:"degree"`
	Institute string `json:"institute" mapstructure:"institute"`
	Year      string `json:"year" mapstructure:"year"`
}

type Experience struct {
	Company          string   `json:"company" mapstructure:"company"`
	Role             string   `json:"role" mapstructure:"role"`
	Duration         string   `json:"duration" mapstructure:"duration"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
}

type Project struct {
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
}

// ParsedResume is the structured form of a resume.
type ParsedResume struct {
	Name           string       `json:"name" mapstructure:"name"`
	Email          string       `json:"email" mapstructure:"email"`
	Phone          string       `json:"phone" mapstructure:"phone"`
	LinkedIn       string       `json:"linkedin" mapstructure:"linkedin"`
	Skills         []string     `json:"skills" mapstructure:"skills"`
	Education      []Education  `json:"education" mapstructure:"education"`
	Experience     []Experience `json:"experience" mapstructure:"experience"`
	Certifications []string     `json:"certifications" mapstructure:"certifications"`
	Projects       []Project    `json:"projects" mapstructure:"projects"`
	Summary        string       `json:"summary" mapstructure:"summary"`
}

// LinkedInVerified reports whether the resume links to a LinkedIn profile.
func (p *ParsedResume) LinkedInVerified() bool {
	return p != nil && strings.Contains(strings.ToLower(p.LinkedIn), "linkedin.com")
}

// ResumeResult holds exactly one of Resume or Degraded.
type ResumeResult struct {
	Resume   *ParsedResume
	Degraded *Degraded
}

func (r ResumeResult) IsDegraded() bool { return r.Resume == nil }

func (r ResumeResult) MarshalJSON() ([]byte, error) {
	if r.Resume != nil {
		return json.Marshal(r.Resume)
	}
	return json.Marshal(degradedOrEmpty(r.Degraded))
}

type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// MatchVerdict is the model's judgement of a resume against a requirement.
// Only Status and AccuracyScore are used for ordering. DetailedComparison is kept as the model sent it.
type MatchVerdict struct {
	Status                Status         `json:"status" mapstructure:"status"`
	AccuracyScore         float64        `json:"accuracy_score" mapstructure:"accuracy_score"` // 0..100
	Reason                string         `json:"reason" mapstructure:"reason"`
	Strengths             []string       `json:"strengths" mapstructure:"strengths"`
	Weaknesses            []string       `json:"weaknesses" mapstructure:"weaknesses"`
	LinkedProfileVerified bool           `json:"linked_profile_verified" mapstructure:"linked_profile_verified"`
	DetailedComparison    map[string]any `json:"detailed_comparison,omitempty" mapstructure:"detailed_comparison"`
	Recommendation        string         `json:"recommendation" mapstructure:"recommendation"`
}

// VerdictResult holds exactly one of Verdict or Degraded.
type VerdictResult struct {
	Verdict  *MatchVerdict
	Degraded *Degraded
}

func (v VerdictResult) IsDegraded() bool { return v.Verdict == nil }

// Passed is true only for a well-formed verdict with status "pass".
func (v VerdictResult) Passed() bool {
	return v.Verdict != nil && v.Verdict.Status == StatusPass
}

// Score returns the accuracy score, or 0 for degraded verdicts.
func (v VerdictResult) Score() float64 {
	if v.Verdict == nil {
		return 0
	}
	return v.Verdict.AccuracyScore
}

func (v VerdictResult) MarshalJSON() ([]byte, error) {
	if v.Verdict != nil {
		return json.Marshal(v.Verdict)
	}
	return json.Marshal(degradedOrEmpty(v.Degraded))
}

// JobBrief is the short HR input expanded into a full posting.
type JobBrief struct {
	Title          string
	Summary        string
	Experience     string
	Location       string
	EmploymentType string
}

// JobResult holds exactly one of Requirement or Degraded.
type JobResult struct {
	Requirement *requirement.Requirement
	Degraded    *Degraded
}

func (j JobResult) IsDegraded() bool { return j.Requirement == nil }

func (j JobResult) MarshalJSON() ([]byte, error) {
	if j.Requirement != nil {
		return json.Marshal(j.Requirement)
	}
	return json.Marshal(degradedOrEmpty(j.Degraded))
}

// Keywords are sourcing hints for a requirement.
type Keywords struct {
	SearchQuery       string   `json:"search_query" mapstructure:"search_query"`
	RelatedTitles     []string `json:"related_titles" mapstructure:"related_titles"`
	RecommendedSkills []string `json:"recommended_skills" mapstructure:"recommended_skills"`
}

// KeywordsResult holds exactly one of Keywords or Degraded.
type KeywordsResult struct {
	Keywords *Keywords
	Degraded *Degraded
}

func (k KeywordsResult) IsDegraded() bool { return k.Keywords == nil }

func (k KeywordsResult) MarshalJSON() ([]byte, error) {
	if k.Keywords != nil {
		return json.Marshal(k.Keywords)
	}
	return json.Marshal(degradedOrEmpty(k.Degraded))
}

// EmailDraft describes a hiring decision notification.
type EmailDraft struct {
	CandidateName string
	JobTitle      string
	Status        string
	MatchLink     string
}

func degradedOrEmpty(d *Degraded) *Degraded {
	if d == nil {
		return &Degraded{}
	}
	return d
}
