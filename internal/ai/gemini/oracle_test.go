package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hrmatcher/hr-matcher/internal/ai"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
)

type stubGenerator struct {
	output   string
	err      error
	systems  []string
	messages []string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.systems = append(s.systems, system)
	s.messages = append(s.messages, message)
	return s.output, s.err
}

func TestStructureResume(t *testing.T) {
	gen := &stubGenerator{output: "```json\n" + `{
  "name": "Jane Doe",
  "email": "jane@example.com",
  "linkedin": "https://linkedin.com/in/jane",
  "skills": ["Go", "SQL"],
  "education": [{"degree": "BSc", "institute": "MIT", "year": 2019}],
  "experience": [{"company": "Acme", "role": "Engineer", "duration": "2020-2024", "responsibilities": "APIs"}]
}` + "\n```"}

	oracle := NewOracle(gen, 0, zap.NewNop())

	result, err := oracle.StructureResume(context.Background(), "Jane Doe resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsDegraded() {
		t.Fatalf("expected well-formed resume, got degraded %+v", result.Degraded)
	}

	resume := result.Resume
	if resume.Name != "Jane Doe" || resume.Email != "jane@example.com" {
		t.Fatalf("unexpected resume: %+v", resume)
	}
	if len(resume.Skills) != 2 || resume.Skills[1] != "SQL" {
		t.Fatalf("unexpected skills: %v", resume.Skills)
	}
	if len(resume.Education) != 1 || resume.Education[0].Year != "2019" {
		t.Fatalf("unexpected education: %+v", resume.Education)
	}
	if len(resume.Experience) != 1 || len(resume.Experience[0].Responsibilities) != 1 {
		t.Fatalf("unexpected experience: %+v", resume.Experience)
	}
	if !resume.LinkedInVerified() {
		t.Fatal("expected linkedin profile to be verified")
	}

	if len(gen.messages) != 1 || !strings.HasPrefix(gen.messages[0], "Resume Text:\n") {
		t.Fatalf("unexpected message: %v", gen.messages)
	}
	if gen.systems[0] != resumePrompt {
		t.Fatal("expected resume prompt as system instruction")
	}
}

func TestStructureResumeDegraded(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{output: "  I could not read this resume.  "}
	oracle := NewOracle(gen, 0, zap.New(core))

	result, err := oracle.StructureResume(context.Background(), "garbage")
	if err != nil {
		t.Fatalf("expected no error for unparsable answer, got %v", err)
	}

	if !result.IsDegraded() || result.Degraded.RawResponse != "I could not read this resume." {
		t.Fatalf("expected degraded result, got %+v", result)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected only raw_response, got %v", decoded)
	}

	if observed.Len() != 1 {
		t.Fatalf("expected one warning, got %d", observed.Len())
	}
}

func TestStructureResumeTransportError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection reset")}
	oracle := NewOracle(gen, 0, nil)

	_, err := oracle.StructureResume(context.Background(), "resume")
	if !errors.Is(err, ai.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestStructureResumeEmptyText(t *testing.T) {
	gen := &stubGenerator{output: "{}"}
	oracle := NewOracle(gen, 0, nil)

	if _, err := oracle.StructureResume(context.Background(), "  \n"); err == nil {
		t.Fatal("expected error for empty resume text")
	}
	if len(gen.messages) != 0 {
		t.Fatal("expected generator not to be called")
	}
}

func TestScoreMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		output   string
		degraded bool
		passed   bool
		score    float64
	}{
		{
			name:   "pass with percent score",
			output: `{"status": "Pass", "accuracy_score": "85%", "linked_profile_verified": "true", "detailed_comparison": {"skills_match": "80%"}}`,
			passed: true,
			score:  85,
		},
		{
			name:   "fail",
			output: "```json\n{\"status\": \"fail\", \"accuracy_score\": 30, \"strengths\": [\"Go\"]}\n```",
			score:  30,
		},
		{
			name:   "reason as a list",
			output: `{"status": "pass", "accuracy_score": 90, "reason": ["good Go", "good SQL"]}`,
			passed: true,
			score:  90,
		},
		{
			name:   "nested comparison and object recommendation",
			output: `{"status": "pass", "accuracy_score": 75, "detailed_comparison": {"skills_match": {"score": 80}}, "recommendation": {"text": "hire"}}`,
			passed: true,
			score:  75,
		},
		{
			name:   "score above range",
			output: `{"status": "pass", "accuracy_score": "150"}`,
			passed: true,
			score:  100,
		},
		{
			name:   "negative score",
			output: `{"status": "fail", "accuracy_score": -5, "strengths": {"go": true}}`,
			score:  0,
		},
		{
			name:     "missing status",
			output:   `{"accuracy_score": 90}`,
			degraded: true,
		},
		{
			name:     "not json",
			output:   "pass",
			degraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{output: tt.output}
			oracle := NewOracle(gen, 0, zap.NewNop())

			resume := ai.ResumeResult{Resume: &ai.ParsedResume{Name: "Jane"}}
			result, err := oracle.ScoreMatch(context.Background(), "Title: Go Developer\n", resume)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.IsDegraded() != tt.degraded {
				t.Fatalf("expected degraded=%v, got %+v", tt.degraded, result)
			}
			if result.Passed() != tt.passed {
				t.Fatalf("expected passed=%v", tt.passed)
			}
			if result.Score() != tt.score {
				t.Fatalf("expected score %v, got %v", tt.score, result.Score())
			}

			message := gen.messages[0]
			if !strings.HasPrefix(message, "Job Requirement:\nTitle: Go Developer\n") {
				t.Fatalf("unexpected message: %q", message)
			}
			if !strings.Contains(message, "Resume Data:\n") || !strings.Contains(message, `"name": "Jane"`) {
				t.Fatalf("expected resume payload in message: %q", message)
			}
		})
	}
}

func TestScoreMatchKeepsOpaqueFields(t *testing.T) {
	gen := &stubGenerator{output: `{"status": "pass", "accuracy_score": 90, "reason": ["good Go", "good SQL"], "detailed_comparison": {"skills_match": {"score": 80}}, "recommendation": {"text": "hire"}}`}
	oracle := NewOracle(gen, 0, nil)

	result, err := oracle.ScoreMatch(context.Background(), "Title: Go\n", ai.ResumeResult{Resume: &ai.ParsedResume{Name: "Jane"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDegraded() {
		t.Fatalf("expected verdict, got degraded %+v", result.Degraded)
	}

	verdict := result.Verdict
	if verdict.Reason != "good Go; good SQL" {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
	if verdict.Recommendation != `{"text":"hire"}` {
		t.Fatalf("unexpected recommendation: %q", verdict.Recommendation)
	}
	skills, ok := verdict.DetailedComparison["skills_match"].(map[string]any)
	if !ok || skills["score"] != 80.0 {
		t.Fatalf("unexpected detailed comparison: %#v", verdict.DetailedComparison)
	}
}

func TestStructureResumeSkipsMismatchedFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	gen := &stubGenerator{output: `{"name": "Jane", "email": "jane@example.com", "education": "BSc CS, MIT 2019"}`}
	oracle := NewOracle(gen, 0, zap.New(core))

	result, err := oracle.StructureResume(context.Background(), "Jane resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDegraded() {
		t.Fatalf("expected resume, got degraded %+v", result.Degraded)
	}
	if result.Resume.Name != "Jane" || result.Resume.Email != "jane@example.com" {
		t.Fatalf("unexpected resume: %+v", result.Resume)
	}
	if len(result.Resume.Education) != 0 {
		t.Fatalf("expected education to be skipped, got %+v", result.Resume.Education)
	}

	ignored := observed.FilterMessage("gemini response fields ignored").All()
	if len(ignored) != 1 {
		t.Fatalf("expected one ignored-fields log, got %d", len(ignored))
	}
}

func TestScoreMatchProfileFlag(t *testing.T) {
	gen := &stubGenerator{output: `{"status": "pass", "linked_profile_verified": "yes"}`}
	oracle := NewOracle(gen, 0, nil)

	result, err := oracle.ScoreMatch(context.Background(), "Title: Go\n", ai.ResumeResult{Degraded: &ai.Degraded{RawResponse: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDegraded() || !result.Verdict.LinkedProfileVerified {
		t.Fatalf("expected verified profile, got %+v", result)
	}
	if !strings.Contains(gen.messages[0], `"raw_response": "x"`) {
		t.Fatalf("expected degraded resume to be sent as raw payload: %q", gen.messages[0])
	}
}

func TestGenerateJob(t *testing.T) {
	gen := &stubGenerator{output: `{"title": "Go Developer", "description": "Build services", "skills": ["Go"], "location": "Remote"}`}
	oracle := NewOracle(gen, 0, nil)

	result, err := oracle.GenerateJob(context.Background(), ai.JobBrief{Title: "Go Developer", Summary: "services"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDegraded() {
		t.Fatalf("unexpected degraded result: %+v", result.Degraded)
	}

	req := result.Requirement
	if req.Title != "Go Developer" || req.Location != "Remote" {
		t.Fatalf("unexpected requirement: %+v", req)
	}
	if req.Responsibilities == nil || len(req.Responsibilities) != 0 {
		t.Fatalf("expected empty responsibilities, got %#v", req.Responsibilities)
	}
	if !strings.Contains(gen.messages[0], "Job Title: Go Developer\nSummary: services") {
		t.Fatalf("unexpected message: %q", gen.messages[0])
	}
}

func TestGenerateJobWithoutTitleIsDegraded(t *testing.T) {
	gen := &stubGenerator{output: `{"title": "", "description": "x"}`}
	oracle := NewOracle(gen, 0, nil)

	result, err := oracle.GenerateJob(context.Background(), ai.JobBrief{Title: "Go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", result.Requirement)
	}
}

func TestSuggestKeywords(t *testing.T) {
	gen := &stubGenerator{output: `{"search_query": "golang engineer", "related_titles": ["Backend Engineer"], "recommended_skills": ["gRPC"]}`}
	oracle := NewOracle(gen, 0, nil)

	req := &requirement.Requirement{Title: "Go Developer", Skills: []string{"Go", "SQL"}}
	result, err := oracle.SuggestKeywords(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDegraded() || result.Keywords.SearchQuery != "golang engineer" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(gen.messages[0], "Skills: Go, SQL") {
		t.Fatalf("unexpected message: %q", gen.messages[0])
	}
}

func TestDraftStatusEmail(t *testing.T) {
	gen := &stubGenerator{output: "\n Dear Jane, ... \n"}
	oracle := NewOracle(gen, 0, nil)

	body, err := oracle.DraftStatusEmail(context.Background(), ai.EmailDraft{
		CandidateName: "Jane",
		JobTitle:      "Go Developer",
		Status:        "accepted",
		MatchLink:     "http://localhost:5173/candidate/match/42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "Dear Jane, ..." {
		t.Fatalf("unexpected body: %q", body)
	}
	if !strings.Contains(gen.messages[0], "Match Link: http://localhost:5173/candidate/match/42") {
		t.Fatalf("unexpected message: %q", gen.messages[0])
	}

	gen.err = errors.New("quota exceeded")
	if _, err := oracle.DraftStatusEmail(context.Background(), ai.EmailDraft{}); !errors.Is(err, ai.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
