package requirement

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleRequirement() *Requirement {
	return &Requirement{
		Title:            "Senior Go Developer",
		Description:      "Build and run backend services for the HR platform.",
		Responsibilities: []string{"Design APIs", "Review code"},
		Requirements:     []string{"5 years of Go", "PostgreSQL"},
		Skills:           []string{"Go", "Kubernetes", "SQL"},
		Qualifications:   []string{"BSc in Computer Science"},
		Location:         "Berlin",
		EmploymentType:   "Full-time",
		Experience:       "5+ years",
	}
}

func TestSerializeLayout(t *testing.T) {
	got := Serialize(sampleRequirement())
	expected := "Title: Senior Go Developer\n" +
		"Description: Build and run backend services for the HR platform.\n" +
		"Responsibilities: Design APIs, Review code\n" +
		"Requirements: 5 years of Go, PostgreSQL\n" +
		"Skills: Go, Kubernetes, SQL\n" +
		"Qualifications: BSc in Computer Science\n" +
		"Location: Berlin\n" +
		"Employment Type: Full-time\n" +
		"Experience: 5+ years\n"

	if got != expected {
		t.Fatalf("unexpected serialization:\n%s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	original := sampleRequirement()

	parsed := Parse(Serialize(original))
	if !reflect.DeepEqual(parsed, original) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", original, parsed)
	}
}

func TestRoundTripEmptyLists(t *testing.T) {
	original := sampleRequirement()
	original.Skills = []string{}
	original.Qualifications = nil

	parsed := Parse(Serialize(original))
	if parsed.Skills == nil || len(parsed.Skills) != 0 {
		t.Fatalf("expected empty non-nil skills, got %#v", parsed.Skills)
	}
	if parsed.Qualifications == nil || len(parsed.Qualifications) != 0 {
		t.Fatalf("expected empty non-nil qualifications, got %#v", parsed.Qualifications)
	}
	if parsed.Title != original.Title {
		t.Fatalf("unexpected title: %q", parsed.Title)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		assert func(t *testing.T, r *Requirement)
	}{
		{
			name:  "bullet list section",
			input: "Title: Data Engineer\nSkills:\n- Python\n• Spark\n  -  Airflow  \n",
			assert: func(t *testing.T, r *Requirement) {
				expected := []string{"Python", "Spark", "Airflow"}
				if !reflect.DeepEqual(r.Skills, expected) {
					t.Fatalf("unexpected skills: %#v", r.Skills)
				}
			},
		},
		{
			name:  "multi-line scalar is joined with spaces",
			input: "Title: QA\nDescription: First line.\nSecond line.\n\nThird line.\nLocation: Remote",
			assert: func(t *testing.T, r *Requirement) {
				if r.Description != "First line. Second line. Third line." {
					t.Fatalf("unexpected description: %q", r.Description)
				}
				if r.Location != "Remote" {
					t.Fatalf("unexpected location: %q", r.Location)
				}
			},
		},
		{
			name:  "lines before the first header are dropped",
			input: "garbage line\nanother: thing\nTitle: Analyst\n",
			assert: func(t *testing.T, r *Requirement) {
				if r.Title != "Analyst" {
					t.Fatalf("unexpected title: %q", r.Title)
				}
				if r.Description != "" {
					t.Fatalf("expected empty description, got %q", r.Description)
				}
			},
		},
		{
			name:  "unknown label is continuation content",
			input: "Title: SRE\nDescription: On call rotation.\nNote: weekends included\n",
			assert: func(t *testing.T, r *Requirement) {
				if r.Description != "On call rotation. Note: weekends included" {
					t.Fatalf("unexpected description: %q", r.Description)
				}
			},
		},
		{
			name:  "missing sections yield empty values",
			input: "Title: Designer\n",
			assert: func(t *testing.T, r *Requirement) {
				if r.Responsibilities == nil || len(r.Responsibilities) != 0 {
					t.Fatalf("expected empty responsibilities, got %#v", r.Responsibilities)
				}
				if r.Experience != "" {
					t.Fatalf("expected empty experience, got %q", r.Experience)
				}
			},
		},
		{
			name:  "scalar field written as a list is joined",
			input: "Title: PM\nExperience:\n- 3 years\n- agile\n",
			assert: func(t *testing.T, r *Requirement) {
				if r.Experience != "3 years agile" {
					t.Fatalf("unexpected experience: %q", r.Experience)
				}
			},
		},
		{
			name:  "windows line endings",
			input: "Title: Support\r\nSkills: Zendesk, SQL\r\n",
			assert: func(t *testing.T, r *Requirement) {
				if !reflect.DeepEqual(r.Skills, []string{"Zendesk", "SQL"}) {
					t.Fatalf("unexpected skills: %#v", r.Skills)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.assert(t, Parse(tt.input))
		})
	}
}

func TestSearchQuery(t *testing.T) {
	r := &Requirement{Title: "Go Developer", Skills: []string{"Go", "gRPC"}, Description: "Backend."}
	if got := r.SearchQuery(); got != "Go Developer Go, gRPC Backend." {
		t.Fatalf("unexpected query: %q", got)
	}

	empty := &Requirement{Title: "Go Developer"}
	if got := empty.SearchQuery(); got != "Go Developer" {
		t.Fatalf("unexpected query: %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (&Requirement{Title: "  "}).Validate(); err == nil {
		t.Fatal("expected error for blank title")
	}
	if err := sampleRequirement().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	padded := &Requirement{Title: "  Go Developer \n"}
	if err := padded.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if padded.Title != "  Go Developer \n" {
		t.Fatalf("expected Validate to leave the title untouched, got %q", padded.Title)
	}
}

func TestNormalize(t *testing.T) {
	req := &Requirement{Title: "  Go Developer ", Skills: []string{"Go"}}
	req.Normalize()

	if req.Title != "Go Developer" {
		t.Fatalf("unexpected title: %q", req.Title)
	}
	if req.Responsibilities == nil || req.Requirements == nil || req.Qualifications == nil {
		t.Fatalf("expected empty lists, got %+v", req)
	}
	if len(req.Skills) != 1 {
		t.Fatalf("expected skills to be kept, got %v", req.Skills)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "requirements")
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := WriteFile(dir, sampleRequirement(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(path) != "Senior_Go_Developer_20250304_050607.txt" {
		t.Fatalf("unexpected file name: %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if !strings.HasPrefix(string(data), "Title: Senior Go Developer\n") {
		t.Fatalf("unexpected content: %s", data)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(loaded, sampleRequirement()) {
		t.Fatalf("loaded requirement mismatch: %+v", loaded)
	}
}

func TestWriteFileRejectsMissingTitle(t *testing.T) {
	if _, err := WriteFile(t.TempDir(), &Requirement{}, time.Now()); err == nil {
		t.Fatal("expected validation error")
	}
}
