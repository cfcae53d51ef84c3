package ranking

import (
	"slices"

	"github.com/hrmatcher/hr-matcher/internal/ai"
)

type Source string

const (
	SourceLocal  Source = "local"
	SourceGlobal Source = "global"
)

// Profile is a lightweight external candidate record returned by a search provider.
type Profile struct {
	Name         string `json:"name" mapstructure:"name"`
	Title        string `json:"title" mapstructure:"title"`
	ProfileURL   string `json:"profile_url" mapstructure:"profile_url"`
	Email        string `json:"email" mapstructure:"email"`
	Organization string `json:"organization" mapstructure:"organization"`
	Location     string `json:"location" mapstructure:"location"`
}

// Entry is one ranked candidate. Local entries carry Resume and Match, global entries carry Profile.
type Entry struct {
	Source   Source            `json:"source"`
	FileName string            `json:"file_name,omitempty"`
	Path     string            `json:"-"`
	Resume   *ai.ResumeResult  `json:"parsed_resume,omitempty"`
	Match    *ai.VerdictResult `json:"match_result,omitempty"`
	Profile  *Profile          `json:"profile,omitempty"`
}

// Passed reports whether the entry has a well-formed "pass" verdict. Global entries never pass.
func (e Entry) Passed() bool {
	return e.Match != nil && e.Match.Passed()
}

// Name returns a display name for the candidate.
func (e Entry) Name() string {
	switch {
	case e.Profile != nil && e.Profile.Name != "":
		return e.Profile.Name
	case e.Resume != nil && e.Resume.Resume != nil && e.Resume.Resume.Name != "":
		return e.Resume.Resume.Name
	default:
		return e.FileName
	}
}

// Sort orders passing entries first and keeps the original order otherwise.
// The accuracy score does not break ties.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Passed() == b.Passed():
			return 0
		case a.Passed():
			return -1
		default:
			return 1
		}
	})
}
