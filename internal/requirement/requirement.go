package requirement

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Requirement is a finalized job posting as it is stored on disk and read by the ranker.
type Requirement struct {
	Title            string   `json:"title" mapstructure:"title" validate:"required"`
	Description      string   `json:"description" mapstructure:"description"`
	Responsibilities []string `json:"responsibilities" mapstructure:"responsibilities"`
	Requirements     []string `json:"requirements" mapstructure:"requirements"`
	Skills           []string `json:"skills" mapstructure:"skills"`
	Qualifications   []string `json:"qualifications" mapstructure:"qualifications"`
	Location         string   `json:"location" mapstructure:"location"`
	EmploymentType   string   `json:"employment_type" mapstructure:"employment_type"`
	Experience       string   `json:"experience" mapstructure:"experience"`
}

var validate = validator.New()

// Validate reports whether the requirement can be persisted. A blank title is invalid.
func (r *Requirement) Validate() error {
	if r == nil {
		return fmt.Errorf("requirement is required")
	}
	check := *r
	check.Title = strings.TrimSpace(check.Title)
	if err := validate.Struct(&check); err != nil {
		return fmt.Errorf("invalid requirement: %w", err)
	}
	return nil
}

// SearchQuery builds the free-text query used for external candidate search.
func (r *Requirement) SearchQuery() string {
	if r == nil {
		return ""
	}
	parts := []string{r.Title, strings.Join(r.Skills, ", "), r.Description}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Normalize trims the title and replaces nil lists with empty ones so the JSON form is stable.
func (r *Requirement) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	for _, list := range []*[]string{&r.Responsibilities, &r.Requirements, &r.Skills, &r.Qualifications} {
		if *list == nil {
			*list = []string{}
		}
	}
}
