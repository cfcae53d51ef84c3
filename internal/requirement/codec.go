package requirement

import (
	"strings"
)

const (
	LabelTitle            = "Title"
	LabelDescription      = "Description"
	LabelResponsibilities = "Responsibilities"
	LabelRequirements     = "Requirements"
	LabelSkills           = "Skills"
	LabelQualifications   = "Qualifications"
	LabelLocation         = "Location"
	LabelEmploymentType   = "Employment Type"
	LabelExperience       = "Experience"

	listSeparator = ", "
	bulletMarkers = "-• "
)

// Labels lists the recognized section headers in serialization order.
var Labels = []string{
	LabelTitle,
	LabelDescription,
	LabelResponsibilities,
	LabelRequirements,
	LabelSkills,
	LabelQualifications,
	LabelLocation,
	LabelEmploymentType,
	LabelExperience,
}

func isLabel(key string) bool {
	for _, label := range Labels {
		if label == key {
			return true
		}
	}
	return false
}

// Serialize renders the requirement as a line-oriented text block, one labeled line per field.
func Serialize(r *Requirement) string {
	if r == nil {
		r = &Requirement{}
	}

	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	line(LabelTitle, r.Title)
	line(LabelDescription, r.Description)
	line(LabelResponsibilities, strings.Join(r.Responsibilities, listSeparator))
	line(LabelRequirements, strings.Join(r.Requirements, listSeparator))
	line(LabelSkills, strings.Join(r.Skills, listSeparator))
	line(LabelQualifications, strings.Join(r.Qualifications, listSeparator))
	line(LabelLocation, r.Location)
	line(LabelEmploymentType, r.EmploymentType)
	line(LabelExperience, r.Experience)

	return b.String()
}

// section holds either scalar content or list items, never both.
type section struct {
	scalar string
	items  []string
	list   bool
}

// Parse reads a text block produced by Serialize, or written by hand in the same layout.
// Lines before the first recognized header are dropped. A "Label: value" line with an
// unknown label is continuation content of the current section.
func Parse(text string) *Requirement {
	sections := make(map[string]*section)
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if key, value, found := strings.Cut(line, ":"); found {
			key = strings.TrimSpace(key)
			if isLabel(key) {
				current = key
				value = strings.TrimSpace(value)
				if value != "" {
					sections[key] = &section{scalar: value}
				} else {
					sections[key] = &section{list: true, items: []string{}}
				}
				continue
			}
		}

		if current == "" {
			continue
		}

		s := sections[current]
		if s.list {
			item := strings.TrimSpace(strings.TrimLeft(line, bulletMarkers))
			if item != "" {
				s.items = append(s.items, item)
			}
			continue
		}
		s.scalar += " " + line
	}

	return &Requirement{
		Title:            scalarOf(sections[LabelTitle]),
		Description:      scalarOf(sections[LabelDescription]),
		Responsibilities: listOf(sections[LabelResponsibilities]),
		Requirements:     listOf(sections[LabelRequirements]),
		Skills:           listOf(sections[LabelSkills]),
		Qualifications:   listOf(sections[LabelQualifications]),
		Location:         scalarOf(sections[LabelLocation]),
		EmploymentType:   scalarOf(sections[LabelEmploymentType]),
		Experience:       scalarOf(sections[LabelExperience]),
	}
}

func scalarOf(s *section) string {
	if s == nil {
		return ""
	}
	if s.list {
		return strings.Join(s.items, " ")
	}
	return s.scalar
}

// listOf splits the one-line serialized form on commas.
func listOf(s *section) []string {
	if s == nil {
		return []string{}
	}
	if s.list {
		return append([]string{}, s.items...)
	}

	items := []string{}
	for _, part := range strings.Split(s.scalar, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
