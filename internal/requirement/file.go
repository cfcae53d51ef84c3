package requirement

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileTimeLayout = "20060102_150405"

// FileName returns the name under which a requirement is stored, e.g. "Go_Developer_20250101_120000.txt".
func FileName(title string, now time.Time) string {
	base := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	base = strings.ReplaceAll(base, string(filepath.Separator), "_")
	return fmt.Sprintf("%s_%s.txt", base, now.Format(fileTimeLayout))
}

// WriteFile serializes the requirement into dir and returns the written path.
func WriteFile(dir string, r *Requirement, now time.Time) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating requirements folder: %w", err)
	}

	path := filepath.Join(dir, FileName(r.Title, now))
	if err := os.WriteFile(path, []byte(Serialize(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing requirement file: %w", err)
	}

	return path, nil
}

// ReadFile loads and parses a requirement text file.
func ReadFile(path string) (*Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requirement file %q: %w", path, err)
	}
	return Parse(string(data)), nil
}
