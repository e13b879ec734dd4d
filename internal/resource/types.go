// Package resource defines core domain types shared across subsystems.
package resource

// Category classifies a resource record.
type Category string

// Category values accepted by the store.
const (
	CategoryScholarship Category = "scholarship"
	CategoryVisa        Category = "visa"
	CategoryJob         Category = "job"
	CategoryUniversity  Category = "university"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryScholarship, CategoryVisa, CategoryJob, CategoryUniversity:
		return true
	}
	return false
}

// Categories lists every known category, in report order.
func Categories() []Category {
	return []Category{CategoryScholarship, CategoryVisa, CategoryJob, CategoryUniversity}
}

// Record is one scholarship/visa/job/university entry held in the store.
// The core only works on transient copies; the store owns the canonical row.
type Record struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    Category       `json:"category"`
	Country     string         `json:"country"`
	URL         string         `json:"url,omitempty"`
	Institution string         `json:"institution,omitempty"`
	Deadline    string         `json:"deadline,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Complete reports whether the record carries every required field:
// title, category and country, plus institution for scholarships.
func (r Record) Complete() bool {
	if r.Title == "" || r.Category == "" || r.Country == "" {
		return false
	}
	if r.Category == CategoryScholarship && r.Institution == "" {
		return false
	}
	return true
}

// Source describes one external site records are collected from.
type Source struct {
	Name      string `json:"name" mapstructure:"name"`
	URL       string `json:"url" mapstructure:"url"`
	RobotsURL string `json:"robots_txt,omitempty" mapstructure:"robots_txt"`
	Kind      string `json:"type,omitempty" mapstructure:"type"`
	Note      string `json:"note,omitempty" mapstructure:"note"`
}

// BrokenLink records a URL whose liveness probe failed.
type BrokenLink struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	StatusCode int      `json:"status_code"`
	Category   Category `json:"category"`
}

// StaleFinding records a resource whose last_updated age exceeds the
// configured threshold. Advisory, not an error.
type StaleFinding struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DaysOld     int    `json:"days_old"`
	LastUpdated string `json:"last_updated"`
}

// InvalidDate records a resource with unparseable date fields.
type InvalidDate struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Errors []string `json:"errors"`
}

// MissingFieldsFinding records a resource missing required fields.
type MissingFieldsFinding struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Missing []string `json:"missing"`
}

// ValidationResult aggregates the outcome of one validation run. It is
// built fresh per run and never persisted or shared across runs.
type ValidationResult struct {
	TotalResources int                    `json:"total_resources"`
	BrokenLinks    []BrokenLink           `json:"broken_links"`
	StaleData      []StaleFinding         `json:"stale_data"`
	InvalidDates   []InvalidDate          `json:"invalid_dates"`
	MissingFields  []MissingFieldsFinding `json:"missing_fields"`
	Passed         []string               `json:"passed"`
}

// NewValidationResult returns an empty result with every list allocated,
// so a run with zero resources still renders as valid output.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		BrokenLinks:   []BrokenLink{},
		StaleData:     []StaleFinding{},
		InvalidDates:  []InvalidDate{},
		MissingFields: []MissingFieldsFinding{},
		Passed:        []string{},
	}
}

// IssueCount returns the total number of findings across all lists.
func (r *ValidationResult) IssueCount() int {
	return len(r.BrokenLinks) + len(r.StaleData) + len(r.InvalidDates) + len(r.MissingFields)
}
