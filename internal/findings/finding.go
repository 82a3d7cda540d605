package findings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TriageStatus is the workflow state of a finding on the AppSec portal.
type TriageStatus string

const (
	StatusOpen      TriageStatus = "OPEN"
	StatusResolved  TriageStatus = "RESOLVED"
	StatusRejected  TriageStatus = "REJECTED"
	StatusTemporary TriageStatus = "TEMPORARY"
	StatusVerified  TriageStatus = "VERIFIED"
	StatusAssigned  TriageStatus = "ASSIGNED"
	StatusUnknown   TriageStatus = "UNKNOWN"
)

// triageStatusCodes maps the numeric codes returned by the portal API to statuses.
var triageStatusCodes = map[int]TriageStatus{
	0: StatusResolved,
	1: StatusOpen,
	2: StatusRejected,
	3: StatusTemporary,
	4: StatusVerified,
	5: StatusAssigned,
}

// UnmarshalJSON accepts both the numeric and the string representation.
func (s *TriageStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		if status, ok := triageStatusCodes[code]; ok {
			*s = status
			return nil
		}
		*s = StatusUnknown
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("triage status must be a number or a string: %w", err)
	}
	*s = ParseTriageStatus(raw)
	return nil
}

// ParseTriageStatus normalizes a textual status. Unrecognized values map to StatusUnknown.
func ParseTriageStatus(raw string) TriageStatus {
	switch status := TriageStatus(strings.ToUpper(strings.TrimSpace(raw))); status {
	case StatusOpen, StatusResolved, StatusRejected, StatusTemporary, StatusVerified, StatusAssigned:
		return status
	default:
		return StatusUnknown
	}
}

// Product is the portal product a finding belongs to.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts either a bare product id or an embedded product object.
func (p *Product) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*p = Product{ID: id}
		return nil
	}
	type plain Product
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("product must be an id or an object: %w", err)
	}
	*p = Product(v)
	return nil
}

// Finding is an immutable snapshot of a single detected security issue.
// A fresh snapshot is fetched after every triage action; snapshots are never mutated.
type Finding struct {
	ID           int64        `json:"id"`
	Product      Product      `json:"product"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Severity     Severity     `json:"severity"`
	TriageStatus TriageStatus `json:"triage_status"`

	// FilePath is nil for network and other non-source findings.
	FilePath     *string  `json:"file_path"`
	Line         int      `json:"line,omitempty"`
	LineText     string   `json:"line_text,omitempty"`
	LanguageName string   `json:"language,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// HasFilePath reports whether the finding points at a source location.
func (f Finding) HasFilePath() bool {
	return f.FilePath != nil && strings.TrimSpace(*f.FilePath) != ""
}

// IsRejected reports whether the finding is already rejected.
func (f Finding) IsRejected() bool {
	return f.TriageStatus == StatusRejected
}
