package findings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is ordered: Critical > High > Medium > Low > Info > Unknown.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityInfo
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityUnknown:  "UNKNOWN",
	SeverityInfo:     "INFO",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

// portal API numeric severities: 0 info ... 4 critical
var severityCodes = map[int]Severity{
	0: SeverityInfo,
	1: SeverityLow,
	2: SeverityMedium,
	3: SeverityHigh,
	4: SeverityCritical,
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return severityNames[SeverityUnknown]
}

// Label returns a capitalized display name, e.g. "High".
func (s Severity) Label() string {
	name := s.String()
	return name[:1] + strings.ToLower(name[1:])
}

// ParseSeverity accepts portal names and SARIF levels.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high", "error":
		return SeverityHigh
	case "medium", "warning":
		return SeverityMedium
	case "low", "note":
		return SeverityLow
	case "info", "informational", "none":
		return SeverityInfo
	default:
		return SeverityUnknown
	}
}

// UnmarshalJSON accepts both the numeric and the string representation.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		if sev, ok := severityCodes[code]; ok {
			*s = sev
		} else {
			*s = SeverityUnknown
		}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("severity must be a number or a string: %w", err)
	}
	*s = ParseSeverity(raw)
	return nil
}

// MarshalJSON emits the textual name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
