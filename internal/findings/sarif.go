package findings

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

// languageByExt maps file extensions to fenced code block language tags.
var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".kt":   "kotlin",
	".rb":   "ruby",
	".php":  "php",
	".cs":   "csharp",
	".c":    "c",
	".cpp":  "cpp",
	".rs":   "rust",
	".yml":  "yaml",
	".yaml": "yaml",
	".tf":   "hcl",
}

// ReadSARIF converts every result of a SARIF report into a finding snapshot.
// Findings read this way are local: their ID is the 1-based result index and
// they carry no product.
func ReadSARIF(path string, logger hclog.Logger) ([]Finding, error) {
	report, err := sarif.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SARIF report %q: %w", path, err)
	}

	var result []Finding
	for _, run := range report.Runs {
		rulesByID := map[string]*sarif.ReportingDescriptor{}
		if run.Tool.Driver != nil {
			for _, r := range run.Tool.Driver.Rules {
				if r == nil || strings.TrimSpace(r.ID) == "" {
					continue
				}
				rulesByID[r.ID] = r
			}
		}

		for _, res := range run.Results {
			if res == nil {
				continue
			}
			f := findingFromResult(res, rulesByID)
			f.ID = int64(len(result) + 1)
			if f.Name == "" {
				logger.Debug("SARIF result without rule id or message", "index", f.ID)
			}
			result = append(result, f)
		}
	}
	return result, nil
}

func findingFromResult(res *sarif.Result, rulesByID map[string]*sarif.ReportingDescriptor) Finding {
	f := Finding{TriageStatus: StatusOpen, Severity: SeverityUnknown}

	if res.Level != nil {
		f.Severity = ParseSeverity(*res.Level)
	}
	if res.Message.Markdown != nil {
		f.Description = *res.Message.Markdown
	} else if res.Message.Text != nil {
		f.Description = *res.Message.Text
	}

	if res.RuleID != nil {
		f.Name = *res.RuleID
		if rule, ok := rulesByID[*res.RuleID]; ok {
			if rule.ShortDescription != nil && rule.ShortDescription.Text != nil {
				f.Name = *rule.ShortDescription.Text
			}
			f.Tags = ruleTags(rule)
		}
	}

	if len(res.Locations) > 0 && res.Locations[0] != nil && res.Locations[0].PhysicalLocation != nil {
		loc := res.Locations[0].PhysicalLocation
		if loc.ArtifactLocation != nil && loc.ArtifactLocation.URI != nil {
			path := *loc.ArtifactLocation.URI
			f.FilePath = &path
			f.LanguageName = languageByExt[strings.ToLower(filepath.Ext(path))]
		}
		if loc.Region != nil {
			if loc.Region.StartLine != nil {
				f.Line = *loc.Region.StartLine
			}
			if loc.Region.Snippet != nil && loc.Region.Snippet.Text != nil {
				f.LineText = strings.TrimRight(*loc.Region.Snippet.Text, "\n")
			}
		}
	}
	return f
}

func ruleTags(rule *sarif.ReportingDescriptor) []string {
	if rule.Properties == nil {
		return nil
	}
	v, ok := rule.Properties["tags"]
	if !ok || v == nil {
		return nil
	}
	var tags []string
	switch tv := v.(type) {
	case []string:
		tags = tv
	case []interface{}:
		for _, it := range tv {
			if s, ok := it.(string); ok {
				tags = append(tags, s)
			}
		}
	}
	return tags
}
