package findings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindingUnmarshal(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantStatus   TriageStatus
		wantSeverity Severity
		wantProduct  int64
		wantFilePath bool
	}{
		{
			name:         "numeric codes and product id",
			input:        `{"id": 42, "product": 7, "severity": 3, "triage_status": 1, "file_path": null}`,
			wantStatus:   StatusOpen,
			wantSeverity: SeverityHigh,
			wantProduct:  7,
		},
		{
			name:         "string values and embedded product",
			input:        `{"id": 42, "product": {"id": 9, "name": "shop"}, "severity": "critical", "triage_status": "rejected", "file_path": "app/main.go"}`,
			wantStatus:   StatusRejected,
			wantSeverity: SeverityCritical,
			wantProduct:  9,
			wantFilePath: true,
		},
		{
			name:         "unknown codes",
			input:        `{"id": 1, "product": 1, "severity": 99, "triage_status": 42}`,
			wantStatus:   StatusUnknown,
			wantSeverity: SeverityUnknown,
			wantProduct:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Finding
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.wantStatus, f.TriageStatus)
			assert.Equal(t, tt.wantSeverity, f.Severity)
			assert.Equal(t, tt.wantProduct, f.Product.ID)
			assert.Equal(t, tt.wantFilePath, f.HasFilePath())
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityUnknown, SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i], ordered[i-1])
	}
	assert.Equal(t, "High", SeverityHigh.Label())
	assert.Equal(t, SeverityHigh, ParseSeverity("error"))
	assert.Equal(t, SeverityLow, ParseSeverity("note"))
}

func TestHasFilePath(t *testing.T) {
	blank := "  "
	path := "src/app.py"
	assert.False(t, Finding{}.HasFilePath())
	assert.False(t, Finding{FilePath: &blank}.HasFilePath())
	assert.True(t, Finding{FilePath: &path}.HasFilePath())
}

const testSARIF = `{
  "version": "2.1.0",
  "$schema": "https://json.schemastore.org/sarif-2.1.0.json",
  "runs": [{
    "tool": {"driver": {"name": "semgrep", "rules": [{
      "id": "python.sqli",
      "shortDescription": {"text": "SQL injection"},
      "properties": {"tags": ["CWE-89", "OWASP-A03"]}
    }]}},
    "results": [{
      "ruleId": "python.sqli",
      "level": "error",
      "message": {"text": "User input flows into a query"},
      "locations": [{"physicalLocation": {
        "artifactLocation": {"uri": "app/db.py"},
        "region": {"startLine": 12, "snippet": {"text": "cursor.execute(q)\n"}}
      }}]
    }]
  }]
}`

func TestReadSARIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(path, []byte(testSARIF), 0o600))

	got, err := ReadSARIF(path, hclog.NewNullLogger())
	require.NoError(t, err)
	require.Len(t, got, 1)

	f := got[0]
	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, "SQL injection", f.Name)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, StatusOpen, f.TriageStatus)
	require.True(t, f.HasFilePath())
	assert.Equal(t, "app/db.py", *f.FilePath)
	assert.Equal(t, 12, f.Line)
	assert.Equal(t, "cursor.execute(q)", f.LineText)
	assert.Equal(t, "python", f.LanguageName)
	assert.Equal(t, []string{"CWE-89", "OWASP-A03"}, f.Tags)
}

func TestReadSARIFMissingFile(t *testing.T) {
	_, err := ReadSARIF(filepath.Join(t.TempDir(), "missing.sarif"), hclog.NewNullLogger())
	assert.Error(t, err)
}
