package appsec

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		build    func(Links) string
		expected string
	}{
		{
			name:     "finding link strips trailing slash",
			base:     "https://portal.example.com/",
			build:    func(l Links) string { return l.Finding(3, 42) },
			expected: "https://portal.example.com/products/3/findings/42",
		},
		{
			name:     "rule link",
			base:     "https://portal.example.com",
			build:    func(l Links) string { return l.Rule(7) },
			expected: "https://portal.example.com/autovalidator/rule/7",
		},
		{
			name: "rules list with encoded search",
			base: "https://portal.example.com//",
			build: func(l Links) string {
				return l.Rules(QueryParams{ActionChoices: []string{"suppress"}, Search: "sql injection"})
			},
			expected: "https://portal.example.com/autovalidator/rules?action_choices=suppress&search=sql%20injection",
		},
		{
			name: "rules list with repeated action choices",
			base: "https://portal.example.com",
			build: func(l Links) string {
				return l.Rules(QueryParams{ActionChoices: []string{"suppress", "reject"}})
			},
			expected: "https://portal.example.com/autovalidator/rules?action_choices=suppress&action_choices=reject",
		},
		{
			name:     "rules list without filter",
			base:     "https://portal.example.com",
			build:    func(l Links) string { return l.Rules(QueryParams{}) },
			expected: "https://portal.example.com/autovalidator/rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.build(NewLinks(tt.base)))
		})
	}
}

func TestRulesLinkRoundTrip(t *testing.T) {
	searches := []string{
		"sql injection",
		"a&b=c",
		"50% off + tax?",
		"path/to#frag",
		"ünïcode",
	}
	for _, search := range searches {
		t.Run(search, func(t *testing.T) {
			params := QueryParams{ActionChoices: []string{"suppress", "reject"}, Search: search}
			link := NewLinks("https://portal.example.com").Rules(params)

			u, err := url.Parse(link)
			require.NoError(t, err)
			assert.False(t, strings.Contains(u.RawQuery, " "))

			decoded, err := url.ParseQuery(u.RawQuery)
			require.NoError(t, err)
			assert.Equal(t, params.ActionChoices, decoded["action_choices"])
			assert.Equal(t, search, decoded.Get("search"))
		})
	}
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/api/v1/findings/42/", Path("findings/42"))
	assert.Equal(t, "/api/v1/autovalidator/rules/", Path("/autovalidator/rules/"))
}
