package appsec

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// QueryParams is the rules list filter that reproduces a set of matching rules.
type QueryParams struct {
	ActionChoices []string `json:"action_choices"`
	Search        string   `json:"search"`
}

// Values returns the filter as url.Values; multi-value keys are repeated.
func (q QueryParams) Values() url.Values {
	v := url.Values{}
	for _, choice := range q.ActionChoices {
		v.Add("action_choices", choice)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Links builds deep links into the portal web views.
type Links struct {
	base string
}

// NewLinks strips a trailing slash from baseURL.
func NewLinks(baseURL string) Links {
	return Links{base: strings.TrimRight(baseURL, "/")}
}

// Finding links to a finding on its product page.
func (l Links) Finding(productID, findingID int64) string {
	return fmt.Sprintf("%s/products/%d/findings/%d", l.base, productID, findingID)
}

// Rule links to a single auto-validator rule.
func (l Links) Rule(ruleID int64) string {
	return fmt.Sprintf("%s/autovalidator/rule/%d", l.base, ruleID)
}

// Rules links to the rules list filtered by params.
func (l Links) Rules(params QueryParams) string {
	query := EncodeQuery(params.Values())
	if query == "" {
		return l.base + "/autovalidator/rules"
	}
	return l.base + "/autovalidator/rules?" + query
}

// EncodeQuery percent-encodes every key and value independently. Unlike
// url.Values.Encode it escapes spaces as %20 so the result is safe in any URL component.
func EncodeQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			parts = append(parts, escapeQueryComponent(k)+"="+escapeQueryComponent(v))
		}
	}
	return strings.Join(parts, "&")
}

func escapeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
