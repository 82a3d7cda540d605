package composer

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/triage-bridge/internal/appsec"
	"github.com/scan-io-git/triage-bridge/internal/bridge"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

// Markdown builds the action-annotated markdown of a finding. Sections without
// content are omitted entirely.
func Markdown(f findings.Finding, links *appsec.Links) string {
	return markdown(f, links, "")
}

// markdown builds the document; when token is set every emitted control
// carries it as its link title so the converter can tell controls apart from
// action links planted in finding content.
func markdown(f findings.Finding, links *appsec.Links, token string) string {
	var b strings.Builder

	writeTitle(&b, f, links)
	writeStatus(&b, f)
	writeActions(&b, f, token)

	if strings.TrimSpace(f.LineText) != "" {
		fence := codeFence(f.LineText)
		fmt.Fprintf(&b, "%s%s\n%s\n%s\n\n", fence, f.LanguageName, f.LineText, fence)
	}

	if strings.TrimSpace(f.Description) != "" {
		fmt.Fprintf(&b, "## Description\n\n%s\n\n", strings.TrimSpace(f.Description))
	}

	if len(f.Tags) > 0 {
		b.WriteString("## Tags\n\n")
		for _, tag := range f.Tags {
			fmt.Fprintf(&b, "- %s\n", tag)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeTitle(b *strings.Builder, f findings.Finding, links *appsec.Links) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Finding"
	}
	if links != nil && f.Product.ID != 0 {
		fmt.Fprintf(b, "# [#%d](%s) %s\n\n", f.ID, links.Finding(f.Product.ID, f.ID), name)
		return
	}
	fmt.Fprintf(b, "# #%d %s\n\n", f.ID, name)
}

func writeStatus(b *strings.Builder, f findings.Finding) {
	fmt.Fprintf(b, "**Status:** %s · **Severity:** %s\n\n", f.TriageStatus, f.Severity.Label())
	if f.HasFilePath() {
		location := *f.FilePath
		if f.Line > 0 {
			location = fmt.Sprintf("%s:%d", location, f.Line)
		}
		fmt.Fprintf(b, "**File:** `%s`\n\n", location)
	}
}

// ActionKinds returns the actions f is eligible for: reject unless the finding
// is already rejected, reject-forever only for findings with a source location.
func ActionKinds(f findings.Finding) []bridge.Kind {
	var kinds []bridge.Kind
	if !f.IsRejected() {
		kinds = append(kinds, bridge.KindReject)
	}
	if f.HasFilePath() {
		kinds = append(kinds, bridge.KindRejectForever)
	}
	return kinds
}

var actionLabels = map[bridge.Kind]string{
	bridge.KindReject:        "Reject",
	bridge.KindRejectForever: "Reject forever",
}

func writeActions(b *strings.Builder, f findings.Finding, token string) {
	var controls []string
	for _, kind := range ActionKinds(f) {
		href := bridge.ActionHref(kind, f.ID)
		if token != "" {
			href = fmt.Sprintf("%s %q", href, token)
		}
		controls = append(controls, fmt.Sprintf("[%s](%s)", actionLabels[kind], href))
	}
	if len(controls) == 0 {
		return
	}
	b.WriteString(strings.Join(controls, " "))
	b.WriteString("\n\n")
}

func actionHrefs(f findings.Finding) []string {
	var hrefs []string
	for _, kind := range ActionKinds(f) {
		hrefs = append(hrefs, bridge.ActionHref(kind, f.ID))
	}
	return hrefs
}

// codeFence returns a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
