package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/triage-bridge/internal/appsec"
	"github.com/scan-io-git/triage-bridge/internal/bridge"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

const unknownError = "Unknown error"

// Dialog choices.
const (
	ChoiceViewRule  = "View Rule"
	ChoiceViewRules = "View Rules"
	ChoiceOK        = "OK"
)

// Notifier raises host dialogs. It is only ever called on the UI thread.
type Notifier interface {
	Info(title, message string)
	Warning(title, message string)
	Error(title, message string)
	// Choose shows a dialog with the given choices and returns the index of the
	// selected one, or -1 if the dialog was dismissed.
	Choose(title, message string, choices []string) int
}

// Opener opens a URL in the system browser. Failures are best-effort.
type Opener interface {
	Open(url string) error
}

// Refresher publishes the "findings changed" notification.
type Refresher interface {
	PublishRefresh()
}

// Rejecter moves a finding to the rejected status.
type Rejecter interface {
	RejectFinding(ctx context.Context, id int64) error
}

// RuleService runs the rule dedup protocol.
type RuleService interface {
	CreateOrFindRule(ctx context.Context, f findings.Finding) (appsec.RuleCreationOutcome, error)
}

// Deps are the collaborators of an Engine.
type Deps struct {
	UI        UIThread
	Notifier  Notifier
	Opener    Opener
	Refresher Refresher
	Rejecter  Rejecter
	Rules     RuleService
	Links     appsec.Links
}

// Engine executes triage actions as background tasks and reconciles their
// results on the UI thread.
type Engine struct {
	deps   Deps
	ctx    context.Context
	logger hclog.Logger
}

// NewEngine creates an Engine. ctx is the parent of every network call.
func NewEngine(ctx context.Context, deps Deps, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{deps: deps, ctx: ctx, logger: logger}
}

// Bind registers the engine's handlers on a channel owned by the document of f.
// Only the actions f is eligible for get a handler, so a rejected finding
// cannot be rejected again and findings without a source location cannot be
// rejected forever. Handlers return immediately; the work happens on
// background tasks.
func (e *Engine) Bind(ch *bridge.Channel, f findings.Finding) {
	if !f.IsRejected() {
		ch.Handle(bridge.KindReject, func(bridge.Message) { e.Reject(f) })
	}
	if f.HasFilePath() {
		ch.Handle(bridge.KindRejectForever, func(bridge.Message) { e.RejectForever(f) })
	}
	ch.Handle(bridge.KindOpenExternal, func(m bridge.Message) { e.OpenExternal(m.URL) })
}

// OpenExternal opens url in the system browser. Failures are logged only.
func (e *Engine) OpenExternal(url string) {
	if err := e.deps.Opener.Open(url); err != nil {
		e.logger.Warn("failed to open URL in system browser", "url", url, "error", err)
		return
	}
	e.logger.Info("opened external URL in system browser", "url", url)
}

// Reject rejects f. On success a confirmation is shown and a refresh is
// published; on failure an error is shown and nothing is refreshed.
func (e *Engine) Reject(f findings.Finding) *Task {
	e.logger.Info("rejecting finding", "finding_id", f.ID)
	return Start(e.ctx, e.deps.UI, e.logger, "reject",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.deps.Rejecter.RejectFinding(ctx, f.ID)
		},
		func(_ struct{}, err error) error {
			if err != nil {
				e.logger.Warn("failed to reject finding", "finding_id", f.ID, "error", err)
				e.deps.Notifier.Error("Rejection Failed", "Failed to reject finding: "+failureMessage(err))
				return nil
			}
			e.deps.Notifier.Info("Finding Rejected", fmt.Sprintf("Finding #%d has been rejected.", f.ID))
			e.deps.Refresher.PublishRefresh()
			return nil
		},
		e.rejectionFault,
	)
}

// RejectForever creates a suppression rule for f, or points the user at the
// rules that already cover it.
func (e *Engine) RejectForever(f findings.Finding) *Task {
	e.logger.Info("rejecting finding forever", "finding_id", f.ID)
	return Start(e.ctx, e.deps.UI, e.logger, "reject-forever",
		func(ctx context.Context) (appsec.RuleCreationOutcome, error) {
			return e.deps.Rules.CreateOrFindRule(ctx, f)
		},
		func(outcome appsec.RuleCreationOutcome, err error) error {
			return e.reconcileForever(f, outcome, err)
		},
		e.rejectionFault,
	)
}

func (e *Engine) reconcileForever(f findings.Finding, outcome appsec.RuleCreationOutcome, err error) error {
	if err != nil {
		e.logger.Warn("failed to create rule", "finding_id", f.ID, "error", err)
		e.deps.Notifier.Warning("Reject Forever Failed", "Failed to create rule: "+failureMessage(err))
		// the rule call may have had partial effects on the portal
		e.deps.Refresher.PublishRefresh()
		return nil
	}

	switch o := outcome.(type) {
	case appsec.RuleCreated:
		link := e.deps.Links.Rule(o.RuleID)
		msg := fmt.Sprintf("Rule #%d has been created. Findings with the same fingerprint will be rejected automatically.", o.RuleID)
		if e.deps.Notifier.Choose("Rule Created", msg, []string{ChoiceViewRule, ChoiceOK}) == 0 {
			e.OpenExternal(link)
		}
		e.deps.Refresher.PublishRefresh()
		return nil

	case appsec.ExistingRulesFound:
		link := e.deps.Links.Rules(o.Params)
		msg := fmt.Sprintf("Found %s already matching this finding. No new rule was created.", pluralizeRules(o.Count))
		if e.deps.Notifier.Choose("Existing Rules Found", msg, []string{ChoiceViewRules, ChoiceOK}) == 0 {
			e.OpenExternal(link)
		}
		// an existing rule already governs the finding, nothing changed
		return nil

	default:
		return fmt.Errorf("unhandled rule creation outcome %T", outcome)
	}
}

func (e *Engine) rejectionFault(err error) {
	e.deps.Notifier.Error("Rejection Failed", "Failed to reject finding: "+failureMessage(err))
}

// failureMessage is the user-visible text of err.
func failureMessage(err error) string {
	if err == nil {
		return unknownError
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return unknownError
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownError
}

func pluralizeRules(count int) string {
	if count == 1 {
		return "1 rule"
	}
	return fmt.Sprintf("%d rules", count)
}
