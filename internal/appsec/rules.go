package appsec

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/scan-io-git/triage-bridge/internal/findings"
)

// RuleCreationOutcome is the result of CreateOrFindRule.
// The set of implementations is closed: RuleCreated and ExistingRulesFound.
type RuleCreationOutcome interface {
	isRuleCreationOutcome()
}

// RuleCreated reports that a new suppression rule was persisted.
type RuleCreated struct {
	RuleID int64
}

// ExistingRulesFound reports that active rules already match the finding's fingerprint.
type ExistingRulesFound struct {
	Count  int
	Params QueryParams
}

func (RuleCreated) isRuleCreationOutcome()        {}
func (ExistingRulesFound) isRuleCreationOutcome() {}

// Fingerprint is the portal-derived matching key of a finding.
type Fingerprint struct {
	Value  string `json:"fingerprint"`
	Search string `json:"search"`
}

type rulesPage struct {
	Count int `json:"count"`
}

type ruleRequest struct {
	ActionChoice string `json:"action_choice"`
	Fingerprint  string `json:"fingerprint"`
	Finding      int64  `json:"finding"`
	IsActive     bool   `json:"is_active"`
}

type rule struct {
	ID int64 `json:"id"`
}

// GetFingerprint asks the portal for the fingerprint of a finding.
func (c *Client) GetFingerprint(ctx context.Context, findingID int64) (*Fingerprint, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var fp Fingerprint
	resp, err := req.
		SetResult(&fp).
		Get(Path(fmt.Sprintf("findings/%d/fingerprint", findingID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get fingerprint of finding %d: %w", findingID, err)
	}
	if err := checkResponse(resp, "getting fingerprint"); err != nil {
		return nil, err
	}
	if fp.Value == "" {
		return nil, fmt.Errorf("portal returned an empty fingerprint for finding %d", findingID)
	}
	if fp.Search == "" {
		fp.Search = fp.Value
	}
	return &fp, nil
}

// CountActiveRules returns how many active rules match params.
func (c *Client) CountActiveRules(ctx context.Context, params QueryParams) (int, error) {
	req, err := c.request(ctx)
	if err != nil {
		return 0, err
	}

	var page rulesPage
	resp, err := req.
		SetQueryParamsFromValues(params.Values()).
		SetQueryParam("is_active", "true").
		SetQueryParam("page_size", "1").
		SetResult(&page).
		Get(Path("autovalidator/rules"))
	if err != nil {
		return 0, fmt.Errorf("failed to list rules: %w", err)
	}
	if err := checkResponse(resp, "getting rules"); err != nil {
		return 0, err
	}
	return page.Count, nil
}

// CreateRule persists a rule that rejects every finding with fp.
// The idempotency key is derived from the portal, the finding and the fingerprint,
// so a portal that honours Idempotency-Key collapses repeated submissions.
func (c *Client) CreateRule(ctx context.Context, findingID int64, fp Fingerprint) (int64, error) {
	req, err := c.request(ctx)
	if err != nil {
		return 0, err
	}

	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.url+"|"+strconv.FormatInt(findingID, 10)+"|"+fp.Value))
	var created rule
	resp, err := req.
		SetHeader("Idempotency-Key", key.String()).
		SetBody(ruleRequest{
			ActionChoice: c.ruleActionChoice,
			Fingerprint:  fp.Value,
			Finding:      findingID,
			IsActive:     true,
		}).
		SetResult(&created).
		Post(Path("autovalidator/rules"))
	if err != nil {
		return 0, fmt.Errorf("failed to create rule for finding %d: %w", findingID, err)
	}
	if err := checkResponse(resp, "creating rule"); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("portal did not return the id of the rule created for finding %d", findingID)
	}
	return created.ID, nil
}

// CreateOrFindRule creates a suppression rule for the finding unless an active
// rule already matches its fingerprint. Calls for the same finding that overlap
// in time share a single sequence; there is no atomicity against other hosts.
func (c *Client) CreateOrFindRule(ctx context.Context, f findings.Finding) (RuleCreationOutcome, error) {
	v, err, shared := c.inflight.Do(strconv.FormatInt(f.ID, 10), func() (interface{}, error) {
		return c.createOrFindRule(ctx, f)
	})
	if shared {
		c.logger.Debug("joined in-flight rule creation", "finding_id", f.ID)
	}
	if err != nil {
		return nil, err
	}
	return v.(RuleCreationOutcome), nil
}

func (c *Client) createOrFindRule(ctx context.Context, f findings.Finding) (RuleCreationOutcome, error) {
	fp, err := c.GetFingerprint(ctx, f.ID)
	if err != nil {
		return nil, err
	}

	params := QueryParams{ActionChoices: []string{c.ruleActionChoice}, Search: fp.Search}
	count, err := c.CountActiveRules(ctx, params)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		c.logger.Info("matching rules already exist", "finding_id", f.ID, "count", count)
		return ExistingRulesFound{Count: count, Params: params}, nil
	}

	ruleID, err := c.CreateRule(ctx, f.ID, *fp)
	if err != nil {
		return nil, err
	}
	c.logger.Info("rule created", "finding_id", f.ID, "rule_id", ruleID)
	return RuleCreated{RuleID: ruleID}, nil
}
