package appsec

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"github.com/scan-io-git/triage-bridge/internal/config"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

// APIBasePath prefixes every portal endpoint.
const APIBasePath = "/api/v1/"

// Path builds an endpoint path in the portal convention: "/api/v1/<endpoint>/".
func Path(endpoint string) string {
	return APIBasePath + strings.Trim(endpoint, "/") + "/"
}

// Client talks to the AppSec portal API.
type Client struct {
	httpc            *resty.Client
	url              string
	token            string
	ruleActionChoice string
	links            Links
	logger           hclog.Logger

	// concurrent rule creation for the same finding shares one dedup-then-create sequence
	inflight singleflight.Group
}

// New wraps a configured resty client. Missing URL or token is reported on the first call.
func New(httpc *resty.Client, cfg config.AppSec, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if baseURL != "" {
		httpc.SetBaseURL(baseURL)
	}
	return &Client{
		httpc:            httpc,
		url:              baseURL,
		token:            cfg.APIToken,
		ruleActionChoice: config.SetThen(cfg.RuleActionChoice, config.DefaultRuleActionChoice),
		links:            NewLinks(baseURL),
		logger:           logger,
	}
}

// Links returns the deep-link builder for the configured portal.
func (c *Client) Links() Links {
	return c.links
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	var missing []string
	if strings.TrimSpace(c.url) == "" {
		missing = append(missing, "URL")
	}
	if strings.TrimSpace(c.token) == "" {
		missing = append(missing, "Token")
	}
	if len(missing) > 0 {
		c.logger.Warn("API URL or Token is not configured in settings")
		return nil, &ConfigurationError{Missing: missing}
	}

	requestID := uuid.NewString()
	c.logger.Trace("preparing request", "request_id", requestID, "token_prefix", tokenPrefix(c.token))
	return c.httpc.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("Token %s", c.token)).
		SetHeader("X-Request-ID", requestID), nil
}

func tokenPrefix(token string) string {
	if len(token) <= 4 {
		return "..."
	}
	return token[:4] + "..."
}

func checkResponse(resp *resty.Response, action string) error {
	if resp.IsSuccess() {
		return nil
	}
	msg := errorMessage(resp.Body())
	if msg == "" {
		msg = fmt.Sprintf("%d on %s", resp.StatusCode(), action)
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

// GetFinding fetches a fresh snapshot of a finding.
func (c *Client) GetFinding(ctx context.Context, id int64) (*findings.Finding, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var f findings.Finding
	resp, err := req.
		SetResult(&f).
		Get(Path("findings/" + strconv.FormatInt(id, 10)))
	if err != nil {
		return nil, fmt.Errorf("failed to get finding %d: %w", id, err)
	}
	if err := checkResponse(resp, "get finding"); err != nil {
		return nil, err
	}
	return &f, nil
}

// RejectFinding moves a finding to the rejected triage status.
// A completed call that the portal refuses is returned as *APIError.
func (c *Client) RejectFinding(ctx context.Context, id int64) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.Post(Path(fmt.Sprintf("findings/%d/reject", id)))
	if err != nil {
		return fmt.Errorf("failed to reject finding %d: %w", id, err)
	}
	if err := checkResponse(resp, "reject finding"); err != nil {
		return err
	}
	c.logger.Info("finding rejected", "finding_id", id)
	return nil
}
