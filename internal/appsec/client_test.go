package appsec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/triage-bridge/internal/config"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(resty.New(), config.AppSec{APIURL: srv.URL + "/", APIToken: "test-token"}, hclog.NewNullLogger())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequestRequiresConfiguration(t *testing.T) {
	c := New(resty.New(), config.AppSec{}, nil)
	err := c.RejectFinding(context.Background(), 42)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"URL", "Token"}, cfgErr.Missing)
	assert.Equal(t, "API URL and Token is not configured in settings", err.Error())
}

func TestGetFinding(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/findings/42/", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": 42, "product": 3, "name": "XSS", "severity": 3, "triage_status": 1, "file_path": nil,
		})
	}))

	f, err := c.GetFinding(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), f.ID)
	assert.Equal(t, int64(3), f.Product.ID)
	assert.Equal(t, findings.StatusOpen, f.TriageStatus)
	assert.False(t, f.HasFilePath())
}

func TestRejectFinding(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/findings/42/reject/", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		assert.NoError(t, c.RejectFinding(context.Background(), 42))
	})

	t.Run("reported failure", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission"})
		}))
		err := c.RejectFinding(context.Background(), 42)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "You do not have permission", apiErr.Error())
	})

	t.Run("failure without body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		err := c.RejectFinding(context.Background(), 42)
		require.Error(t, err)
		assert.Equal(t, "502 on reject finding", err.Error())
	})

	t.Run("proxy error page", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><head><title>502 Bad Gateway</title></head><body><center><h1>502 Bad Gateway</h1></center></body></html>"))
		}))
		err := c.RejectFinding(context.Background(), 42)
		require.Error(t, err)
		assert.Equal(t, "502 on reject finding", err.Error())
	})

	t.Run("long detail is truncated", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": strings.Repeat("x", 500)})
		}))
		err := c.RejectFinding(context.Background(), 42)
		require.Error(t, err)
		assert.Equal(t, strings.Repeat("x", maxErrorMessageLen)+"...", err.Error())
	})
}

type rulesAPI struct {
	mu          sync.Mutex
	activeRules int
	created     int32
	createDelay time.Duration
	omitID      bool
	lastQuery   map[string][]string
	idemKeys    []string
}

func (a *rulesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/findings/42/fingerprint/":
		writeJSON(w, http.StatusOK, map[string]string{"fingerprint": "fp-42", "search": "sql injection"})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/autovalidator/rules/":
		a.mu.Lock()
		a.lastQuery = r.URL.Query()
		count := a.activeRules
		a.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/autovalidator/rules/":
		time.Sleep(a.createDelay)
		var body ruleRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.mu.Lock()
		a.idemKeys = append(a.idemKeys, r.Header.Get("Idempotency-Key"))
		a.activeRules++
		a.mu.Unlock()
		atomic.AddInt32(&a.created, 1)
		if body.Fingerprint != "fp-42" || body.ActionChoice != "suppress" || !body.IsActive {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad rule"})
			return
		}
		if a.omitID {
			writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"id": 7})
	default:
		http.NotFound(w, r)
	}
}

func TestCreateOrFindRule(t *testing.T) {
	finding := findings.Finding{ID: 42}

	t.Run("creates rule when none match", func(t *testing.T) {
		api := &rulesAPI{}
		c := newTestClient(t, api)

		outcome, err := c.CreateOrFindRule(context.Background(), finding)
		require.NoError(t, err)
		assert.Equal(t, RuleCreated{RuleID: 7}, outcome)
		assert.Equal(t, []string{"suppress"}, api.lastQuery["action_choices"])
		assert.Equal(t, "sql injection", api.lastQuery["search"][0])
		assert.Equal(t, "true", api.lastQuery["is_active"][0])
		require.Len(t, api.idemKeys, 1)
		assert.NotEmpty(t, api.idemKeys[0])
	})

	t.Run("reports existing rules", func(t *testing.T) {
		api := &rulesAPI{activeRules: 3}
		c := newTestClient(t, api)

		outcome, err := c.CreateOrFindRule(context.Background(), finding)
		require.NoError(t, err)
		assert.Equal(t, ExistingRulesFound{
			Count:  3,
			Params: QueryParams{ActionChoices: []string{"suppress"}, Search: "sql injection"},
		}, outcome)
		assert.Equal(t, int32(0), atomic.LoadInt32(&api.created))
	})

	t.Run("created rule without id", func(t *testing.T) {
		api := &rulesAPI{omitID: true}
		c := newTestClient(t, api)

		outcome, err := c.CreateOrFindRule(context.Background(), finding)
		assert.Nil(t, outcome)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not return the id")
	})

	t.Run("fingerprint failure", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		}))

		outcome, err := c.CreateOrFindRule(context.Background(), finding)
		assert.Nil(t, outcome)
		assert.EqualError(t, err, "Not found.")
	})

	t.Run("overlapping calls share one creation", func(t *testing.T) {
		api := &rulesAPI{createDelay: 100 * time.Millisecond}
		c := newTestClient(t, api)

		var wg sync.WaitGroup
		outcomes := make([]RuleCreationOutcome, 2)
		for i := range outcomes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i], _ = c.CreateOrFindRule(context.Background(), finding)
			}(i)
			time.Sleep(10 * time.Millisecond)
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&api.created))
		assert.Equal(t, RuleCreated{RuleID: 7}, outcomes[0])
		assert.Equal(t, RuleCreated{RuleID: 7}, outcomes[1])
	})
}

func TestCreateRuleIdempotencyKeyIsStable(t *testing.T) {
	api := &rulesAPI{}
	c := newTestClient(t, api)
	fp := Fingerprint{Value: "fp-42"}

	_, err := c.CreateRule(context.Background(), 42, fp)
	require.NoError(t, err)
	_, err = c.CreateRule(context.Background(), 42, fp)
	require.NoError(t, err)

	require.Len(t, api.idemKeys, 2)
	assert.Equal(t, api.idemKeys[0], api.idemKeys[1])
}
