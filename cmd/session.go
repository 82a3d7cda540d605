package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/triage-bridge/internal/appsec"
	"github.com/scan-io-git/triage-bridge/internal/browser"
	"github.com/scan-io-git/triage-bridge/internal/bridge"
	"github.com/scan-io-git/triage-bridge/internal/composer"
	"github.com/scan-io-git/triage-bridge/internal/config"
	"github.com/scan-io-git/triage-bridge/internal/console"
	"github.com/scan-io-git/triage-bridge/internal/events"
	"github.com/scan-io-git/triage-bridge/internal/logger"
	"github.com/scan-io-git/triage-bridge/internal/triage"
	"github.com/scan-io-git/triage-bridge/internal/uiloop"
	"github.com/scan-io-git/triage-bridge/pkg/shared/httpclient"
)

// session wires the collaborators every triage command shares.
type session struct {
	cfg       *config.Config
	logger    hclog.Logger
	client    *appsec.Client
	guard     *bridge.Guard
	ui        *uiloop.Loop
	topic     *events.RefreshTopic
	refresher *trackingRefresher
	engine    *triage.Engine
}

// trackingRefresher records whether any refresh was published.
type trackingRefresher struct {
	topic     *events.RefreshTopic
	published atomic.Bool
}

func (r *trackingRefresher) PublishRefresh() {
	r.published.Store(true)
	r.topic.PublishRefresh()
}

func (r *trackingRefresher) Published() bool {
	return r.published.Load()
}

// newSession builds a session. The UI loop is started and stops with ctx.
func newSession(ctx context.Context, cfg *config.Config, name string, in io.Reader, out io.Writer, dialogOpts ...console.Option) *session {
	l := logger.NewLogger(cfg, name)

	restyClient := httpclient.InitializeRestyClient(l.Named("http"), cfg)
	client := appsec.New(restyClient, cfg.AppSec, l.Named("appsec"))
	guard := bridge.NewGuard(browser.NewSystem(), l.Named("navigation"))

	ui := uiloop.New(16, l.Named("ui"))
	go ui.Run(ctx)

	topic := events.NewRefreshTopic(l.Named("events"))
	refresher := &trackingRefresher{topic: topic}
	engine := triage.NewEngine(ctx, triage.Deps{
		UI:        ui,
		Notifier:  console.New(in, out, dialogOpts...),
		Opener:    guard,
		Refresher: refresher,
		Rejecter:  client,
		Rules:     client,
		Links:     client.Links(),
	}, l.Named("triage"))

	return &session{
		cfg:       cfg,
		logger:    l,
		client:    client,
		guard:     guard,
		ui:        ui,
		topic:     topic,
		refresher: refresher,
		engine:    engine,
	}
}

func (s *session) Close() {
	s.ui.Close()
}

// composerOptions returns the composer settings derived from the configuration.
func composerOptions(cfg *config.Config, l hclog.Logger) []composer.Option {
	opts := []composer.Option{
		composer.WithTheme(composer.ThemeFromConfig(cfg.UI.Theme)),
		composer.WithLogger(l.Named("composer")),
	}
	if cfg.AppSec.APIURL != "" {
		opts = append(opts, composer.WithLinks(appsec.NewLinks(cfg.AppSec.APIURL)))
	}
	return opts
}

// parseFindingID parses a positive finding id, accepting an optional leading '#'.
func parseFindingID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(arg), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid finding id %q", arg)
	}
	return id, nil
}

// choiceOptions maps the --choice flag to dialog options.
func choiceOptions(choice string) ([]console.Option, error) {
	switch strings.ToLower(choice) {
	case "":
		return nil, nil
	case "view":
		return []console.Option{console.WithAnswer(0)}, nil
	case "ok":
		return []console.Option{console.WithAnswer(1)}, nil
	default:
		return nil, fmt.Errorf("the 'choice' flag must be %q or %q: got %q", "view", "ok", choice)
	}
}
