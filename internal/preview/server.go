// Package preview hosts a finding document in the user's browser and carries
// its action messages back to the host over a WebSocket.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/triage-bridge/internal/bridge"
	"github.com/scan-io-git/triage-bridge/internal/composer"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

// ReloadMessage is pushed to connected documents after the finding was recomposed.
const ReloadMessage = "reload"

// BridgePath is where documents open their WebSocket.
const BridgePath = "/ws"

// NavigatePrefix marks script-initiated navigations forwarded by the document.
// The server answers with the same frame when the navigation may proceed in place.
const NavigatePrefix = "navigate:"

// FindingSource fetches the current snapshot of a finding.
type FindingSource interface {
	GetFinding(ctx context.Context, id int64) (*findings.Finding, error)
}

// Binder registers action handlers on a channel owned by the document of f.
type Binder interface {
	Bind(ch *bridge.Channel, f findings.Finding)
}

// NavigationGuard decides whether a navigation must be canceled.
type NavigationGuard interface {
	BeforeBrowse(url string) bool
}

// Server serves one finding document and its bridge.
type Server struct {
	addr      string
	findingID int64
	source    FindingSource
	binder    Binder
	guard     NavigationGuard
	composer  *composer.Composer
	logger    hclog.Logger
	hub       *hub
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	document string
	channel  *bridge.Channel
}

// BindingScript defines the query function of the document as a sender on the
// bridge WebSocket and reloads the page when the host asks for it.
func BindingScript(queryFunction string) string {
	if queryFunction == "" {
		queryFunction = bridge.DefaultQueryFunction
	}
	fn, _ := json.Marshal(queryFunction)
	path, _ := json.Marshal(BridgePath)
	reload, _ := json.Marshal(ReloadMessage)
	navigate, _ := json.Marshal(NavigatePrefix)

	return fmt.Sprintf(`(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(scheme + location.host + %s);
  var navigate = %s;
  var pending = [];
  function send(payload) {
    if (socket.readyState === WebSocket.OPEN) {
      socket.send(payload);
    } else {
      pending.push(payload);
    }
  }
  socket.addEventListener("open", function () {
    pending.splice(0).forEach(function (payload) { socket.send(payload); });
  });
  socket.addEventListener("message", function (event) {
    if (event.data === %s) {
      location.reload();
    } else if (event.data.indexOf(navigate) === 0) {
      location.href = event.data.slice(navigate.length);
    }
  });
  window.open = function (url) {
    send(navigate + String(url));
    return null;
  };
  window[%s] = send;
})();`, path, navigate, reload, fn)
}

// New creates a preview server for findingID. opts configure the composer; the
// binding script is always added.
func New(addr string, findingID int64, source FindingSource, binder Binder, guard NavigationGuard, logger hclog.Logger, opts ...composer.Option) (*Server, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	opts = append(opts, composer.WithBindingScript(BindingScript(bridge.DefaultQueryFunction)))
	cmp, err := composer.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:      addr,
		findingID: findingID,
		source:    source,
		binder:    binder,
		guard:     guard,
		composer:  cmp,
		logger:    logger,
		hub:       newHub(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: sameOrigin,
		},
	}, nil
}

// sameOrigin accepts requests without an Origin header and those whose origin
// is the preview server itself.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// Load fetches the finding, composes its document and binds a fresh channel to it.
func (s *Server) Load(ctx context.Context) error {
	f, err := s.source.GetFinding(ctx, s.findingID)
	if err != nil {
		return fmt.Errorf("failed to load finding %d: %w", s.findingID, err)
	}
	doc, err := s.composer.Compose(*f)
	if err != nil {
		return err
	}

	ch := bridge.NewChannel(f.ID, s.logger.Named("bridge"))
	s.binder.Bind(ch, *f)

	s.mu.Lock()
	s.document = doc
	s.channel = ch
	s.mu.Unlock()

	s.logger.Debug("preview document loaded", "finding_id", f.ID, "status", f.TriageStatus)
	return nil
}

// Reload recomposes the document and tells connected documents to reload.
// The previous document stays in place if loading fails.
func (s *Server) Reload(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("failed to refresh preview", "finding_id", s.findingID, "error", err)
		return err
	}
	s.hub.Broadcast([]byte(ReloadMessage))
	return nil
}

func (s *Server) current() (string, *bridge.Channel) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document, s.channel
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc(BridgePath, s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "ok")
	})
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	doc, _ := s.current()
	if doc == "" {
		http.Error(w, "finding is not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = fmt.Fprint(w, doc)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade preview websocket", "error", err)
		return
	}
	c := newClient(conn, s.logger)
	s.hub.Register(c)
	go c.writeLoop()
	c.readLoop(func(payload string) {
		if strings.HasPrefix(payload, NavigatePrefix) {
			s.navigate(c, strings.TrimPrefix(payload, NavigatePrefix))
			return
		}
		if _, ch := s.current(); ch != nil {
			ch.Query(payload)
		}
	}, func() {
		s.hub.Unregister(c)
	})
}

// navigate applies the navigation guard and lets the document proceed in place
// when the guard does not cancel.
func (s *Server) navigate(c *client, url string) {
	if s.guard.BeforeBrowse(url) {
		return
	}
	if !c.trySend([]byte(NavigatePrefix + url)) {
		s.logger.Debug("dropping navigation reply", "url", url)
	}
}

// Run loads the finding and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}

	srv := &http.Server{Addr: s.addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.hub.Close()
	}()

	s.logger.Info("preview listener ready", "addr", s.addr, "finding_id", s.findingID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
