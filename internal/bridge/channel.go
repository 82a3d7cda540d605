package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// ErrStaleMessage is returned when an action targets a finding other than the
// one the document was composed for.
var ErrStaleMessage = errors.New("message targets a different finding")

// ErrNoHandler is returned when no handler is registered for the message kind.
var ErrNoHandler = errors.New("no handler registered")

// Handler receives a validated message. It runs on the surface's message
// delivery goroutine and must hand blocking work off and return immediately.
type Handler func(Message)

// Channel delivers messages from one rendered document to host handlers.
// It is bound to the finding the document was composed for.
type Channel struct {
	findingID int64
	logger    hclog.Logger

	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewChannel creates a channel owned by the document of findingID.
func NewChannel(findingID int64, logger hclog.Logger) *Channel {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Channel{
		findingID: findingID,
		logger:    logger,
		handlers:  make(map[Kind]Handler),
	}
}

// FindingID returns the id of the owning finding.
func (c *Channel) FindingID() int64 {
	return c.findingID
}

// Handle registers h for kind, replacing any previous handler.
func (c *Channel) Handle(kind Kind, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = h
}

// Query is the entry point for raw payloads forwarded by the surface. It never
// returns anything to the surface: unknown, malformed and stale payloads are
// dropped silently.
func (c *Channel) Query(raw string) {
	msg, err := Decode(raw)
	if err != nil {
		c.logger.Debug("ignoring bridge payload", "payload", raw, "reason", err)
		return
	}
	if err := c.Dispatch(msg); err != nil {
		c.logger.Debug("ignoring bridge message", "kind", msg.Kind, "reason", err)
	}
}

// Dispatch validates msg against the owning finding and invokes its handler.
func (c *Channel) Dispatch(msg Message) error {
	if msg.Kind.IsAction() && msg.FindingID != c.findingID {
		return fmt.Errorf("%w: got %d, document is for %d", ErrStaleMessage, msg.FindingID, c.findingID)
	}

	c.mu.RLock()
	h, ok := c.handlers[msg.Kind]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoHandler, msg.Kind)
	}

	c.logger.Debug("dispatching bridge message", "kind", msg.Kind, "finding_id", msg.FindingID)
	h(msg)
	return nil
}
