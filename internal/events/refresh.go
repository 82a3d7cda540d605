package events

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// RefreshTopic notifies subscribers that finding state may have changed and
// views should re-fetch. Publishing never blocks on subscribers.
type RefreshTopic struct {
	logger hclog.Logger

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func()
}

// NewRefreshTopic creates an empty topic.
func NewRefreshTopic(logger hclog.Logger) *RefreshTopic {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RefreshTopic{logger: logger, subscribers: make(map[int]func())}
}

// Subscribe registers fn and returns a function that removes it.
func (t *RefreshTopic) Subscribe(fn func()) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subscribers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
	}
}

// PublishRefresh invokes every subscriber on its own goroutine.
func (t *RefreshTopic) PublishRefresh() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.logger.Debug("publishing refresh", "subscribers", len(t.subscribers))
	for _, fn := range t.subscribers {
		go fn()
	}
}
