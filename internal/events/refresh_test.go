package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTopic(t *testing.T) {
	topic := NewRefreshTopic(nil)

	first := make(chan struct{}, 4)
	second := make(chan struct{}, 4)
	topic.Subscribe(func() { first <- struct{}{} })
	unsubscribe := topic.Subscribe(func() { second <- struct{}{} })

	topic.PublishRefresh()
	assertReceived(t, first)
	assertReceived(t, second)

	unsubscribe()
	topic.PublishRefresh()
	assertReceived(t, first)
	select {
	case <-second:
		t.Fatal("unsubscribed handler was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	topic := NewRefreshTopic(nil)
	release := make(chan struct{})
	defer close(release)
	topic.Subscribe(func() { <-release })

	done := make(chan struct{})
	go func() {
		topic.PublishRefresh()
		close(done)
	}()
	assertReceived(t, done)
}

func assertReceived(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		assert.Fail(t, "expected notification")
	}
}
