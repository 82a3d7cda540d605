package preview

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestClientSendAfterClose(t *testing.T) {
	c := newClient(nil, hclog.NewNullLogger())
	assert.True(t, c.trySend([]byte("reload")))

	c.Close()
	c.Close()

	assert.NotPanics(t, func() {
		assert.False(t, c.trySend([]byte("reload")))
	})
}

func TestClientSendFullQueue(t *testing.T) {
	c := newClient(nil, hclog.NewNullLogger())
	for i := 0; i < cap(c.send); i++ {
		assert.True(t, c.trySend([]byte("reload")))
	}
	assert.False(t, c.trySend([]byte("reload")))
}

func TestNavigateToUnregisteredClient(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	c := newClient(nil, hclog.NewNullLogger())
	s.hub.Register(c)
	s.hub.Unregister(c)

	assert.NotPanics(t, func() { s.navigate(c, "about:blank") })
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	h := newHub(hclog.NewNullLogger())
	c := newClient(nil, hclog.NewNullLogger())
	h.Register(c)
	for i := 0; i < cap(c.send); i++ {
		h.Broadcast([]byte("reload"))
	}
	assert.Equal(t, 1, h.Len())

	h.Broadcast([]byte("reload"))
	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return h.Len() == 0 && c.closed
	}, time.Second, 5*time.Millisecond)
}
