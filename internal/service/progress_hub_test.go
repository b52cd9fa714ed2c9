package service

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func newTestHub() *ProgressHub {
	return NewProgressHub(redis.NewClient(&redis.Options{}))
}

func TestDropUnblocksAfterHubStop(t *testing.T) {
	hub := newTestHub()
	hub.Stop()

	released := make(chan struct{})
	go func() {
		hub.drop(&hubClient{hub: hub, userID: 7})
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after hub stop")
	}
}

func TestPushToLocalDropsSlowConsumer(t *testing.T) {
	hub := newTestHub()
	fast := &hubClient{hub: hub, userID: 7, send: make(chan []byte, 1)}
	slow := &hubClient{hub: hub, userID: 7, send: make(chan []byte)}
	hub.clients[7] = map[*hubClient]bool{fast: true, slow: true}

	hub.pushToLocal(7, []byte(`{"type":"PROGRESS","userId":7}`))

	assert.Len(t, fast.send, 1)
	assert.Empty(t, slow.send)
}
