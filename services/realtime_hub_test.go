package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub starts a server that registers every websocket connection for
// userID and returns a client connection to it.
func dialHub(t *testing.T, hub *RealtimeHub, userID uint) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cl := NewWSClient(userID, conn)
		hub.Register(cl)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(cl)
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRealtimeHub_Broadcast(t *testing.T) {
	hub := NewRealtimeHub()
	a1 := dialHub(t, hub, 1)
	a2 := dialHub(t, hub, 1)
	b := dialHub(t, hub, 2)

	require.Eventually(t, func() bool { return hub.Connected(1) == 2 && hub.Connected(2) == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.Broadcast(1, map[string]string{"kind": "out_of_stock"})

	for _, c := range []*websocket.Conn{a1, a2} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]string
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, "out_of_stock", msg["kind"])
	}

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
}

func TestRealtimeHub_Unregister(t *testing.T) {
	hub := NewRealtimeHub()
	c := dialHub(t, hub, 7)
	require.Eventually(t, func() bool { return hub.Connected(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.Connected(7) == 0 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(7, "nobody listening")
	hub.Broadcast(7, func() {})
}

func TestPushService_RegisterDeviceValidation(t *testing.T) {
	p := &PushService{}
	_, err := p.RegisterDevice(context.Background(), 1, "windows", "tok")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.RegisterDevice(context.Background(), 1, "Android", "tok")
	assert.EqualError(t, err, "SNS_PLATFORM_ARN not set")
}

func TestTokenHash(t *testing.T) {
	h := tokenHash("device-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, tokenHash("device-token"))
	assert.NotEqual(t, h, tokenHash("other-token"))
}
