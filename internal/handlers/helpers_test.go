package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/unoroom/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// event is the union of every outbound message shape.
type event struct {
	Type    string          `json:"type"`
	State   *game.RoomState `json:"state,omitempty"`
	RoomID  string          `json:"roomId,omitempty"`
	Success bool            `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, opts ServerOptions) (*RoomServer, *httptest.Server) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	if opts.AIDelay == 0 {
		opts.AIDelay = time.Millisecond
	}
	s := NewRoomServer(opts)
	ts := httptest.NewServer(s.NewRouter(nil))
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg RoomMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, msg))
}

func readEvent(t *testing.T, c *websocket.Conn) event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var ev event
	require.NoError(t, wsjson.Read(ctx, c, &ev))
	return ev
}

// readUntil skips events until match accepts one.
func readUntil(t *testing.T, c *websocket.Conn, match func(event) bool) event {
	t.Helper()
	for i := 0; i < 500; i++ {
		ev := readEvent(t, c)
		if match(ev) {
			return ev
		}
	}
	t.Fatal("expected event never arrived")
	return event{}
}

func ofType(typ string) func(event) bool {
	return func(ev event) bool { return ev.Type == typ }
}

func stateWhere(pred func(*game.RoomState) bool) func(event) bool {
	return func(ev event) bool {
		return ev.Type == "gameStateUpdate" && ev.State != nil && pred(ev.State)
	}
}

// createRoom sends createRoom on c and returns the new room id.
func createRoom(t *testing.T, c *websocket.Conn, name string) string {
	t.Helper()
	send(t, c, RoomMessage{Type: "createRoom", Name: name, Avatar: "🙂"})
	ev := readUntil(t, c, ofType("roomCreated"))
	require.Len(t, ev.RoomID, 6)
	return ev.RoomID
}
