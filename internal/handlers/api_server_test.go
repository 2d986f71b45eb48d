package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/game"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, ServerOptions{})

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["rooms"])
}

func TestHeartbeat(t *testing.T) {
	_, ts := newTestServer(t, ServerOptions{})
	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListRooms(t *testing.T) {
	s, ts := newTestServer(t, ServerOptions{})
	room, err := s.Store.CreateRoom(models.NewPlayer(uuid.New(), "Host", ""))
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rooms []game.RoomSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
	assert.Equal(t, game.StatusWaiting, rooms[0].Status)
	assert.Equal(t, 1, rooms[0].HumanCount)
}

func TestCORSPreflight(t *testing.T) {
	s := NewRoomServer(ServerOptions{Logger: quietLogger()})
	h := s.NewRouter([]string{"https://play.example"})

	req, err := http.NewRequest(http.MethodOptions, "/api/rooms", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://play.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://play.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := NewRoomServer(ServerOptions{Logger: logger})

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Contains(t, entry.Message, "failed to write json response")
}
