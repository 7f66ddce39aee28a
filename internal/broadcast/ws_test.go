package broadcast_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"taskPlanner/internal/broadcast"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type teamsAuthorizer map[string][]string

func (a teamsAuthorizer) CanJoinTeam(ctx context.Context, userID, teamID string) (bool, error) {
	for _, team := range a[userID] {
		if team == teamID {
			return true, nil
		}
	}
	return false, nil
}

func queryCaller(r *http.Request) context.Context {
	return context.WithValue(r.Context(), callerKey{}, r.URL.Query().Get("user"))
}

type callerKey struct{}

func callerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerKey{}).(string)
	return id, ok && id != ""
}

func newWSServer(t *testing.T, hub *broadcast.Hub, auth broadcast.TeamAuthorizer) *httptest.Server {
	t.Helper()
	handler := broadcast.NewWSHandler(hub, auth, callerFromContext)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r.WithContext(queryCaller(r)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + userID
	conn, err := websocket.Dial(url, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]any
	require.NoError(t, websocket.JSON.Receive(conn, &ev))
	return ev
}

// TestWSHandler тестирует подписку через websocket
func TestWSHandler(t *testing.T) {
	hub := broadcast.NewHub(8)
	defer hub.Close()
	srv := newWSServer(t, hub, teamsAuthorizer{"alice": {"team-1"}})

	conn := dial(t, srv, "alice")
	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.UserRoom("alice")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(broadcast.UserRoom("alice"), broadcast.EventTaskUpdated, broadcast.TaskUpdated{TaskID: "t-1"})
	ev := readEvent(t, conn)
	assert.Equal(t, broadcast.EventTaskUpdated, ev["type"])
	assert.Equal(t, "t-1", ev["data"].(map[string]any)["taskId"])

	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"type": "join-team", "room": "team-1"}))
	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"type": "join-team", "room": "team-2"}))
	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.TeamRoom("team-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize(broadcast.TeamRoom("team-2")))

	hub.Publish(broadcast.TeamRoom("team-1"), broadcast.EventBottleneckAlert, broadcast.BottleneckAlert{TaskID: "t-2", Reason: "deadline passed"})
	ev = readEvent(t, conn)
	assert.Equal(t, broadcast.EventBottleneckAlert, ev["type"])
	assert.Equal(t, "deadline passed", ev["data"].(map[string]any)["reason"])

	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"type": "leave-team", "room": "team-1"}))
	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.TeamRoom("team-1")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.RoomSize(broadcast.UserRoom("alice")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSHandler_Unauthorized(t *testing.T) {
	hub := broadcast.NewHub(8)
	defer hub.Close()
	srv := newWSServer(t, hub, teamsAuthorizer{})

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
