package ws_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/handler/ws"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

func TestHubBroadcastWithoutSubscriberIsMiss(t *testing.T) {
	hub := ws.NewHub(slog.New(slog.DiscardHandler), ws.WithIdleTimeout(time.Hour))
	t.Cleanup(hub.Shutdown)

	id := session.ID{SourceModelID: 1, DestinationModelID: 2, InitiatorID: 3, InviteeID: 4, ClientID: "c1"}
	ev := ws.FlagChanged{SessionID: id, VarID: 7, Flag: session.FlagFull}

	assert.False(t, hub.IsWatched(ev.GetKey()), "no subscriber yet")
	assert.False(t, hub.Broadcast(ev), "broadcast with no subscriber is a harmless miss")
}

func TestNotifyMiddlewareSendWithoutWatcherCreatesNoCell(t *testing.T) {
	reg := registry.New()
	broker := service.NewBroker(reg)
	hub := ws.NewHub(slog.New(slog.DiscardHandler))
	t.Cleanup(hub.Shutdown)

	decorated := ws.NewNotifyMiddleware(broker, hub)
	ctx := context.Background()

	id, err := decorated.CreateSession(ctx, session.CreateParams{
		SourceModelID:      1,
		DestinationModelID: 2,
		InitiatorID:        3,
		InviteeID:          4,
		InputVariablesID:   []int{9},
		InputVariablesSize: []int{1},
	})
	require.NoError(t, err)
	require.NoError(t, decorated.JoinSession(ctx, id, 4))

	key := ws.FlagChanged{SessionID: id, VarID: 9}.GetKey()
	assert.False(t, hub.IsWatched(key))

	require.NoError(t, decorated.SendData(ctx, id, 9, []float64{1}))
	assert.False(t, hub.IsWatched(key), "broadcast with no subscriber does not create a cell")
}

func TestWatchVariableEndToEnd(t *testing.T) {
	reg := registry.New()
	broker := service.NewBroker(reg)
	hub := ws.NewHub(slog.New(slog.DiscardHandler))
	t.Cleanup(hub.Shutdown)
	decorated := ws.NewNotifyMiddleware(broker, hub)

	ctx := context.Background()
	id, err := decorated.CreateSession(ctx, session.CreateParams{
		SourceModelID:      1,
		DestinationModelID: 2,
		InitiatorID:        3,
		InviteeID:          4,
		InputVariablesID:   []int{5},
		InputVariablesSize: []int{2},
	})
	require.NoError(t, err)
	require.NoError(t, decorated.JoinSession(ctx, id, 4))

	h := ws.New(decorated, hub, slog.New(slog.DiscardHandler))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/watch_variable?session_id=" + id.String() + "&var_id=5"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.IsWatched(ws.FlagChanged{SessionID: id, VarID: 5}.GetKey())
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, decorated.SendData(ctx, id, 5, []float64{1, 2}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt ws.FlagChanged
	require.NoError(t, json.Unmarshal(msg, &evt))
	assert.Equal(t, session.FlagFull, evt.Flag)
	assert.Equal(t, 5, evt.VarID)
}
