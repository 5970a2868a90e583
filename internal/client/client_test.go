package client_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantte-lp/dataexchange-broker/internal/client"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	httphandler "github.com/dantte-lp/dataexchange-broker/internal/handler/http"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := registry.New()
	broker := service.NewBroker(reg)
	h := httphandler.New(broker, slog.New(slog.DiscardHandler))

	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLowLevelRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	low := client.NewLowLevel(srv.URL, srv.Client())
	ctx := context.Background()

	id, err := low.CreateSession(ctx, session.CreateParams{
		SourceModelID:      2001,
		DestinationModelID: 2005,
		InitiatorID:        35,
		InviteeID:          38,
		InputVariablesID:   []int{1},
		InputVariablesSize: []int{3},
	})
	require.NoError(t, err)

	require.NoError(t, low.JoinSession(ctx, id, 38))

	payload := []float64{1, 2, 3}
	require.NoError(t, low.SendData(ctx, id, 1, payload))

	flag, err := low.GetVariableFlag(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, session.FlagFull, flag)

	got, err := low.ReceiveData(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	status, err := low.EndSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.StatusPartialEnd, status)
}

func TestHighLevelSendAndReceiveWithRetries(t *testing.T) {
	srv := newTestServer(t)
	low := client.NewLowLevel(srv.URL, srv.Client())
	ctx := context.Background()

	id, err := low.CreateSession(ctx, session.CreateParams{
		SourceModelID:      2001,
		DestinationModelID: 2005,
		InitiatorID:        35,
		InviteeID:          38,
		InputVariablesID:   []int{7},
		InputVariablesSize: []int{2},
	})
	require.NoError(t, err)
	require.NoError(t, low.JoinSession(ctx, id, 38))

	high := client.NewHighLevel(low, id)

	ok := high.SendWithRetries(ctx, 7, []float64{4, 5}, 5, time.Millisecond)
	assert.Equal(t, 1, ok)

	ok, xs := high.ReceiveWithRetries(ctx, 7, 5, time.Millisecond)
	assert.Equal(t, 1, ok)
	assert.Equal(t, []float64{4, 5}, xs)
}

func TestHighLevelJoinWithRetriesAlreadyActiveIsTerminal(t *testing.T) {
	srv := newTestServer(t)
	low := client.NewLowLevel(srv.URL, srv.Client())
	ctx := context.Background()

	id, err := low.CreateSession(ctx, session.CreateParams{
		SourceModelID:      2001,
		DestinationModelID: 2005,
		InitiatorID:        35,
		InviteeID:          38,
		InputVariablesID:   []int{1},
		InputVariablesSize: []int{1},
	})
	require.NoError(t, err)
	require.NoError(t, low.JoinSession(ctx, id, 38))

	high := client.NewHighLevel(low, id)
	status := high.JoinWithRetries(ctx, 38, 3, time.Millisecond)
	assert.Equal(t, session.StatusError, status)
}

func TestHighLevelExchangeBatch(t *testing.T) {
	srv := newTestServer(t)
	low := client.NewLowLevel(srv.URL, srv.Client())
	ctx := context.Background()

	id, err := low.CreateSession(ctx, session.CreateParams{
		SourceModelID:       2001,
		DestinationModelID:  2005,
		InitiatorID:         35,
		InviteeID:           38,
		InputVariablesID:    []int{1},
		InputVariablesSize:  []int{2},
		OutputVariablesID:   []int{2},
		OutputVariablesSize: []int{2},
	})
	require.NoError(t, err)
	require.NoError(t, low.JoinSession(ctx, id, 38))

	initiatorSide := client.NewHighLevel(low, id)
	require.Equal(t, 1, initiatorSide.SendWithRetries(ctx, 1, []float64{1, 1}, 5, time.Millisecond))

	inviteeSide := client.NewHighLevel(low, id)
	require.Equal(t, 1, inviteeSide.SendWithRetries(ctx, 2, []float64{2, 2}, 5, time.Millisecond))

	out, err := initiatorSide.ExchangeBatch(ctx, nil, []int{2}, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, out[2])
}
