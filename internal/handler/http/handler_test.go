package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantte-lp/dataexchange-broker/internal/codec"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	httphandler "github.com/dantte-lp/dataexchange-broker/internal/handler/http"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

func newTestServer() *httptest.Server {
	reg := registry.New()
	broker := service.NewBroker(reg)
	h := httphandler.New(broker, slog.New(slog.DiscardHandler))

	r := chi.NewRouter()
	h.Routes(r)
	return httptest.NewServer(r)
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestHappyPathScenario(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/create_session", map[string]any{
		"source_model_id":       2001,
		"destination_model_id":  2005,
		"initiator_id":          35,
		"invitee_id":            38,
		"input_variables_id":    []int{1},
		"input_variables_size":  []int{50},
		"output_variables_id":   []int{},
		"output_variables_size": []int{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Status    int        `json:"status"`
		SessionID session.ID `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, int(session.StatusCreated), created.Status)
	id := created.SessionID

	resp = doJSON(t, srv, http.MethodPost, "/join_session", map[string]any{
		"session_id": id,
		"invitee_id": 38,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	xs := make([]float64, 50)
	for i := range xs {
		xs[i] = 1.0
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/send_data", bytes.NewReader(codec.Encode(xs)))
	require.NoError(t, err)
	req.Header.Set(httphandler.HeaderSessionID, id.String())
	req.Header.Set(httphandler.HeaderVarID, "1")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	q := url.Values{"session_id": {id.String()}, "var_id": {"1"}}
	resp, err = srv.Client().Get(srv.URL + "/get_variable_flag?" + q.Encode())
	require.NoError(t, err)
	var flagResp struct {
		VarID      int `json:"var_id"`
		FlagStatus int `json:"flag_status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flagResp))
	assert.Equal(t, session.FlagFull, flagResp.FlagStatus)

	resp, err = srv.Client().Get(srv.URL + "/receive_data?" + q.Encode())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	got, err := codec.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, xs, got)

	resp, err = srv.Client().Get(srv.URL + "/get_variable_flag?" + q.Encode())
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flagResp))
	assert.Equal(t, session.FlagEmpty, flagResp.FlagStatus)

	resp = doJSON(t, srv, http.MethodPost, "/end_session", map[string]any{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ended struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ended))
	assert.Equal(t, int(session.StatusPartialEnd), ended.Status)

	resp = doJSON(t, srv, http.MethodPost, "/end_session", map[string]any{"session_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/get_session_status", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// createAndJoinSession creates and joins a session between initiatorID and
// inviteeID, returning its id.
func createAndJoinSession(t *testing.T, srv *httptest.Server, initiatorID, inviteeID int) session.ID {
	t.Helper()

	resp := doJSON(t, srv, http.MethodPost, "/create_session", map[string]any{
		"source_model_id":      2001,
		"destination_model_id": 2005,
		"initiator_id":         initiatorID,
		"invitee_id":           inviteeID,
		"input_variables_id":   []int{1},
		"input_variables_size": []int{50},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		SessionID session.ID `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, srv, http.MethodPost, "/join_session", map[string]any{
		"session_id": created.SessionID,
		"invitee_id": inviteeID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return created.SessionID
}

// endSession posts end_session for id, optionally naming the ending
// participant via the Client-ID header (clientID == 0 omits the header).
func endSession(t *testing.T, srv *httptest.Server, id session.ID, clientID int) *http.Response {
	t.Helper()

	b, err := json.Marshal(map[string]any{"session_id": id})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/end_session", bytes.NewReader(b))
	require.NoError(t, err)
	if clientID != 0 {
		req.Header.Set(httphandler.HeaderClientID, strconv.Itoa(clientID))
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeEndStatus(t *testing.T, resp *http.Response) int {
	t.Helper()
	var ended struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ended))
	return ended.Status
}

// TestEndSessionInitiatorThenInvitee pins that the initiator ending first and
// the invitee ending second (the order the bare-SessionID fallback used to
// misroute) correctly reaches PARTIAL_END then END/deletion.
func TestEndSessionInitiatorThenInvitee(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	const initiatorID, inviteeID = 35, 38
	id := createAndJoinSession(t, srv, initiatorID, inviteeID)

	resp := endSession(t, srv, id, initiatorID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusPartialEnd), decodeEndStatus(t, resp))

	resp = endSession(t, srv, id, inviteeID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusEnd), decodeEndStatus(t, resp))

	resp = doJSON(t, srv, http.MethodGet, "/get_session_status", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestEndSessionInviteeThenInitiator pins the opposite ordering: the invitee
// ending first, the initiator ending second.
func TestEndSessionInviteeThenInitiator(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	const initiatorID, inviteeID = 35, 38
	id := createAndJoinSession(t, srv, initiatorID, inviteeID)

	resp := endSession(t, srv, id, inviteeID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusPartialEnd), decodeEndStatus(t, resp))

	resp = endSession(t, srv, id, initiatorID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusEnd), decodeEndStatus(t, resp))

	resp = doJSON(t, srv, http.MethodGet, "/get_session_status", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestEndSessionClientIDHeaderRouting pins that the Client-ID header, not
// just the bare default-to-initiator fallback, correctly routes both ends
// regardless of which participant the header names each time.
func TestEndSessionClientIDHeaderRouting(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	const initiatorID, inviteeID = 35, 38
	id := createAndJoinSession(t, srv, initiatorID, inviteeID)

	resp := endSession(t, srv, id, inviteeID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusPartialEnd), decodeEndStatus(t, resp))

	// Omitting the header defaults to the initiator tag; since the second
	// end is status-driven, it still closes the session even though the
	// invitee (not the initiator) made the first call.
	resp = endSession(t, srv, id, 0)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int(session.StatusEnd), decodeEndStatus(t, resp))

	resp = doJSON(t, srv, http.MethodGet, "/get_session_status", map[string]any{"session_id": id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWrongInviteeForbidden(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/create_session", map[string]any{
		"source_model_id":      2001,
		"destination_model_id": 2005,
		"initiator_id":         35,
		"invitee_id":           38,
		"input_variables_id":   []int{1},
		"input_variables_size": []int{50},
	})
	var created struct {
		SessionID session.ID `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, srv, http.MethodPost, "/join_session", map[string]any{
		"session_id": created.SessionID,
		"invitee_id": 99,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDoubleSendConflict(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/create_session", map[string]any{
		"source_model_id":      2001,
		"destination_model_id": 2005,
		"initiator_id":         35,
		"invitee_id":           38,
		"input_variables_id":   []int{1},
		"input_variables_size": []int{2},
	})
	var created struct {
		SessionID session.ID `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id := created.SessionID

	send := func() *http.Response {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/send_data", bytes.NewReader(codec.Encode([]float64{1, 2})))
		req.Header.Set(httphandler.HeaderSessionID, id.String())
		req.Header.Set(httphandler.HeaderVarID, "1")
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, http.StatusOK, send().StatusCode)
	assert.Equal(t, http.StatusConflict, send().StatusCode)
}

func TestUnknownSessionNotFound(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	q := url.Values{"session_id": {"1,2,3,4,nonexistent"}, "var_id": {"1"}}
	resp, err := srv.Client().Get(srv.URL + "/get_variable_flag?" + q.Encode())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
