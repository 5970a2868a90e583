// Package http implements the RPC Surface (§4.5, §6): chi handlers that
// validate input, call into service.Broker, and serialize JSON or
// octet-stream responses. Grounded on the teacher's internal/handler/lp and
// internal/handler/ws packages, which are themselves thin chi/net-http
// handlers delegating to service.Deliverer.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dantte-lp/dataexchange-broker/internal/codec"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

// Header names carrying session/variable identity for send_data (§4.5, §6).
const (
	HeaderSessionID = "Session-ID"
	HeaderVarID     = "Var-ID"
)

// Handler implements the RPC Surface over the Broker.
type Handler struct {
	broker service.Broker
	logger *slog.Logger
}

// New builds a Handler bound to broker.
func New(broker service.Broker, logger *slog.Logger) *Handler {
	return &Handler{broker: broker, logger: logger}
}

// Routes mounts every RPC Surface endpoint onto r (§6's endpoint table).
func (h *Handler) Routes(r chi.Router) {
	r.Post("/create_session", h.CreateSession)
	r.Get("/get_session_status", h.GetSessionStatus)
	r.Post("/join_session", h.JoinSession)
	r.Post("/send_data", h.SendData)
	r.Get("/get_variable_flag", h.GetVariableFlag)
	r.Get("/get_variable_size", h.GetVariableSize)
	r.Get("/receive_data", h.ReceiveData)
	r.Post("/end_session", h.EndSession)
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	id, err := h.broker.CreateSession(r.Context(), req.toParams())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionIDResponse{Status: int(session.StatusCreated), SessionID: id})
}

func (h *Handler) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	status, err := h.broker.GetSessionStatus(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, int(status))
}

func (h *Handler) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	if err := h.broker.JoinSession(r.Context(), req.SessionID, req.InviteeID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionIDResponse{Status: int(session.StatusActive), SessionID: req.SessionID})
}

func (h *Handler) SendData(w http.ResponseWriter, r *http.Request) {
	id, varID, err := parseDataHeaders(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	xs, err := codec.Decode(body)
	if err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	if err := h.broker.SendData(r.Context(), id, varID, xs); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendDataResponse{Status: "ok"})
}

func (h *Handler) GetVariableFlag(w http.ResponseWriter, r *http.Request) {
	id, varID, err := parseSessionAndVar(r)
	if err != nil {
		writeError(w, err)
		return
	}

	flag, err := h.broker.GetVariableFlag(r.Context(), id, varID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, variableFlagResponse{VarID: varID, FlagStatus: flag})
}

func (h *Handler) GetVariableSize(w http.ResponseWriter, r *http.Request) {
	id, varID, err := parseSessionAndVar(r)
	if err != nil {
		writeError(w, err)
		return
	}

	size, err := h.broker.GetVariableSize(r.Context(), id, varID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, variableSizeResponse{VarID: varID, Size: size})
}

func (h *Handler) ReceiveData(w http.ResponseWriter, r *http.Request) {
	id, varID, err := parseSessionAndVar(r)
	if err != nil {
		writeError(w, err)
		return
	}

	xs, err := h.broker.ReceiveData(r.Context(), id, varID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(codec.Encode(xs))
}

// HeaderClientID optionally carries the ending participant's own tag
// (initiator_id or invitee_id). The original source identifies the ender
// from the shared SessionID.client_id alone, which cannot actually
// distinguish the two participants (see DESIGN.md "end_session identity");
// this header lets a caller be explicit. When absent, the handler assumes
// the initiator tag, which is harmless: End's status-driven transition
// doesn't depend on which valid participant id is passed.
const HeaderClientID = "Client-ID"

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, session.ErrInvalidInput)
		return
	}

	clientID := req.SessionID.InitiatorID
	if tag := r.Header.Get(HeaderClientID); tag != "" {
		var convErr error
		clientID, convErr = strconv.Atoi(tag)
		if convErr != nil {
			writeError(w, session.ErrInvalidInput)
			return
		}
	}

	// Session.End is status-driven (any end call once the session is already
	// PARTIAL_END closes it, matching the original server), so a single call
	// with whichever id we resolved above — the Client-ID header when given,
	// the initiator tag otherwise — always routes correctly: it doesn't
	// matter which participant's id ends the first or the second end, since
	// the transition itself depends only on the session's current status,
	// not on tracking a specific tag across calls.
	status, err := h.broker.EndSession(r.Context(), req.SessionID, clientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionIDResponse{Status: int(status), SessionID: req.SessionID})
}

func parseDataHeaders(r *http.Request) (session.ID, int, error) {
	idStr := r.Header.Get(HeaderSessionID)
	varStr := r.Header.Get(HeaderVarID)
	if idStr == "" || varStr == "" {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	id, err := session.ParseID(idStr)
	if err != nil {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	varID, err := strconv.Atoi(varStr)
	if err != nil {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	return id, varID, nil
}

func parseSessionAndVar(r *http.Request) (session.ID, int, error) {
	q := r.URL.Query()
	idStr := q.Get("session_id")
	varStr := q.Get("var_id")
	if idStr == "" || varStr == "" {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	id, err := session.ParseID(idStr)
	if err != nil {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	varID, err := strconv.Atoi(varStr)
	if err != nil {
		return session.ID{}, 0, session.ErrInvalidInput
	}

	return id, varID, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, session.ErrForbidden):
		code = http.StatusForbidden
	}
	http.Error(w, err.Error(), code)
}
