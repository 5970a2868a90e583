package http

import "github.com/dantte-lp/dataexchange-broker/internal/domain/session"

// sessionDataRequest is the create_session request body (§6 SessionData).
type sessionDataRequest struct {
	SourceModelID       int   `json:"source_model_id"`
	DestinationModelID  int   `json:"destination_model_id"`
	InitiatorID         int   `json:"initiator_id"`
	InviteeID           int   `json:"invitee_id"`
	InputVariablesID    []int `json:"input_variables_id"`
	InputVariablesSize  []int `json:"input_variables_size"`
	OutputVariablesID   []int `json:"output_variables_id"`
	OutputVariablesSize []int `json:"output_variables_size"`
}

func (r sessionDataRequest) toParams() session.CreateParams {
	return session.CreateParams{
		SourceModelID:       r.SourceModelID,
		DestinationModelID:  r.DestinationModelID,
		InitiatorID:         r.InitiatorID,
		InviteeID:           r.InviteeID,
		InputVariablesID:    r.InputVariablesID,
		InputVariablesSize:  r.InputVariablesSize,
		OutputVariablesID:   r.OutputVariablesID,
		OutputVariablesSize: r.OutputVariablesSize,
	}
}

// sessionIDResponse is the common {status, session_id} envelope returned by
// create_session, join_session and end_session (§6).
type sessionIDResponse struct {
	Status    int        `json:"status"`
	SessionID session.ID `json:"session_id"`
}

// joinRequest is join_session's request body (§6).
type joinRequest struct {
	SessionID session.ID `json:"session_id"`
	InviteeID int        `json:"invitee_id"`
}

// sessionIDRequest is get_session_status's / end_session's request body: a
// bare SessionID (§6).
type sessionIDRequest struct {
	SessionID session.ID `json:"session_id"`
}

// variableFlagResponse is get_variable_flag's response (§6).
type variableFlagResponse struct {
	VarID      int `json:"var_id"`
	FlagStatus int `json:"flag_status"`
}

// variableSizeResponse is get_variable_size's response (§6).
type variableSizeResponse struct {
	VarID int `json:"var_id"`
	Size  int `json:"size"`
}

// sendDataResponse is send_data's response: status is a string per §6's
// wire table, distinct from the {status:int,...} envelope used elsewhere.
type sendDataResponse struct {
	Status string `json:"status"`
}
