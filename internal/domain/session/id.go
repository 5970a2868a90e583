package session

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is the five-field identity of a coupling (§3). It is immutable and
// field-wise comparable, which makes it usable directly as a map key.
type ID struct {
	SourceModelID      int    `json:"source_model_id"`
	DestinationModelID int    `json:"destination_model_id"`
	InitiatorID        int    `json:"initiator_id"`
	InviteeID          int    `json:"invitee_id"`
	ClientID           string `json:"client_id"`
}

// String renders the five fields joined by commas in declaration order, the
// form some clients use as a header value.
func (id ID) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(id.SourceModelID))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(id.DestinationModelID))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(id.InitiatorID))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(id.InviteeID))
	b.WriteByte(',')
	b.WriteString(id.ClientID)
	return b.String()
}

// ParseID parses the comma-joined form produced by String.
func ParseID(s string) (ID, error) {
	parts := strings.SplitN(s, ",", 5)
	if len(parts) != 5 {
		return ID{}, fmt.Errorf("session: malformed session id %q", s)
	}
	src, err := strconv.Atoi(parts[0])
	if err != nil {
		return ID{}, fmt.Errorf("session: malformed source_model_id in %q: %w", s, err)
	}
	dst, err := strconv.Atoi(parts[1])
	if err != nil {
		return ID{}, fmt.Errorf("session: malformed destination_model_id in %q: %w", s, err)
	}
	initiator, err := strconv.Atoi(parts[2])
	if err != nil {
		return ID{}, fmt.Errorf("session: malformed initiator_id in %q: %w", s, err)
	}
	invitee, err := strconv.Atoi(parts[3])
	if err != nil {
		return ID{}, fmt.Errorf("session: malformed invitee_id in %q: %w", s, err)
	}
	if parts[4] == "" {
		return ID{}, fmt.Errorf("session: empty client_id in %q", s)
	}
	return ID{
		SourceModelID:      src,
		DestinationModelID: dst,
		InitiatorID:        initiator,
		InviteeID:          invitee,
		ClientID:           parts[4],
	}, nil
}
