package enums

import "fmt"

// MessageStatus is the lifecycle state of a message. Cancelling a message is a
// transition to CANCELADA, never a physical delete.
type MessageStatus string

const (
	MessageStatusAtiva     MessageStatus = "ATIVA"
	MessageStatusArquivada MessageStatus = "ARQUIVADA"
	MessageStatusCancelada MessageStatus = "CANCELADA"
)

var validMessageStatuses = []MessageStatus{
	MessageStatusAtiva,
	MessageStatusArquivada,
	MessageStatusCancelada,
}

// IsValid checks whether the status matches the canonical enum.
func (s MessageStatus) IsValid() bool {
	for _, candidate := range validMessageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMessageStatus converts raw strings into MessageStatus.
func ParseMessageStatus(value string) (MessageStatus, error) {
	for _, candidate := range validMessageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message status %q", value)
}
