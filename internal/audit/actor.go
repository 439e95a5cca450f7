package audit

import (
	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// Actor identifies who performed an operation, for audit attribution.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
	IP   string
}

// UserID returns a pointer suitable for Entry literals.
func (a Actor) UserID() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// IPAddress returns the caller address or nil when unknown.
func (a Actor) IPAddress() *string {
	if a.IP == "" {
		return nil
	}
	ip := a.IP
	return &ip
}
