package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/api/middleware"
	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/enums"
)

// actorFromRequest assembles the audited identity from the auth middleware
// context and the caller address.
func actorFromRequest(r *http.Request) audit.Actor {
	actor := audit.Actor{IP: middleware.ClientIP(r)}
	if id, err := uuid.Parse(middleware.UserIDFromContext(r.Context())); err == nil {
		actor.ID = id
	}
	if role, err := enums.ParseRole(middleware.RoleFromContext(r.Context())); err == nil {
		actor.Role = role
	}
	return actor
}
