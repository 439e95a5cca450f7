package middleware

import (
	"net/http"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// RequireRoles passes the request through only when the authenticated role
// is in the allowed set.
func RequireRoles(logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[enums.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.Role(RoleFromContext(r.Context()))
			if _, ok := allowedSet[role]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin limits a route to administrators.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRoles(logg, enums.RoleAdministrador)
}

// RequireAdminOrDiretoria limits a route to administrators and board members.
func RequireAdminOrDiretoria(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRoles(logg, enums.RoleAdministrador, enums.RoleDiretoria)
}
