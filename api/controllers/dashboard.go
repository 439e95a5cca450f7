package controllers

import (
	"net/http"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/internal/dashboard"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// DashboardStats returns the caller-scoped activity overview.
func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
