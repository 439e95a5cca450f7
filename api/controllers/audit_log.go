package controllers

import (
	"net/http"
	"strings"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/internal/audit"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// AuditLogList returns the filtered audit trail, newest first.
func AuditLogList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		params := audit.ListParams{
			UserID:     strings.TrimSpace(r.URL.Query().Get("userId")),
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
			EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
		}

		var err error
		if params.DateFrom, err = parseTimeQuery(r, "dateFrom", false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.DateTo, err = parseTimeQuery(r, "dateTo", true); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.Pagination, err = parsePageParams(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListEntries(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePaged(w, result.Entries, result.Page)
	}
}
