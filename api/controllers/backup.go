package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/api/validators"
	"github.com/dfrchat/backend/internal/backup"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// BackupExport serves the full JSON snapshot as a file download.
func BackupExport(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}

		export, err := svc.ExportBackup(r.Context(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(len(export.Payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(export.Payload)
	}
}

// BackupImport merges a previously exported document into the database.
func BackupImport(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}

		var doc backup.Document
		if err := validators.DecodeJSONBody(r, &doc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ImportBackup(r.Context(), actorFromRequest(r), doc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BackupHistory lists past export and import runs.
func BackupHistory(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}

		history, err := svc.History(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
