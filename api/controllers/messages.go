package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/api/validators"
	"github.com/dfrchat/backend/internal/messages"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
	"github.com/dfrchat/backend/pkg/pagination"
)

func messageIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message id")
	}
	return id, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// parseTimeQuery accepts RFC 3339 timestamps or bare dates. Bare dates parse
// to midnight, so range-end filters widen them to the end of the named day.
func parseTimeQuery(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if value, err := time.Parse(time.RFC3339, raw); err == nil {
		return &value, nil
	}
	value, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
			WithDetails(map[string]any{"field": key})
	}
	if endOfDay {
		value = value.Add(24*time.Hour - time.Second)
	}
	return &value, nil
}

// MessagesList returns the caller's inbox (or outbox with ?sent=true).
func MessagesList(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		params := messages.ListParams{
			Search:     validators.SanitizeString(r.URL.Query().Get("search"), 200),
			Siso:       validators.SanitizeString(r.URL.Query().Get("siso"), 50),
			Paciente:   validators.SanitizeString(r.URL.Query().Get("paciente"), 200),
			DentistaID: strings.TrimSpace(r.URL.Query().Get("dentistaId")),
			Prioridade: strings.TrimSpace(r.URL.Query().Get("prioridade")),
			Categoria:  strings.TrimSpace(r.URL.Query().Get("categoria")),
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		}

		if sent := strings.TrimSpace(r.URL.Query().Get("sent")); sent != "" {
			value, err := strconv.ParseBool(sent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sent value"))
				return
			}
			params.Sent = value
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

		result, err := svc.ListMessages(r.Context(), actorFromRequest(r), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePaged(w, result.Messages, result.Page)
	}
}

// MessagesCreate posts a new message to users and role groups.
func MessagesCreate(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		var body messages.CreateMessageInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateMessage(r.Context(), actorFromRequest(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// MessagesGet returns the full message and stamps the caller's read receipt.
func MessagesGet(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		id, err := messageIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetMessage(r.Context(), actorFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// MessagesUpdate applies a partial edit, keeping the content history.
func MessagesUpdate(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		id, err := messageIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body messages.UpdateMessageInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateMessage(r.Context(), actorFromRequest(r), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// MessagesDelete cancels a message; rows are never removed.
func MessagesDelete(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		id, err := messageIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelMessage(r.Context(), actorFromRequest(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "message cancelled")
	}
}

// MessagePin keeps a message at the top of the caller's inbox.
func MessagePin(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		id, err := messageIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.PinMessage(r.Context(), actorFromRequest(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "message pinned")
	}
}

// MessageUnpin removes the caller's pin.
func MessageUnpin(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		id, err := messageIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UnpinMessage(r.Context(), actorFromRequest(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "message unpinned")
	}
}
