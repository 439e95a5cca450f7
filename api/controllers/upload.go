package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dfrchat/backend/api/responses"
	"github.com/dfrchat/backend/internal/attachments"
	"github.com/dfrchat/backend/pkg/config"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// UploadFiles accepts a multipart batch under the "files" field, optionally
// linked straight to a message via the messageId form value.
func UploadFiles(svc attachments.Service, cfg config.UploadConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attachments service unavailable"))
			return
		}

		maxBytes := int64(cfg.MaxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		var messageID *uuid.UUID
		if raw := strings.TrimSpace(r.FormValue("messageId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message id"))
				return
			}
			messageID = &id
		}

		parts := r.MultipartForm.File["files"]
		files := make([]attachments.UploadFile, 0, len(parts))
		for _, part := range parts {
			src, err := part.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload part"))
				return
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload part"))
				return
			}
			files = append(files, attachments.UploadFile{
				Name:        part.Filename,
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
		}

		out, err := svc.Upload(r.Context(), actorFromRequest(r), messageID, files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// DownloadAttachment streams the stored blob. ?preview=true serves it inline.
func DownloadAttachment(svc attachments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attachments service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attachment id"))
			return
		}

		attachment, err := svc.Download(r.Context(), actorFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disposition := "attachment"
		if preview, _ := strconv.ParseBool(r.URL.Query().Get("preview")); preview {
			disposition = "inline"
		}

		w.Header().Set("Content-Type", attachment.FileType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, attachment.FileName))
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))
		w.WriteHeader(http.StatusOK)
		w.Write(attachment.FileData)
	}
}
