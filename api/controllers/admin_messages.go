package controllers

import (
	"net/http"

	"github.com/dungdata/dungdata-backend/api/responses"
	"github.com/dungdata/dungdata-backend/api/validators"
	"github.com/dungdata/dungdata-backend/internal/messages"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// AdminListMessages serves the contact-form inbox.
func AdminListMessages(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := messages.ListInput{
			UnreadOnly: r.URL.Query().Get("unread") == "true",
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
		}

		out, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminMarkMessageRead flips the read flag on one message.
func AdminMarkMessageRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "messageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.MarkRead(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminDeleteMessage removes one message from the inbox.
func AdminDeleteMessage(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "messageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
