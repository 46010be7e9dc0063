package controllers

import (
	"net/http"

	"github.com/dungdata/dungdata-backend/api/middleware"
	"github.com/dungdata/dungdata-backend/api/responses"
	"github.com/dungdata/dungdata-backend/internal/checkout"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/logger"
)

// ConfirmCheckout freezes the pending cart and returns the VietQR payment
// payload.
func ConfirmCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		email := middleware.EmailFromContext(r.Context())
		out, err := svc.Confirm(r.Context(), userID, email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}
