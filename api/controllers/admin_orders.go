package controllers

import (
	"net/http"
	"strings"

	"github.com/dungdata/dungdata-backend/api/responses"
	"github.com/dungdata/dungdata-backend/api/validators"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/pagination"
)

// AdminListOrders serves the bank-transfer review queue.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ListInput{
			Status: enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		}

		out, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminConfirmOrder marks the transfer as received.
func AdminConfirmOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return adminOrderAction(svc, logg, func(r *http.Request, svc orders.Service) (any, error) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			return nil, err
		}
		return svc.Confirm(r.Context(), id)
	})
}

// AdminRejectOrder marks the transfer as missing.
func AdminRejectOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return adminOrderAction(svc, logg, func(r *http.Request, svc orders.Service) (any, error) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			return nil, err
		}
		return svc.Reject(r.Context(), id)
	})
}

// AdminShipOrder stamps a confirmed order as dispatched.
func AdminShipOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return adminOrderAction(svc, logg, func(r *http.Request, svc orders.Service) (any, error) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			return nil, err
		}
		return svc.MarkShipped(r.Context(), id)
	})
}

func adminOrderAction(svc orders.Service, logg *logger.Logger, action func(*http.Request, orders.Service) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := action(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
