package controllers

import (
	"net/http"
	"strings"

	"github.com/ovenline/pizzeria-backend/api/middleware"
	"github.com/ovenline/pizzeria-backend/api/responses"
	"github.com/ovenline/pizzeria-backend/api/validators"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
)

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminListOrders pages through all orders, optionally filtered by status.
func AdminListOrders(svc orders.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order service"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")), page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetOrder(svc orders.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order service"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminUpdateOrderStatus moves an order to a new status and notifies the
// customer.
func AdminUpdateOrderStatus(svc orders.StatusService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order status service"))
			return
		}
		actorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		order, err := svc.UpdateStatus(ctx, orderID, orders.StatusChange{
			Status: enums.OrderStatus(strings.ToUpper(strings.TrimSpace(body.Status))),
			Source: orders.SourceAdmin,
			Actor: &outbox.ActorRef{
				UserID: actorID,
				Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
			},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminListCustomers searches customers by name or email.
func AdminListCustomers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("user service"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListCustomers(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
