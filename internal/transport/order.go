package transport

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"webstore-be/internal/apperror"
	"webstore-be/internal/auth"
	"webstore-be/internal/order"
	"webstore-be/internal/utils"

	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

type orderListResponse struct {
	Orders     []*order.OrderResponse `json:"orders"`
	Pagination Pagination             `json:"pagination"`
}

func isAdmin(r *http.Request) bool {
	caller, ok := auth.CallerFromContext(r.Context())
	return ok && caller.IsAdmin()
}

func orderData(o *order.Order, admin bool) map[string]interface{} {
	return map[string]interface{}{"order": order.ToResponse(o, admin)}
}

// placeOrderError reports catalog problems as a client error on the items
// field instead of 404/409.
func (h *Handler) placeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *order.ProductNotFoundError
	var stock *order.InsufficientStockError
	switch {
	case errors.As(err, &notFound), errors.As(err, &stock):
		writeJSON(w, http.StatusBadRequest, Envelope{
			Message: err.Error(),
			Errors:  []apperror.FieldError{{Field: "items", Message: err.Error()}},
		})
	default:
		h.writeError(w, r, err)
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in order.PlaceInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), in)
	if err != nil {
		h.placeOrderError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Order created successfully", orderData(o, isAdmin(r)))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := utils.ParsePage(q.Get("page"), q.Get("limit"), order.DefaultListLimit)

	orders, total, err := h.orders.ListMine(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", orderListResponse{
		Orders:     order.ToResponses(orders, false),
		Pagination: newPagination(page, total),
	})
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := utils.ParsePage(q.Get("page"), q.Get("limit"), order.DefaultAdminLimit)

	f, err := parseOrderFilter(q.Get("status"), q.Get("paymentStatus"), q.Get("dateFrom"), q.Get("dateTo"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f.Limit = page.Limit
	f.Offset = page.Offset()

	orders, total, err := h.orders.ListAll(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", orderListResponse{
		Orders:     order.ToResponses(orders, true),
		Pagination: newPagination(page, total),
	})
}

func parseOrderFilter(status, paymentStatus, dateFrom, dateTo string) (order.ListFilter, error) {
	var f order.ListFilter
	v := &apperror.ValidationError{}

	if status != "" {
		s := order.Status(strings.ToLower(status))
		f.Status = &s
	}
	if paymentStatus != "" {
		ps := order.PaymentStatus(strings.ToLower(paymentStatus))
		f.PaymentStatus = &ps
	}
	if dateFrom != "" {
		t, _, err := parseDate(dateFrom)
		if err != nil {
			v.Add("dateFrom", "Invalid date")
		} else {
			f.DateFrom = &t
		}
	}
	if dateTo != "" {
		t, dateOnly, err := parseDate(dateTo)
		if err != nil {
			v.Add("dateTo", "Invalid date")
		} else {
			// a bare date includes the whole day
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			f.DateTo = &t
		}
	}
	return f, v.OrNil()
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, s)
	return t, true, err
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["id"]
	o, err := h.orders.GetOrder(r.Context(), ref, r.URL.Query().Get("email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", orderData(o, isAdmin(r)))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in order.StatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Order status updated successfully", orderData(o, true))
}

func (h *Handler) updateOrderPayment(w http.ResponseWriter, r *http.Request) {
	var in order.PaymentUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdatePayment(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Payment status updated successfully", orderData(o, true))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Cancel(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("email")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Order cancelled successfully")
}
