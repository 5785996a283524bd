package transport

import (
	"net/http"
	"testing"
	"time"

	"webstore-be/internal/order"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const checkoutBody = `{
	"items":[{"product":"8f14e45f-ceea-467a-9af0-5f1e5bb7e3a1","quantity":2}],
	"shippingAddress":{"street":"Drottninggatan 1","city":"Stockholm","zipCode":"11151"},
	"payment":{"method":"swish"},
	"firstName":"Anna","lastName":"Svensson","email":"anna@example.se","phone":"0701234567"
}`

func sampleOrder() *order.Order {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &order.Order{
		ID:          uuid.New(),
		OrderNumber: "WS-00000042",
		Owner: order.GuestOwner{Contact: order.Contact{
			FirstName: "Anna", LastName: "Svensson", Email: "anna@example.se", Phone: "0701234567",
		}},
		Items: []order.Line{{
			ProductID: uuid.MustParse("8f14e45f-ceea-467a-9af0-5f1e5bb7e3a1"),
			Name:      "Linen shirt",
			UnitPrice: decimal.NewFromInt(300),
			Quantity:  2,
		}},
		Pricing: order.Pricing{
			Subtotal: decimal.NewFromInt(600),
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.NewFromInt(600),
		},
		Payment:   order.Payment{Method: order.PaymentSwish, Status: order.PaymentPending},
		Status:    order.StatusPending,
		Notes:     order.Notes{Admin: "fragile"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestCreateOrder(t *testing.T) {
	t.Run("Guest checkout", func(t *testing.T) {
		env := newTestEnv(t)
		o := sampleOrder()
		env.orders.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(in order.PlaceInput) bool {
			return len(in.Items) == 1 && in.Items[0].Quantity == 2 && in.Payment.Method == order.PaymentSwish &&
				in.Email == "anna@example.se" && in.ShippingAddress.City == "Stockholm"
		})).Return(o, nil)

		rec := env.do(http.MethodPost, "/api/orders", checkoutBody, "")

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.True(t, body.Success)
		assert.Equal(t, "Order created successfully", body.Message)
		got := body.Data["order"].(map[string]interface{})
		assert.Equal(t, "WS-00000042", got["orderNumber"])
		assert.Equal(t, "600.00 SEK", got["formattedTotal"])
		notes := got["notes"].(map[string]interface{})
		assert.Empty(t, notes["admin"])
		env.assertExpectations(t)
	})

	t.Run("Insufficient stock is a field error", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil,
			&order.InsufficientStockError{Name: "Linen shirt", Requested: 5, Available: 2})

		rec := env.do(http.MethodPost, "/api/orders", checkoutBody, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Insufficient stock for Linen shirt: requested 5, available 2", body.Message)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "items", body.Errors[0].Field)
	})

	t.Run("Missing product is a field error", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, &order.ProductNotFoundError{ID: id})

		rec := env.do(http.MethodPost, "/api/orders", checkoutBody, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Product "+id.String()+" not found", decode(t, rec).Message)
	})

	t.Run("Timeout", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, order.ErrTimeout)

		rec := env.do(http.MethodPost, "/api/orders", checkoutBody, "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("Store failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, errBoom)

		rec := env.do(http.MethodPost, "/api/orders", checkoutBody, "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Server error", body.Message)
		assert.Empty(t, body.Error)
	})
}

func TestListMyOrders(t *testing.T) {
	t.Run("Requires auth", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodGet, "/api/orders", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Paginates", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleUser)
		env.orders.On("ListMine", mock.Anything, utils.Page{Page: 2, Limit: 5}).
			Return([]*order.Order{sampleOrder()}, int64(11), nil)

		rec := env.do(http.MethodGet, "/api/orders?page=2&limit=5", "", tok)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Len(t, body.Data["orders"], 1)
		pg := body.Data["pagination"].(map[string]interface{})
		assert.EqualValues(t, 2, pg["current"])
		assert.EqualValues(t, 3, pg["pages"])
		assert.EqualValues(t, 11, pg["total"])
		assert.EqualValues(t, 5, pg["limit"])
		env.assertExpectations(t)
	})
}

func TestListAllOrders(t *testing.T) {
	t.Run("Admin only", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleUser)
		rec := env.do(http.MethodGet, "/api/orders/admin/all", "", tok)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Filters", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleAdmin)
		env.orders.On("ListAll", mock.Anything, mock.MatchedBy(func(f order.ListFilter) bool {
			return f.Status != nil && *f.Status == order.StatusShipped &&
				f.PaymentStatus != nil && *f.PaymentStatus == order.PaymentPaid &&
				f.DateFrom != nil && f.DateFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.DateTo != nil && f.DateTo.Day() == 31 && f.DateTo.Hour() == 23 &&
				f.Limit == order.DefaultAdminLimit && f.Offset == 0
		})).Return([]*order.Order{sampleOrder()}, int64(1), nil)

		rec := env.do(http.MethodGet,
			"/api/orders/admin/all?status=shipped&paymentStatus=paid&dateFrom=2026-03-01&dateTo=2026-03-31", "", tok)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decode(t, rec).Data["orders"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "fragile", got["notes"].(map[string]interface{})["admin"])
		env.assertExpectations(t)
	})

	t.Run("Bad date", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleAdmin)

		rec := env.do(http.MethodGet, "/api/orders/admin/all?dateFrom=yesterday", "", tok)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "dateFrom", body.Errors[0].Field)
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("Guest by number and email", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("GetOrder", mock.Anything, "WS-00000042", "anna@example.se").Return(sampleOrder(), nil)

		rec := env.do(http.MethodGet, "/api/orders/WS-00000042?email=anna@example.se", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		env.assertExpectations(t)
	})

	t.Run("Access denied", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("GetOrder", mock.Anything, "WS-00000042", "").Return(nil, order.ErrAccessDenied)

		rec := env.do(http.MethodGet, "/api/orders/WS-00000042", "", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Access denied", decode(t, rec).Message)
	})

	t.Run("Not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("GetOrder", mock.Anything, "WS-99999999", "").Return(nil, order.ErrOrderNotFound)

		rec := env.do(http.MethodGet, "/api/orders/WS-99999999", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("Admin ships order", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleAdmin)
		o := sampleOrder()
		o.Status = order.StatusShipped
		env.orders.On("UpdateStatus", mock.Anything, o.ID.String(), mock.MatchedBy(func(in order.StatusInput) bool {
			return in.Status == order.StatusShipped && in.TrackingNumber != nil && *in.TrackingNumber == "PN123"
		})).Return(o, nil)

		rec := env.do(http.MethodPut, "/api/orders/"+o.ID.String()+"/status",
			`{"status":"shipped","trackingNumber":"PN123"}`, tok)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Order status updated successfully", decode(t, rec).Message)
		env.assertExpectations(t)
	})

	t.Run("Invalid transition", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleAdmin)
		env.orders.On("UpdateStatus", mock.Anything, "WS-00000042", mock.Anything).Return(nil, order.ErrInvalidTransition)

		rec := env.do(http.MethodPut, "/api/orders/WS-00000042/status", `{"status":"shipped"}`, tok)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid order status transition", decode(t, rec).Message)
	})

	t.Run("Customer forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		tok, _ := env.token(t, utils.RoleUser)

		rec := env.do(http.MethodPut, "/api/orders/WS-00000042/status", `{"status":"shipped"}`, tok)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUpdateOrderPayment(t *testing.T) {
	env := newTestEnv(t)
	tok, _ := env.token(t, utils.RoleAdmin)
	o := sampleOrder()
	o.Payment.Status = order.PaymentPaid
	env.orders.On("UpdatePayment", mock.Anything, "WS-00000042", mock.MatchedBy(func(in order.PaymentUpdateInput) bool {
		return in.Status == order.PaymentPaid && in.TransactionID != nil && *in.TransactionID == "tx-1"
	})).Return(o, nil)

	rec := env.do(http.MethodPut, "/api/orders/WS-00000042/payment", `{"status":"paid","transactionId":"tx-1"}`, tok)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment status updated successfully", decode(t, rec).Message)
	env.assertExpectations(t)
}

func TestCancelOrder(t *testing.T) {
	t.Run("Guest cancels", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("Cancel", mock.Anything, "WS-00000042", "anna@example.se").Return(nil)

		rec := env.do(http.MethodDelete, "/api/orders/WS-00000042?email=anna@example.se", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Order cancelled successfully", decode(t, rec).Message)
		env.assertExpectations(t)
	})

	t.Run("Too late", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("Cancel", mock.Anything, "WS-00000042", "").Return(order.ErrCannotCancel)

		rec := env.do(http.MethodDelete, "/api/orders/WS-00000042", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Order cannot be cancelled", decode(t, rec).Message)
	})
}
