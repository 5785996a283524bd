package order

import (
	"fmt"

	"webstore-be/internal/apperror"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound            = apperror.New(apperror.ErrNotFound, "Order not found")
	ErrAccessDenied             = apperror.New(apperror.ErrForbidden, "Access denied")
	ErrCannotCancel             = apperror.New(apperror.ErrValidation, "Order cannot be cancelled")
	ErrCannotRefund             = apperror.New(apperror.ErrValidation, "Order cannot be refunded")
	ErrInvalidTransition        = apperror.New(apperror.ErrValidation, "Invalid order status transition")
	ErrInvalidPaymentTransition = apperror.New(apperror.ErrValidation, "Invalid payment status transition")
	ErrConcurrentUpdate         = apperror.New(apperror.ErrConflict, "Order was modified by another request, please retry")
	ErrTimeout                  = apperror.New(apperror.ErrUnavailable, "Order placement timed out, please retry")
)

// ProductNotFoundError names a requested product that is missing or not
// for sale.
type ProductNotFoundError struct {
	ID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product %s not found", e.ID)
}

func (e *ProductNotFoundError) Unwrap() error { return apperror.ErrNotFound }

type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return apperror.ErrConflict }
