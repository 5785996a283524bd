package order

import (
	"testing"

	"webstore-be/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
		StatusConfirmed:  {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusDelivered},
		StatusShipped:    {StatusDelivered, StatusRefunded},
		StatusDelivered:  {StatusRefunded},
	}
	all := []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentPaid))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentPending))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentPaid))
	assert.True(t, CanTransitionPayment(PaymentPaid, PaymentRefunded))

	assert.False(t, CanTransitionPayment(PaymentPending, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentPending))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentPaid))
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentPaid))
}

func TestCheckTransition(t *testing.T) {
	t.Run("Cancel outside pending and confirmed", func(t *testing.T) {
		err := checkTransition(&Order{Status: StatusShipped}, StatusCancelled)
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("Refund needs a paid order", func(t *testing.T) {
		o := &Order{Status: StatusDelivered, Payment: Payment{Status: PaymentPending}}
		assert.ErrorIs(t, checkTransition(o, StatusRefunded), ErrCannotRefund)

		o.Payment.Status = PaymentPaid
		assert.NoError(t, checkTransition(o, StatusRefunded))
	})

	t.Run("Forward skips are allowed", func(t *testing.T) {
		assert.NoError(t, checkTransition(&Order{Status: StatusPending}, StatusProcessing))
		assert.NoError(t, checkTransition(&Order{Status: StatusPending}, StatusShipped))
		assert.NoError(t, checkTransition(&Order{Status: StatusConfirmed}, StatusDelivered))
	})

	t.Run("Moving backwards", func(t *testing.T) {
		err := checkTransition(&Order{Status: StatusShipped}, StatusProcessing)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.True(t, apperror.Is(err, apperror.ErrValidation))
	})

	t.Run("Refund before shipping", func(t *testing.T) {
		o := &Order{Status: StatusProcessing, Payment: Payment{Status: PaymentPaid}}
		assert.Error(t, checkTransition(o, StatusRefunded))
	})

	t.Run("Terminal", func(t *testing.T) {
		assert.Error(t, checkTransition(&Order{Status: StatusCancelled}, StatusPending))
		assert.Error(t, checkTransition(&Order{Status: StatusRefunded}, StatusDelivered))
	})
}
