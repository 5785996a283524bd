package order

// Orders move forward along the fulfilment path and may skip steps; they
// never move back. Cancel and refund are the only side exits.
var orderTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPending, PaymentPaid},
	PaymentPaid:    {PaymentRefunded},
}

// CanTransition reports whether an order may move from one status to another.
// Cancelled and refunded are terminal.
func CanTransition(from, to Status) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// checkTransition applies the table plus the refund rule, which also needs
// the payment to have been captured.
func checkTransition(o *Order, to Status) error {
	if to == StatusCancelled && !o.CanBeCancelled() {
		return ErrCannotCancel
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	if to == StatusRefunded && !o.CanBeRefunded() {
		return ErrCannotRefund
	}
	return nil
}
