package order

import (
	"fmt"
	"net/mail"
	"strings"

	"webstore-be/internal/apperror"

	"github.com/google/uuid"
)

const (
	maxCustomerNote = 500
	maxAdminNote    = 1000
	maxHistoryNote  = 200

	// MaxItemQuantity caps the units of one product in a single order.
	MaxItemQuantity = 9999
)

type requestedLine struct {
	ProductID uuid.UUID
	Quantity  int
}

func validateAddress(v *apperror.ValidationError, prefix string, a Address) {
	if strings.TrimSpace(a.Street) == "" {
		v.Add(prefix+".street", "Street address is required")
	}
	if strings.TrimSpace(a.City) == "" {
		v.Add(prefix+".city", "City is required")
	}
	if strings.TrimSpace(a.ZipCode) == "" {
		v.Add(prefix+".zipCode", "ZIP code is required")
	}
	if strings.TrimSpace(a.Country) == "" {
		v.Add(prefix+".country", "Country is required")
	}
}

// validatePlaceInput checks everything that can be checked without the
// catalog and reports every offending field.
func validatePlaceInput(in PlaceInput, guest bool) ([]requestedLine, error) {
	v := &apperror.ValidationError{}

	if len(in.Items) == 0 {
		v.Add("items", "At least one item is required")
	}
	lines := make([]requestedLine, 0, len(in.Items))
	seen := make(map[uuid.UUID]int, len(in.Items))
	for i, item := range in.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			v.Add(fmt.Sprintf("items[%d].product", i), "Valid product ID is required")
		}
		switch {
		case item.Quantity < 1:
			v.Add(fmt.Sprintf("items[%d].quantity", i), "Quantity must be at least 1")
		case item.Quantity > MaxItemQuantity:
			v.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("Quantity cannot exceed %d", MaxItemQuantity))
		}
		if v.HasErrors() {
			continue
		}

		// Repeated products collapse into the first line so stock is
		// checked against the combined demand.
		if at, ok := seen[id]; ok {
			lines[at].Quantity += item.Quantity
			if lines[at].Quantity > MaxItemQuantity {
				v.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("Quantity cannot exceed %d", MaxItemQuantity))
			}
			continue
		}
		seen[id] = len(lines)
		lines = append(lines, requestedLine{ProductID: id, Quantity: item.Quantity})
	}

	validateAddress(v, "shippingAddress", in.ShippingAddress)
	if in.BillingAddress != nil {
		validateAddress(v, "billingAddress", *in.BillingAddress)
	}

	if !in.Payment.Method.Valid() {
		v.Add("payment.method", "Valid payment method is required")
	}
	if len(in.Notes.Customer) > maxCustomerNote {
		v.Add("notes.customer", fmt.Sprintf("Customer note cannot exceed %d characters", maxCustomerNote))
	}

	if guest {
		if strings.TrimSpace(in.FirstName) == "" {
			v.Add("firstName", "First name is required")
		}
		if strings.TrimSpace(in.LastName) == "" {
			v.Add("lastName", "Last name is required")
		}
		switch email := strings.TrimSpace(in.Email); {
		case email == "":
			v.Add("email", "Email is required")
		case !validEmail(email):
			v.Add("email", "Valid email is required")
		}
		if strings.TrimSpace(in.Phone) == "" {
			v.Add("phone", "Phone is required")
		}
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return lines, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validateStatusInput(in StatusInput) error {
	v := &apperror.ValidationError{}
	if !in.Status.Valid() {
		v.Add("status", "Valid status is required")
	}
	if len(in.Note) > maxHistoryNote {
		v.Add("note", fmt.Sprintf("Note cannot exceed %d characters", maxHistoryNote))
	}
	if in.AdminNote != nil && len(*in.AdminNote) > maxAdminNote {
		v.Add("adminNote", fmt.Sprintf("Admin note cannot exceed %d characters", maxAdminNote))
	}
	return v.OrNil()
}

func validatePaymentInput(in PaymentUpdateInput) error {
	if !in.Status.Valid() {
		return apperror.NewValidation("status", "Valid payment status is required")
	}
	return nil
}
