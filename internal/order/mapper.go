package order

import "time"

type OwnerResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

type LineResponse struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Total    float64 `json:"total"`
}

type PricingResponse struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type PaymentResponse struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type ShippingResponse struct {
	Method            string     `json:"method"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	Carrier           string     `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

type HistoryResponse struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type NotesResponse struct {
	Customer string `json:"customer,omitempty"`
	Admin    string `json:"admin,omitempty"`
}

type OrderResponse struct {
	ID              string            `json:"id"`
	OrderNumber     string            `json:"orderNumber"`
	User            *OwnerResponse    `json:"user"`
	GuestInfo       *Contact          `json:"guestInfo,omitempty"`
	Items           []LineResponse    `json:"items"`
	Pricing         PricingResponse   `json:"pricing"`
	FormattedTotal  string            `json:"formattedTotal"`
	ShippingAddress Address           `json:"shippingAddress"`
	BillingAddress  Address           `json:"billingAddress"`
	Payment         PaymentResponse   `json:"payment"`
	Status          Status            `json:"status"`
	Shipping        ShippingResponse  `json:"shipping"`
	Notes           NotesResponse     `json:"notes"`
	StatusHistory   []HistoryResponse `json:"statusHistory"`
	CreatedAt       string            `json:"createdAt"`
	UpdatedAt       string            `json:"updatedAt"`
}

// ToResponse maps an order for clients. Admin notes are only included when
// includeAdmin is set.
func ToResponse(o *Order, includeAdmin bool) *OrderResponse {
	resp := &OrderResponse{
		ID:          o.ID.String(),
		OrderNumber: o.OrderNumber,
		Items:       make([]LineResponse, 0, len(o.Items)),
		Pricing: PricingResponse{
			Subtotal: o.Pricing.Subtotal.InexactFloat64(),
			Shipping: o.Pricing.Shipping.InexactFloat64(),
			Tax:      o.Pricing.Tax.InexactFloat64(),
			Total:    o.Pricing.Total.InexactFloat64(),
		},
		FormattedTotal:  o.FormattedTotal(),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Payment: PaymentResponse{
			Method:        o.Payment.Method,
			Status:        o.Payment.Status,
			TransactionID: o.Payment.TransactionID,
			PaidAt:        o.Payment.PaidAt,
		},
		Status: o.Status,
		Shipping: ShippingResponse{
			Method:            o.Shipping.Method,
			TrackingNumber:    o.Shipping.TrackingNumber,
			Carrier:           o.Shipping.Carrier,
			EstimatedDelivery: o.Shipping.EstimatedDelivery,
			ShippedAt:         o.Shipping.ShippedAt,
			DeliveredAt:       o.Shipping.DeliveredAt,
		},
		Notes:         NotesResponse{Customer: o.Notes.Customer},
		StatusHistory: make([]HistoryResponse, 0, len(o.StatusHistory)),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     o.UpdatedAt.Format(time.RFC3339),
	}

	switch owner := o.Owner.(type) {
	case AccountOwner:
		resp.User = &OwnerResponse{
			ID:        owner.UserID.String(),
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Email:     owner.Email,
		}
	case GuestOwner:
		contact := owner.Contact
		resp.GuestInfo = &contact
	}

	for _, l := range o.Items {
		resp.Items = append(resp.Items, LineResponse{
			Product:  l.ProductID.String(),
			Name:     l.Name,
			Price:    l.UnitPrice.InexactFloat64(),
			Quantity: l.Quantity,
			Image:    l.Image,
			Total:    l.Total().InexactFloat64(),
		})
	}
	for _, h := range o.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, HistoryResponse(h))
	}
	if includeAdmin {
		resp.Notes.Admin = o.Notes.Admin
	}
	return resp
}

func ToResponses(orders []*Order, includeAdmin bool) []*OrderResponse {
	out := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToResponse(o, includeAdmin))
	}
	return out
}
