package order

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentKlarna PaymentMethod = "klarna"
	PaymentSwish  PaymentMethod = "swish"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPaypal, PaymentKlarna, PaymentSwish:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

const (
	Currency              = "SEK"
	DefaultCountry        = "Sweden"
	DefaultShippingMethod = "standard"
)

type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Owner is either an AccountOwner or a GuestOwner.
type Owner interface {
	isOwner()
}

// AccountOwner is an order placed by a signed-in user. The name and email
// are read from the user store when the order is loaded.
type AccountOwner struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Email     string
}

type GuestOwner struct {
	Contact Contact
}

func (AccountOwner) isOwner() {}
func (GuestOwner) isOwner()   {}

type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// Value stores the address as JSONB.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = Address{}
		return nil
	default:
		return errors.New("order: unsupported address column type")
	}
}

// Line is an order line. Name, price and image are copied from the product
// when the order is placed and never re-read.
type Line struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Image     string
	Reserved  bool
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Pricing struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

type Payment struct {
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PaidAt        *time.Time
}

type Shipping struct {
	Method            string
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

type HistoryEntry struct {
	Status    Status
	Timestamp time.Time
	Note      string
}

type Notes struct {
	Customer string
	Admin    string
}

type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	Owner           Owner
	Items           []Line
	Pricing         Pricing
	ShippingAddress Address
	BillingAddress  Address
	Payment         Payment
	Status          Status
	Shipping        Shipping
	StatusHistory   []HistoryEntry
	Notes           Notes
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) IsGuest() bool {
	_, ok := o.Owner.(GuestOwner)
	return ok
}

// AccountID returns the owning user, if the order has one.
func (o *Order) AccountID() (uuid.UUID, bool) {
	if a, ok := o.Owner.(AccountOwner); ok {
		return a.UserID, true
	}
	return uuid.Nil, false
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

func (o *Order) CanBeRefunded() bool {
	return (o.Status == StatusShipped || o.Status == StatusDelivered) && o.Payment.Status == PaymentPaid
}

func (o *Order) FormattedTotal() string {
	return o.Pricing.Total.StringFixed(2) + " " + Currency
}

type LineItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type PaymentInput struct {
	Method PaymentMethod `json:"method"`
}

type NotesInput struct {
	Customer string `json:"customer"`
}

// PlaceInput is a checkout request. The contact fields are only read for
// guest checkouts.
type PlaceInput struct {
	Items           []LineItem   `json:"items"`
	ShippingAddress Address      `json:"shippingAddress"`
	BillingAddress  *Address     `json:"billingAddress"`
	Payment         PaymentInput `json:"payment"`
	ShippingMethod  string       `json:"shippingMethod"`
	Notes           NotesInput   `json:"notes"`
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
}

type StatusInput struct {
	Status         Status  `json:"status"`
	Note           string  `json:"note"`
	TrackingNumber *string `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
	AdminNote      *string `json:"adminNote"`
}

type PaymentUpdateInput struct {
	Status        PaymentStatus `json:"status"`
	TransactionID *string       `json:"transactionId"`
	PaidAt        *time.Time    `json:"paidAt"`
}

type ListFilter struct {
	UserID        *uuid.UUID
	Status        *Status
	PaymentStatus *PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

// StatusChange is a validated transition handed to the repository.
type StatusChange struct {
	From           Status
	To             Status
	Note           string
	At             time.Time
	TrackingNumber *string
	Carrier        *string
	AdminNote      *string
}
