package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"webstore-be/internal/apperror"
	"webstore-be/internal/auth"
	"webstore-be/internal/logger"
	"webstore-be/internal/metrics"
	"webstore-be/internal/product"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultListLimit   = 10
	DefaultAdminLimit  = 20
	customerCancelNote = "Order cancelled by customer"
)

type Service interface {
	PlaceOrder(ctx context.Context, input PlaceInput) (*Order, error)
	GetOrder(ctx context.Context, ref string, email string) (*Order, error)
	ListMine(ctx context.Context, page utils.Page) ([]*Order, int64, error)
	ListAll(ctx context.Context, f ListFilter) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, ref string, input StatusInput) (*Order, error)
	UpdatePayment(ctx context.Context, ref string, input PaymentUpdateInput) (*Order, error)
	Cancel(ctx context.Context, ref string, email string) error
}

type service struct {
	repo    Repository
	catalog product.Catalog
	metrics *metrics.AppMetrics
	timeout time.Duration
	now     func() time.Time
}

func NewService(repo Repository, catalog product.Catalog, m *metrics.AppMetrics, timeout time.Duration) Service {
	if m == nil {
		m = metrics.Noop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
	}
}

func rejectReason(err error) string {
	var (
		notFound *ProductNotFoundError
		stock    *InsufficientStockError
	)
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return "validation"
	case errors.As(err, &notFound):
		return "product_not_found"
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

// PlaceOrder validates the checkout, prices it from the catalog and saves it.
// The whole placement runs under the configured timeout.
func (s *service) PlaceOrder(ctx context.Context, input PlaceInput) (*Order, error) {
	caller, authenticated := auth.CallerFromContext(ctx)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Bool("guest", !authenticated),
		zap.Int("items", len(input.Items)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, err := s.placeOrder(ctx, caller, input)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		s.metrics.RecordOrderRejected(ctx, rejectReason(err))
		log.Warn("order rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordOrderCreated(ctx, string(o.Payment.Method), o.IsGuest(), o.Pricing.Total.InexactFloat64())
	log.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Pricing.Total.StringFixed(2)),
	)
	return o, nil
}

func (s *service) placeOrder(ctx context.Context, caller *auth.Caller, input PlaceInput) (*Order, error) {
	requested, err := validatePlaceInput(input, caller == nil)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(requested))
	for _, req := range requested {
		p, err := s.catalog.FindProduct(ctx, req.ProductID)
		if errors.Is(err, product.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ID: req.ProductID}
		}
		if err != nil {
			return nil, err
		}
		if !p.IsActive() {
			return nil, &ProductNotFoundError{ID: req.ProductID}
		}
		if p.Inventory.TrackQuantity && p.Inventory.Quantity < req.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: req.Quantity,
				Available: p.Inventory.Quantity,
			}
		}

		image := p.PrimaryImage()
		if image == "" {
			image = product.PlaceholderImage
		}
		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  req.Quantity,
			Image:     image,
			Reserved:  p.Inventory.TrackQuantity,
		})
	}

	shipping := normalizeAddress(input.ShippingAddress)
	billing := shipping
	if input.BillingAddress != nil {
		billing = normalizeAddress(*input.BillingAddress)
	}

	method := strings.TrimSpace(input.ShippingMethod)
	if method == "" {
		method = DefaultShippingMethod
	}

	o := &Order{
		Items:           lines,
		Pricing:         ComputePricing(lines),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Payment:         Payment{Method: input.Payment.Method, Status: PaymentPending},
		Status:          StatusPending,
		Shipping:        Shipping{Method: method},
		StatusHistory:   []HistoryEntry{},
		Notes:           Notes{Customer: strings.TrimSpace(input.Notes.Customer)},
	}

	if caller != nil {
		o.Owner = AccountOwner{UserID: caller.UserID, Email: caller.Email}
	} else {
		o.Owner = GuestOwner{Contact: Contact{
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Email:     utils.NormalizeEmail(input.Email),
			Phone:     strings.TrimSpace(input.Phone),
		}}
	}

	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		return nil, err
	}

	populated, err := s.repo.FindByID(ctx, saved.ID)
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to reload saved order", zap.String("order_id", saved.ID.String()), zap.Error(err))
		return saved, nil
	}
	return populated, nil
}

func normalizeAddress(a Address) Address {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

// find resolves ref as an order UUID or an order number.
func (s *service) find(ctx context.Context, ref string) (*Order, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.repo.FindByID(ctx, id)
	}
	if number := strings.ToUpper(ref); utils.IsOrderNumber(number) {
		return s.repo.FindByNumber(ctx, number)
	}
	return nil, ErrOrderNotFound
}

// authorize lets admins through, requires account orders to belong to the
// caller, and requires guest orders to match the given or caller email.
func authorize(ctx context.Context, o *Order, email string) error {
	caller, ok := auth.CallerFromContext(ctx)
	if ok && caller.IsAdmin() {
		return nil
	}

	switch owner := o.Owner.(type) {
	case AccountOwner:
		if ok && caller.UserID == owner.UserID {
			return nil
		}
	case GuestOwner:
		if email == "" && ok {
			email = caller.Email
		}
		if email != "" && utils.NormalizeEmail(email) == utils.NormalizeEmail(owner.Contact.Email) {
			return nil
		}
	}
	return ErrAccessDenied
}

func (s *service) GetOrder(ctx context.Context, ref string, email string) (*Order, error) {
	o, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, o, email); err != nil {
		logger.FromCtx(ctx).Warn("order access denied", zap.String("order_id", o.ID.String()))
		return nil, err
	}
	return o, nil
}

func (s *service) ListMine(ctx context.Context, page utils.Page) ([]*Order, int64, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, 0, apperror.New(apperror.ErrUnauthorized, "authentication required")
	}
	return s.repo.List(ctx, ListFilter{
		UserID: &userID,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
}

func (s *service) ListAll(ctx context.Context, f ListFilter) ([]*Order, int64, error) {
	v := &apperror.ValidationError{}
	if f.Status != nil && !f.Status.Valid() {
		v.Add("status", "Invalid order status")
	}
	if f.PaymentStatus != nil && !f.PaymentStatus.Valid() {
		v.Add("paymentStatus", "Invalid payment status")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		v.Add("dateTo", "dateTo must not be before dateFrom")
	}
	if err := v.OrNil(); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = DefaultAdminLimit
	}
	return s.repo.List(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, ref string, input StatusInput) (*Order, error) {
	if err := validateStatusInput(input); err != nil {
		return nil, err
	}

	o, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(o.Status)),
		zap.String("to", string(input.Status)),
	)

	if err := checkTransition(o, input.Status); err != nil {
		log.Warn("status transition rejected", zap.Error(err))
		return nil, err
	}

	note := strings.TrimSpace(input.Note)
	if input.Status == StatusCancelled {
		if note == "" {
			note = "Order cancelled by admin"
		}
		if err := s.repo.Cancel(ctx, o.ID, note, s.now()); err != nil {
			return nil, err
		}
		s.metrics.RecordOrderCancelled(ctx)
	} else {
		err := s.repo.UpdateStatus(ctx, o.ID, StatusChange{
			From:           o.Status,
			To:             input.Status,
			Note:           note,
			At:             s.now(),
			TrackingNumber: input.TrackingNumber,
			Carrier:        input.Carrier,
			AdminNote:      input.AdminNote,
		})
		if err != nil {
			log.Error("failed to update status", zap.Error(err))
			return nil, err
		}
	}

	log.Info("order status updated")
	return s.repo.FindByID(ctx, o.ID)
}

func (s *service) UpdatePayment(ctx context.Context, ref string, input PaymentUpdateInput) (*Order, error) {
	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}

	o, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdatePayment"),
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(o.Payment.Status)),
		zap.String("to", string(input.Status)),
	)

	if !CanTransitionPayment(o.Payment.Status, input.Status) {
		log.Warn("payment transition rejected")
		return nil, ErrInvalidPaymentTransition
	}

	if input.Status == PaymentPaid && input.PaidAt == nil {
		now := s.now()
		input.PaidAt = &now
	}
	if input.TransactionID != nil {
		trimmed := strings.TrimSpace(*input.TransactionID)
		input.TransactionID = &trimmed
	}

	if err := s.repo.UpdatePayment(ctx, o.ID, o.Payment.Status, input); err != nil {
		log.Error("failed to update payment", zap.Error(err))
		return nil, err
	}

	log.Info("payment status updated")
	return s.repo.FindByID(ctx, o.ID)
}

func (s *service) Cancel(ctx context.Context, ref string, email string) error {
	o, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := authorize(ctx, o, email); err != nil {
		return err
	}
	if !o.CanBeCancelled() {
		return ErrCannotCancel
	}

	if err := s.repo.Cancel(ctx, o.ID, customerCancelNote, s.now()); err != nil {
		logger.FromCtx(ctx).Warn("cancel failed", zap.String("order_id", o.ID.String()), zap.Error(err))
		return err
	}

	s.metrics.RecordOrderCancelled(ctx)
	return nil
}
