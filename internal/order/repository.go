package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"webstore-be/internal/logger"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// NextOrderSequence draws a number outside any transaction. Save draws
	// its own inside the placement transaction and does not use this.
	NextOrderSequence(ctx context.Context) (int64, error)
	Save(ctx context.Context, o *Order) (*Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) error
	UpdatePayment(ctx context.Context, id uuid.UUID, from PaymentStatus, p PaymentUpdateInput) error
	Cancel(ctx context.Context, id uuid.UUID, note string, at time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func nextSequence(ctx context.Context, q rowQueryer) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq)
	return seq, err
}

func (r *repository) NextOrderSequence(ctx context.Context) (int64, error) {
	return nextSequence(ctx, r.db)
}

const orderColumns = `
	o.id, o.order_number, o.user_id,
	o.guest_first_name, o.guest_last_name, o.guest_email, o.guest_phone,
	o.subtotal, o.shipping_cost, o.tax, o.total,
	o.shipping_address, o.billing_address,
	o.payment_method, o.payment_status, o.payment_transaction_id, o.paid_at,
	o.status, o.shipping_method, o.tracking_number, o.carrier,
	o.estimated_delivery, o.shipped_at, o.delivered_at,
	o.notes_customer, o.notes_admin, o.created_at, o.updated_at,
	COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, '')`

const orderFrom = ` FROM orders o LEFT JOIN users u ON u.id = o.user_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s rowScanner) (*Order, error) {
	var (
		o                    Order
		userID               uuid.NullUUID
		guest                Contact
		first, last, email   string
		paidAt, estimated    sql.NullTime
		shippedAt, delivered sql.NullTime
	)

	err := s.Scan(
		&o.ID, &o.OrderNumber, &userID,
		&guest.FirstName, &guest.LastName, &guest.Email, &guest.Phone,
		&o.Pricing.Subtotal, &o.Pricing.Shipping, &o.Pricing.Tax, &o.Pricing.Total,
		&o.ShippingAddress, &o.BillingAddress,
		&o.Payment.Method, &o.Payment.Status, &o.Payment.TransactionID, &paidAt,
		&o.Status, &o.Shipping.Method, &o.Shipping.TrackingNumber, &o.Shipping.Carrier,
		&estimated, &shippedAt, &delivered,
		&o.Notes.Customer, &o.Notes.Admin, &o.CreatedAt, &o.UpdatedAt,
		&first, &last, &email,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		o.Owner = AccountOwner{UserID: userID.UUID, FirstName: first, LastName: last, Email: email}
	} else {
		o.Owner = GuestOwner{Contact: guest}
	}
	o.Payment.PaidAt = timePtr(paidAt)
	o.Shipping.EstimatedDelivery = timePtr(estimated)
	o.Shipping.ShippedAt = timePtr(shippedAt)
	o.Shipping.DeliveredAt = timePtr(delivered)
	return &o, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Save assigns the order number, inserts the order with its lines and
// reserves stock for tracked lines, all in one transaction.
func (r *repository) Save(ctx context.Context, o *Order) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Save"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	seq, err := nextSequence(ctx, tx)
	if err != nil {
		log.Error("failed to draw order number", zap.Error(err))
		return nil, err
	}
	o.OrderNumber = utils.FormatOrderNumber(seq)

	var (
		userID *uuid.UUID
		guest  Contact
	)
	switch owner := o.Owner.(type) {
	case AccountOwner:
		id := owner.UserID
		userID = &id
	case GuestOwner:
		guest = owner.Contact
	default:
		return nil, fmt.Errorf("order: unknown owner type %T", o.Owner)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, user_id,
			guest_first_name, guest_last_name, guest_email, guest_phone,
			subtotal, shipping_cost, tax, total,
			shipping_address, billing_address,
			payment_method, payment_status, status, shipping_method, notes_customer
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at, updated_at
	`,
		o.OrderNumber, userID,
		guest.FirstName, guest.LastName, guest.Email, guest.Phone,
		o.Pricing.Subtotal, o.Pricing.Shipping, o.Pricing.Tax, o.Pricing.Total,
		o.ShippingAddress, o.BillingAddress,
		o.Payment.Method, o.Payment.Status, o.Status, o.Shipping.Method, o.Notes.Customer,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.String("order_number", o.OrderNumber), zap.Error(err))
		return nil, err
	}

	for i, l := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, position, product_id, name, unit_price, quantity, image, reserved
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, o.ID, i, l.ProductID, l.Name, l.UnitPrice, l.Quantity, l.Image, l.Reserved)
		if err != nil {
			log.Error("failed to insert order item", zap.String("product_id", l.ProductID.String()), zap.Error(err))
			return nil, err
		}
	}

	for _, l := range o.Items {
		if !l.Reserved {
			continue
		}
		if err := reserveStock(ctx, tx, l); err != nil {
			log.Warn("stock reservation failed", zap.String("product_id", l.ProductID.String()), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("order saved", zap.String("order_id", o.ID.String()), zap.String("order_number", o.OrderNumber))
	return o, nil
}

// reserveStock decrements the product only while enough stock remains. When
// the guard rejects, the current quantity is read back for the error.
func reserveStock(ctx context.Context, tx *sql.Tx, l Line) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND quantity >= $1
	`, l.Quantity, l.ProductID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var available int
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = $1`, l.ProductID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return &ProductNotFoundError{ID: l.ProductID}
	}
	if err != nil {
		return err
	}
	return &InsufficientStockError{
		ProductID: l.ProductID,
		Name:      l.Name,
		Requested: l.Quantity,
		Available: available,
	}
}

func (r *repository) findOne(ctx context.Context, where string, arg interface{}) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+orderFrom+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.findOne(ctx, `o.id = $1`, id)
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*Order, error) {
	return r.findOne(ctx, `o.order_number = $1`, strings.ToUpper(number))
}

// loadDetails fills items and status history for a batch of orders with one
// query each.
func (r *repository) loadDetails(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		o.Items = []Line{}
		o.StatusHistory = []HistoryEntry{}
		ids = append(ids, o.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, unit_price, quantity, image, reserved
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			orderID uuid.UUID
			l       Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity, &l.Image, &l.Reserved); err != nil {
			rows.Close()
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, l)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT order_id, status, note, created_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, created_at, id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uuid.UUID
			h       HistoryEntry
		)
		if err := rows.Scan(&orderID, &h.Status, &h.Note, &h.Timestamp); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.StatusHistory = append(o.StatusHistory, h)
		}
	}
	return rows.Err()
}

func buildListWhere(f ListFilter) (string, []interface{}) {
	where := []string{}
	args := []interface{}{}

	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.PaymentStatus != nil {
		args = append(args, *f.PaymentStatus)
		where = append(where, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where = append(where, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where = append(where, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*Order, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("limit", f.Limit),
		zap.Int("offset", f.Offset),
	)

	where, args := buildListWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + orderFrom + where +
		fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadDetails(ctx, orders); err != nil {
		log.Error("failed to load order details", zap.Error(err))
		return nil, 0, err
	}
	return orders, total, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, id uuid.UUID, status Status, note string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, note, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, status, note, at)
	return err
}

// UpdateStatus applies ch only if the order is still in ch.From and appends
// the history entry in the same transaction.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, ch StatusChange) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
			status = $3,
			shipped_at = CASE WHEN $3 = 'shipped' THEN $4 ELSE shipped_at END,
			delivered_at = CASE WHEN $3 = 'delivered' THEN $4 ELSE delivered_at END,
			tracking_number = COALESCE($5, tracking_number),
			carrier = COALESCE($6, carrier),
			notes_admin = COALESCE($7, notes_admin),
			updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, ch.From, ch.To, ch.At, ch.TrackingNumber, ch.Carrier, ch.AdminNote)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConcurrentUpdate
	}

	if err := insertHistory(ctx, tx, id, ch.To, ch.Note, ch.At); err != nil {
		log.Error("failed to append status history", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *repository) UpdatePayment(ctx context.Context, id uuid.UUID, from PaymentStatus, p PaymentUpdateInput) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			payment_status = $3,
			payment_transaction_id = COALESCE($4, payment_transaction_id),
			paid_at = COALESCE($5, paid_at),
			updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
	`, id, from, p.Status, p.TransactionID, p.PaidAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update payment", zap.String("order_id", id.String()), zap.Error(err))
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

type reservation struct {
	productID uuid.UUID
	quantity  int
}

// Cancel moves a pending or confirmed order to cancelled, returns reserved
// stock and records the history entry. Nothing is written if the order has
// already left the cancellable states.
func (r *repository) Cancel(ctx context.Context, id uuid.UUID, note string, at time.Time) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Cancel"),
		zap.String("order_id", id.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = 'cancelled', updated_at = $2
		WHERE id = $1 AND status IN ('pending', 'confirmed')
	`, id, at)
	if err != nil {
		log.Error("failed to cancel order", zap.Error(err))
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCannotCancel
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM order_items
		WHERE order_id = $1 AND reserved
		ORDER BY position
	`, id)
	if err != nil {
		return err
	}
	var reserved []reservation
	for rows.Next() {
		var rv reservation
		if err := rows.Scan(&rv.productID, &rv.quantity); err != nil {
			rows.Close()
			return err
		}
		reserved = append(reserved, rv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rv := range reserved {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + $1, updated_at = NOW()
			WHERE id = $2
		`, rv.quantity, rv.productID); err != nil {
			log.Error("failed to restore stock", zap.String("product_id", rv.productID.String()), zap.Error(err))
			return err
		}
	}

	if err := insertHistory(ctx, tx, id, StatusCancelled, note, at); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit cancellation", zap.Error(err))
		return err
	}
	committed = true

	log.Info("order cancelled", zap.Int("restored_lines", len(reserved)))
	return nil
}
