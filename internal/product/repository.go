package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"webstore-be/internal/apperror"
	"webstore-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]*Product, int64, error)
	Search(ctx context.Context, query string, activeOnly bool, limit int) ([]*Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product, quantity *int) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (int, error)
	AddReview(ctx context.Context, rv *Review) (*Rating, error)
	ListReviews(ctx context.Context, productID uuid.UUID, limit int) ([]*Review, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.short_description, p.price,
	p.compare_price, p.cost_price, p.sku, p.category_id, p.images,
	p.track_quantity, p.quantity, p.low_stock_threshold, p.allow_backorder,
	p.status, p.featured, p.tags, p.rating_average, p.rating_count,
	p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s rowScanner) (*Product, error) {
	var (
		p       Product
		compare decimal.NullDecimal
		cost    decimal.NullDecimal
		sku     sql.NullString
	)

	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.ShortDescription, &p.Price,
		&compare, &cost, &sku, &p.CategoryID, &p.Images,
		&p.Inventory.TrackQuantity, &p.Inventory.Quantity, &p.Inventory.LowStockThreshold, &p.Inventory.AllowBackorder,
		&p.Status, &p.Featured, pq.Array(&p.Tags), &p.Rating.Average, &p.Rating.Count,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if compare.Valid {
		p.ComparePrice = &compare.Decimal
	}
	if cost.Valid {
		p.CostPrice = &cost.Decimal
	}
	if sku.Valid {
		p.SKU = &sku.String
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == apperror.PgUniqueViolation
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildListWhere(f ListFilter) (string, []interface{}) {
	where := []string{}
	args := []interface{}{}

	if f.ActiveOnly {
		where = append(where, "p.status = 'active'")
	}

	if len(f.CategoryIDs) > 0 {
		ids := make([]string, 0, len(f.CategoryIDs))
		for _, id := range f.CategoryIDs {
			ids = append(ids, id.String())
		}
		args = append(args, pq.Array(ids))
		where = append(where, fmt.Sprintf("p.category_id = ANY($%d::uuid[])", len(args)))
	}

	if f.Featured != nil {
		args = append(args, *f.Featured)
		where = append(where, fmt.Sprintf("p.featured = $%d", len(args)))
	}

	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("p.price >= $%d", len(args)))
	}

	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	if f.Search != "" {
		args = append(args, f.Search)
		where = append(where, fmt.Sprintf("p.search_vector @@ plainto_tsquery('simple', $%d)", len(args)))
	}

	if len(f.Tags) > 0 {
		args = append(args, pq.Array(f.Tags))
		where = append(where, fmt.Sprintf("p.tags && $%d", len(args)))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*Product, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("limit", f.Limit),
		zap.Int("offset", f.Offset),
	)

	where, args := buildListWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products p` + where +
		` ORDER BY ` + f.Sort.orderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	log.Debug("executing list products query", zap.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *repository) Search(ctx context.Context, query string, activeOnly bool, limit int) ([]*Product, error) {
	stmt := `SELECT ` + productColumns + ` FROM products p
		WHERE p.search_vector @@ plainto_tsquery('simple', $1)`
	if activeOnly {
		stmt += ` AND p.status = 'active'`
	}
	stmt += ` ORDER BY ts_rank(p.search_vector, plainto_tsquery('simple', $1)) DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, stmt, query, limit)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to search products", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products AS p (
			name, description, short_description, price, compare_price, cost_price,
			sku, category_id, images, track_quantity, quantity, low_stock_threshold,
			allow_backorder, status, featured, tags
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.ShortDescription, p.Price, p.ComparePrice, p.CostPrice,
		p.SKU, p.CategoryID, p.Images, p.Inventory.TrackQuantity, p.Inventory.Quantity, p.Inventory.LowStockThreshold,
		p.Inventory.AllowBackorder, p.Status, p.Featured, pq.Array(p.Tags),
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSKU
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert product", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	return created, nil
}

// Update writes every product field except stock. quantity is written only
// when non-nil; otherwise the stored value is kept so concurrent order
// reservations are never overwritten with a stale read.
func (r *repository) Update(ctx context.Context, p *Product, quantity *int) (*Product, error) {
	var qty interface{}
	if quantity != nil {
		qty = int64(*quantity)
	}

	query := `
		UPDATE products AS p SET
			name = $2, description = $3, short_description = $4, price = $5,
			compare_price = $6, cost_price = $7, sku = $8, category_id = $9, images = $10,
			track_quantity = $11, quantity = COALESCE($12, quantity), low_stock_threshold = $13,
			allow_backorder = $14, status = $15, featured = $16, tags = $17,
			updated_at = NOW()
		WHERE p.id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.ShortDescription, p.Price,
		p.ComparePrice, p.CostPrice, p.SKU, p.CategoryID, p.Images,
		p.Inventory.TrackQuantity, qty, p.Inventory.LowStockThreshold,
		p.Inventory.AllowBackorder, p.Status, p.Featured, pq.Array(p.Tags),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSKU
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update product", zap.String("product_id", p.ID.String()), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AdjustInventory applies delta to the stored quantity only if the result
// stays non-negative, and returns the new quantity.
func (r *repository) AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND quantity + $1 >= 0
		RETURNING quantity
	`, delta, id).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrProductNotFound
	}
	return 0, ErrInsufficientStock
}

// AddReview inserts the review and recomputes the aggregate rating in one
// transaction.
func (r *repository) AddReview(ctx context.Context, rv *Review) (*Rating, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddReview"),
		zap.String("product_id", rv.ProductID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO product_reviews (product_id, user_id, rating, title, comment, verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.Verified).Scan(&rv.ID, &rv.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyReviewed
	}
	if err != nil {
		log.Error("failed to insert review", zap.Error(err))
		return nil, err
	}

	var rating Rating
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET
			rating_average = agg.avg,
			rating_count = agg.cnt
		FROM (
			SELECT COALESCE(ROUND(AVG(rating), 2), 0) AS avg, COUNT(*) AS cnt
			FROM product_reviews WHERE product_id = $1
		) AS agg
		WHERE products.id = $1
		RETURNING products.rating_average, products.rating_count
	`, rv.ProductID).Scan(&rating.Average, &rating.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to recompute rating", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit review", zap.Error(err))
		return nil, err
	}
	committed = true

	return &rating, nil
}

func (r *repository) ListReviews(ctx context.Context, productID uuid.UUID, limit int) ([]*Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.product_id, r.user_id,
			COALESCE(u.first_name || ' ' || u.last_name, ''),
			r.rating, r.title, r.comment, r.verified, r.created_at
		FROM product_reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName,
			&rv.Rating, &rv.Title, &rv.Comment, &rv.Verified, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}
