package category

import (
	"context"
	"database/sql"
	"errors"

	"webstore-be/internal/apperror"
	"webstore-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]*Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	Children(ctx context.Context, id uuid.UUID) ([]*Ref, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, c *Category) (*Category, error)
	Update(ctx context.Context, c *Category) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
	RefreshProductCount(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const categoryColumns = `
	c.id, c.name, c.slug, c.description, c.parent_id,
	c.image_url, c.image_alt, c.icon,
	c.seo_title, c.seo_description, c.seo_keywords,
	c.is_active, c.sort_order, c.product_count, c.created_at, c.updated_at,
	p.name, p.slug`

const categoryFrom = ` FROM categories c LEFT JOIN categories p ON p.id = c.parent_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(s rowScanner) (*Category, error) {
	var (
		c          Category
		parentID   uuid.NullUUID
		parentName sql.NullString
		parentSlug sql.NullString
	)
	err := s.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &parentID,
		&c.Image.URL, &c.Image.Alt, &c.Icon,
		&c.SEO.MetaTitle, &c.SEO.MetaDescription, pq.Array(&c.SEO.Keywords),
		&c.IsActive, &c.SortOrder, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt,
		&parentName, &parentSlug,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.UUID
		c.ParentID = &id
		if parentName.Valid {
			c.Parent = &Ref{ID: id, Name: parentName.String, Slug: parentSlug.String}
		}
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == apperror.PgUniqueViolation
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := `SELECT ` + categoryColumns + categoryFrom
	if activeOnly {
		query += ` WHERE c.is_active = TRUE`
	}
	query += ` ORDER BY c.sort_order ASC, c.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			log.Error("failed to scan category row", zap.Error(err))
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+categoryFrom+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) Children(ctx context.Context, id uuid.UUID) ([]*Ref, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug FROM categories
		WHERE parent_id = $1
		ORDER BY sort_order ASC, name ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []*Ref{}
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return nil, err
		}
		children = append(children, &ref)
	}
	return children, rows.Err()
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, c *Category) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("category_name", c.Name),
	)

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (
			name, slug, description, parent_id, image_url, image_alt, icon,
			seo_title, seo_description, seo_keywords, is_active, sort_order
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`,
		c.Name, c.Slug, c.Description, c.ParentID, c.Image.URL, c.Image.Alt, c.Icon,
		c.SEO.MetaTitle, c.SEO.MetaDescription, pq.Array(c.SEO.Keywords), c.IsActive, c.SortOrder,
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateCategory
	}
	if err != nil {
		log.Error("failed to insert category", zap.Error(err))
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *repository) Update(ctx context.Context, c *Category) (*Category, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $2, slug = $3, description = $4, parent_id = $5,
			image_url = $6, image_alt = $7, icon = $8,
			seo_title = $9, seo_description = $10, seo_keywords = $11,
			is_active = $12, sort_order = $13, updated_at = NOW()
		WHERE id = $1
	`,
		c.ID, c.Name, c.Slug, c.Description, c.ParentID,
		c.Image.URL, c.Image.Alt, c.Icon,
		c.SEO.MetaTitle, c.SEO.MetaDescription, pq.Array(c.SEO.Keywords),
		c.IsActive, c.SortOrder,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateCategory
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update category", zap.String("category_id", c.ID.String()), zap.Error(err))
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrCategoryNotFound
	}
	return r.FindByID(ctx, c.ID)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&n)
	return n, err
}

func (r *repository) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id).Scan(&n)
	return n, err
}

// RefreshProductCount stores the number of active products in the category.
func (r *repository) RefreshProductCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE categories SET product_count = (
			SELECT COUNT(*) FROM products WHERE category_id = $1 AND status = 'active'
		)
		WHERE id = $1
	`, id)
	return err
}
