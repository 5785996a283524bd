package product

import (
	"context"
	"strings"

	"webstore-be/internal/apperror"
	"webstore-be/internal/logger"
	"webstore-be/internal/metrics"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultListLimit   = 12
	DefaultSearchLimit = 20
	reviewListLimit    = 50
)

// CategoryLookup is the slice of the category service the catalog needs.
type CategoryLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	RefreshProductCount(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, params ListParams) ([]*Product, int64, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]*Product, error)
	CreateProduct(ctx context.Context, input CreateInput) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateInput) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (*Product, error)
	AddReview(ctx context.Context, productID uuid.UUID, input ReviewInput) (*Rating, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]*Review, error)
}

type service struct {
	repo       Repository
	categories CategoryLookup
	metrics    *metrics.AppMetrics
}

func NewService(repo Repository, categories CategoryLookup, m *metrics.AppMetrics) Service {
	if m == nil {
		m = metrics.Noop()
	}
	return &service{repo: repo, categories: categories, metrics: m}
}

// GetProduct hides non-active products from everyone but admins.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() && !utils.IsAdmin(ctx) {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, params ListParams) ([]*Product, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	page := utils.ParsePage("", "", DefaultListLimit)
	if params.Page > 0 {
		page.Page = params.Page
	}
	if params.Limit > 0 {
		page.Limit = min(params.Limit, utils.MaxPageLimit)
	}

	filter := ListFilter{
		Featured:   params.Featured,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		Search:     strings.TrimSpace(params.Search),
		Tags:       params.Tags,
		ActiveOnly: !utils.IsAdmin(ctx),
		Sort:       params.Sort,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}

	if params.CategoryID != nil {
		ids, err := s.categories.SubtreeIDs(ctx, *params.CategoryID)
		if err != nil {
			log.Error("failed to resolve category subtree", zap.Error(err))
			return nil, 0, err
		}
		filter.CategoryIDs = ids
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list products", zap.Error(err))
		return nil, 0, err
	}
	return products, total, nil
}

func (s *service) SearchProducts(ctx context.Context, query string, limit int) ([]*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryEmpty
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return s.repo.Search(ctx, query, !utils.IsAdmin(ctx), min(limit, utils.MaxPageLimit))
}

func validateCommon(v *apperror.ValidationError, name, description, short string, price decimal.Decimal, compare, cost *decimal.Decimal) {
	switch {
	case strings.TrimSpace(name) == "":
		v.Add("name", "Product name is required")
	case len(name) > 100:
		v.Add("name", "Product name cannot exceed 100 characters")
	}
	switch {
	case strings.TrimSpace(description) == "":
		v.Add("description", "Product description is required")
	case len(description) > 2000:
		v.Add("description", "Description cannot exceed 2000 characters")
	}
	if len(short) > 200 {
		v.Add("shortDescription", "Short description cannot exceed 200 characters")
	}
	if price.IsNegative() {
		v.Add("price", "Price cannot be negative")
	}
	if compare != nil && compare.IsNegative() {
		v.Add("comparePrice", "Compare price cannot be negative")
	}
	if cost != nil && cost.IsNegative() {
		v.Add("costPrice", "Cost price cannot be negative")
	}
}

func parseCategoryID(v *apperror.ValidationError, raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		v.Add("category", "Valid category ID is required")
		return uuid.Nil
	}
	return id
}

func (s *service) checkCategoryExists(ctx context.Context, id uuid.UUID) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewValidation("category", "Category not found")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
		zap.String("name", input.Name),
	)

	v := &apperror.ValidationError{}
	validateCommon(v, input.Name, input.Description, input.ShortDescription, input.Price, input.ComparePrice, input.CostPrice)
	categoryID := parseCategoryID(v, input.CategoryID)
	if input.Quantity < 0 {
		v.Add("quantity", "Quantity cannot be negative")
	}
	if input.LowStockThreshold != nil && *input.LowStockThreshold < 0 {
		v.Add("lowStockThreshold", "Low stock threshold cannot be negative")
	}
	if input.Status != "" && !input.Status.Valid() {
		v.Add("status", "Invalid product status")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.checkCategoryExists(ctx, categoryID); err != nil {
		return nil, err
	}

	p := &Product{
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		Price:            input.Price,
		ComparePrice:     input.ComparePrice,
		CostPrice:        input.CostPrice,
		SKU:              input.SKU,
		CategoryID:       categoryID,
		Images:           input.Images,
		Inventory: Inventory{
			TrackQuantity:     true,
			Quantity:          input.Quantity,
			LowStockThreshold: defaultLowStockThreshold,
			AllowBackorder:    input.AllowBackorder,
		},
		Status:   StatusDraft,
		Featured: input.Featured,
		Tags:     input.Tags,
	}
	if input.TrackQuantity != nil {
		p.Inventory.TrackQuantity = *input.TrackQuantity
	}
	if input.LowStockThreshold != nil {
		p.Inventory.LowStockThreshold = *input.LowStockThreshold
	}
	if input.Status != "" {
		p.Status = input.Status
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	s.refreshCount(ctx, created.CategoryID)
	log.Info("product created", zap.String("product_id", created.ID.String()))
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.String("product_id", id.String()),
	)

	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	previousCategory := p.CategoryID
	previousStatus := p.Status

	applyUpdate(p, input)

	v := &apperror.ValidationError{}
	validateCommon(v, p.Name, p.Description, p.ShortDescription, p.Price, p.ComparePrice, p.CostPrice)
	if input.CategoryID != nil {
		p.CategoryID = parseCategoryID(v, *input.CategoryID)
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		v.Add("quantity", "Quantity cannot be negative")
	}
	if !p.Status.Valid() {
		v.Add("status", "Invalid product status")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if p.CategoryID != previousCategory {
		if err := s.checkCategoryExists(ctx, p.CategoryID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, p, input.Quantity)
	if err != nil {
		log.Error("failed to update product", zap.Error(err))
		return nil, err
	}

	if updated.CategoryID != previousCategory {
		s.refreshCount(ctx, previousCategory)
		s.refreshCount(ctx, updated.CategoryID)
	} else if updated.Status != previousStatus {
		s.refreshCount(ctx, updated.CategoryID)
	}

	log.Info("product updated")
	return updated, nil
}

func applyUpdate(p *Product, in UpdateInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ComparePrice != nil {
		p.ComparePrice = in.ComparePrice
	}
	if in.CostPrice != nil {
		p.CostPrice = in.CostPrice
	}
	if in.SKU != nil {
		p.SKU = in.SKU
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.TrackQuantity != nil {
		p.Inventory.TrackQuantity = *in.TrackQuantity
	}
	if in.Quantity != nil {
		p.Inventory.Quantity = *in.Quantity
	}
	if in.LowStockThreshold != nil {
		p.Inventory.LowStockThreshold = *in.LowStockThreshold
	}
	if in.AllowBackorder != nil {
		p.Inventory.AllowBackorder = *in.AllowBackorder
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		logger.FromCtx(ctx).Error("failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return err
	}
	s.refreshCount(ctx, p.CategoryID)
	return nil
}

func (s *service) AdjustInventory(ctx context.Context, id uuid.UUID, delta int) (*Product, error) {
	quantity, err := s.repo.AdjustInventory(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordInventory(ctx, id.String(), int64(quantity))
	return s.repo.FindProduct(ctx, id)
}

func (s *service) AddReview(ctx context.Context, productID uuid.UUID, input ReviewInput) (*Rating, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, apperror.New(apperror.ErrUnauthorized, "authentication required")
	}

	v := &apperror.ValidationError{}
	if input.Rating < 1 || input.Rating > 5 {
		v.Add("rating", "Rating must be between 1 and 5")
	}
	if len(input.Title) > 100 {
		v.Add("title", "Review title cannot exceed 100 characters")
	}
	if len(input.Comment) > 500 {
		v.Add("comment", "Review comment cannot exceed 500 characters")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	rating, err := s.repo.AddReview(ctx, &Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     strings.TrimSpace(input.Title),
		Comment:   strings.TrimSpace(input.Comment),
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID) ([]*Review, error) {
	return s.repo.ListReviews(ctx, productID, reviewListLimit)
}

// refreshCount recomputes the cached category product count. Errors are
// logged, not returned.
func (s *service) refreshCount(ctx context.Context, categoryID uuid.UUID) {
	if err := s.categories.RefreshProductCount(ctx, categoryID); err != nil {
		logger.FromCtx(ctx).Warn("failed to refresh category product count",
			zap.String("category_id", categoryID.String()),
			zap.Error(err),
		)
	}
}
