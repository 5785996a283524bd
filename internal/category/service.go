package category

import (
	"context"
	"strings"

	"webstore-be/internal/apperror"
	"webstore-be/internal/logger"
	"webstore-be/internal/product"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultProductLimit = 12

// ProductLister is the part of the product store needed to page through a
// category subtree.
type ProductLister interface {
	List(ctx context.Context, f product.ListFilter) ([]*product.Product, int64, error)
}

// Detail is a category with its direct children.
type Detail struct {
	*Category
	Children []*Ref
}

type ProductPage struct {
	Category *Category
	Products []*product.Product
	Total    int64
	Page     utils.Page
}

type Service interface {
	List(ctx context.Context) ([]*Category, error)
	Tree(ctx context.Context) ([]*Node, error)
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
	Products(ctx context.Context, id uuid.UUID, page utils.Page) (*ProductPage, error)
	Create(ctx context.Context, input CreateInput) (*Category, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	RefreshProductCount(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	products ProductLister
	cache    TreeCache
}

func NewService(repo Repository, products ProductLister, cache TreeCache) Service {
	if cache == nil {
		cache = NopTreeCache{}
	}
	return &service{repo: repo, products: products, cache: cache}
}

func (s *service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx, true)
}

func (s *service) Tree(ctx context.Context) ([]*Node, error) {
	if tree, ok := s.cache.Get(ctx); ok {
		return tree, nil
	}

	categories, err := s.repo.List(ctx, true)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load categories for tree", zap.Error(err))
		return nil, err
	}

	tree := BuildTree(categories)
	s.cache.Set(ctx, tree)
	return tree, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Category: c, Children: children}, nil
}

// Products pages through the active products of the category and all of
// its descendants.
func (s *service) Products(ctx context.Context, id uuid.UUID, page utils.Page) (*ProductPage, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids, err := s.SubtreeIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	products, total, err := s.products.List(ctx, product.ListFilter{
		CategoryIDs: ids,
		ActiveOnly:  true,
		Sort:        product.SortNewest,
		Limit:       page.Limit,
		Offset:      page.Offset(),
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list category products",
			zap.String("category_id", id.String()), zap.Error(err))
		return nil, err
	}

	return &ProductPage{Category: c, Products: products, Total: total, Page: page}, nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// SubtreeIDs returns id followed by every descendant id.
func (s *service) SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	all, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	return append([]uuid.UUID{id}, NewIndex(all).Descendants(id)...), nil
}

func (s *service) RefreshProductCount(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.RefreshProductCount(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func validateFields(v *apperror.ValidationError, name, description string, seo SEO) {
	switch {
	case strings.TrimSpace(name) == "":
		v.Add("name", "Category name is required")
	case len(name) > 50:
		v.Add("name", "Category name cannot exceed 50 characters")
	}
	if len(description) > 500 {
		v.Add("description", "Description cannot exceed 500 characters")
	}
	if len(seo.MetaTitle) > 60 {
		v.Add("seo.metaTitle", "Meta title cannot exceed 60 characters")
	}
	if len(seo.MetaDescription) > 160 {
		v.Add("seo.metaDescription", "Meta description cannot exceed 160 characters")
	}
}

func deriveSlug(v *apperror.ValidationError, name, slug string) string {
	source := slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	out := utils.Slugify(source)
	if out == "" && strings.TrimSpace(name) != "" {
		v.Add("slug", "Slug must contain at least one letter or digit")
	}
	return out
}

func parseParent(v *apperror.ValidationError, raw string) *uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		v.Add("parent", "Valid parent category ID is required")
		return nil
	}
	return &id
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCategory"),
		zap.String("name", input.Name),
	)

	v := &apperror.ValidationError{}
	validateFields(v, input.Name, input.Description, input.SEO)
	slug := deriveSlug(v, input.Name, input.Slug)

	var parentID *uuid.UUID
	if input.Parent != nil && *input.Parent != "" {
		parentID = parseParent(v, *input.Parent)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if parentID != nil {
		ok, err := s.repo.Exists(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrParentNotFound
		}
	}

	c := &Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		ParentID:    parentID,
		Image:       input.Image,
		Icon:        strings.TrimSpace(input.Icon),
		SEO:         input.SEO,
		IsActive:    true,
		SortOrder:   input.SortOrder,
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		log.Error("failed to create category", zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx)
	log.Info("category created", zap.String("category_id", created.ID.String()), zap.String("slug", created.Slug))
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateCategory"),
		zap.String("category_id", id.String()),
	)

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := c.IsActive

	if input.Name != nil {
		c.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		c.Image = *input.Image
	}
	if input.Icon != nil {
		c.Icon = strings.TrimSpace(*input.Icon)
	}
	if input.SEO != nil {
		c.SEO = *input.SEO
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		c.SortOrder = *input.SortOrder
	}

	v := &apperror.ValidationError{}
	validateFields(v, c.Name, c.Description, c.SEO)
	if input.Slug != nil {
		c.Slug = deriveSlug(v, c.Name, *input.Slug)
	}

	parentChanged := false
	if input.Parent != nil {
		parentChanged = true
		if *input.Parent == "" {
			c.ParentID = nil
		} else {
			c.ParentID = parseParent(v, *input.Parent)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if parentChanged && c.ParentID != nil {
		if err := s.checkParent(ctx, id, *c.ParentID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		log.Error("failed to update category", zap.Error(err))
		return nil, err
	}

	if updated.IsActive != wasActive {
		if err := s.repo.RefreshProductCount(ctx, id); err != nil {
			log.Warn("failed to refresh product count", zap.Error(err))
		} else if refreshed, err := s.repo.FindByID(ctx, id); err == nil {
			updated = refreshed
		}
	}

	s.cache.Invalidate(ctx)
	log.Info("category updated")
	return updated, nil
}

// checkParent rejects a missing parent, the category itself, and any parent
// that already sits below the category.
func (s *service) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return ErrSelfParent
	}

	all, err := s.repo.List(ctx, false)
	if err != nil {
		return err
	}
	idx := NewIndex(all)
	if _, ok := idx.Get(parentID); !ok {
		return ErrParentNotFound
	}
	if idx.WouldCycle(id, parentID) {
		return ErrParentCycle
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteCategory"),
		zap.String("category_id", id.String()),
	)

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return ErrHasProducts
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrHasChildren
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("failed to delete category", zap.Error(err))
		return err
	}

	s.cache.Invalidate(ctx)
	log.Info("category deleted")
	return nil
}
