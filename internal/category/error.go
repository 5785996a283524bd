package category

import "webstore-be/internal/apperror"

var (
	ErrCategoryNotFound  = apperror.New(apperror.ErrNotFound, "Category not found")
	ErrDuplicateCategory = apperror.New(apperror.ErrConflict, "a category with this name or slug already exists")
	ErrParentNotFound    = apperror.NewValidation("parent", "Parent category not found")
	ErrSelfParent        = apperror.NewValidation("parent", "Category cannot be its own parent")
	ErrParentCycle       = apperror.NewValidation("parent", "Parent would create a cycle")
	ErrHasProducts       = apperror.New(apperror.ErrValidation, "Cannot delete category with products. Please move or delete products first.")
	ErrHasChildren       = apperror.New(apperror.ErrValidation, "Cannot delete category with subcategories. Please delete subcategories first.")
)
