package product

import "webstore-be/internal/apperror"

var (
	ErrProductNotFound   = apperror.New(apperror.ErrNotFound, "product not found")
	ErrDuplicateSKU      = apperror.New(apperror.ErrConflict, "a product with this SKU already exists")
	ErrAlreadyReviewed   = apperror.New(apperror.ErrConflict, "you have already reviewed this product")
	ErrInsufficientStock = apperror.New(apperror.ErrConflict, "inventory cannot go below zero")
	ErrSearchQueryEmpty  = apperror.NewValidation("q", "search query is required")
)
