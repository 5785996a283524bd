package user

import "webstore-be/internal/apperror"

var (
	ErrEmailExists        = apperror.New(apperror.ErrConflict, "User already exists with this email")
	ErrInvalidCredentials = apperror.New(apperror.ErrUnauthorized, "Invalid email or password")
	ErrUserNotFound       = apperror.New(apperror.ErrNotFound, "User not found")
)
