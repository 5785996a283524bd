package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"webstore-be/internal/apperror"
	"webstore-be/internal/auth"
	"webstore-be/internal/logger"
	"webstore-be/internal/utils"

	"go.uber.org/zap"
)

const (
	minPasswordLength = 6
	maxNameLength     = 50
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Me(ctx context.Context) (*User, error)
}

type service struct {
	repo     Repository
	verifier *auth.Verifier
}

func NewService(repo Repository, verifier *auth.Verifier) Service {
	return &service{repo: repo, verifier: verifier}
}

func validateRegister(in RegisterInput) error {
	v := &apperror.ValidationError{}
	if name := strings.TrimSpace(in.FirstName); name == "" {
		v.Add("firstName", "First name is required")
	} else if len(name) > maxNameLength {
		v.Add("firstName", "First name cannot exceed 50 characters")
	}
	if name := strings.TrimSpace(in.LastName); name == "" {
		v.Add("lastName", "Last name is required")
	} else if len(name) > maxNameLength {
		v.Add("lastName", "Last name cannot exceed 50 characters")
	}
	if addr, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil || addr.Address != strings.TrimSpace(in.Email) {
		v.Add("email", "Please provide a valid email")
	}
	if len(in.Password) < minPasswordLength {
		v.Add("password", "Password must be at least 6 characters")
	} else if len(in.Password) > auth.MaxPasswordLength {
		v.Add("password", "Password cannot exceed 72 bytes")
	}
	return v.OrNil()
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	if err := validateRegister(input); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, &User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        utils.NormalizeEmail(input.Email),
		PasswordHash: hashed,
		Role:         utils.RoleUser,
	})
	if err != nil {
		if !errors.Is(err, ErrEmailExists) {
			log.Error("failed to create user", zap.Error(err))
		}
		return nil, err
	}

	token, err := s.verifier.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", u.ID.String()), zap.Error(err))
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID.String()))
	return &Session{Token: token, User: u}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	v := &apperror.ValidationError{}
	if strings.TrimSpace(input.Email) == "" {
		v.Add("email", "Email is required")
	}
	if input.Password == "" {
		v.Add("password", "Password is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, utils.NormalizeEmail(input.Email))
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if !auth.CheckPasswordHash(input.Password, u.PasswordHash) {
		log.Info("password mismatch", zap.String("user_id", u.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.verifier.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", u.ID.String()), zap.Error(err))
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// Me returns the account behind the request context.
func (s *service) Me(ctx context.Context) (*User, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, apperror.New(apperror.ErrUnauthorized, "Not authorized")
	}
	return s.repo.FindByID(ctx, userID)
}
