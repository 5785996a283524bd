package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"webstore-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSecret = errors.New("JWT secret is not set")
	ErrInvalidToken  = errors.New("invalid token")
)

type CustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Caller is the verified account behind a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == utils.RoleAdmin
}

// Verifier issues and verifies HS256 access tokens.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), ttl: defaultTokenTTL, now: time.Now}
}

func (v *Verifier) GenerateToken(userID uuid.UUID, email, role string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := v.now()
	claims := CustomClaims{
		UserID: userID.String(),
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *Verifier) ParseToken(tokenStr string) (*CustomClaims, error) {
	if len(v.secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return v.secret, nil
		},
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ResolveOptionalCaller returns the caller behind r, if any. Missing,
// malformed and expired tokens all resolve to no caller; the request itself
// never fails here.
func (v *Verifier) ResolveOptionalCaller(r *http.Request) (*Caller, bool) {
	tokenStr := ExtractAccessToken(r)
	if tokenStr == "" {
		return nil, false
	}

	claims, err := v.ParseToken(tokenStr)
	if err != nil {
		return nil, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, false
	}

	return &Caller{UserID: userID, Email: claims.Email, Role: claims.Role}, true
}

// CallerFromContext rebuilds the caller stored by the auth middleware.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, false
	}
	return &Caller{
		UserID: userID,
		Email:  utils.GetUserEmailFromContext(ctx),
		Role:   utils.GetUserRoleFromContext(ctx),
	}, true
}

// WithCaller stores c in ctx.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return utils.SetUserContext(ctx, c.UserID, c.Email, c.Role)
}
