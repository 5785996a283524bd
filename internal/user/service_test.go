package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"webstore-be/internal/apperror"
	"webstore-be/internal/auth"
	"webstore-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) (*User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

const testSecret = "testsecret"

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	verifier := auth.NewVerifier(testSecret)

	input := RegisterInput{
		FirstName: " Anna ",
		LastName:  "Svensson",
		Email:     "Anna@Example.se",
		Password:  "password123",
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)

		mockRepo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
			return u.Email == "anna@example.se" &&
				u.FirstName == "Anna" &&
				u.Role == utils.RoleUser &&
				u.PasswordHash != "password123" &&
				auth.CheckPasswordHash("password123", u.PasswordHash)
		})).Return(&User{ID: uuid.New(), FirstName: "Anna", Email: "anna@example.se", Role: utils.RoleUser}, nil)

		session, err := svc.Register(ctx, input)
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, "anna@example.se", session.User.Email)

		claims, err := verifier.ParseToken(session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID.String(), claims.UserID)
		assert.Equal(t, utils.RoleUser, claims.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)

		_, err := svc.Register(ctx, RegisterInput{Email: "nope", Password: "123"})
		var ve *apperror.ValidationError
		require.True(t, errors.As(err, &ve))

		fields := map[string]bool{}
		for _, f := range ve.Fields {
			fields[f.Field] = true
		}
		assert.True(t, fields["firstName"])
		assert.True(t, fields["lastName"])
		assert.True(t, fields["email"])
		assert.True(t, fields["password"])
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("PasswordTooLong", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)

		_, err := svc.Register(ctx, RegisterInput{
			FirstName: "Anna",
			LastName:  "Berg",
			Email:     "anna@example.se",
			Password:  strings.Repeat("p", auth.MaxPasswordLength+1),
		})
		var ve *apperror.ValidationError
		require.True(t, errors.As(err, &ve))
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, "password", ve.Fields[0].Field)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("EmailExists", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)

		mockRepo.On("Create", ctx, mock.Anything).Return(nil, ErrEmailExists)

		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.True(t, apperror.Is(err, apperror.ErrConflict))
	})

	t.Run("MissingSecret", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, auth.NewVerifier(""))

		mockRepo.On("Create", ctx, mock.Anything).Return(&User{ID: uuid.New(), Email: "anna@example.se"}, nil)

		_, err := svc.Register(ctx, input)
		assert.ErrorIs(t, err, auth.ErrMissingSecret)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	verifier := auth.NewVerifier(testSecret)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	stored := &User{ID: uuid.New(), Email: "anna@example.se", PasswordHash: hash, Role: utils.RoleAdmin}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)
		mockRepo.On("FindByEmail", ctx, "anna@example.se").Return(stored, nil)

		session, err := svc.Login(ctx, LoginInput{Email: " ANNA@example.se", Password: "password123"})
		require.NoError(t, err)

		claims, err := verifier.ParseToken(session.Token)
		require.NoError(t, err)
		assert.Equal(t, utils.RoleAdmin, claims.Role)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)
		mockRepo.On("FindByEmail", ctx, "anna@example.se").Return(stored, nil)

		_, err := svc.Login(ctx, LoginInput{Email: "anna@example.se", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)
		mockRepo.On("FindByEmail", ctx, "ghost@example.se").Return(nil, ErrUserNotFound)

		_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.se", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))
	})

	t.Run("DBError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, verifier)
		mockRepo.On("FindByEmail", ctx, "anna@example.se").Return(nil, errors.New("db down"))

		_, err := svc.Login(ctx, LoginInput{Email: "anna@example.se", Password: "password123"})
		assert.EqualError(t, err, "db down")
	})

	t.Run("MissingFields", func(t *testing.T) {
		svc := NewService(new(MockRepository), verifier)
		_, err := svc.Login(ctx, LoginInput{})
		assert.True(t, apperror.Is(err, apperror.ErrValidation))
	})
}

func TestService_Me(t *testing.T) {
	svc := NewService(new(MockRepository), auth.NewVerifier(testSecret))

	_, err := svc.Me(context.Background())
	assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))

	mockRepo := new(MockRepository)
	svc = NewService(mockRepo, auth.NewVerifier(testSecret))
	id := uuid.New()
	ctx := utils.SetUserContext(context.Background(), id, "anna@example.se", utils.RoleUser)
	mockRepo.On("FindByID", ctx, id).Return(&User{ID: id}, nil)

	u, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}
