package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/repositories/mocks"
	service "github.com/pawmart/pawmart-api/internal/services"
)

type rateLimiterMock struct {
	mock.Mock
}

func (m *rateLimiterMock) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {
	args := m.Called(ctx, username)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

func setupUserServiceTest(t *testing.T) (service.UserService, *mocks.UserRepository, *rateLimiterMock) {
	t.Helper()

	userRepo := new(mocks.UserRepository)
	limiter := new(rateLimiterMock)

	return service.NewUserService(userRepo, limiter, []byte("test-signing-key")), userRepo, limiter
}

func TestUserServiceRegister(t *testing.T) {
	ctx := t.Context()

	t.Run("Success assigns customer role and hashes the password", func(t *testing.T) {
		svc, userRepo, _ := setupUserServiceTest(t)

		userRepo.On("GetUserByEmail", mock.Anything, "pat@example.com").Return(nil, sql.ErrNoRows)
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		user, err := svc.Register(ctx, &models.RegisterRequest{
			Name:     "Pat",
			Email:    "pat@example.com",
			Password: "sekrit123",
		})

		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.NotEqual(t, "sekrit123", user.Password, "password must be stored hashed")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("sekrit123")))
	})

	t.Run("Duplicate email", func(t *testing.T) {
		svc, userRepo, _ := setupUserServiceTest(t)

		userRepo.On("GetUserByEmail", mock.Anything, "pat@example.com").
			Return(&models.User{ID: uuid.New(), Email: "pat@example.com"}, nil)

		user, err := svc.Register(ctx, &models.RegisterRequest{
			Name:     "Pat",
			Email:    "pat@example.com",
			Password: "sekrit123",
		})

		require.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestUserServiceLogin(t *testing.T) {
	ctx := t.Context()

	hashed, err := bcrypt.GenerateFromPassword([]byte("sekrit123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	storedUser := &models.User{
		ID:       uuid.New(),
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}

	t.Run("Success issues a token", func(t *testing.T) {
		svc, userRepo, limiter := setupUserServiceTest(t)

		limiter.On("CheckLoginRateLimit", mock.Anything, "pat@example.com").Return(true, 4, 0, nil)
		userRepo.On("GetUserByEmail", mock.Anything, "pat@example.com").Return(storedUser, nil)

		resp, err := svc.Login(ctx, &models.LoginRequest{Email: "pat@example.com", Password: "sekrit123"})

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)
		assert.Positive(t, resp.ExpiresIn)
	})

	t.Run("Wrong password is an unsuccessful response", func(t *testing.T) {
		svc, userRepo, limiter := setupUserServiceTest(t)

		limiter.On("CheckLoginRateLimit", mock.Anything, "pat@example.com").Return(true, 3, 0, nil)
		userRepo.On("GetUserByEmail", mock.Anything, "pat@example.com").Return(storedUser, nil)

		resp, err := svc.Login(ctx, &models.LoginRequest{Email: "pat@example.com", Password: "wrong"})

		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Empty(t, resp.Token)
		assert.Equal(t, 3, resp.RemainingTries)
	})

	t.Run("Rate limited", func(t *testing.T) {
		svc, _, limiter := setupUserServiceTest(t)

		limiter.On("CheckLoginRateLimit", mock.Anything, "pat@example.com").Return(false, 0, 12, nil)

		resp, err := svc.Login(ctx, &models.LoginRequest{Email: "pat@example.com", Password: "sekrit123"})

		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 12, resp.RetryAfter)
	})
}
