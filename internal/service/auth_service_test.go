package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/estate-service/internal/config"
	"github.com/spec-kit/estate-service/internal/domain"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

func newTestAuthService() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, repo)
	return svc, repo
}

func TestRegisterCreatesBuyer(t *testing.T) {
	svc, _ := newTestAuthService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "long-enough",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleBuyer, result.User.Role)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, "long-enough", result.User.PasswordHash)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "short",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "long-enough"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "ADA@example.com", "long-enough")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.SubjectID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}
