package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/config"
	"github.com/spec-kit/workflow-service/internal/domain"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

func testAuthConfig(seed config.SeedConfig) config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            bcrypt.MinCost,
		},
		Seed: seed,
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepository()
	hash, err := auth.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: hash, Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(context.Background(), user))

	svc := NewAuthService(testAuthConfig(config.SeedConfig{}), repo, zap.NewNop())

	t.Run("valid credentials", func(t *testing.T) {
		got, token, _, err := svc.Login(context.Background(), "ada@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.Subject)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "ada@example.com", "nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "AUTHENTICATION_FAILED"))
	})

	t.Run("unknown email uses the same failure", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "secret")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "AUTHENTICATION_FAILED"))
		assert.Contains(t, err.Error(), "invalid email or password")
	})
}

func TestEnsureSeedAdmin(t *testing.T) {
	seed := config.SeedConfig{AdminName: "Root", AdminEmail: "root@example.com", AdminPassword: "bootstrap"}

	t.Run("creates admin on empty directory", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := NewAuthService(testAuthConfig(seed), repo, zap.NewNop())

		require.NoError(t, svc.EnsureSeedAdmin(context.Background()))

		admin, err := repo.GetByEmail(context.Background(), "root@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, admin.Role)
		assert.Nil(t, admin.CreatedBy)
	})

	t.Run("skips when an admin exists", func(t *testing.T) {
		repo := newFakeUserRepository()
		repo.seed("Ada", "ada@example.com", domain.RoleAdmin)
		svc := NewAuthService(testAuthConfig(seed), repo, zap.NewNop())

		require.NoError(t, svc.EnsureSeedAdmin(context.Background()))
		_, err := repo.GetByEmail(context.Background(), "root@example.com")
		assert.Error(t, err)
	})

	t.Run("skips when unconfigured", func(t *testing.T) {
		repo := newFakeUserRepository()
		svc := NewAuthService(testAuthConfig(config.SeedConfig{}), repo, zap.NewNop())

		require.NoError(t, svc.EnsureSeedAdmin(context.Background()))
		users, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}
