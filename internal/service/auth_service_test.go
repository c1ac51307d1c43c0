package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testAuthConfig = config.AuthConfig{
	Secret:         "test-secret-that-is-long-enough-123456",
	AccessTokenTTL: 30 * time.Minute,
	Issuer:         "medix-test",
	BcryptCost:     bcrypt.MinCost,
}

func newTestAuthService(t *testing.T) (*AuthService, *memory.DoctorRepository, *metrics.Collector) {
	t.Helper()
	repo := memory.NewDoctorRepository()
	m := metrics.NewCollector("medix-test", prometheus.NewRegistry())
	svc := NewAuthService(repo, auth.NewJWTManager(testAuthConfig), bcrypt.MinCost, m, zap.NewNop())
	return svc, repo, m
}

func TestAuthService_Register(t *testing.T) {
	svc, repo, m := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "dr_house", "vicodin"))

	stored, err := repo.GetByUsername(ctx, "dr_house")
	require.NoError(t, err)
	assert.NotEqual(t, "vicodin", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("vicodin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DoctorsRegisteredTotal))

	err = svc.Register(ctx, "dr_house", "other")
	assert.ErrorIs(t, err, domain.ErrDoctorAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	var vErr *ValidationError
	require.ErrorAs(t, svc.Register(ctx, "  ", ""), &vErr)
	assert.ElementsMatch(t, []string{"username is required", "password is required"}, vErr.Fields)

	require.ErrorAs(t, svc.Register(ctx, "dr_long", strings.Repeat("x", 73)), &vErr)
	assert.Equal(t, []string{"password must be at most 72 bytes"}, vErr.Fields)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, m := newTestAuthService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "dr_house", "vicodin"))

	token, err := svc.Login(ctx, "dr_house", "vicodin", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), token.ExpiresAt, time.Minute)

	caller, err := svc.ResolveCaller(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dr_house", caller)

	_, err = svc.Login(ctx, "dr_house", "wrong", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "vicodin", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("failure")))
}

func TestAuthService_ResolveCaller_Rejects(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	other := testAuthConfig
	other.Secret = "a-completely-different-secret-value-xyz"
	forged, err := auth.NewJWTManager(other).GenerateAccessToken("dr_house")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": forged.AccessToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ResolveCaller(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}
