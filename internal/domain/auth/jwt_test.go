package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "smartsewing/internal/core/context"
)

func TestJWTRoundTrip(t *testing.T) {
	svc, err := NewJWTService(DefaultJWTConfig("secret"))
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken(appctx.UserContext{
		UserID: "u-1",
		Email:  "clerk@shop.test",
		Roles:  []string{RoleCashier},
	})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, []string{RoleCashier}, user.Roles)
}

func TestValidateTokenRejects(t *testing.T) {
	svc, err := NewJWTService(DefaultJWTConfig("secret"))
	require.NoError(t, err)
	other, err := NewJWTService(DefaultJWTConfig("other"))
	require.NoError(t, err)

	foreign, _, err := other.GenerateAccessToken(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	expiredCfg := DefaultJWTConfig("secret")
	expiredCfg.AccessTokenTTL = -time.Minute
	expiredSvc, err := NewJWTService(expiredCfg)
	require.NoError(t, err)
	expired, _, err := expiredSvc.GenerateAccessToken(appctx.UserContext{UserID: "u-1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(DefaultJWTConfig(""))
	assert.Error(t, err)
}
