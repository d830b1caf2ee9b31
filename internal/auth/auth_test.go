package auth

import (
	"context"
	"testing"
	"time"

	"inventario/internal/models"
	"inventario/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminAndLogin(t *testing.T) {
	g := testutil.OpenDB(t)
	svc := NewService(g, "secret", time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "pa55"))
	// второй вызов не создаёт дубль и не меняет пароль
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other"))
	var n int64
	require.NoError(t, g.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	_, _, err := svc.Login(ctx, "admin", "other")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ghost", "pa55")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, exp, err := svc.Login(ctx, " admin ", "pa55")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateTokenRejectsForeignAndExpired(t *testing.T) {
	g := testutil.OpenDB(t)
	svc := NewService(g, "secret", time.Hour)
	u := models.User{Username: "tec", Role: "soporte"}
	u.ID = 3

	tok, _, err := NewService(g, "another", time.Hour).IssueToken(u)
	require.NoError(t, err)
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err = svc.IssueToken(u)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
