package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "1h")
	employeeID := "emp-1"

	token, expiresAt, err := svc.GenerateAccessToken("usr-1", &employeeID, user.RoleManager)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, expiresAt)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), decoded, nil)
	p, err := PrincipalFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", p.UserID)
	assert.Equal(t, user.RoleManager, p.Role)
	require.NotNil(t, p.EmployeeID)
	assert.Equal(t, "emp-1", *p.EmployeeID)
	assert.True(t, p.IsManager())
}

func TestGenerateAccessToken_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("secret", "forever")
	_, _, err := svc.GenerateAccessToken("usr-1", nil, user.RoleEmployee)
	assert.Error(t, err)
}

func TestPrincipalFromContext_NoToken(t *testing.T) {
	_, err := PrincipalFromContext(context.Background())
	assert.ErrorIs(t, err, user.ErrInvalidToken)
}
