package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("test-signing-key", "volunity", time.Hour)
	userID := id.NewUserID()

	token, err := svc.Generate(userID, "maria@example.com", authz.RoleOrganizer)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email)
	assert.Equal(t, authz.RoleOrganizer, claims.Role)
	assert.NotEmpty(t, claims.JTI)
}

func TestJTIIsUniquePerToken(t *testing.T) {
	svc := New("test-signing-key", "volunity", time.Hour)
	userID := id.NewUserID()

	first, err := svc.Generate(userID, "a@example.com", authz.RoleUser)
	require.NoError(t, err)
	second, err := svc.Generate(userID, "a@example.com", authz.RoleUser)
	require.NoError(t, err)

	c1, err := svc.ValidateToken(first)
	require.NoError(t, err)
	c2, err := svc.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.JTI, c2.JTI)
}

func TestValidateRejects(t *testing.T) {
	svc := New("test-signing-key", "volunity", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := New("other-key", "volunity", time.Hour)
		token, err := other.Generate(id.NewUserID(), "a@example.com", authz.RoleUser)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		shortLived := New("test-signing-key", "volunity", -time.Minute)
		token, err := shortLived.Generate(id.NewUserID(), "a@example.com", authz.RoleUser)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.Equal(t, "token has expired", dErrors.MessageOf(err))
	})
}
