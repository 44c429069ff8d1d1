package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewService(t *testing.T) {
	secretKey := "test-secret-key"
	service := NewService(secretKey)

	assert.NotNil(t, service)
	assert.Equal(t, []byte(secretKey), service.secretKey)
}

func TestGenerateToken(t *testing.T) {
	service := NewService("test-secret-key")

	token, err := service.GenerateToken("admin-123", "admin")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateToken(t *testing.T) {
	service := NewService("test-secret-key")

	token, err := service.GenerateToken("admin-123", "admin")
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "admin-123", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken_InvalidToken(t *testing.T) {
	service := NewService("test-secret-key")

	_, err := service.ValidateToken("invalid-token")
	assert.Error(t, err)
}

func TestValidateToken_EmptyToken(t *testing.T) {
	service := NewService("test-secret-key")

	_, err := service.ValidateToken("")
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service1 := NewService("secret-key-1")
	service2 := NewService("secret-key-2")

	token, err := service1.GenerateToken("admin-123", "admin")
	assert.NoError(t, err)

	_, err = service2.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_ExpirationSet(t *testing.T) {
	service := NewService("test-secret-key")

	token, err := service.GenerateToken("admin-123", "admin")
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims.ExpiresAt)
	assert.True(t, time.Now().Before(claims.ExpiresAt.Time))
}
