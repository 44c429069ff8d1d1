package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"giftwall/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, _ := jwtService.GenerateToken("admin-123", "admin")

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		userID := c.GetString("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidFormat(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "InvalidFormat token")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, _ := jwtService.GenerateToken("user-123", "guest")

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.Use(RequireRole("admin"))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_Admin(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, _ := jwtService.GenerateToken("admin-123", "admin")

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.Use(RequireRole("admin"))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuthMiddleware_SharedSecret(t *testing.T) {
	router := setupTestRouter()
	router.Use(CronAuthMiddleware("sweep-secret", "X-Appengine-Cron"))
	router.POST("/cron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/cron", nil)
	req.Header.Set("X-Cron-Secret", "sweep-secret")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuthMiddleware_TrustedHeader(t *testing.T) {
	router := setupTestRouter()
	router.Use(CronAuthMiddleware("sweep-secret", "X-Appengine-Cron"))
	router.POST("/cron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/cron", nil)
	req.Header.Set("X-Appengine-Cron", "true")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuthMiddleware_WrongSecret(t *testing.T) {
	router := setupTestRouter()
	router.Use(CronAuthMiddleware("sweep-secret", "X-Appengine-Cron"))
	router.POST("/cron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/cron", nil)
	req.Header.Set("X-Cron-Secret", "wrong")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCronAuthMiddleware_NoCredentials(t *testing.T) {
	router := setupTestRouter()
	router.Use(CronAuthMiddleware("sweep-secret", "X-Appengine-Cron"))
	router.POST("/cron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/cron", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
