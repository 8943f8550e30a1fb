package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return token
}

func newAuthRouter(conf configs.AuthConfig) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)

	var seenOwner string

	e := gin.New()
	e.Use(middleware.AuthMiddleware(conf))
	e.GET("/user/files", func(c *gin.Context) {
		seenOwner = middleware.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return e, &seenOwner
}

// TestAuthValidToken 合法 token 放行，owner 注入 request context.
func TestAuthValidToken(t *testing.T) {
	e, owner := newAuthRouter(configs.AuthConfig{Enabled: true, Secret: testSecret})

	token := signToken(t, jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if *owner != "alice" {
		t.Errorf("owner = %q, want alice", *owner)
	}
}

// TestAuthMissingToken 缺少 token 返回 401.
func TestAuthMissingToken(t *testing.T) {
	e, _ := newAuthRouter(configs.AuthConfig{Enabled: true, Secret: testSecret})

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthExpiredToken 过期 token 拒绝.
func TestAuthExpiredToken(t *testing.T) {
	e, _ := newAuthRouter(configs.AuthConfig{Enabled: true, Secret: testSecret})

	token := signToken(t, jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthWrongSecret 错误密钥签名的 token 拒绝.
func TestAuthWrongSecret(t *testing.T) {
	e, _ := newAuthRouter(configs.AuthConfig{Enabled: true, Secret: testSecret})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "alice",
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthMissingUserClaim 没有 user_id 声明的 token 拒绝.
func TestAuthMissingUserClaim(t *testing.T) {
	e, _ := newAuthRouter(configs.AuthConfig{Enabled: true, Secret: testSecret})

	token := signToken(t, jwt.MapClaims{"sub": "alice"})

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// TestAuthSkipPaths 跳过路径前缀不做认证.
func TestAuthSkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.AuthMiddleware(configs.AuthConfig{
		Enabled:   true,
		Secret:    testSecret,
		SkipPaths: []string{"/health"},
	}))
	e.GET("/health/db", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestAuthDevQueryFallback 开发模式允许 query user 兜底.
func TestAuthDevQueryFallback(t *testing.T) {
	e, owner := newAuthRouter(configs.AuthConfig{
		Enabled:       true,
		Secret:        testSecret,
		DevAllowQuery: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/user/files?user=dev-user", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if *owner != "dev-user" {
		t.Errorf("owner = %q, want dev-user", *owner)
	}
}

// TestAuthDisabled 认证关闭时直接放行.
func TestAuthDisabled(t *testing.T) {
	e, _ := newAuthRouter(configs.AuthConfig{Enabled: false})

	req := httptest.NewRequest(http.MethodGet, "/user/files", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// TestGetUserIDFromRequestContext gin 键缺失时回退到 request context.
func TestGetUserIDFromRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = c.Request.WithContext(ctxPkg.WithOwnerID(c.Request.Context(), "bob"))

	if got := middleware.GetUserID(c); got != "bob" {
		t.Errorf("GetUserID = %q, want bob", got)
	}
}
