package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
)

// AuthMiddleware 基于 Bearer JWT（HS256）做统一身份认证：
//   - 解析 Authorization: Bearer <token>，取 user_id 声明作为文件归属者
//   - 支持通过配置跳过某些路径（如 /metrics, /health, /swagger）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）
//
// 认证通过后把 owner 写入 request context，下游 service 通过 ctxPkg.GetOwnerID 获取.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		userID, err := userFromBearer(c.GetHeader("Authorization"), conf.Secret)
		if err != nil {
			if conf.DevAllowQuery && c.Query("user") != "" {
				injectOwner(c, c.Query("user"))
				c.Next()

				return
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

			return
		}

		injectOwner(c, userID)
		c.Next()
	}
}

// userFromBearer 校验 Bearer token 并提取 user_id 声明.
func userFromBearer(header, secret string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("token is missing")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", fmt.Errorf("invalid authorization header")
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("token is invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("token is invalid or expired")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", fmt.Errorf("token is missing user identity")
	}

	return userID, nil
}

// injectOwner 将认证通过的用户写入 gin 和 request context.
func injectOwner(c *gin.Context, userID string) {
	c.Set("user_id", userID)
	c.Request = c.Request.WithContext(ctxPkg.WithOwnerID(c.Request.Context(), userID))
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

// GetUserID 从 gin.Context 获取当前认证用户，未认证时返回空串.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(string); ok2 {
			return id
		}
	}

	return ctxPkg.GetOwnerID(c.Request.Context())
}
