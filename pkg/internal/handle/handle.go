// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

func checkUser(c *gin.Context) (string, error) {
	// 认证中间件已把 user_id 写入 request context
	user := ctxPkg.GetOwnerID(c.Request.Context())
	if user == "" {
		user = c.Query("user")
	}
	// 测试默认值，不为 Release 模式时
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user"
	}

	user = strings.TrimSpace(user)

	if err := rule.ValidateVar(user, "required,min=1,max=128"); err != nil {
		return "", err
	}

	return user, nil
}
