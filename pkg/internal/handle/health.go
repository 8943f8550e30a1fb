// Package handle 新增健康检查处理器实现.
package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
)

const healthTimeout = 2 * time.Second

// Health 聚合健康检查，任一核心依赖不可用则返回 503.
// 备存储与扫描器状态仅上报，不影响整体判定（备存储可禁用，扫描器故障时上传自身会拒绝）.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	components := gin.H{}
	healthy := true

	if dbc := ctxPkg.GetDBClient(c.Request.Context()); dbc != nil && dbc.HealthCheck(ctx) == nil {
		components["db"] = "ok"
	} else {
		components["db"] = "unhealthy"
		healthy = false
	}

	if primary := ctxPkg.GetPrimaryStore(c.Request.Context()); primary != nil && primary.HealthCheck(ctx) == nil {
		components["primary_storage"] = "ok"
	} else {
		components["primary_storage"] = "unhealthy"
		healthy = false
	}

	if secondary := ctxPkg.GetSecondaryStore(c.Request.Context()); secondary == nil {
		components["secondary_storage"] = "disabled"
	} else if secondary.HealthCheck(ctx) == nil {
		components["secondary_storage"] = "ok"
	} else {
		components["secondary_storage"] = "unhealthy"
	}

	if service.Scanner().Ping(ctx) == nil {
		components["scanner"] = "ok"
	} else {
		components["scanner"] = "unhealthy"
	}

	if ctxPkg.GetMQClient(c.Request.Context()) != nil {
		components["mq"] = "ok"
	} else {
		components["mq"] = "unhealthy"
		healthy = false
	}

	status := http.StatusOK
	overall := "ok"

	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil { // dbc.DB 来自于嵌入的 *gorm.DB
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": "db client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := dbc.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthPrimary 主对象存储健康检查.
func HealthPrimary(c *gin.Context) {
	store := ctxPkg.GetPrimaryStore(c.Request.Context())
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "primary_storage", "status": "unhealthy", "error": "primary store not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "primary_storage", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "primary_storage", "status": "ok", "bucket": store.Bucket()})
}

// HealthSecondary 备对象存储健康检查. 未启用时返回 200 并标记 disabled.
func HealthSecondary(c *gin.Context) {
	store := ctxPkg.GetSecondaryStore(c.Request.Context())
	if store == nil {
		c.JSON(http.StatusOK, gin.H{"component": "secondary_storage", "status": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "secondary_storage", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "secondary_storage", "status": "ok", "bucket": store.Bucket()})
}

// HealthScanner 病毒扫描器健康检查.
func HealthScanner(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := service.Scanner().Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "scanner", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "scanner", "status": "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "mq", "status": "unhealthy", "error": "mq client not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}
