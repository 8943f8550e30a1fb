package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
)

// doStats 是一个通用封装：
//  1. 统一抽取并校验用户
//  2. 创建 StatsService
//  3. 统一错误处理与 JSON 输出
//
// 回调 fn 中负责具体业务逻辑与返回数据（可返回任意 JSON-able 结构）。
func doStats(c *gin.Context, errLogMsg string, fn func(svc *service.StatsService, user string) (any, error)) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	svc := service.NewStatsService(c.Request.Context())

	data, e := fn(svc, user)
	if e != nil {
		if errLogMsg == "" {
			errLogMsg = "stats handle failed"
		}

		l.Error().Err(e).Msg(errLogMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": e.Error()})

		return
	}

	c.JSON(http.StatusOK, data)
}

// intQuery 解析整型查询参数，缺省或非法时返回 0（由 service 落默认值）.
func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}

	return v
}

// GetStorageAnalytics 存储占用汇总.
//
//	@Summary	存储统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.StorageAnalyticsResponse
//	@Failure	400	{object}	map[string]string
//	@Failure	500	{object}	map[string]string
//	@Router		/user/analytics/storage [get]
func GetStorageAnalytics(c *gin.Context) {
	doStats(c, "storage analytics failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.StorageAnalytics(c.Request.Context(), user)
	})
}

// GetUploadsAnalytics 按天的上传趋势.
//
//	@Summary	上传趋势统计
//	@Tags		统计
//	@Produce	json
//	@Param		days	query		int	false	"统计天数，默认30，最大365"
//	@Success	200		{object}	types.UploadsAnalyticsResponse
//	@Failure	400		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Router		/user/analytics/uploads [get]
func GetUploadsAnalytics(c *gin.Context) {
	doStats(c, "uploads analytics failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.UploadsAnalytics(c.Request.Context(), user, intQuery(c, "days"))
	})
}

// GetTagsAnalytics AI关键词热度统计.
//
//	@Summary	关键词统计
//	@Tags		统计
//	@Produce	json
//	@Param		limit	query		int	false	"返回条数，默认10"
//	@Success	200		{object}	types.TagsAnalyticsResponse
//	@Failure	400		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Router		/user/analytics/tags [get]
func GetTagsAnalytics(c *gin.Context) {
	doStats(c, "tags analytics failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.TagsAnalytics(c.Request.Context(), user, intQuery(c, "limit"))
	})
}

// GetActivityAnalytics 近期活动事件.
//
//	@Summary	活动事件统计
//	@Tags		统计
//	@Produce	json
//	@Param		hours	query		int	false	"回看小时数，默认24"
//	@Success	200		{object}	types.ActivityAnalyticsResponse
//	@Failure	400		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Router		/user/analytics/activity [get]
func GetActivityAnalytics(c *gin.Context) {
	doStats(c, "activity analytics failed", func(svc *service.StatsService, user string) (any, error) {
		return svc.ActivityAnalytics(c.Request.Context(), user, intQuery(c, "hours"))
	})
}
