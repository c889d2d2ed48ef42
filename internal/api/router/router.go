package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/api/handler"
	"github.com/tkaykim/totalmanagement-sub001/internal/api/middleware"
	"github.com/tkaykim/totalmanagement-sub001/pkg/jwt"
	"github.com/tkaykim/totalmanagement-sub001/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	loginLimit  = 10
	loginWindow = time.Minute
	punchLimit  = 30
	punchWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时不启用黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 接口变量必须保持真正的 nil，不能装入 (*redis.Client)(nil)
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(limiter, loginLimit, loginWindow), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 考勤模块
			punch := middleware.RateLimit(limiter, punchLimit, punchWindow)
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("/status", h.Attendance.GetStatus)
				attendance.GET("/realtime-status", h.Attendance.GetRealtimeStatus)
				attendance.POST("/realtime-status", h.Attendance.SetRealtimeStatus)
				attendance.POST("/check-in", punch, h.Attendance.CheckIn)
				attendance.POST("/check-out", punch, h.Attendance.CheckOut)
				attendance.POST("/overtime-check-in", punch, h.Attendance.OvertimeCheckIn)
				attendance.GET("/pending-auto-checkouts", h.Attendance.ListPendingAutoCheckouts)
				attendance.POST("/logs/:id/correct-checkout", h.Attendance.CorrectCheckout)
				attendance.GET("/logs", h.Attendance.ListLogs)
			}

			// 工作申请模块
			workRequests := authorized.Group("/work-requests")
			{
				workRequests.POST("", h.WorkRequest.Create)
				workRequests.GET("/me", h.WorkRequest.ListMine)
				workRequests.GET("", middleware.RoleAuth("admin"), h.WorkRequest.List)
				workRequests.POST("/:id/approve", middleware.RoleAuth("admin"), h.WorkRequest.Approve)
				workRequests.POST("/:id/reject", middleware.RoleAuth("admin"), h.WorkRequest.Reject)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/attendance", middleware.RoleAuth("admin"), h.Export.ExportAttendance)
				export.GET("/calendar", h.Export.ExportCalendar)
			}
		}
	}

	return r
}
