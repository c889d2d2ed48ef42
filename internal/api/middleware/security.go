package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全响应头。
// 服务只返回 JSON 与导出文件，不渲染页面；考勤数据属于个人信息，禁止缓存。
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
