package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tkaykim/totalmanagement-sub001/internal/service"
	"github.com/tkaykim/totalmanagement-sub001/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出月度考勤
// GET /api/v1/export/attendance?month=2026-10
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.BadRequest(c, 10001, "month 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ExportCalendar 导出个人考勤日历
// GET /api/v1/export/calendar?from=2026-10-01&to=2026-10-31
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		response.BadRequest(c, 10001, "from 与 to 不能为空")
		return
	}

	data, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), userID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func setDownloadHeaders(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportMonthInvalid):
		response.BadRequest(c, 16101, "月份格式应为 YYYY-MM")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 16102, "日期范围无效")
	case errors.Is(err, service.ErrExportNoRecords):
		response.NotFound(c, 16103, "该时间段内暂无考勤记录")
	default:
		response.InternalError(c)
	}
}
