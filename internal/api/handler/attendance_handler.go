package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/service"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
	"github.com/tkaykim/totalmanagement-sub001/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	realtimeSvc   service.RealtimeStatusService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, realtimeSvc service.RealtimeStatusService) *AttendanceHandler {
	dto.RegisterValidators()
	return &AttendanceHandler{attendanceSvc: attendanceSvc, realtimeSvc: realtimeSvc}
}

// GetStatus 当前考勤开闭状态
// GET /api/v1/attendance/status
func (h *AttendanceHandler) GetStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Status(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetRealtimeStatus 读取实时状态
// GET /api/v1/attendance/realtime-status
func (h *AttendanceHandler) GetRealtimeStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.realtimeSvc.Get(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// SetRealtimeStatus 写入实时状态
// POST /api/v1/attendance/realtime-status
func (h *AttendanceHandler) SetRealtimeStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SetRealtimeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.realtimeSvc.Set(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckIn 签到
// POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// CheckOut 签退
// POST /api/v1/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// OvertimeCheckIn 加班签到
// POST /api/v1/attendance/overtime-check-in
func (h *AttendanceHandler) OvertimeCheckIn(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.OvertimeCheckIn(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListPendingAutoCheckouts 待确认的自动签退记录
// GET /api/v1/attendance/pending-auto-checkouts
func (h *AttendanceHandler) ListPendingAutoCheckouts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.PendingAutoCheckouts(c.Request.Context(), userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CorrectCheckout 确认自动签退记录
// POST /api/v1/attendance/logs/:id/correct-checkout
func (h *AttendanceHandler) CorrectCheckout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CorrectCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.attendanceSvc.CorrectCheckout(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListLogs 考勤历史
// GET /api/v1/attendance/logs?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AttendanceHandler) ListLogs(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AttendanceLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	list, err := h.attendanceSvc.History(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		response.Conflict(c, 12001, service.ErrAlreadyCheckedIn.Error())
	case errors.Is(err, service.ErrAlreadyCheckedOut):
		response.Conflict(c, 12002, service.ErrAlreadyCheckedOut.Error())
	case errors.Is(err, service.ErrLogNotFound):
		response.NotFound(c, 12003, "考勤记录不存在")
	case errors.Is(err, service.ErrLogNotAutoClosed):
		response.BadRequest(c, 12004, "该记录不是系统自动签退记录")
	case errors.Is(err, service.ErrCorrectionRequiresRequest):
		response.BadRequest(c, 12005, "修改签退时间请提交考勤更正申请")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 12006, "日期范围无效")
	case errors.Is(err, worksession.ErrInvalidStatus):
		response.BadRequest(c, 12007, "未知的工作状态")
	default:
		response.InternalError(c)
	}
}
