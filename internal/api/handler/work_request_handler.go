package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/service"
	"github.com/tkaykim/totalmanagement-sub001/pkg/response"
)

// WorkRequestHandler 工作申请模块 HTTP 处理器
type WorkRequestHandler struct {
	workRequestSvc service.WorkRequestService
}

// NewWorkRequestHandler 创建 WorkRequestHandler
func NewWorkRequestHandler(workRequestSvc service.WorkRequestService) *WorkRequestHandler {
	dto.RegisterValidators()
	return &WorkRequestHandler{workRequestSvc: workRequestSvc}
}

// Create 提交申请
// POST /api/v1/work-requests
func (h *WorkRequestHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateWorkRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.workRequestSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleWorkRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 我的申请
// GET /api/v1/work-requests/me
func (h *WorkRequestHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.workRequestSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.handleWorkRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// List 申请列表（管理员）
// GET /api/v1/work-requests?status=pending&page=1&page_size=20
func (h *WorkRequestHandler) List(c *gin.Context) {
	var req dto.WorkRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	list, total, err := h.workRequestSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleWorkRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Approve 审批通过
// POST /api/v1/work-requests/:id/approve
func (h *WorkRequestHandler) Approve(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.workRequestSvc.Approve(c.Request.Context(), approverID, c.Param("id"))
	if err != nil {
		h.handleWorkRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回
// POST /api/v1/work-requests/:id/reject
func (h *WorkRequestHandler) Reject(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RejectWorkRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.workRequestSvc.Reject(c.Request.Context(), approverID, c.Param("id"), &req)
	if err != nil {
		h.handleWorkRequestError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *WorkRequestHandler) handleWorkRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkRequestNotFound):
		response.NotFound(c, 13001, "申请不存在")
	case errors.Is(err, service.ErrWorkRequestNotPending):
		response.Conflict(c, 13002, "申请已处理")
	case errors.Is(err, service.ErrWorkRequestDateInvalid):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrWorkRequestTimeInvalid):
		response.BadRequest(c, 13004, err.Error())
	case errors.Is(err, service.ErrCorrectionTargetNotFound):
		response.NotFound(c, 13005, "未找到对应的考勤记录")
	case errors.Is(err, service.ErrAlreadyCorrected):
		response.Conflict(c, 13006, "该考勤记录已更正过")
	case errors.Is(err, service.ErrWorkRequestConflict):
		response.Conflict(c, 13007, err.Error())
	default:
		response.InternalError(c)
	}
}
