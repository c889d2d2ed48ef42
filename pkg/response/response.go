package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 通用错误码；业务错误码按模块分段（11xxx 认证、12xxx 考勤、13xxx 工作申请、161xx 导出）
const (
	CodeOK            = 0
	CodeInvalidParams = 10001
	CodeInternal      = 50000
)

// Response 统一响应信封：客户端只依赖 code/message/data 三个字段
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   string      `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Code: CodeOK, Message: "success", Data: data})
}

// OK 200
func OK(c *gin.Context, data interface{}) { success(c, http.StatusOK, data) }

// Created 201，签到/加班签到/提交申请
func Created(c *gin.Context, data interface{}) { success(c, http.StatusCreated, data) }

// OKPage 分页列表；pageSize 由调用方保证大于 0
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	success(c, http.StatusOK, PageData{
		List:       list,
		Pagination: Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages},
	})
}

// Error 业务错误
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{Code: code, Message: message})
}

// InvalidParams 请求绑定失败；details 携带绑定器给出的原因，便于终端客户端排查
func InvalidParams(c *gin.Context, err error) {
	resp := Response{Code: CodeInvalidParams, Message: "参数校验失败"}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409：重复签到/签退、乐观锁冲突、申请已处理
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500，不向外暴露错误细节，只回显请求 ID 供日志检索
func InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:      CodeInternal,
		Message:   "服务器内部错误",
		RequestID: c.GetString("request_id"),
	})
}
