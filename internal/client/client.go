// Package client 通过 HTTP 调用考勤服务端，实现 worksession 所需的全部端口
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
)

// ErrNotSignedIn 尚未登录或已退出登录
var ErrNotSignedIn = errors.New("尚未登录")

// maxResponseBytes 单个响应体的读取上限
const maxResponseBytes = 4 << 20

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap 409 冲突映射为重复签到/签退哨兵，便于状态机按成功处理
func (e *APIError) Unwrap() error {
	if e.StatusCode != http.StatusConflict {
		return nil
	}
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, worksession.ErrAlreadyCheckedIn.Error()):
		return worksession.ErrAlreadyCheckedIn
	case strings.Contains(msg, worksession.ErrAlreadyCheckedOut.Error()):
		return worksession.ErrAlreadyCheckedOut
	}
	return nil
}

// envelope 统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Config 客户端配置
type Config struct {
	BaseURL    string // 例如 http://localhost:8080/api/v1
	Timeout    time.Duration
	HTTPClient *http.Client // 为空时按 Timeout 新建
}

// Client 考勤服务端客户端；登录后持有 Access Token
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
	user  *dto.UserResponse
}

var _ worksession.Backend = (*Client)(nil)

// New 创建客户端
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("无效的服务端地址 %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ────────────────────── 认证 ──────────────────────

// Login 以工号密码登录并保存 Token
func (c *Client) Login(ctx context.Context, employeeNo, password string) (*dto.UserResponse, error) {
	var resp dto.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{EmployeeNo: employeeNo, Password: password}, nil, &resp, false)
	if err != nil {
		return nil, fmt.Errorf("登录失败: %w", err)
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	user := resp.User
	c.user = &user
	c.mu.Unlock()

	c.logger.Info("登录成功", zap.String("user_id", user.ID), zap.String("employee_no", user.EmployeeNo))
	return &user, nil
}

// User 当前登录用户；未登录时为 nil
func (c *Client) User() *dto.UserResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SignedIn 是否持有 Token
func (c *Client) SignedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// SignOut 吊销服务端 Token 并清除本地凭证。
// 服务端调用失败时仍清除本地凭证，会话不可恢复。
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, true)

	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()

	if err != nil && !errors.Is(err, ErrNotSignedIn) {
		return err
	}
	return nil
}

// ────────────────────── StatusReader ──────────────────────

func (c *Client) AttendanceStatus(ctx context.Context) (worksession.AttendanceStatus, error) {
	var resp dto.AttendanceStatusResponse
	if err := c.do(ctx, http.MethodGet, "/attendance/status", nil, nil, &resp, true); err != nil {
		return worksession.AttendanceStatus{}, err
	}
	return worksession.AttendanceStatus{
		IsCheckedIn:     resp.IsCheckedIn,
		IsCheckedOut:    resp.IsCheckedOut,
		HasCheckedOut:   resp.HasCheckedOut,
		IsOvernightWork: resp.IsOvernightWork,
	}, nil
}

func (c *Client) RealtimeStatus(ctx context.Context) (worksession.WorkStatus, error) {
	var resp dto.RealtimeStatusResponse
	if err := c.do(ctx, http.MethodGet, "/attendance/realtime-status", nil, nil, &resp, true); err != nil {
		return "", err
	}
	if resp.Status == nil {
		return "", nil
	}
	return worksession.ParseWorkStatus(*resp.Status)
}

func (c *Client) PendingAutoCheckouts(ctx context.Context) ([]worksession.AutoCheckoutRecord, error) {
	var resp struct {
		List []dto.AttendanceLogResponse `json:"list"`
	}
	if err := c.do(ctx, http.MethodGet, "/attendance/pending-auto-checkouts", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return toAutoCheckoutRecords(resp.List), nil
}

// ────────────────────── SessionActions ──────────────────────

func (c *Client) SetRealtimeStatus(ctx context.Context, status worksession.WorkStatus) error {
	req := dto.SetRealtimeStatusRequest{Status: string(status)}
	return c.do(ctx, http.MethodPost, "/attendance/realtime-status", req, nil, nil, true)
}

func (c *Client) CheckIn(ctx context.Context) (worksession.CheckInResult, error) {
	var resp dto.CheckInResponse
	if err := c.do(ctx, http.MethodPost, "/attendance/check-in", nil, nil, &resp, true); err != nil {
		return worksession.CheckInResult{}, err
	}
	var result worksession.CheckInResult
	if resp.Warning != nil && resp.Warning.Type == dto.WarningTypeAutoCheckoutHistory {
		result.AutoCheckoutHistory = toAutoCheckoutRecords(resp.Warning.Logs)
	}
	return result, nil
}

func (c *Client) CheckOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/attendance/check-out", nil, nil, nil, true)
}

func (c *Client) OvertimeCheckIn(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/attendance/overtime-check-in", nil, nil, nil, true)
}

// ────────────────────── AutoCheckoutResolver ──────────────────────

func (c *Client) ConfirmAutoCheckout(ctx context.Context, id string) error {
	path := "/attendance/logs/" + url.PathEscape(id) + "/correct-checkout"
	return c.do(ctx, http.MethodPost, path, dto.CorrectCheckoutRequest{SkipCorrection: true}, nil, nil, true)
}

func (c *Client) CreateCorrectionRequest(ctx context.Context, req worksession.CorrectionRequest) error {
	body := dto.CreateWorkRequestRequest{
		RequestType: req.RequestType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
	}
	return c.do(ctx, http.MethodPost, "/work-requests", body, nil, nil, true)
}

// ────────────────────── 历史 ──────────────────────

// History 查询 [from, to] 区间内的考勤记录（YYYY-MM-DD）
func (c *Client) History(ctx context.Context, from, to string) ([]dto.AttendanceLogResponse, error) {
	var resp struct {
		List []dto.AttendanceLogResponse `json:"list"`
	}
	query := url.Values{"from": {from}, "to": {to}}
	if err := c.do(ctx, http.MethodGet, "/attendance/logs", nil, query, &resp, true); err != nil {
		return nil, err
	}
	return resp.List, nil
}

// ── 内部 ──

// do 发送请求并把 data 解码到 out；authed 为 true 时附带 Bearer Token
func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, out any, authed bool) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求体失败: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("解析响应失败: %w", jsonErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Code != 0 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
		c.logger.Debug("服务端返回错误",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", env.Code),
			zap.String("message", env.Message),
		)
		return apiErr
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}

func toAutoCheckoutRecords(logs []dto.AttendanceLogResponse) []worksession.AutoCheckoutRecord {
	out := make([]worksession.AutoCheckoutRecord, 0, len(logs))
	for _, l := range logs {
		if l.CheckOutAt == nil {
			continue
		}
		out = append(out, worksession.AutoCheckoutRecord{
			ID:         l.ID,
			WorkDate:   l.WorkDate,
			CheckInAt:  l.CheckInAt,
			CheckOutAt: *l.CheckOutAt,
		})
	}
	return out
}
