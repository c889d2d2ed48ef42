package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
	"github.com/tkaykim/totalmanagement-sub001/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeServer 以 gin 模拟考勤服务端，记录收到的请求
type fakeServer struct {
	mu       sync.Mutex
	open     bool
	realtime *string
	confirms []string
	requests []dto.CreateWorkRequestRequest
	auths    []string
	warning  *dto.CheckInWarning
}

const testToken = "token-abc"

func (f *fakeServer) router() *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")

	api.POST("/auth/login", func(c *gin.Context) {
		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Password != "secret" {
			response.Error(c, http.StatusUnauthorized, 11001, "工号或密码错误")
			return
		}
		response.OK(c, dto.TokenResponse{AccessToken: testToken, ExpiresIn: 3600, User: dto.UserResponse{ID: "u-1", EmployeeNo: req.EmployeeNo}})
	})

	authed := api.Group("", func(c *gin.Context) {
		f.mu.Lock()
		f.auths = append(f.auths, c.GetHeader("Authorization"))
		f.mu.Unlock()
		if c.GetHeader("Authorization") != "Bearer "+testToken {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}
		c.Next()
	})

	authed.POST("/auth/logout", func(c *gin.Context) { response.OK(c, nil) })
	authed.GET("/attendance/status", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		response.OK(c, dto.AttendanceStatusResponse{IsCheckedIn: f.open, IsOvernightWork: f.open})
	})
	authed.GET("/attendance/realtime-status", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		response.OK(c, dto.RealtimeStatusResponse{Status: f.realtime})
	})
	authed.POST("/attendance/realtime-status", func(c *gin.Context) {
		var req dto.SetRealtimeStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
		f.mu.Lock()
		f.realtime = &req.Status
		f.mu.Unlock()
		response.OK(c, dto.RealtimeStatusResponse{Status: &req.Status})
	})
	authed.POST("/attendance/check-in", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.open {
			response.Conflict(c, 12001, "already checked in")
			return
		}
		f.open = true
		response.Created(c, dto.CheckInResponse{Log: dto.AttendanceLogResponse{ID: "log-new"}, Warning: f.warning})
	})
	authed.POST("/attendance/check-out", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.open {
			response.Conflict(c, 12002, "already checked out")
			return
		}
		f.open = false
		response.OK(c, dto.AttendanceLogResponse{ID: "log-new"})
	})
	authed.GET("/attendance/pending-auto-checkouts", func(c *gin.Context) {
		out := time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)
		response.OK(c, gin.H{"list": []dto.AttendanceLogResponse{
			{ID: "log-1", WorkDate: "2026-10-14", CheckInAt: out.Add(-14 * time.Hour), CheckOutAt: &out, AutoClosed: true},
			{ID: "log-open", WorkDate: "2026-10-15"},
		}})
	})
	authed.POST("/attendance/logs/:id/correct-checkout", func(c *gin.Context) {
		var req dto.CorrectCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.SkipCorrection {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
		f.mu.Lock()
		f.confirms = append(f.confirms, c.Param("id"))
		f.mu.Unlock()
		response.OK(c, dto.AttendanceLogResponse{ID: c.Param("id"), UserConfirmed: true})
	})
	dto.RegisterValidators()
	authed.POST("/work-requests", func(c *gin.Context) {
		var req dto.CreateWorkRequestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		response.Created(c, dto.WorkRequestResponse{ID: "wr-1", Status: "pending"})
	})
	authed.GET("/attendance/logs", func(c *gin.Context) {
		response.OK(c, gin.H{"list": []dto.AttendanceLogResponse{{ID: "h-" + c.Query("from") + "_" + c.Query("to")}}})
	})
	return r
}

func newTestClient(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/v1/", Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func signedIn(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	c := newTestClient(t, f)
	_, err := c.Login(context.Background(), "2024001", "secret")
	require.NoError(t, err)
	return c
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, &fakeServer{})

	user, err := c.Login(context.Background(), "2024001", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.True(t, c.SignedIn())
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newTestClient(t, &fakeServer{})

	_, err := c.Login(context.Background(), "2024001", "nope")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, 11001, apiErr.Code)
	assert.False(t, c.SignedIn())
}

func TestCallsRequireLogin(t *testing.T) {
	f := &fakeServer{}
	c := newTestClient(t, f)

	_, err := c.AttendanceStatus(context.Background())

	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, f.auths, "未登录时不应发出请求")
}

func TestRealtimeStatus_NullAndRoundTrip(t *testing.T) {
	c := signedIn(t, &fakeServer{})
	ctx := context.Background()

	status, err := c.RealtimeStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, worksession.WorkStatus(""), status)

	require.NoError(t, c.SetRealtimeStatus(ctx, worksession.StatusMeeting))
	status, err = c.RealtimeStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, worksession.StatusMeeting, status)
}

func TestDuplicateCheckInOutMapToSentinels(t *testing.T) {
	c := signedIn(t, &fakeServer{})
	ctx := context.Background()

	_, err := c.CheckIn(ctx)
	require.NoError(t, err)

	_, err = c.CheckIn(ctx)
	assert.ErrorIs(t, err, worksession.ErrAlreadyCheckedIn)
	assert.True(t, worksession.IsAlreadyCheckedIn(err))

	require.NoError(t, c.CheckOut(ctx))
	err = c.CheckOut(ctx)
	assert.ErrorIs(t, err, worksession.ErrAlreadyCheckedOut)
}

func TestCheckIn_ForwardsAutoCheckoutWarning(t *testing.T) {
	out := time.Date(2026, 10, 13, 23, 0, 0, 0, time.UTC)
	f := &fakeServer{warning: &dto.CheckInWarning{
		Type: dto.WarningTypeAutoCheckoutHistory,
		Logs: []dto.AttendanceLogResponse{{ID: "old-1", WorkDate: "2026-10-13", CheckInAt: out.Add(-15 * time.Hour), CheckOutAt: &out}},
	}}
	c := signedIn(t, f)

	result, err := c.CheckIn(context.Background())

	require.NoError(t, err)
	require.Len(t, result.AutoCheckoutHistory, 1)
	assert.Equal(t, "old-1", result.AutoCheckoutHistory[0].ID)
	assert.True(t, result.AutoCheckoutHistory[0].CheckOutAt.Equal(out))
}

func TestPendingAutoCheckouts_SkipsOpenLogs(t *testing.T) {
	c := signedIn(t, &fakeServer{})

	records, err := c.PendingAutoCheckouts(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "log-1", records[0].ID)
	assert.Equal(t, "2026-10-14", records[0].WorkDate)
}

func TestResolverCalls(t *testing.T) {
	f := &fakeServer{}
	c := signedIn(t, f)
	ctx := context.Background()

	require.NoError(t, c.ConfirmAutoCheckout(ctx, "log-1"))
	require.NoError(t, c.CreateCorrectionRequest(ctx, worksession.CorrectionRequest{
		RequestType: worksession.CorrectionRequestType,
		StartDate:   "2026-10-14",
		EndDate:     "2026-10-14",
		StartTime:   "09:00",
		EndTime:     "18:30",
		Reason:      "[自动签退更正] 忘记签退",
	}))

	assert.Equal(t, []string{"log-1"}, f.confirms)
	require.Len(t, f.requests, 1)
	assert.Equal(t, "attendance_correction", f.requests[0].RequestType)
	assert.Equal(t, "18:30", f.requests[0].EndTime)
}

func TestHistory_PassesRange(t *testing.T) {
	c := signedIn(t, &fakeServer{})

	list, err := c.History(context.Background(), "2026-10-01", "2026-10-15")

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "h-2026-10-01_2026-10-15", list[0].ID)
}

func TestSignOut_ClearsToken(t *testing.T) {
	c := signedIn(t, &fakeServer{})

	require.NoError(t, c.SignOut(context.Background()))

	assert.False(t, c.SignedIn())
	assert.Nil(t, c.User())
	_, err := c.AttendanceStatus(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestAPIError_UnwrapOnlyOnConflict(t *testing.T) {
	err := &APIError{StatusCode: http.StatusBadRequest, Message: "already checked in"}
	assert.False(t, errors.Is(err, worksession.ErrAlreadyCheckedIn))

	err = &APIError{StatusCode: http.StatusConflict, Message: "Already Checked Out"}
	assert.True(t, errors.Is(err, worksession.ErrAlreadyCheckedOut))
}

// 整条会话经由真实 HTTP 驱动控制器：对账 → 签到 → 下班确认
func TestController_EndToEnd(t *testing.T) {
	f := &fakeServer{}
	c := signedIn(t, f)
	ctx := context.Background()

	ctrl := worksession.NewController(c, worksession.LogNotifier{Logger: zap.NewNop()}, zap.NewNop(), worksession.WithNoticeSeed(1))
	result := ctrl.Start(ctx)
	assert.Equal(t, worksession.StatusOffWork, result.Status)

	outcome, err := ctrl.Machine().Request(ctx, worksession.StatusWorking)
	require.NoError(t, err)
	assert.Equal(t, worksession.OutcomeApplied, outcome)
	assert.True(t, f.open)

	outcome, err = ctrl.Machine().Request(ctx, worksession.StatusOffWork)
	require.NoError(t, err)
	assert.Equal(t, worksession.OutcomeAwaitingConfirmation, outcome)

	require.NoError(t, ctrl.Machine().ConfirmOffWork(ctx))
	assert.False(t, f.open)
	assert.Equal(t, worksession.StatusOffWork, ctrl.Machine().Status())
	assert.False(t, c.SignedIn())
}
