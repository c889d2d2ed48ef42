package worksession

import (
	"context"
	"errors"
	"strings"
	"time"
)

// AttendanceStatus 考勤记录的开闭状态（对账输入 a）
type AttendanceStatus struct {
	IsCheckedIn     bool
	IsCheckedOut    bool
	HasCheckedOut   bool // 今天是否已有已签退记录
	IsOvernightWork bool // 当前/最近一条记录是否跨夜
}

// Open 是否存在未签退的考勤记录
func (s AttendanceStatus) Open() bool {
	return s.IsCheckedIn && !s.IsCheckedOut
}

// AutoCheckoutRecord 系统自动签退、且用户尚未确认的考勤记录
type AutoCheckoutRecord struct {
	ID         string
	WorkDate   string // YYYY-MM-DD
	CheckInAt  time.Time
	CheckOutAt time.Time
}

// CheckInResult 签到结果；AutoCheckoutHistory 非空表示服务端附带了自动签退历史警告
type CheckInResult struct {
	AutoCheckoutHistory []AutoCheckoutRecord
}

// CorrectionRequest 考勤更正申请，由外部审批流程决定是否生效
type CorrectionRequest struct {
	RequestType string
	StartDate   string
	EndDate     string
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Reason      string
}

// StatusReader 对账所需的三项只读查询
type StatusReader interface {
	AttendanceStatus(ctx context.Context) (AttendanceStatus, error)
	// RealtimeStatus 无记录时返回 ("", nil)
	RealtimeStatus(ctx context.Context) (WorkStatus, error)
	PendingAutoCheckouts(ctx context.Context) ([]AutoCheckoutRecord, error)
}

// SessionActions 状态机驱动的副作用调用
type SessionActions interface {
	SetRealtimeStatus(ctx context.Context, status WorkStatus) error
	CheckIn(ctx context.Context) (CheckInResult, error)
	CheckOut(ctx context.Context) error
	OvertimeCheckIn(ctx context.Context) error
	// SignOut 终止宿主会话，不可撤销
	SignOut(ctx context.Context) error
}

// AutoCheckoutResolver 自动签退补救流程的两类写操作
type AutoCheckoutResolver interface {
	// ConfirmAutoCheckout 标记 user_confirmed=true，不修改时间；幂等
	ConfirmAutoCheckout(ctx context.Context, id string) error
	CreateCorrectionRequest(ctx context.Context, req CorrectionRequest) error
}

// Backend 考勤协作方的完整端口
type Backend interface {
	StatusReader
	SessionActions
	AutoCheckoutResolver
}

// Notifier 面向用户的提示出口
type Notifier interface {
	// Notify 普通提示（欢迎回来、已恢复工作等）
	Notify(message string)
	// Alert 阻断式错误提示
	Alert(message string, err error)
}

// ── 重复操作 ──

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in")
	ErrAlreadyCheckedOut = errors.New("already checked out")
)

// IsAlreadyCheckedIn 判定"已签到"冲突：哨兵错误或错误消息中包含该短语
func IsAlreadyCheckedIn(err error) bool {
	return matchDuplicate(err, ErrAlreadyCheckedIn)
}

// IsAlreadyCheckedOut 判定"已签退"冲突
func IsAlreadyCheckedOut(err error) bool {
	return matchDuplicate(err, ErrAlreadyCheckedOut)
}

func matchDuplicate(err, sentinel error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sentinel) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), sentinel.Error())
}
