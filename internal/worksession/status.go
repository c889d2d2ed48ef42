// Package worksession 实现单个用户会话内的工作状态管理：
// 启动时的状态对账、工作状态机、确认闸门以及系统自动签退记录的补救流程。
//
// 所有副作用都通过注入的端口（Backend、Notifier）完成，本包不关心传输方式。
package worksession

import (
	"errors"
	"fmt"
)

// WorkStatus 用户当前工作状态，由考勤记录与实时状态推导而来，本包从不直接持久化
type WorkStatus string

const (
	StatusOffWork  WorkStatus = "OFF_WORK"
	StatusWorking  WorkStatus = "WORKING"
	StatusMeeting  WorkStatus = "MEETING"
	StatusOutside  WorkStatus = "OUTSIDE"
	StatusBreak    WorkStatus = "BREAK"
	StatusOvertime WorkStatus = "OVERTIME"
)

// ErrInvalidStatus 未知的工作状态值
var ErrInvalidStatus = errors.New("无效的工作状态")

// AllStatuses 返回全部状态（展示顺序）
func AllStatuses() []WorkStatus {
	return []WorkStatus{
		StatusOffWork, StatusWorking, StatusMeeting,
		StatusOutside, StatusBreak, StatusOvertime,
	}
}

// Valid 判断是否为已知状态
func (s WorkStatus) Valid() bool {
	switch s {
	case StatusOffWork, StatusWorking, StatusMeeting, StatusOutside, StatusBreak, StatusOvertime:
		return true
	}
	return false
}

// Label 状态的中文展示名
func (s WorkStatus) Label() string {
	switch s {
	case StatusOffWork:
		return "已下班"
	case StatusWorking:
		return "工作中"
	case StatusMeeting:
		return "会议中"
	case StatusOutside:
		return "外出"
	case StatusBreak:
		return "休息中"
	case StatusOvertime:
		return "加班中"
	}
	return string(s)
}

// ParseWorkStatus 解析线上传输的状态字符串；空串表示"无记录"，返回 ("", nil)
func ParseWorkStatus(v string) (WorkStatus, error) {
	if v == "" {
		return "", nil
	}
	s := WorkStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}
