package worksession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrBusy 上一次状态切换尚未完成；同一用户同一时刻只允许一个切换在途
var ErrBusy = errors.New("状态切换进行中，请稍候")

// Outcome Request 的处理结果
type Outcome int

const (
	// OutcomeUnchanged 目标与当前相同，或请求被拒绝
	OutcomeUnchanged Outcome = iota
	// OutcomeApplied 副作用全部成功，状态已提交
	OutcomeApplied
	// OutcomeAwaitingConfirmation 转换被闸门挂起，等待用户确认
	OutcomeAwaitingConfirmation
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeApplied:
		return "applied"
	case OutcomeAwaitingConfirmation:
		return "awaiting_confirmation"
	}
	return "unknown"
}

// Machine 工作状态机，持有当前 WorkStatus。
//
// 内存中的状态只在对应副作用全部成功之后才提交；
// 副作用部分落地后失败时状态保持不变并标记 Stale，等待下一次对账纠正。
type Machine struct {
	actions  SessionActions
	notifier Notifier
	notices  *NoticePicker
	gate     *Gate
	logger   *zap.Logger

	// onAutoCheckout 接收签到响应中附带的自动签退历史，不阻塞状态机
	onAutoCheckout func([]AutoCheckoutRecord)

	mu       sync.Mutex
	status   WorkStatus
	changing bool
	stale    bool
}

// NewMachine 创建状态机，初始状态为 OFF_WORK，通常随后由对账结果 Seed
func NewMachine(actions SessionActions, notifier Notifier, notices *NoticePicker, logger *zap.Logger) *Machine {
	return &Machine{
		actions:  actions,
		notifier: notifier,
		notices:  notices,
		gate:     NewGate(),
		logger:   logger,
		status:   StatusOffWork,
	}
}

// OnAutoCheckoutHistory 注册签到警告的转发目标
func (m *Machine) OnAutoCheckoutHistory(fn func([]AutoCheckoutRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAutoCheckout = fn
}

// Status 当前状态
func (m *Machine) Status() WorkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Busy 是否有切换在途
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changing
}

// Stale 上一次切换是否部分落地后失败，内存状态可能落后于服务端
func (m *Machine) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// Gate 确认闸门
func (m *Machine) Gate() *Gate {
	return m.gate
}

// Seed 用对账结果覆盖当前状态并清除 Stale；切换在途时忽略并返回 false
func (m *Machine) Seed(status WorkStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.changing || !status.Valid() {
		return false
	}
	m.status = status
	m.stale = false
	return true
}

// ────────────────────── Request ──────────────────────

// Request 请求切换到 requested。
// OFF_WORK 不会直接执行，只挂起下班确认；其余状态立即执行对应副作用。
func (m *Machine) Request(ctx context.Context, requested WorkStatus) (Outcome, error) {
	if !requested.Valid() {
		return OutcomeUnchanged, fmt.Errorf("%w: %q", ErrInvalidStatus, requested)
	}

	m.mu.Lock()
	if m.changing {
		m.mu.Unlock()
		return OutcomeUnchanged, ErrBusy
	}
	current := m.status
	if requested == current {
		m.mu.Unlock()
		return OutcomeUnchanged, nil
	}
	if requested == StatusOffWork {
		m.mu.Unlock()
		m.gate.Raise(PromptLogout)
		return OutcomeAwaitingConfirmation, nil
	}
	// 今日已签退且加班询问未处理：不允许绕过询问直接恢复工作
	if current == StatusOffWork && m.gate.Awaiting(PromptOvertimeResume) {
		m.mu.Unlock()
		return OutcomeAwaitingConfirmation, nil
	}
	m.changing = true
	m.mu.Unlock()

	var step func(context.Context) (bool, error)
	switch {
	case current == StatusOffWork && requested == StatusWorking:
		step = m.checkInStep
	case current == StatusBreak && requested == StatusWorking:
		step = m.resumeStep
	default:
		step = func(ctx context.Context) (bool, error) {
			if err := m.actions.SetRealtimeStatus(ctx, requested); err != nil {
				return false, fmt.Errorf("更新实时状态失败: %w", err)
			}
			return true, nil
		}
	}

	if err := m.execute(ctx, current, requested, step); err != nil {
		return OutcomeUnchanged, err
	}
	// 已切换到其他工作状态，之前挂起的下班确认不再有效
	m.gate.Cancel(PromptLogout)
	return OutcomeApplied, nil
}

// checkInStep OFF_WORK → WORKING：先写实时状态，再签到
func (m *Machine) checkInStep(ctx context.Context) (bool, error) {
	if err := m.actions.SetRealtimeStatus(ctx, StatusWorking); err != nil {
		return false, fmt.Errorf("更新实时状态失败: %w", err)
	}

	result, err := m.actions.CheckIn(ctx)
	if err != nil {
		if !IsAlreadyCheckedIn(err) {
			return true, fmt.Errorf("签到失败: %w", err)
		}
		// 重复提交：服务端已有未签退记录，视为成功
		m.logger.Info("签到请求被判定为重复提交，按成功处理", zap.Error(err))
	}

	if len(result.AutoCheckoutHistory) > 0 {
		m.mu.Lock()
		forward := m.onAutoCheckout
		m.mu.Unlock()
		if forward != nil {
			forward(result.AutoCheckoutHistory)
		}
	}

	m.notifier.Notify(m.notices.WelcomeBack())
	return true, nil
}

// resumeStep BREAK → WORKING：休息期间会话从未关闭，不涉及考勤记录
func (m *Machine) resumeStep(ctx context.Context) (bool, error) {
	if err := m.actions.SetRealtimeStatus(ctx, StatusWorking); err != nil {
		return false, fmt.Errorf("更新实时状态失败: %w", err)
	}
	m.notifier.Notify(NoticeResumed)
	return true, nil
}

// ────────────────────── 下班确认 ──────────────────────

// ConfirmOffWork 下班确认：写实时状态 → 签退 → 关闭闸门 → 退出登录（最后一步，不可撤销）。
// 必须先由 Request(OFF_WORK) 挂起确认，否则返回 ErrNotAwaiting。
func (m *Machine) ConfirmOffWork(ctx context.Context) error {
	current, err := m.beginConfirm(PromptLogout)
	if err != nil {
		return err
	}

	err = m.execute(ctx, current, StatusOffWork, func(ctx context.Context) (bool, error) {
		if err := m.actions.SetRealtimeStatus(ctx, StatusOffWork); err != nil {
			return false, fmt.Errorf("更新实时状态失败: %w", err)
		}
		if err := m.actions.CheckOut(ctx); err != nil {
			if !IsAlreadyCheckedOut(err) {
				return true, fmt.Errorf("签退失败: %w", err)
			}
			m.logger.Info("签退请求被判定为重复提交，按成功处理", zap.Error(err))
		}
		return true, nil
	})
	if err != nil {
		// 闸门保持打开，用户可重试或取消
		return err
	}

	m.gate.Cancel(PromptLogout)

	if err := m.actions.SignOut(ctx); err != nil {
		err = fmt.Errorf("退出登录失败: %w", err)
		m.notifier.Alert("已签退，但退出登录失败", err)
		return err
	}
	return nil
}

// CancelOffWork 取消下班，无副作用
func (m *Machine) CancelOffWork() {
	m.gate.Cancel(PromptLogout)
}

// ────────────────────── 加班确认 ──────────────────────

// OfferOvertime 挂起加班询问（对账发现今日已签退时调用）
func (m *Machine) OfferOvertime() {
	m.gate.Raise(PromptOvertimeResume)
}

// ConfirmOvertime 开始加班：写实时状态 OVERTIME → 加班签到（即便今天已签退也新开一条记录）
func (m *Machine) ConfirmOvertime(ctx context.Context) error {
	current, err := m.beginConfirm(PromptOvertimeResume)
	if err != nil {
		return err
	}

	err = m.execute(ctx, current, StatusOvertime, func(ctx context.Context) (bool, error) {
		if err := m.actions.SetRealtimeStatus(ctx, StatusOvertime); err != nil {
			return false, fmt.Errorf("更新实时状态失败: %w", err)
		}
		if err := m.actions.OvertimeCheckIn(ctx); err != nil {
			if !IsAlreadyCheckedIn(err) {
				return true, fmt.Errorf("加班签到失败: %w", err)
			}
			m.logger.Info("加班签到请求被判定为重复提交，按成功处理", zap.Error(err))
		}
		m.notifier.Notify(NoticeOvertimeStarted)
		return true, nil
	})
	if err != nil {
		return err
	}

	m.gate.Cancel(PromptOvertimeResume)
	return nil
}

// CancelOvertime 拒绝加班询问，保持 OFF_WORK
func (m *Machine) CancelOvertime() {
	m.gate.Cancel(PromptOvertimeResume)
}

// ── 内部 ──

// beginConfirm 校验闸门并占用在途标记
func (m *Machine) beginConfirm(p Prompt) (WorkStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.changing {
		return "", ErrBusy
	}
	if !m.gate.Awaiting(p) {
		return "", ErrNotAwaiting
	}
	m.changing = true
	return m.status, nil
}

// execute 顺序执行副作用；全部成功才提交 target。
// step 返回的 landed 表示是否已有副作用写入服务端，用于失败时标记 Stale。
func (m *Machine) execute(ctx context.Context, from, target WorkStatus, step func(context.Context) (bool, error)) error {
	landed, err := step(ctx)

	m.mu.Lock()
	m.changing = false
	if err != nil {
		if landed {
			m.stale = true
		}
		m.mu.Unlock()

		m.logger.Warn("状态切换失败",
			zap.String("from", string(from)),
			zap.String("to", string(target)),
			zap.Bool("partially_applied", landed),
			zap.Error(err),
		)
		m.notifier.Alert("状态切换失败，请稍后重试", err)
		return err
	}
	m.status = target
	m.stale = false
	m.mu.Unlock()

	m.logger.Info("状态切换完成",
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	return nil
}
