package worksession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CorrectionRequestType 更正申请的类型标识
const CorrectionRequestType = "attendance_correction"

// correctionReasonPrefix 标记申请来源为自动签退补救
const correctionReasonPrefix = "[自动签退更正] "

// ── 补救流程错误 ──

var (
	ErrRecordNotPending         = errors.New("该记录不在待处理列表中")
	ErrRecordResolving          = errors.New("该记录正在处理中")
	ErrCorrectionTimeRequired   = errors.New("请填写更正后的签退时间")
	ErrCorrectionTimeInvalid    = errors.New("签退时间格式应为 HH:MM")
	ErrCorrectionReasonRequired = errors.New("请填写更正原因")
)

// CorrectionInput 用户填写的更正内容
type CorrectionInput struct {
	CheckOut string // HH:MM
	Reason   string
}

// Validate 本地校验，失败时不会发出任何请求
func (in CorrectionInput) Validate() error {
	t := strings.TrimSpace(in.CheckOut)
	if t == "" {
		return ErrCorrectionTimeRequired
	}
	if _, err := time.Parse("15:04", t); err != nil {
		return ErrCorrectionTimeInvalid
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrCorrectionReasonRequired
	}
	return nil
}

// Recovery 自动签退补救流程：逐条由用户选择"确认无误"或"申请更正"。
// 独立于状态机运行，不阻塞状态切换。
type Recovery struct {
	resolver AutoCheckoutResolver
	notifier Notifier
	logger   *zap.Logger
	loc      *time.Location

	mu        sync.Mutex
	pending   []AutoCheckoutRecord
	visible   bool
	resolving map[string]bool
}

// NewRecovery 创建 Recovery；loc 用于把签到/签退时间格式化为 HH:MM
func NewRecovery(resolver AutoCheckoutResolver, notifier Notifier, logger *zap.Logger, loc *time.Location) *Recovery {
	if loc == nil {
		loc = time.Local
	}
	return &Recovery{
		resolver:  resolver,
		notifier:  notifier,
		logger:    logger,
		loc:       loc,
		resolving: make(map[string]bool),
	}
}

// Present 合并新记录（按 ID 去重）并弹出提示；空列表不改变当前展示
func (r *Recovery) Present(records []AutoCheckoutRecord) {
	if len(records) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(r.pending))
	for _, rec := range r.pending {
		seen[rec.ID] = true
	}
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		r.pending = append(r.pending, rec)
	}
	r.visible = len(r.pending) > 0
}

// Visible 提示是否处于展示状态
func (r *Recovery) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Pending 当前待处理记录的副本
func (r *Recovery) Pending() []AutoCheckoutRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AutoCheckoutRecord, len(r.pending))
	copy(out, r.pending)
	return out
}

// Dismiss "稍后处理"：只隐藏提示，不修改任何记录，下次对账会再次出现
func (r *Recovery) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = false
	r.pending = nil
}

// DefaultCorrection 以自动签退时间预填更正表单
func (r *Recovery) DefaultCorrection(id string) (CorrectionInput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.find(id)
	if !ok {
		return CorrectionInput{}, ErrRecordNotPending
	}
	return CorrectionInput{CheckOut: rec.CheckOutAt.In(r.loc).Format("15:04")}, nil
}

// ────────────────────── Confirm ──────────────────────

// Confirm 确认自动签退时间无误
func (r *Recovery) Confirm(ctx context.Context, id string) error {
	if _, err := r.acquire(id); err != nil {
		return err
	}
	defer r.release(id)

	if err := r.resolver.ConfirmAutoCheckout(ctx, id); err != nil {
		r.logger.Warn("确认自动签退记录失败", zap.String("id", id), zap.Error(err))
		r.notifier.Alert("确认失败，请稍后重试", err)
		return fmt.Errorf("确认自动签退记录失败: %w", err)
	}

	r.remove(id)
	return nil
}

// ────────────────────── RequestCorrection ──────────────────────

// RequestCorrection 提交更正申请并标记记录已确认。
// 记录本身的签退时间不会被修改，只有审批通过后才生效。
// 两次调用视为一个整体：创建申请失败时不会再标记确认。
func (r *Recovery) RequestCorrection(ctx context.Context, id string, in CorrectionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	rec, err := r.acquire(id)
	if err != nil {
		return err
	}
	defer r.release(id)

	req := CorrectionRequest{
		RequestType: CorrectionRequestType,
		StartDate:   rec.WorkDate,
		EndDate:     rec.WorkDate,
		StartTime:   rec.CheckInAt.In(r.loc).Format("15:04"),
		EndTime:     strings.TrimSpace(in.CheckOut),
		Reason:      correctionReasonPrefix + strings.TrimSpace(in.Reason),
	}

	if err := r.resolver.CreateCorrectionRequest(ctx, req); err != nil {
		r.logger.Warn("创建更正申请失败", zap.String("id", id), zap.Error(err))
		r.notifier.Alert("提交更正申请失败，请稍后重试", err)
		return fmt.Errorf("创建更正申请失败: %w", err)
	}

	if err := r.resolver.ConfirmAutoCheckout(ctx, id); err != nil {
		r.logger.Warn("更正申请已创建，但标记确认失败", zap.String("id", id), zap.Error(err))
		r.notifier.Alert("更正申请已提交，但记录状态更新失败，请稍后重试", err)
		return fmt.Errorf("标记自动签退记录失败: %w", err)
	}

	r.remove(id)
	r.notifier.Notify("更正申请已提交，等待管理员审批")
	return nil
}

// ── 内部 ──

func (r *Recovery) find(id string) (AutoCheckoutRecord, bool) {
	for _, rec := range r.pending {
		if rec.ID == id {
			return rec, true
		}
	}
	return AutoCheckoutRecord{}, false
}

func (r *Recovery) acquire(id string) (AutoCheckoutRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.find(id)
	if !ok {
		return AutoCheckoutRecord{}, ErrRecordNotPending
	}
	if r.resolving[id] {
		return AutoCheckoutRecord{}, ErrRecordResolving
	}
	r.resolving[id] = true
	return rec, nil
}

func (r *Recovery) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolving, id)
}

// remove 移出队列；队列清空时自动关闭提示
func (r *Recovery) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.pending {
		if rec.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	if len(r.pending) == 0 {
		r.visible = false
	}
}
