package worksession

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Result 一次对账的结论
type Result struct {
	Status WorkStatus
	// OfferOvertime 今天已签退，需要询问是否开始加班，不能静默恢复工作
	OfferOvertime bool
	// AutoCheckouts 待用户处理的自动签退记录，与 Status 的计算相互独立
	AutoCheckouts []AutoCheckoutRecord

	Attendance AttendanceStatus
	Realtime   WorkStatus
}

// NeedsRecovery 是否需要弹出自动签退补救提示
func (r Result) NeedsRecovery() bool {
	return len(r.AutoCheckouts) > 0
}

// Reconciler 会话启动时把三项独立存储的信号合并为唯一的 WorkStatus
type Reconciler struct {
	reader StatusReader
	logger *zap.Logger
}

// NewReconciler 创建 Reconciler
func NewReconciler(reader StatusReader, logger *zap.Logger) *Reconciler {
	return &Reconciler{reader: reader, logger: logger}
}

// Reconcile 并发读取三项输入并给出结论。
// 任一读取失败只记录日志并按"无数据"处理，本方法永远返回结果。
func (r *Reconciler) Reconcile(ctx context.Context) Result {
	var (
		wg         sync.WaitGroup
		attendance AttendanceStatus
		realtime   WorkStatus
		pending    []AutoCheckoutRecord
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		s, err := r.reader.AttendanceStatus(ctx)
		if err != nil {
			r.logger.Warn("获取考勤状态失败，按未签到处理", zap.Error(err))
			return
		}
		attendance = s
	}()
	go func() {
		defer wg.Done()
		s, err := r.reader.RealtimeStatus(ctx)
		if err != nil {
			r.logger.Warn("获取实时状态失败，按无记录处理", zap.Error(err))
			return
		}
		realtime = s
	}()
	go func() {
		defer wg.Done()
		list, err := r.reader.PendingAutoCheckouts(ctx)
		if err != nil {
			r.logger.Warn("获取自动签退记录失败，按空列表处理", zap.Error(err))
			return
		}
		pending = list
	}()
	wg.Wait()

	status, offer := Decide(attendance, realtime)

	r.logger.Debug("状态对账完成",
		zap.String("status", string(status)),
		zap.Bool("offer_overtime", offer),
		zap.Int("auto_checkouts", len(pending)),
	)

	return Result{
		Status:        status,
		OfferOvertime: offer,
		AutoCheckouts: pending,
		Attendance:    attendance,
		Realtime:      realtime,
	}
}

// Decide 对账决策表（按顺序匹配）：
//  1. 存在未签退记录：会话延续（跨夜亦然），取实时状态，实时状态缺失或为 OFF_WORK 时取 WORKING
//  2. 今天已签退且非跨夜：OFF_WORK，并询问是否加班
//  3. 其余：OFF_WORK
//
// 考勤记录的开闭是权威信号，实时状态只作参考。
func Decide(attendance AttendanceStatus, realtime WorkStatus) (WorkStatus, bool) {
	if attendance.Open() {
		if realtime.Valid() && realtime != StatusOffWork {
			return realtime, false
		}
		return StatusWorking, false
	}
	if attendance.HasCheckedOut && !attendance.IsOvernightWork {
		return StatusOffWork, true
	}
	return StatusOffWork, false
}
