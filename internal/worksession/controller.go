package worksession

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Option Controller 构造选项
type Option func(*options)

type options struct {
	noticeSeed int64
	loc        *time.Location
}

// WithNoticeSeed 固定欢迎语的随机种子
func WithNoticeSeed(seed int64) Option {
	return func(o *options) { o.noticeSeed = seed }
}

// WithLocation 设置展示与更正申请所用时区
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Controller 单个用户会话的唯一控制器实例：对账 + 状态机 + 补救流程。
// 由展示层显式持有，不存在全局单例。
type Controller struct {
	reconciler *Reconciler
	machine    *Machine
	recovery   *Recovery
	logger     *zap.Logger
}

// NewController 组装 Controller，所有副作用经由 backend 与 notifier
func NewController(backend Backend, notifier Notifier, logger *zap.Logger, opts ...Option) *Controller {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	recovery := NewRecovery(backend, notifier, logger, o.loc)
	machine := NewMachine(backend, notifier, NewNoticePicker(o.noticeSeed), logger)
	// 签到响应中的自动签退历史转交补救流程，不阻塞签到
	machine.OnAutoCheckoutHistory(recovery.Present)

	return &Controller{
		reconciler: NewReconciler(backend, logger),
		machine:    machine,
		recovery:   recovery,
		logger:     logger,
	}
}

// Machine 状态机
func (c *Controller) Machine() *Machine { return c.machine }

// Recovery 补救流程
func (c *Controller) Recovery() *Recovery { return c.recovery }

// Start 会话启动：对账并据此初始化状态机与各类提示
func (c *Controller) Start(ctx context.Context) Result {
	return c.Refresh(ctx)
}

// Refresh 重新对账；切换在途时只更新提示，不覆盖状态
func (c *Controller) Refresh(ctx context.Context) Result {
	result := c.reconciler.Reconcile(ctx)

	if !c.machine.Seed(result.Status) {
		c.logger.Info("状态切换在途，跳过本次对账的状态覆盖")
	} else if result.OfferOvertime {
		c.machine.OfferOvertime()
	} else if result.Status != StatusOffWork {
		// 会话已在别处恢复，过期的加班询问不再有效
		c.machine.CancelOvertime()
	}
	if result.NeedsRecovery() {
		c.recovery.Present(result.AutoCheckouts)
	}
	return result
}
