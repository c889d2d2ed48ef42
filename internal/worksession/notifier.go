package worksession

import "go.uber.org/zap"

// LogNotifier 把提示写入日志，供无界面场景使用
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(message string) {
	n.Logger.Info(message)
}

func (n LogNotifier) Alert(message string, err error) {
	n.Logger.Error(message, zap.Error(err))
}
