package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tkaykim/totalmanagement-sub001/config"
)

// Option 附加在构建后的日志器上
type Option func(*zap.Config)

// WithApp 为每条日志附加 app 字段，区分服务端与终端客户端写入同一收集端的日志
func WithApp(name string) Option {
	return func(c *zap.Config) {
		if c.InitialFields == nil {
			c.InitialFields = make(map[string]interface{})
		}
		c.InitialFields["app"] = name
	}
}

// NewLogger 按 log 配置构建 zap 日志器。
// format=console 为彩色开发格式，其余为 JSON；output 可为 stderr、stdout 或文件路径。
func NewLogger(cfg *config.LogConfig, opts ...Option) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// 写文件时关闭颜色，避免日志里出现转义序列
	if out := cfg.Output; out != "" {
		zapCfg.OutputPaths = []string{out}
		zapCfg.ErrorOutputPaths = []string{out}
		if out != "stderr" && out != "stdout" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	for _, opt := range opts {
		opt(&zapCfg)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}
	return logger, nil
}
