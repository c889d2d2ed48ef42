package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tkaykim/totalmanagement-sub001/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"})
	if err == nil {
		t.Error("无效日志级别应返回错误")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punch.log")
	logger, err := NewLogger(&config.LogConfig{Level: "info", Format: "console", Output: path})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	logger.Info("写入文件")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if len(data) == 0 {
		t.Error("日志文件不应为空")
	}
}

func TestNewLogger_AppField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, err := NewLogger(&config.LogConfig{Level: "info", Format: "json", Output: path}, WithApp("server"))
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	logger.Info("启动")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), `"app":"server"`) {
		t.Errorf("日志应包含 app 字段，实际: %s", data)
	}
}

func TestNewLogger_FileOutputHasNoColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punch.log")
	logger, err := NewLogger(&config.LogConfig{Level: "info", Format: "console", Output: path})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	logger.Warn("提醒")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "\x1b[") {
		t.Error("写入文件的日志不应包含颜色转义序列")
	}
}
