// punch 终端打卡客户端：登录后对账，并通过键盘切换工作状态
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/client"
	"github.com/tkaykim/totalmanagement-sub001/internal/tui"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
	applogger "github.com/tkaykim/totalmanagement-sub001/pkg/logger"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
		once       = pflag.Bool("once", false, "只对账并打印当前状态，不进入交互界面")
		logFile    = pflag.String("log-file", "", "日志文件路径（交互模式下默认写入临时目录）")
		envFile    = pflag.String("env-file", ".env", "环境变量文件，可存放 TM_CLIENT_PASSWORD 等凭据")
	)
	pflag.Parse()

	if _, err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := run(*configPath, *logFile, *once); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logFile string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	// 交互界面占用终端，日志不能写到 stderr/stdout
	switch {
	case logFile != "":
		cfg.Log.Output = logFile
	case !once && (cfg.Log.Output == "" || cfg.Log.Output == "stderr" || cfg.Log.Output == "stdout"):
		cfg.Log.Output = filepath.Join(os.TempDir(), "punch.log")
	}
	logger, err := applogger.NewLogger(&cfg.Log, applogger.WithApp("punch"))
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl, err := client.New(client.Config{BaseURL: cfg.Client.BaseURL, Timeout: cfg.Client.Timeout}, logger)
	if err != nil {
		return err
	}
	user, err := cl.Login(ctx, cfg.Client.EmployeeNo, cfg.Client.Password)
	if err != nil {
		return err
	}

	loc := cfg.Attendance.Location()
	opts := []worksession.Option{
		worksession.WithLocation(loc),
		worksession.WithNoticeSeed(cfg.Client.NoticeSeed),
	}

	if once {
		ctrl := worksession.NewController(cl, worksession.LogNotifier{Logger: logger}, logger, opts...)
		result := ctrl.Start(ctx)
		fmt.Printf("%s  当前状态：%s\n", user.Name, result.Status.Label())
		if result.OfferOvertime {
			fmt.Println("今日已签退，可在交互界面中开始加班")
		}
		if result.NeedsRecovery() {
			fmt.Printf("有 %d 条自动签退记录待确认\n", len(result.AutoCheckouts))
		}
		return nil
	}

	notifier := tui.NewNotifier()
	ctrl := worksession.NewController(cl, notifier, logger, opts...)
	model := tui.New(ctx, ctrl, notifier, tui.Options{
		UserName: user.Name,
		Location: loc,
		Timeout:  cfg.Client.Timeout,
	})

	logger.Info("终端客户端启动", zap.String("user_id", user.ID), zap.String("base_url", cfg.Client.BaseURL))

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("运行界面失败: %w", err)
	}
	return nil
}
