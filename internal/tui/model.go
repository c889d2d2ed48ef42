// Package tui 终端打卡界面：持有唯一的 worksession.Controller，
// 所有状态变更都经由控制器完成，界面只负责按键映射与渲染。
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
)

type mode int

const (
	modeMain mode = iota
	modeCorrection
)

const (
	clockInterval  = time.Second
	defaultTimeout = 15 * time.Second
)

// ── 消息 ──

// tickMsg 时钟刷新，只用于展示
type tickMsg time.Time

type reconciledMsg struct {
	result worksession.Result
}

type actionMsg struct {
	action string
	err    error
}

const (
	actionRequest    = "request"
	actionOffWork    = "off_work"
	actionOvertime   = "overtime"
	actionConfirm    = "confirm"
	actionCorrection = "correction"
)

// Options 界面选项
type Options struct {
	UserName string
	Location *time.Location
	Timeout  time.Duration // 单次后端操作的超时
	Now      func() time.Time
}

// Model bubbletea 模型
type Model struct {
	ctx      context.Context
	ctrl     *worksession.Controller
	notifier *Notifier
	opts     Options

	now       time.Time
	ready     bool
	inflight  int
	signedOut bool

	// 自动签退补救面板
	cursor    int
	mode      mode
	editingID string
	inputs    []textinput.Model
	focus     int
	formErr   string
}

// New 创建界面模型；notifier 必须与构造 ctrl 时传入的是同一个实例
func New(ctx context.Context, ctrl *worksession.Controller, notifier *Notifier, opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	checkout := textinput.New()
	checkout.Placeholder = "HH:MM"
	checkout.CharLimit = 5
	checkout.Width = 8

	reason := textinput.New()
	reason.Placeholder = "更正原因"
	reason.CharLimit = 200
	reason.Width = 40

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		notifier: notifier,
		opts:     opts,
		now:      opts.Now(),
		inputs:   []textinput.Model{checkout, reason},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.reconcile())
}

func tick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) reconcile() tea.Cmd {
	ctx, ctrl, timeout := m.ctx, m.ctrl, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return reconciledMsg{result: ctrl.Refresh(ctx)}
	}
}

// run 在后台执行一次控制器操作
func (m *Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	m.inflight++
	ctx, timeout := m.ctx, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return actionMsg{action: action, err: fn(ctx)}
	}
}

// ────────────────────── Update ──────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case reconciledMsg:
		m.ready = true
		m.clampCursor()
		return m, nil

	case actionMsg:
		return m.handleAction(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.signedOut {
			return m, tea.Quit
		}
		if m.mode == modeCorrection {
			return m.updateForm(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if m.inflight > 0 {
		m.inflight--
	}

	switch msg.action {
	case actionOffWork:
		if msg.err == nil {
			m.signedOut = true
			return m, tea.Quit
		}
		// 已签退但退出登录失败：本地会话同样不可继续
		if m.ctrl.Machine().Status() == worksession.StatusOffWork && !m.ctrl.Machine().Gate().Awaiting(worksession.PromptLogout) {
			m.signedOut = true
			return m, tea.Quit
		}
	case actionCorrection:
		if msg.err == nil {
			m.closeForm()
		} else if isLocalValidation(msg.err) {
			m.formErr = msg.err.Error()
		}
	}

	if msg.err != nil && errors.Is(msg.err, worksession.ErrBusy) {
		m.notifier.Notify(worksession.ErrBusy.Error())
	}
	m.clampCursor()
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	machine := m.ctrl.Machine()
	recovery := m.ctrl.Recovery()
	key := msg.String()

	switch key {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.reconcile()
	case "1", "2", "3", "4", "5", "6":
		statuses := worksession.AllStatuses()
		target := statuses[int(key[0]-'1')]
		cmd := m.run(actionRequest, func(ctx context.Context) error {
			_, err := machine.Request(ctx, target)
			return err
		})
		return m, cmd
	case "y":
		switch {
		case machine.Gate().Awaiting(worksession.PromptLogout):
			cmd := m.run(actionOffWork, machine.ConfirmOffWork)
			return m, cmd
		case machine.Gate().Awaiting(worksession.PromptOvertimeResume):
			cmd := m.run(actionOvertime, machine.ConfirmOvertime)
			return m, cmd
		}
	case "n":
		machine.CancelOffWork()
		machine.CancelOvertime()
		return m, nil
	}

	if !recovery.Visible() {
		return m, nil
	}
	pending := recovery.Pending()
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(pending)-1 {
			m.cursor++
		}
	case "c":
		if m.cursor < len(pending) {
			id := pending[m.cursor].ID
			cmd := m.run(actionConfirm, func(ctx context.Context) error {
				return recovery.Confirm(ctx, id)
			})
			return m, cmd
		}
	case "e":
		if m.cursor < len(pending) {
			return m.openForm(pending[m.cursor].ID)
		}
	case "d":
		recovery.Dismiss()
		m.cursor = 0
	}
	return m, nil
}

// ── 更正表单 ──

func (m Model) openForm(id string) (tea.Model, tea.Cmd) {
	def, err := m.ctrl.Recovery().DefaultCorrection(id)
	if err != nil {
		m.notifier.Alert("无法打开更正表单", err)
		return m, nil
	}
	m.mode = modeCorrection
	m.editingID = id
	m.formErr = ""
	m.inputs[0].SetValue(def.CheckOut)
	m.inputs[1].SetValue("")
	m.focus = 0
	m.inputs[1].Blur()
	cmd := m.inputs[0].Focus()
	return m, cmd
}

func (m *Model) closeForm() {
	m.mode = modeMain
	m.editingID = ""
	m.formErr = ""
	for i := range m.inputs {
		m.inputs[i].Blur()
		m.inputs[i].SetValue("")
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		cmd := m.inputs[m.focus].Focus()
		return m, cmd
	case "enter":
		in := worksession.CorrectionInput{
			CheckOut: m.inputs[0].Value(),
			Reason:   m.inputs[1].Value(),
		}
		if err := in.Validate(); err != nil {
			m.formErr = err.Error()
			return m, nil
		}
		id, recovery := m.editingID, m.ctrl.Recovery()
		m.formErr = ""
		cmd := m.run(actionCorrection, func(ctx context.Context) error {
			return recovery.RequestCorrection(ctx, id, in)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Recovery().Pending())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func isLocalValidation(err error) bool {
	return errors.Is(err, worksession.ErrCorrectionTimeRequired) ||
		errors.Is(err, worksession.ErrCorrectionTimeInvalid) ||
		errors.Is(err, worksession.ErrCorrectionReasonRequired)
}

// ────────────────────── View ──────────────────────

func (m Model) View() string {
	if m.signedOut {
		return currentStyle.Render("已签退并退出登录，辛苦了。") + "\n"
	}

	var b strings.Builder
	machine := m.ctrl.Machine()

	title := "考勤终端"
	if m.opts.UserName != "" {
		title += " · " + m.opts.UserName
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("  ")
	b.WriteString(clockStyle.Render(m.now.In(m.opts.Location).Format("2006-01-02 15:04:05")))
	b.WriteString("\n\n")

	if !m.ready {
		b.WriteString(hintStyle.Render("正在同步考勤状态…"))
		b.WriteString("\n")
		return b.String()
	}

	current := machine.Status()
	b.WriteString("当前状态：")
	b.WriteString(currentStyle.Render(current.Label()))
	if machine.Busy() || m.inflight > 0 {
		b.WriteString(hintStyle.Render("  处理中…"))
	}
	if machine.Stale() {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("状态可能与服务端不一致，按 r 重新同步"))
	}
	b.WriteString("\n\n")

	var opts []string
	for i, s := range worksession.AllStatuses() {
		label := fmt.Sprintf("[%d] %s", i+1, s.Label())
		if s == current {
			opts = append(opts, currentStyle.Render(label))
		} else {
			opts = append(opts, optionStyle.Render(label))
		}
	}
	b.WriteString(strings.Join(opts, "  "))
	b.WriteString("\n")

	if p := m.promptView(); p != "" {
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString("\n")
	}

	if panel := m.recoveryView(); panel != "" {
		b.WriteString("\n")
		b.WriteString(panel)
		b.WriteString("\n")
	}

	if notices := m.notifier.Recent(); len(notices) > 0 {
		b.WriteString("\n")
		for _, n := range notices {
			line := n.At.In(m.opts.Location).Format("15:04") + " " + n.Text
			if n.Alert {
				b.WriteString(alertStyle.Render(line))
			} else {
				b.WriteString(hintStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[1-6] 切换状态  [r] 重新同步  [q] 退出"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) promptView() string {
	gate := m.ctrl.Machine().Gate()
	switch {
	case gate.Awaiting(worksession.PromptLogout):
		return promptStyle.Render("确认下班？将签退并退出登录。  [y] 确认  [n] 取消")
	case gate.Awaiting(worksession.PromptOvertimeResume):
		return promptStyle.Render("今日已签退，是否开始加班？  [y] 开始加班  [n] 暂不")
	}
	return ""
}

func (m Model) recoveryView() string {
	recovery := m.ctrl.Recovery()
	if !recovery.Visible() {
		return ""
	}
	pending := recovery.Pending()

	var b strings.Builder
	b.WriteString(warnStyle.Render("以下记录由系统自动签退，请确认或申请更正："))
	b.WriteString("\n")
	for i, rec := range pending {
		line := fmt.Sprintf("%s  签到 %s  自动签退 %s",
			rec.WorkDate,
			rec.CheckInAt.In(m.opts.Location).Format("15:04"),
			rec.CheckOutAt.In(m.opts.Location).Format("01-02 15:04"),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.mode == modeCorrection {
		b.WriteString("\n更正签退时间 ")
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n原因 ")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")
		if m.formErr != "" {
			b.WriteString(alertStyle.Render(m.formErr))
			b.WriteString("\n")
		}
		b.WriteString(hintStyle.Render("[tab] 切换  [enter] 提交  [esc] 取消"))
	} else {
		b.WriteString(hintStyle.Render("[↑/↓] 选择  [c] 确认无误  [e] 申请更正  [d] 稍后处理"))
	}
	return panelStyle.Render(b.String())
}
